package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize miles storage",
		Long:  "Create the configuration and data directories, write a default config.yaml, then initialize the record store.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, dataDir, _, err := opts.dirs()
			if err != nil {
				return err
			}
			// Only an explicit --data-dir is recorded in config.yaml.
			pinned := ""
			if opts.dataDir != "" {
				pinned = dataDir
			}
			if _, err := writeConfigIfMissing(configDir, pinned); err != nil {
				return err
			}
			return opts.withSession(func(s *session) error {
				fmt.Fprintf(cmd.OutOrStdout(), "miles initialized in %s\n", dataDir)
				return nil
			})
		},
	}
}
