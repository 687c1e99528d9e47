package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/miles/pkg/miles"
)

const modulePath = "github.com/mesh-intelligence/miles"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the miles version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "miles v%s\nmodule: %s\n", miles.Version, modulePath)
			return nil
		},
	}
}
