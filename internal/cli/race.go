package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRaceCmd(opts *options) *cobra.Command {
	cmd := groupCmd("race", "Manage races")
	cmd.AddCommand(
		newRaceAddCmd(opts),
		newRaceListCmd(opts),
		newRaceShowCmd(opts),
		newRaceMoveCmd(opts),
		newRaceRenameCmd(opts),
		newRaceMilesCmd(opts),
		newRaceURLCmd(opts),
		newRaceDeleteCmd(opts),
	)
	return cmd
}

func newRaceAddCmd(opts *options) *cobra.Command {
	var date, miles, link, blockName string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a race on a date",
		Long: "Add a race. With --block the race goes on that block's day for --date;\n" +
			"otherwise it reuses any stored day on the date or gets a day of its own.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" || miles == "" {
				return usagef("--date and --miles are required")
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			m, err := parseMiles(miles)
			if err != nil {
				return err
			}
			return opts.withSession(func(s *session) error {
				blockID := ""
				if blockName != "" {
					blk, err := s.blocks.ByName(blockName)
					if err != nil {
						return err
					}
					blockID = blk.BlockID
				}
				id, err := s.races.Attach(args[0], d, m, link, blockID)
				if err != nil {
					return err
				}
				return s.printRaceResult(cmd, opts, id, "added race")
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "race date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&miles, "miles", "", "race distance in miles")
	cmd.Flags().StringVar(&link, "url", "", "race web page")
	cmd.Flags().StringVar(&blockName, "block", "", "training block the race belongs to")
	return cmd
}

func newRaceListCmd(opts *options) *cobra.Command {
	var blockName string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List races by date",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(func(s *session) error {
				blockID := ""
				if blockName != "" {
					blk, err := s.blocks.ByName(blockName)
					if err != nil {
						return err
					}
					blockID = blk.BlockID
				}
				entries, err := s.races.List(blockID)
				if err != nil {
					return err
				}
				if opts.jsonMode {
					return printJSON(cmd.OutOrStdout(), entries)
				}
				printRaces(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&blockName, "block", "", "only races in this training block")
	return cmd
}

func newRaceShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print a race",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(func(s *session) error {
				e, err := s.races.ByName(args[0])
				if err != nil {
					return err
				}
				if opts.jsonMode {
					return printJSON(cmd.OutOrStdout(), e)
				}
				printRace(cmd.OutOrStdout(), e)
				return nil
			})
		},
	}
}

func newRaceMoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move NAME DATE",
		Short: "Move a race to another date",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(args[1])
			if err != nil {
				return err
			}
			return opts.editRace(cmd, args[0], "moved race", func(s *session, id string) error {
				return s.races.Retarget(id, d)
			})
		},
	}
}

func newRaceRenameCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rename NAME NEW",
		Short: "Rename a race",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.editRace(cmd, args[0], "renamed race", func(s *session, id string) error {
				return s.races.Rename(id, args[1])
			})
		},
	}
}

func newRaceMilesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "miles NAME MILES",
		Short: "Change a race's distance",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseMiles(args[1])
			if err != nil {
				return err
			}
			return opts.editRace(cmd, args[0], "updated race", func(s *session, id string) error {
				return s.races.UpdateMiles(id, m)
			})
		},
	}
}

func newRaceURLCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "url NAME [URL]",
		Short: "Set or clear a race's web page",
		Args:  maxArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("race name is required")
			}
			link := ""
			if len(args) == 2 {
				link = args[1]
			}
			return opts.editRace(cmd, args[0], "updated race", func(s *session, id string) error {
				return s.races.UpdateURL(id, link)
			})
		},
	}
}

func newRaceDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a race",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(func(s *session) error {
				if err := s.races.DetachByName(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted race %q\n", args[0])
				return nil
			})
		},
	}
}

// editRace looks up a race by name, applies fn and prints the result.
func (o *options) editRace(cmd *cobra.Command, name, verb string, fn func(s *session, id string) error) error {
	return o.withSession(func(s *session) error {
		e, err := s.races.ByName(name)
		if err != nil {
			return err
		}
		if err := fn(s, e.RaceID); err != nil {
			return err
		}
		return s.printRaceResult(cmd, o, e.RaceID, verb)
	})
}

func (s *session) printRaceResult(cmd *cobra.Command, opts *options, id, verb string) error {
	e, err := s.races.Get(id)
	if err != nil {
		return err
	}
	if opts.jsonMode {
		return printJSON(cmd.OutOrStdout(), e)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", verb)
	printRace(cmd.OutOrStdout(), e)
	return nil
}
