package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-sql/civil"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/miles/internal/mileage"
	"github.com/mesh-intelligence/miles/internal/race"
	"github.com/mesh-intelligence/miles/internal/report"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// blockView is a block with its week count.
type blockView struct {
	*types.Block
	Weeks int `json:"weeks"`
}

// resizeView reports an extend or shrink.
type resizeView struct {
	Block     string `json:"block"`
	Requested int    `json:"requested"`
	Changed   int    `json:"changed"`
	Weeks     int    `json:"weeks"`
}

// positionView is a date located in a block.
type positionView struct {
	Block      string     `json:"block"`
	WeekNumber int        `json:"week_number"`
	DayNumber  int        `json:"day_number"`
	Date       civil.Date `json:"date"`
	Weekday    string     `json:"weekday"`
}

func newBlockCmd(opts *options) *cobra.Command {
	cmd := groupCmd("block", "Manage training blocks")
	cmd.AddCommand(
		newBlockCreateCmd(opts),
		newBlockListCmd(opts),
		newBlockShowCmd(opts),
		newBlockExtendCmd(opts),
		newBlockShrinkCmd(opts),
		newBlockDeleteCmd(opts),
		newBlockGoalCmd(opts),
		newBlockLogCmd(opts),
		newBlockDateCmd(opts),
		newBlockTodayCmd(opts),
		newBlockExportCmd(opts),
	)
	return cmd
}

func newBlockCreateCmd(opts *options) *cobra.Command {
	var start string
	var weeks int
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a training block",
		Long:  "Create a block of --weeks weeks whose first day is --start (default today).",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate := civil.DateOf(opts.now())
			if start != "" {
				d, err := parseDate(start)
				if err != nil {
					return err
				}
				startDate = d
			}
			return opts.withSession(func(s *session) error {
				id, err := s.blocks.Create(args[0], startDate, weeks)
				if err != nil {
					return err
				}
				if opts.jsonMode {
					blk, err := s.blocks.Get(id)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), blockView{Block: blk, Weeks: weeks})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created block %q: %d weeks from %s\n", args[0], weeks, startDate)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day of the block (YYYY-MM-DD)")
	cmd.Flags().IntVar(&weeks, "weeks", 1, "number of weeks")
	return cmd
}

func newBlockListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List training blocks",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(func(s *session) error {
				blocks, err := s.blocks.List()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !opts.jsonMode {
					fmt.Fprintln(out, "----------------------")
					fmt.Fprintln(out, "   training blocks:")
					fmt.Fprintln(out, "----------------------")
					for _, blk := range blocks {
						fmt.Fprintln(out, blk.Name)
					}
					return nil
				}
				views := make([]blockView, 0, len(blocks))
				for _, blk := range blocks {
					n, err := s.blocks.Weeks(blk.BlockID)
					if err != nil {
						return err
					}
					views = append(views, blockView{Block: blk, Weeks: n})
				}
				return printJSON(out, views)
			})
		},
	}
}

func newBlockShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print a block's weekly mileage table",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(func(s *session) error {
				blk, err := s.blocks.ByName(args[0])
				if err != nil {
					return err
				}
				rows, err := s.mileage.Render(blk.BlockID)
				if err != nil {
					return err
				}
				summary, err := s.mileage.Summarize(blk.BlockID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonMode {
					return printJSON(out, struct {
						Block   *types.Block    `json:"block"`
						Rows    []mileage.Row   `json:"rows"`
						Summary mileage.Summary `json:"summary"`
					}{blk, rows, summary})
				}
				printCalendar(out, rows)
				if summary.Weeks > 0 {
					fmt.Fprintf(out, "%d weeks, %s to %s: %d of %d miles\n",
						summary.Weeks, summary.Start, summary.End, summary.TotalMiles, summary.TotalGoal)
				}
				return nil
			})
		},
	}
}

func newBlockExtendCmd(opts *options) *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "extend NAME",
		Short: "Append weeks to the end of a block",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(func(s *session) error {
				blk, err := s.blocks.ByName(args[0])
				if err != nil {
					return err
				}
				added, err := s.blocks.Extend(blk.BlockID, weeks)
				partial := errors.Is(err, types.ErrCapacity)
				if err != nil && !partial {
					return err
				}
				msg := fmt.Sprintf("added %d weeks to %q", added, blk.Name)
				if partial {
					msg = fmt.Sprintf("added %d of %d weeks to %q: block is at the %d-week limit",
						added, weeks, blk.Name, types.MaxWeeks)
				}
				return s.printResize(cmd, opts, blk, weeks, added, msg)
			})
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 1, "number of weeks to add")
	return cmd
}

func newBlockShrinkCmd(opts *options) *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "shrink NAME",
		Short: "Remove weeks from the end of a block",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(func(s *session) error {
				blk, err := s.blocks.ByName(args[0])
				if err != nil {
					return err
				}
				removed, err := s.blocks.Shrink(blk.BlockID, weeks)
				partial := errors.Is(err, types.ErrEmpty)
				if err != nil && !partial {
					return err
				}
				msg := fmt.Sprintf("removed %d weeks from %q", removed, blk.Name)
				if partial {
					msg = fmt.Sprintf("removed %d of %d weeks from %q: block has no weeks left",
						removed, weeks, blk.Name)
				}
				return s.printResize(cmd, opts, blk, weeks, removed, msg)
			})
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 1, "number of weeks to remove")
	return cmd
}

func (s *session) printResize(cmd *cobra.Command, opts *options, blk *types.Block, requested, changed int, msg string) error {
	if !opts.jsonMode {
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}
	n, err := s.blocks.Weeks(blk.BlockID)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resizeView{Block: blk.Name, Requested: requested, Changed: changed, Weeks: n})
}

func newBlockDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a block with all its weeks and days",
		Long:  "Delete a block. Races in the block stay on the same dates, outside any block.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(func(s *session) error {
				blk, err := s.blocks.ByName(args[0])
				if err != nil {
					return err
				}
				if err := s.blocks.Destroy(blk.BlockID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted block %q\n", blk.Name)
				return nil
			})
		},
	}
}

func newBlockGoalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "goal NAME WEEK MILES",
		Short: "Set the mileage goal of a week",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := parseInt("week", args[1])
			if err != nil {
				return err
			}
			goal, err := parseInt("goal", args[2])
			if err != nil {
				return err
			}
			return opts.withSession(func(s *session) error {
				blk, err := s.blocks.ByName(args[0])
				if err != nil {
					return err
				}
				if err := s.blocks.SetGoal(blk.BlockID, week, goal); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "week %d goal: %d\n", week, goal)
				return nil
			})
		},
	}
}

func newBlockLogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "log NAME WEEK DAY MILES",
		Short: "Record the miles run on a day",
		Args:  exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := parseInt("week", args[1])
			if err != nil {
				return err
			}
			day, err := parseInt("day", args[2])
			if err != nil {
				return err
			}
			miles, err := parseInt("miles", args[3])
			if err != nil {
				return err
			}
			return opts.withSession(func(s *session) error {
				blk, err := s.blocks.ByName(args[0])
				if err != nil {
					return err
				}
				if err := s.blocks.SetMiles(blk.BlockID, week, day, miles); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "week %d, day %d: %d miles\n", week, day, miles)
				return nil
			})
		},
	}
}

func newBlockDateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "date NAME WEEK DAY",
		Short: "Print the date of a week and day",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := parseInt("week", args[1])
			if err != nil {
				return err
			}
			day, err := parseInt("day", args[2])
			if err != nil {
				return err
			}
			return opts.withSession(func(s *session) error {
				blk, err := s.blocks.ByName(args[0])
				if err != nil {
					return err
				}
				date, err := s.blocks.DateAt(blk.BlockID, week, day)
				if err != nil {
					return err
				}
				return printPosition(cmd, opts, blk.Name, week, day, date)
			})
		},
	}
}

func newBlockTodayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "today NAME",
		Short: "Print today's week and day in a block",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			today := civil.DateOf(opts.now())
			return opts.withSession(func(s *session) error {
				blk, err := s.blocks.ByName(args[0])
				if err != nil {
					return err
				}
				pos, err := s.blocks.Locate(blk.BlockID, today)
				if errors.Is(err, types.ErrDayNotFound) {
					return fmt.Errorf("%s is not in block %q: %w", today, blk.Name, types.ErrDayNotFound)
				}
				if err != nil {
					return err
				}
				return printPosition(cmd, opts, blk.Name, pos.WeekNumber, pos.DayNumber, pos.Date)
			})
		},
	}
}

func printPosition(cmd *cobra.Command, opts *options, block string, week, day int, date civil.Date) error {
	if opts.jsonMode {
		return printJSON(cmd.OutOrStdout(), positionView{
			Block:      block,
			WeekNumber: week,
			DayNumber:  day,
			Date:       date,
			Weekday:    date.In(time.UTC).Weekday().String(),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), datePosition(week, day, date))
	return nil
}

func newBlockExportCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export NAME",
		Short: "Write a block and its races to an .xlsx workbook",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return usagef("--out is required")
			}
			return opts.withSession(func(s *session) error {
				blk, err := s.blocks.ByName(args[0])
				if err != nil {
					return err
				}
				rows, err := s.mileage.Render(blk.BlockID)
				if err != nil {
					return err
				}
				races, err := s.races.List(blk.BlockID)
				if err != nil {
					return err
				}
				if err := writeReport(out, blk, rows, races); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %q to %s\n", blk.Name, out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .xlsx file")
	return cmd
}

func writeReport(path string, blk *types.Block, rows []mileage.Row, races []race.Entry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	if err := report.Write(f, blk, rows, races); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
