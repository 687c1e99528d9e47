package cli

import (
	"strconv"

	"github.com/golang-sql/civil"
	"github.com/spf13/cobra"
)

// parseDate parses a YYYY-MM-DD argument.
func parseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, usagef("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

// parseInt parses a whole-number argument named what.
func parseInt(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, usagef("invalid %s %q (want a whole number)", what, s)
	}
	return n, nil
}

// parseMiles parses a race distance.
func parseMiles(s string) (float64, error) {
	m, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, usagef("invalid miles %q (want a number)", s)
	}
	return m, nil
}

// groupCmd returns a parent command that prints help when run bare.
func groupCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
}
