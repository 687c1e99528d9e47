package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/mesh-intelligence/miles/internal/mileage"
	"github.com/mesh-intelligence/miles/internal/race"
)

const (
	tableBorder = "----------------------------------------------------------------"
	tableHeader = "| week |  1  |  2  |  3  |  4  |  5  |  6  |  7  | total(goal) |"
	tableFooter = "|--------------------------------------------------------------|"
	raceBorder  = "--------------------------------------------"
	raceHeader  = "    date    |  name,  miles,  url"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printCalendar writes the week-by-day mileage table. Zero days show as ".".
func printCalendar(w io.Writer, rows []mileage.Row) {
	fmt.Fprintln(w, tableBorder)
	fmt.Fprintln(w, tableHeader)
	fmt.Fprintln(w, tableBorder)
	for _, row := range rows {
		var b strings.Builder
		fmt.Fprintf(&b, "  %2d   |  ", row.WeekNumber)
		for _, miles := range row.Miles {
			b.WriteString(dayCell(miles))
		}
		b.WriteString(totalCell(row.Total, row.Goal))
		fmt.Fprintln(w, b.String())
	}
	fmt.Fprintln(w, tableFooter)
}

func dayCell(miles int) string {
	switch {
	case miles == 0:
		return ".     "
	case miles > 9:
		return fmt.Sprintf("%d    ", miles)
	default:
		return fmt.Sprintf("%d     ", miles)
	}
}

func totalCell(total, goal int) string {
	switch {
	case total < 10:
		return fmt.Sprintf("  %d (%d)", total, goal)
	case total > 99:
		return fmt.Sprintf("%d (%d)", total, goal)
	default:
		return fmt.Sprintf(" %d (%d)", total, goal)
	}
}

// printRaces writes the race list, or a notice when there are none.
func printRaces(w io.Writer, entries []race.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no races found!")
		return
	}
	fmt.Fprintln(w, raceBorder)
	fmt.Fprintln(w, raceHeader)
	fmt.Fprintln(w, raceBorder)
	for _, e := range entries {
		fmt.Fprintln(w, raceLine(e))
	}
	fmt.Fprintln(w, raceBorder)
}

func printRace(w io.Writer, e race.Entry) {
	fmt.Fprintln(w, raceBorder)
	fmt.Fprintln(w, raceLine(e))
	fmt.Fprintln(w, raceBorder)
}

func raceLine(e race.Entry) string {
	link := e.URL
	if link == "" {
		link = "none"
	}
	return fmt.Sprintf(" %s |  %s,  %s,  %s", e.Date, e.Name, formatMiles(e.Miles), link)
}

func formatMiles(miles float64) string {
	return strconv.FormatFloat(miles, 'f', -1, 64)
}

// datePosition formats a block position as "week W, day D: weekday DATE".
func datePosition(week, day int, date civil.Date) string {
	weekday := strings.ToLower(date.In(time.UTC).Weekday().String())
	return fmt.Sprintf("week %d, day %d: %s %s", week, day, weekday, date)
}
