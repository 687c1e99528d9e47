// Package mileage totals the miles recorded in a training block.
package mileage

import (
	"fmt"
	"sort"

	"github.com/golang-sql/civil"

	"github.com/mesh-intelligence/miles/internal/records"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// Row is one rendered week: miles per day number, their total and the goal.
type Row struct {
	WeekNumber int                    `json:"week_number"`
	Start      civil.Date             `json:"start"`
	Miles      [types.DaysPerWeek]int `json:"miles"`
	Total      int                    `json:"total"`
	Goal       int                    `json:"goal"`
}

// Summary totals a whole block.
type Summary struct {
	Weeks      int        `json:"weeks"`
	TotalMiles int        `json:"total_miles"`
	TotalGoal  int        `json:"total_goal"`
	Start      civil.Date `json:"start"`
	End        civil.Date `json:"end"`
}

// Aggregator reads weeks and days back out of a record store.
type Aggregator struct {
	tables types.Tables
}

// NewAggregator returns an Aggregator reading from tables.
func NewAggregator(tables types.Tables) *Aggregator {
	return &Aggregator{tables: tables}
}

// WeekTotal sums the miles of a week's days. Missing days count as zero.
func (a *Aggregator) WeekTotal(weekID string) (int, error) {
	days, err := records.DaysOf(a.tables, weekID)
	if err != nil {
		return 0, fmt.Errorf("totalling week %s: %w", weekID, err)
	}
	total := 0
	for _, d := range days {
		total += d.Miles
	}
	return total, nil
}

// Render returns one row per week of a block, ordered by week number.
func (a *Aggregator) Render(blockID string) ([]Row, error) {
	if _, err := records.GetBlock(a.tables, blockID); err != nil {
		return nil, err
	}
	weeks, err := records.WeeksOf(a.tables, blockID)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(weeks))
	for _, w := range weeks {
		days, err := records.DaysOf(a.tables, w.WeekID)
		if err != nil {
			return nil, fmt.Errorf("rendering week %d: %w", w.WeekNumber, err)
		}
		row := Row{WeekNumber: w.WeekNumber, Goal: w.Goal}
		for _, d := range days {
			if d.DayNumber < 1 || d.DayNumber > types.DaysPerWeek {
				continue
			}
			if d.DayNumber == 1 {
				row.Start = d.Date
			}
			row.Miles[d.DayNumber-1] = d.Miles
			row.Total += d.Miles
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].WeekNumber < rows[j].WeekNumber })
	return rows, nil
}

// Summarize totals the miles and goals of a block.
func (a *Aggregator) Summarize(blockID string) (Summary, error) {
	rows, err := a.Render(blockID)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Weeks: len(rows)}
	for _, r := range rows {
		s.TotalMiles += r.Total
		s.TotalGoal += r.Goal
	}
	if len(rows) > 0 {
		s.Start = rows[0].Start
		s.End = rows[len(rows)-1].Start.AddDays(types.DaysPerWeek - 1)
	}
	return s, nil
}
