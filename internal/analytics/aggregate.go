// Package analytics builds read-only completion reports.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
)

// Options tunes report generation.
type Options struct {
	TopN       int
	WindowDays int
}

// DefaultOptions returns the top-5, 30-day report settings.
func DefaultOptions() Options {
	return Options{
		TopN:       constants.DefaultTopHabits,
		WindowDays: constants.DefaultWindowDays,
	}
}

// TodaySummary counts completions on the current calendar day.
type TodaySummary struct {
	Completed     int `json:"completed"`
	TotalPossible int `json:"total_possible"`
	Exp           int `json:"exp"`
}

// Window summarises a trailing period.
type Window struct {
	Days      int `json:"days"`
	Count     int `json:"count"`
	Exp       int `json:"exp"`
	AvgPerDay int `json:"avg_per_day"`
}

// HabitCount is a habit's completion count within the report window.
type HabitCount struct {
	HabitID  string             `json:"habit_id"`
	Name     string             `json:"name"`
	Category constants.Category `json:"category"`
	Count    int                `json:"count"`
}

// CategoryStat is the completion breakdown for one category.
type CategoryStat struct {
	Category constants.Category `json:"category"`
	Count    int                `json:"count"`
	Exp      int                `json:"exp"`
}

// Report is the full analytics view for a profile.
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Today       TodaySummary   `json:"today"`
	Week        Window         `json:"week"`
	Month       Window         `json:"month"`
	TopHabits   []HabitCount   `json:"top_habits"`
	Categories  []CategoryStat `json:"categories"`
}

// Aggregate computes a report from active habits and the logs of the
// trailing window. Habits are expected in catalog (creation) order; ties in
// the top list keep that order.
func Aggregate(habits []models.Habit, logs []models.HabitLog, now time.Time, opts Options) Report {
	if opts.WindowDays <= 0 {
		opts.WindowDays = constants.DefaultWindowDays
	}
	if opts.TopN <= 0 {
		opts.TopN = constants.DefaultTopHabits
	}

	windowStart := now.AddDate(0, 0, -opts.WindowDays)
	weekStart := now.AddDate(0, 0, -constants.WeekWindowDays)
	y, m, d := now.Date()

	byHabit := make(map[string]int, len(habits))
	habitCategory := make(map[string]constants.Category, len(habits))
	for _, h := range habits {
		habitCategory[h.ID] = h.Category
	}
	catCount := make(map[constants.Category]int)
	catExp := make(map[constants.Category]int)

	report := Report{
		GeneratedAt: now,
		Today:       TodaySummary{TotalPossible: len(habits)},
		Week:        Window{Days: constants.WeekWindowDays},
		Month:       Window{Days: opts.WindowDays},
	}

	for _, l := range logs {
		if l.CompletedAt.Before(windowStart) {
			continue
		}
		exp := l.Exp()

		report.Month.Count++
		report.Month.Exp += exp

		if !l.CompletedAt.Before(weekStart) {
			report.Week.Count++
			report.Week.Exp += exp
		}
		if ly, lm, ld := l.CompletedAt.In(now.Location()).Date(); ly == y && lm == m && ld == d {
			report.Today.Completed++
			report.Today.Exp += exp
		}

		byHabit[l.HabitID]++
		if cat, ok := habitCategory[l.HabitID]; ok {
			catCount[cat]++
			catExp[cat] += exp
		}
	}

	report.Week.AvgPerDay = avgPerDay(report.Week.Count, report.Week.Days)
	report.Month.AvgPerDay = avgPerDay(report.Month.Count, report.Month.Days)

	top := make([]HabitCount, 0, len(habits))
	for _, h := range habits {
		top = append(top, HabitCount{HabitID: h.ID, Name: h.Name, Category: h.Category, Count: byHabit[h.ID]})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})
	if len(top) > opts.TopN {
		top = top[:opts.TopN]
	}
	report.TopHabits = top

	for _, cat := range constants.Categories {
		report.Categories = append(report.Categories, CategoryStat{
			Category: cat,
			Count:    catCount[cat],
			Exp:      catExp[cat],
		})
	}

	return report
}

// avgPerDay rounds half away from zero, so 15 completions over 30 days
// average 1 per day.
func avgPerDay(count, days int) int {
	if days <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(days)))
}
