// Package validation checks habit definitions before they reach the
// progression core.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
)

// MaxNameLength bounds habit names so they fit the list view.
const MaxNameLength = 80

// IssueType represents the kind of problem found in a habit
type IssueType string

const (
	IssueMissingName       IssueType = "missing_name"
	IssueNameTooLong       IssueType = "name_too_long"
	IssueDuplicateName     IssueType = "duplicate_name"
	IssueExpOutOfRange     IssueType = "exp_out_of_range"
	IssueInvalidCategory   IssueType = "invalid_category"
	IssueInvalidHabitType  IssueType = "invalid_habit_type"
	IssueInvalidDifficulty IssueType = "invalid_difficulty"
)

// Issue is a single problem with a habit definition
type Issue struct {
	Type        IssueType
	Field       string
	Description string
}

// Error is returned when a habit definition is malformed. It lists every
// problem found rather than just the first.
type Error struct {
	Habit  string
	Issues []Issue
}

func (e *Error) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("invalid habit: %s", e.Issues[0].Description)
	}
	return fmt.Sprintf("invalid habit: %d problems (%s)", len(e.Issues), e.Issues[0].Description)
}

// Has reports whether the error contains an issue of type t.
func (e *Error) Has(t IssueType) bool {
	return slices.ContainsFunc(e.Issues, func(i Issue) bool { return i.Type == t })
}

// FormatReport returns a human-readable list of all issues
func (e *Error) FormatReport() string {
	var b strings.Builder
	b.WriteString("Habit definition has problems:\n")
	for _, issue := range e.Issues {
		fmt.Fprintf(&b, "- %s\n", issue.Description)
	}
	return b.String()
}

// ApplyDefaults fills the fields a user may omit when adding a habit.
func ApplyDefaults(h *models.Habit) {
	if h.ExpValue == 0 {
		h.ExpValue = constants.DefaultExpValue
	}
	if h.Difficulty == "" {
		h.Difficulty = constants.DifficultyMedium
	}
	if h.HabitType == "" {
		h.HabitType = constants.HabitGood
	}
	h.Name = strings.TrimSpace(h.Name)
}

// ValidateHabit checks a single habit's fields. It returns nil or *Error.
func ValidateHabit(h models.Habit) error {
	var issues []Issue

	name := strings.TrimSpace(h.Name)
	switch {
	case name == "":
		issues = append(issues, Issue{Type: IssueMissingName, Field: "name", Description: "name is required"})
	case len([]rune(name)) > MaxNameLength:
		issues = append(issues, Issue{
			Type:        IssueNameTooLong,
			Field:       "name",
			Description: fmt.Sprintf("name must be at most %d characters", MaxNameLength),
		})
	}

	if h.ExpValue < constants.MinExpValue || h.ExpValue > constants.MaxExpValue {
		issues = append(issues, Issue{
			Type:  IssueExpOutOfRange,
			Field: "exp_value",
			Description: fmt.Sprintf("exp value %d is outside %d-%d",
				h.ExpValue, constants.MinExpValue, constants.MaxExpValue),
		})
	}
	if !slices.Contains(constants.Categories, h.Category) {
		issues = append(issues, Issue{
			Type:        IssueInvalidCategory,
			Field:       "category",
			Description: fmt.Sprintf("unknown category %q", h.Category),
		})
	}
	if h.HabitType != constants.HabitGood && h.HabitType != constants.HabitBad {
		issues = append(issues, Issue{
			Type:        IssueInvalidHabitType,
			Field:       "habit_type",
			Description: fmt.Sprintf("habit type must be good or bad, got %q", h.HabitType),
		})
	}
	if _, err := ParseDifficulty(string(h.Difficulty)); err != nil {
		issues = append(issues, Issue{
			Type:        IssueInvalidDifficulty,
			Field:       "difficulty",
			Description: err.Error(),
		})
	}

	if len(issues) == 0 {
		return nil
	}
	return &Error{Habit: name, Issues: issues}
}

// ValidateNewHabit validates h and also rejects a name already used by
// another active habit of the same profile. Names compare case-insensitively.
func ValidateNewHabit(h models.Habit, existing []models.Habit) error {
	err := ValidateHabit(h)
	verr, _ := err.(*Error)

	for _, other := range existing {
		if other.ID == h.ID || !other.IsActive {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(other.Name), strings.TrimSpace(h.Name)) {
			if verr == nil {
				verr = &Error{Habit: strings.TrimSpace(h.Name)}
			}
			verr.Issues = append(verr.Issues, Issue{
				Type:        IssueDuplicateName,
				Field:       "name",
				Description: fmt.Sprintf("an active habit named %q already exists", other.Name),
			})
			break
		}
	}

	if verr == nil {
		return nil
	}
	return verr
}

// ParseCategory converts user input to a Category.
func ParseCategory(s string) (constants.Category, error) {
	c := constants.Category(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(constants.Categories, c) {
		return "", fmt.Errorf("unknown category %q (want one of %s)", s, joinCategories())
	}
	return c, nil
}

// ParseHabitType converts user input to a HabitType.
func ParseHabitType(s string) (constants.HabitType, error) {
	switch t := constants.HabitType(strings.ToLower(strings.TrimSpace(s))); t {
	case constants.HabitGood, constants.HabitBad:
		return t, nil
	default:
		return "", fmt.Errorf("habit type must be good or bad, got %q", s)
	}
}

// ParseDifficulty converts user input to a Difficulty.
func ParseDifficulty(s string) (constants.Difficulty, error) {
	switch d := constants.Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case constants.DifficultyEasy, constants.DifficultyMedium, constants.DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("difficulty must be easy, medium or hard, got %q", s)
	}
}

func joinCategories() string {
	names := make([]string, len(constants.Categories))
	for i, c := range constants.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
