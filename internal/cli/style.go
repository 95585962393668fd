package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/progression"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	gainStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	lossStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	coinStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	barFullStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	barEmpty     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("57")).
			Padding(0, 2).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("212"))
)

// Title renders a section heading.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Muted renders secondary text.
func Muted(s string) string {
	return mutedStyle.Render(s)
}

// Coins renders a coin amount.
func Coins(n int) string {
	return coinStyle.Render(fmt.Sprintf("%d coins", n))
}

// ExpDelta renders a signed experience change, green for gains and red
// for losses.
func ExpDelta(n int) string {
	if n < 0 {
		return lossStyle.Render(fmt.Sprintf("%d EXP", n))
	}
	return gainStyle.Render(fmt.Sprintf("+%d EXP", n))
}

// ExpBar renders progress through the current level band.
func ExpBar(p models.Profile, width int) string {
	if width <= 0 {
		width = 20
	}
	pct := progression.ProgressPct(p)
	filled := min(width, max(0, pct*width/100))

	bar := barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmpty.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3d%% (%d/%d)", bar, pct, max(0, p.CurrentExp), p.ExpToNext)
}

// LevelUpBanner renders the level-up announcement.
func LevelUpBanner(oldLevel, newLevel int) string {
	return bannerStyle.Render(fmt.Sprintf("LEVEL UP!  %d → %d", oldLevel, newLevel))
}

// Feedback prints progression events as they happen.
type Feedback struct {
	ctx *Context
}

// NewFeedback creates a Feedback that writes to ctx's output.
func NewFeedback(ctx *Context) *Feedback {
	return &Feedback{ctx: ctx}
}

// Notify implements progression.Notifier.
func (f *Feedback) Notify(e progression.Event) {
	switch ev := e.(type) {
	case progression.ExpGained:
		f.ctx.Println(ExpDelta(ev.Amount))
	case progression.LevelUp:
		f.ctx.Println(LevelUpBanner(ev.OldLevel, ev.NewLevel))
	case progression.ItemsUnlocked:
		names := make([]string, len(ev.Items))
		for i, it := range ev.Items {
			names[i] = it.Name
		}
		f.ctx.Printf("🎁 Unlocked at level %d: %s\n", ev.Level, strings.Join(names, ", "))
	case progression.AchievementEarned:
		a := ev.Achievement
		f.ctx.Printf("%s Achievement earned: %s (%s)\n", a.BadgeIcon, a.Name, a.Description)
	}
}
