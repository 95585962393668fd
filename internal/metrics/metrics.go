// Package metrics exports progression counters and profile gauges in the
// Prometheus format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/progression"
)

const namespace = "questlog"

// Registry owns a private Prometheus registry so tests and the CLI never
// share global collector state.
type Registry struct {
	reg *prometheus.Registry

	// ─── Completions ────────────────────────────────────────────────────
	HabitCompletions *prometheus.CounterVec
	ExpAwarded       prometheus.Counter
	ExpPenalized     prometheus.Counter
	CompletionExp    prometheus.Histogram

	// ─── Progression ────────────────────────────────────────────────────
	LevelUps           prometheus.Counter
	ItemsUnlocked      prometheus.Counter
	AchievementsEarned *prometheus.CounterVec

	// ─── Shop ───────────────────────────────────────────────────────────
	ItemsPurchased *prometheus.CounterVec
	CoinsSpent     prometheus.Counter

	// ─── Profile ────────────────────────────────────────────────────────
	Level    prometheus.Gauge
	TotalExp prometheus.Gauge
	Coins    prometheus.Gauge
}

// New creates a Registry with every questlog collector registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Registry{
		reg: reg,

		HabitCompletions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "habit_completions_total",
			Help:      "Total habit completions.",
		}, []string{"type"}),
		ExpAwarded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exp_awarded_total",
			Help:      "Experience awarded by good habits, including streak bonuses.",
		}),
		ExpPenalized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exp_penalized_total",
			Help:      "Experience removed by bad habits.",
		}),
		CompletionExp: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_exp",
			Help:      "Absolute experience change per completion.",
			Buckets:   []float64{5, 10, 20, 30, 50, 75, 100},
		}),

		LevelUps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Completions that raised the character level.",
		}),
		ItemsUnlocked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_unlocked_total",
			Help:      "Items granted for free at milestone levels.",
		}),
		AchievementsEarned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_earned_total",
			Help:      "Achievements earned by type.",
		}, []string{"achievement"}),

		ItemsPurchased: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_purchased_total",
			Help:      "Items bought in the shop by category.",
		}, []string{"category"}),
		CoinsSpent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coins_spent_total",
			Help:      "Coins spent in the shop.",
		}),

		Level: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "character_level",
			Help:      "Current character level.",
		}),
		TotalExp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_exp",
			Help:      "Cumulative experience of the character.",
		}),
		Coins: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coins",
			Help:      "Coins currently held.",
		}),
	}
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Notify implements progression.Notifier.
func (r *Registry) Notify(e progression.Event) {
	switch ev := e.(type) {
	case progression.ExpGained:
		r.HabitCompletions.WithLabelValues(string(ev.HabitType)).Inc()
		if ev.Amount >= 0 {
			r.ExpAwarded.Add(float64(ev.Amount))
			r.CompletionExp.Observe(float64(ev.Amount))
		} else {
			r.ExpPenalized.Add(float64(-ev.Amount))
			r.CompletionExp.Observe(float64(-ev.Amount))
		}
	case progression.LevelUp:
		r.LevelUps.Inc()
		r.Level.Set(float64(ev.NewLevel))
	case progression.ItemsUnlocked:
		r.ItemsUnlocked.Add(float64(len(ev.Items)))
	case progression.AchievementEarned:
		r.AchievementsEarned.WithLabelValues(ev.Achievement.Type).Inc()
	}
}

// ItemPurchased implements shop.PurchaseObserver.
func (r *Registry) ItemPurchased(item models.CharacterItem) {
	r.ItemsPurchased.WithLabelValues(string(item.Category)).Inc()
	r.CoinsSpent.Add(float64(item.CoinCost))
}

// SetProfile updates the profile gauges.
func (r *Registry) SetProfile(p models.Profile) {
	r.Level.Set(float64(p.CharacterLevel))
	r.TotalExp.Set(float64(p.TotalExp))
	r.Coins.Set(float64(p.Coins))
}

// WriteTextfile writes every metric to path in the node_exporter textfile
// format. The write is atomic.
func (r *Registry) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// Backfill rebuilds the counters from stored history, so an export from a
// fresh process reflects everything the profile has done. Call it on a new
// Registry.
func (r *Registry) Backfill(p models.Profile, habits []models.Habit, logs []models.HabitLog, catalog []models.CharacterItem, achievements []models.Achievement) {
	types := make(map[string]string, len(habits))
	for _, h := range habits {
		types[h.ID] = string(h.HabitType)
	}

	for _, l := range logs {
		t := types[l.HabitID]
		if t == "" {
			t = "unknown"
		}
		r.HabitCompletions.WithLabelValues(t).Inc()
		r.CompletionExp.Observe(float64(l.Exp()))
		if t == "bad" {
			r.ExpPenalized.Add(float64(l.ExpEarned))
		} else {
			r.ExpAwarded.Add(float64(l.Exp()))
		}
	}

	r.LevelUps.Add(float64(max(0, p.CharacterLevel-1)))

	byID := models.NewCatalog(catalog)
	for _, id := range p.UnlockedItems {
		it, ok := byID[id]
		if !ok {
			continue
		}
		if it.CoinCost > 0 {
			r.ItemPurchased(it)
		} else if it.RequiredLevel > 1 {
			r.ItemsUnlocked.Inc()
		}
	}

	for _, a := range achievements {
		r.AchievementsEarned.WithLabelValues(a.Type).Inc()
	}

	r.SetProfile(p)
}
