package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/questlog/internal/analytics"
	"github.com/julianstephens/questlog/internal/cache"
	"github.com/julianstephens/questlog/internal/config"
	"github.com/julianstephens/questlog/internal/identity"
	"github.com/julianstephens/questlog/internal/logger"
	"github.com/julianstephens/questlog/internal/metrics"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/progression"
	"github.com/julianstephens/questlog/internal/shop"
	"github.com/julianstephens/questlog/internal/storage"
)

// Context carries the collaborators every command needs. It is built once
// in main and passed to each command's Run method.
type Context struct {
	Store      storage.Provider
	Config     config.Config
	ConfigPath string
	Metrics    *metrics.Registry
	// Cache is nil when no Redis URL is configured.
	Cache cache.Cache
	Out   io.Writer
}

// Stdout returns the command output writer.
func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Identity returns the account and session service.
func (c *Context) Identity() *identity.Service {
	return identity.NewService(c.Store)
}

// Profile returns the signed-in profile.
func (c *Context) Profile() (models.Profile, error) {
	_, p, err := c.Identity().Current()
	if err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Updater returns a progression updater that reports to the metrics
// registry, the report cache and n.
func (c *Context) Updater(n progression.Notifier) *progression.Updater {
	notifiers := progression.Notifiers{n}
	if c.Metrics != nil {
		notifiers = append(notifiers, c.Metrics)
	}
	notifiers = append(notifiers, progression.NotifierFunc(func(e progression.Event) {
		if ev, ok := e.(progression.ExpGained); ok {
			c.Analytics().Invalidate(context.Background(), ev.ProfileID)
		}
	}))
	return progression.NewUpdater(c.Store, progression.WithNotifier(notifiers))
}

// Shop returns the purchase and equipment service.
func (c *Context) Shop() *shop.Service {
	if c.Metrics == nil {
		return shop.NewService(c.Store, nil)
	}
	return shop.NewService(c.Store, c.Metrics)
}

// Analytics returns the report service, cached when Redis is configured.
func (c *Context) Analytics() *analytics.Service {
	ttl, err := c.Config.CacheTTL()
	if err != nil {
		logger.Warn("Ignoring invalid cache TTL", "error", err)
		ttl = 0
	}
	opts := analytics.Options{
		TopN:       c.Config.Analytics.TopN,
		WindowDays: c.Config.Analytics.WindowDays,
	}
	if opts.TopN <= 0 || opts.WindowDays <= 0 {
		opts = analytics.DefaultOptions()
	}
	return analytics.NewService(c.Store, c.Cache, ttl, opts)
}

// Print writes s to the command writer.
func (c *Context) Print(s string) {
	fmt.Fprint(c.Stdout(), s)
}

// Printf writes formatted output to the command writer.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

// Println writes a line to the command writer.
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Stdout(), args...)
}

// FindHabit resolves a habit by id or, failing that, by name among the
// profile's active habits.
func (c *Context) FindHabit(profileID, ref string) (models.Habit, error) {
	h, err := c.Store.GetHabit(ref)
	if err == nil && h.ProfileID == profileID {
		return h, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, err
	}

	h, err = c.Store.GetHabitByName(profileID, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, fmt.Errorf("habit %q not found", ref)
	}
	return h, err
}
