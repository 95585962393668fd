package character

import (
	"fmt"
	"time"

	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/progression"
)

type AchievementsCmd struct {
	All bool `short:"a" help:"Also list achievements not yet earned."`
}

func (c *AchievementsCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}
	earned, err := ctx.Store.GetAchievements(profile.ID)
	if err != nil {
		return fmt.Errorf("failed to load achievements: %w", err)
	}

	defs := progression.AllAchievements()
	ctx.Println(cli.Title(fmt.Sprintf("Achievements (%d/%d)", len(earned), len(defs))))

	have := make(map[string]bool, len(earned))
	for _, a := range earned {
		have[a.Type] = true
		ctx.Printf("  %s %s - %s (%s)\n", a.BadgeIcon, a.Name, a.Description, a.EarnedAt.Local().Format(time.DateOnly))
	}
	if len(earned) == 0 {
		ctx.Println(cli.Muted("  none yet; complete a habit to earn your first"))
	}

	if !c.All {
		return nil
	}
	for _, d := range defs {
		if have[d.Type] {
			continue
		}
		ctx.Println(cli.Muted(fmt.Sprintf("  🔒 %s - %s", d.Name, d.Description)))
	}
	return nil
}
