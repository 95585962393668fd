package character

import (
	"fmt"
	"strings"

	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/progression"
)

type ProfileCmd struct{}

func (c *ProfileCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}
	items, err := ctx.Store.GetCatalog()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	catalog := models.NewCatalog(items)

	if ctx.Metrics != nil {
		ctx.Metrics.SetProfile(profile)
	}

	ctx.Println(cli.Title(profile.Email))
	ctx.Printf("  Level %d  %s\n", profile.CharacterLevel, cli.ExpBar(profile, 24))
	ctx.Printf("  Total EXP: %d   %s\n", profile.TotalExp, cli.Coins(profile.Coins))

	next := progression.NextMilestone(profile.CharacterLevel + 1)
	ctx.Printf("  Next milestone: level %d (%d EXP to go)\n",
		next, max(0, progression.LevelFloor(next)-profile.TotalExp))
	ctx.Printf("  Login streak: %d day(s)\n", profile.LoginStreak)

	ctx.Printf("  Equipped: %s\n", itemNames(profile.EquippedItems, catalog))
	ctx.Printf("  Unlocked: %d of %d items\n", len(profile.UnlockedItems), len(items))
	return nil
}

func itemNames(ids []string, catalog models.Catalog) string {
	if len(ids) == 0 {
		return cli.Muted("nothing")
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if it, ok := catalog[id]; ok {
			names = append(names, fmt.Sprintf("%s (%s)", it.Name, it.Category))
		}
	}
	return strings.Join(names, ", ")
}
