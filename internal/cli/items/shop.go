package items

import (
	"fmt"

	"github.com/julianstephens/questlog/internal/cli"
	qerrors "github.com/julianstephens/questlog/internal/errors"
	"github.com/julianstephens/questlog/internal/shop"
)

type ShopCmd struct {
	List    ShopListCmd    `cmd:"" default:"1" help:"List catalog items."`
	Buy     ShopBuyCmd     `cmd:"" help:"Buy an item with coins."`
	Equip   ShopEquipCmd   `cmd:"" help:"Equip an unlocked item."`
	Unequip ShopUnequipCmd `cmd:"" help:"Unequip an item."`
}

type ShopListCmd struct {
	Category string `short:"c" help:"Only show one category (hat|shirt|accessory|effect|companion)."`
}

func (c *ShopListCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}
	items, err := ctx.Shop().Catalog()
	if err != nil {
		return err
	}

	ctx.Printf("%s  %s, level %d\n", cli.Title("Shop"), cli.Coins(profile.Coins), profile.CharacterLevel)
	for _, it := range items {
		if c.Category != "" && string(it.Category) != c.Category {
			continue
		}

		var status string
		switch {
		case profile.HasEquipped(it.ID):
			status = "equipped"
		case profile.HasUnlocked(it.ID):
			status = "owned"
		case !shop.MeetsLevel(profile, it):
			status = fmt.Sprintf("level %d", it.RequiredLevel)
		case it.CoinCost == 0:
			status = "free"
		case !shop.CanAfford(profile, it):
			status = fmt.Sprintf("%d coins (need %d more)", it.CoinCost, it.CoinCost-profile.Coins)
		default:
			status = fmt.Sprintf("%d coins", it.CoinCost)
		}

		line := fmt.Sprintf("  %-18s %-20s %-10s %s", it.ID, it.Name, it.Category, status)
		if !shop.MeetsLevel(profile, it) {
			line = cli.Muted(line)
		}
		ctx.Println(line)
	}
	return nil
}

type ShopBuyCmd struct {
	Item  string `arg:"" help:"Item ID."`
	Equip bool   `short:"e" help:"Equip the item after buying."`
}

func (c *ShopBuyCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}

	svc := ctx.Shop()
	updated, item, err := svc.Buy(profile.ID, c.Item)
	if err != nil {
		return refusal(err)
	}
	ctx.Printf("✓ Bought %s for %d coins. %s left.\n", item.Name, item.CoinCost, cli.Coins(updated.Coins))

	if c.Equip {
		if _, err := svc.Equip(profile.ID, item.ID); err != nil {
			return refusal(err)
		}
		ctx.Printf("✓ Equipped %s\n", item.Name)
	}
	return nil
}

type ShopEquipCmd struct {
	Item string `arg:"" help:"Item ID."`
}

func (c *ShopEquipCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}
	updated, err := ctx.Shop().Equip(profile.ID, c.Item)
	if err != nil {
		return refusal(err)
	}
	ctx.Printf("✓ Equipped %s (%d item(s) equipped)\n", c.Item, len(updated.EquippedItems))
	return nil
}

type ShopUnequipCmd struct {
	Item string `arg:"" help:"Item ID."`
}

func (c *ShopUnequipCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}
	if _, err := ctx.Shop().Unequip(profile.ID, c.Item); err != nil {
		return err
	}
	ctx.Printf("✓ Unequipped %s\n", c.Item)
	return nil
}

// refusal marks expected gate refusals so main exits with the refusal code
// and logs them at debug level.
func refusal(err error) error {
	if shop.IsRefusal(err) {
		return qerrors.Refused(err)
	}
	return err
}
