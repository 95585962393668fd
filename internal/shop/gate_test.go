package shop

import (
	"errors"
	"slices"
	"testing"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
)

var (
	wizardHat = models.CharacterItem{ID: "wizard-hat", Category: constants.ItemHat, RequiredLevel: 3, CoinCost: 50}
	crown     = models.CharacterItem{ID: "crown", Category: constants.ItemHat, RequiredLevel: 10, CoinCost: 500}
	tunic     = models.CharacterItem{ID: "tunic", Category: constants.ItemShirt, RequiredLevel: 1, CoinCost: 0}
	sparkles  = models.CharacterItem{ID: "sparkles", Category: constants.ItemEffect, RequiredLevel: 6, CoinCost: 0}
)

func catalog() models.Catalog {
	return models.NewCatalog([]models.CharacterItem{wizardHat, crown, tunic, sparkles})
}

func TestPurchase(t *testing.T) {
	tests := []struct {
		name      string
		profile   models.Profile
		item      models.CharacterItem
		wantErr   error
		wantCoins int
	}{
		{
			name:      "success",
			profile:   models.Profile{CharacterLevel: 3, Coins: 80},
			item:      wizardHat,
			wantCoins: 30,
		},
		{
			name:      "insufficient funds",
			profile:   models.Profile{CharacterLevel: 5, Coins: 49},
			item:      wizardHat,
			wantErr:   ErrInsufficientFunds,
			wantCoins: 49,
		},
		{
			name:      "level too low",
			profile:   models.Profile{CharacterLevel: 2, Coins: 100},
			item:      wizardHat,
			wantErr:   ErrLevelTooLow,
			wantCoins: 100,
		},
		{
			name:      "funds checked before level",
			profile:   models.Profile{CharacterLevel: 1, Coins: 0},
			item:      crown,
			wantErr:   ErrInsufficientFunds,
			wantCoins: 0,
		},
		{
			name:      "exact coins",
			profile:   models.Profile{CharacterLevel: 10, Coins: 500},
			item:      crown,
			wantCoins: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Purchase(tt.profile, tt.item)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Purchase() error = %v, want %v", err, tt.wantErr)
			}
			if got.Coins != tt.wantCoins {
				t.Errorf("Coins = %d, want %d", got.Coins, tt.wantCoins)
			}
			if unlocked := got.HasUnlocked(tt.item.ID); unlocked != (tt.wantErr == nil) {
				t.Errorf("HasUnlocked(%s) = %v", tt.item.ID, unlocked)
			}
		})
	}
}

func TestEquipReplacesSameCategory(t *testing.T) {
	p := models.Profile{
		UnlockedItems: []string{"wizard-hat", "crown", "tunic"},
		EquippedItems: []string{"wizard-hat", "tunic"},
	}

	got, err := Equip(p, crown, catalog())
	if err != nil {
		t.Fatalf("Equip() error = %v", err)
	}

	hats := 0
	for _, id := range got.EquippedItems {
		if catalog()[id].Category == constants.ItemHat {
			hats++
		}
	}
	if hats != 1 || !got.HasEquipped("crown") || got.HasEquipped("wizard-hat") {
		t.Errorf("EquippedItems = %v, want exactly crown as hat", got.EquippedItems)
	}
	if !got.HasEquipped("tunic") {
		t.Errorf("EquippedItems = %v, tunic should remain", got.EquippedItems)
	}
	if !got.HasUnlocked("wizard-hat") {
		t.Error("previous hat should remain unlocked")
	}
	if !slices.Equal(p.EquippedItems, []string{"wizard-hat", "tunic"}) {
		t.Errorf("input profile mutated: %v", p.EquippedItems)
	}
}

func TestEquipNotUnlocked(t *testing.T) {
	p := models.Profile{UnlockedItems: []string{"tunic"}}
	got, err := Equip(p, crown, catalog())
	if !errors.Is(err, ErrNotUnlocked) {
		t.Fatalf("Equip() error = %v, want %v", err, ErrNotUnlocked)
	}
	if len(got.EquippedItems) != 0 {
		t.Errorf("EquippedItems = %v, want empty", got.EquippedItems)
	}
}

func TestEquipDropsUnknownIDs(t *testing.T) {
	p := models.Profile{
		UnlockedItems: []string{"tunic"},
		EquippedItems: []string{"retired-item"},
	}
	got, err := Equip(p, tunic, catalog())
	if err != nil {
		t.Fatalf("Equip() error = %v", err)
	}
	if !slices.Equal(got.EquippedItems, []string{"tunic"}) {
		t.Errorf("EquippedItems = %v, want [tunic]", got.EquippedItems)
	}
}

func TestEquipTwiceIsStable(t *testing.T) {
	p := models.Profile{UnlockedItems: []string{"tunic"}}
	once, _ := Equip(p, tunic, catalog())
	twice, _ := Equip(once, tunic, catalog())
	if !slices.Equal(once.EquippedItems, twice.EquippedItems) {
		t.Errorf("Equip twice = %v, once = %v", twice.EquippedItems, once.EquippedItems)
	}
}

func TestUnequipIdempotent(t *testing.T) {
	p := models.Profile{
		UnlockedItems: []string{"tunic", "wizard-hat"},
		EquippedItems: []string{"tunic", "wizard-hat"},
	}

	once := Unequip(p, tunic)
	twice := Unequip(once, tunic)
	if !slices.Equal(once.EquippedItems, twice.EquippedItems) {
		t.Errorf("Unequip twice = %v, once = %v", twice.EquippedItems, once.EquippedItems)
	}
	if !slices.Equal(once.EquippedItems, []string{"wizard-hat"}) {
		t.Errorf("EquippedItems = %v, want [wizard-hat]", once.EquippedItems)
	}
	if !once.HasUnlocked("tunic") {
		t.Error("unequipped item should remain unlocked")
	}

	absent := Unequip(once, crown)
	if !slices.Equal(absent.EquippedItems, once.EquippedItems) {
		t.Errorf("Unequip of absent item changed set: %v", absent.EquippedItems)
	}
}

func TestFreeUnlockCheck(t *testing.T) {
	items := []models.CharacterItem{wizardHat, crown, tunic, sparkles}

	got := FreeUnlockCheck(6, items)
	if len(got) != 1 || got[0].ID != "sparkles" {
		t.Errorf("FreeUnlockCheck(6) = %+v, want [sparkles]", got)
	}
	if got := FreeUnlockCheck(3, items); len(got) != 0 {
		t.Errorf("FreeUnlockCheck(3) = %+v, want none (paid item)", got)
	}
}

func TestMergeUnlocks(t *testing.T) {
	p := models.Profile{UnlockedItems: []string{"tunic"}}
	got, added := MergeUnlocks(p, []models.CharacterItem{tunic, sparkles})

	if len(added) != 1 || added[0].ID != "sparkles" {
		t.Errorf("added = %+v, want [sparkles]", added)
	}
	if !slices.Equal(got.UnlockedItems, []string{"tunic", "sparkles"}) {
		t.Errorf("UnlockedItems = %v", got.UnlockedItems)
	}
}

func TestIsRefusal(t *testing.T) {
	if !IsRefusal(ErrLevelTooLow) || !IsRefusal(ErrInsufficientFunds) || !IsRefusal(ErrNotUnlocked) {
		t.Error("gate errors should be refusals")
	}
	if IsRefusal(errors.New("disk full")) {
		t.Error("arbitrary error should not be a refusal")
	}
}
