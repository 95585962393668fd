package shop_test

import (
	"errors"
	"testing"

	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/shop"
	"github.com/julianstephens/questlog/internal/storage"
	"github.com/julianstephens/questlog/internal/storage/storagetest"
)

type purchases []string

func (p *purchases) ItemPurchased(it models.CharacterItem) { *p = append(*p, it.ID) }

func setup(t *testing.T, level int, coins int) (*shop.Service, storage.Provider, models.Profile, *purchases) {
	t.Helper()
	store := storagetest.NewSQLite(t)
	p := storagetest.Profile()
	p.CharacterLevel = level
	p.Coins = coins
	p.UnlockedItems = []string{"hat_cap", "shirt_tunic"}
	p.EquippedItems = []string{"hat_cap"}
	storagetest.SeedProfile(t, store, p)

	obs := &purchases{}
	return shop.NewService(store, obs), store, p, obs
}

func TestServiceBuy(t *testing.T) {
	svc, store, p, obs := setup(t, 3, 120)

	updated, item, err := svc.Buy(p.ID, "hat_wizard")
	if err != nil {
		t.Fatalf("Buy() failed: %v", err)
	}
	if item.CoinCost != 50 || updated.Coins != 70 || !updated.HasUnlocked("hat_wizard") {
		t.Errorf("Buy() = coins %d, unlocked %v", updated.Coins, updated.UnlockedItems)
	}

	stored, _ := store.GetProfile(p.ID)
	if stored.Coins != 70 || !stored.HasUnlocked("hat_wizard") {
		t.Errorf("stored profile = coins %d, unlocked %v", stored.Coins, stored.UnlockedItems)
	}
	if len(*obs) != 1 || (*obs)[0] != "hat_wizard" {
		t.Errorf("observer saw %v, want [hat_wizard]", *obs)
	}

	if _, _, err := svc.Buy(p.ID, "hat_wizard"); !errors.Is(err, shop.ErrAlreadyUnlocked) {
		t.Errorf("second Buy() error = %v, want ErrAlreadyUnlocked", err)
	}
	if again, _ := store.GetProfile(p.ID); again.Coins != 70 {
		t.Errorf("second Buy() charged coins: %d", again.Coins)
	}
}

func TestServiceBuyRefusals(t *testing.T) {
	tests := []struct {
		name   string
		level  int
		coins  int
		itemID string
		want   error
	}{
		{name: "insufficient funds", level: 10, coins: 10, itemID: "hat_crown", want: shop.ErrInsufficientFunds},
		{name: "level too low", level: 2, coins: 1000, itemID: "hat_crown", want: shop.ErrLevelTooLow},
		{name: "unknown item", level: 2, coins: 10, itemID: "hat_missing", want: storage.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, p, obs := setup(t, tt.level, tt.coins)
			if _, _, err := svc.Buy(p.ID, tt.itemID); !errors.Is(err, tt.want) {
				t.Fatalf("Buy() error = %v, want %v", err, tt.want)
			}
			stored, _ := store.GetProfile(p.ID)
			if stored.Coins != tt.coins || len(stored.UnlockedItems) != 2 {
				t.Errorf("refused Buy() changed profile: %+v", stored)
			}
			if len(*obs) != 0 {
				t.Errorf("observer notified on refusal: %v", *obs)
			}
		})
	}
}

func TestServiceEquipAndUnequip(t *testing.T) {
	svc, store, p, _ := setup(t, 3, 100)

	if _, _, err := svc.Buy(p.ID, "hat_wizard"); err != nil {
		t.Fatalf("Buy() failed: %v", err)
	}
	updated, err := svc.Equip(p.ID, "hat_wizard")
	if err != nil {
		t.Fatalf("Equip() failed: %v", err)
	}
	if updated.HasEquipped("hat_cap") || !updated.HasEquipped("hat_wizard") {
		t.Errorf("equipped = %v, want hat_wizard replacing hat_cap", updated.EquippedItems)
	}

	if _, err := svc.Equip(p.ID, "companion_cat"); !errors.Is(err, shop.ErrNotUnlocked) {
		t.Errorf("Equip(locked) error = %v, want ErrNotUnlocked", err)
	}

	if _, err := svc.Unequip(p.ID, "hat_wizard"); err != nil {
		t.Fatalf("Unequip() failed: %v", err)
	}
	if _, err := svc.Unequip(p.ID, "hat_wizard"); err != nil {
		t.Fatalf("second Unequip() failed: %v", err)
	}
	stored, _ := store.GetProfile(p.ID)
	if len(stored.EquippedItems) != 0 || !stored.HasUnlocked("hat_wizard") {
		t.Errorf("stored after unequip = equipped %v unlocked %v", stored.EquippedItems, stored.UnlockedItems)
	}
}
