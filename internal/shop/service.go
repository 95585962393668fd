package shop

import (
	"fmt"

	"github.com/julianstephens/questlog/internal/logger"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

// PurchaseObserver is told about every successful purchase.
type PurchaseObserver interface {
	ItemPurchased(models.CharacterItem)
}

// Service applies gate operations to stored profiles
type Service struct {
	store    storage.Provider
	observer PurchaseObserver
}

// NewService creates a shop service. observer may be nil.
func NewService(store storage.Provider, observer PurchaseObserver) *Service {
	return &Service{store: store, observer: observer}
}

// Catalog returns every item in the shop.
func (s *Service) Catalog() ([]models.CharacterItem, error) {
	items, err := s.store.GetCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return items, nil
}

// Buy purchases itemID for the profile.
func (s *Service) Buy(profileID, itemID string) (models.Profile, models.CharacterItem, error) {
	profile, item, err := s.load(profileID, itemID)
	if err != nil {
		return models.Profile{}, models.CharacterItem{}, err
	}
	if profile.HasUnlocked(item.ID) {
		logger.Debug("Purchase refused", "item", item.ID, "reason", ErrAlreadyUnlocked)
		return profile, item, ErrAlreadyUnlocked
	}

	updated, err := Purchase(profile, item)
	if err != nil {
		logger.Debug("Purchase refused", "item", item.ID, "coins", profile.Coins, "level", profile.CharacterLevel, "reason", err)
		return profile, item, err
	}
	if err := s.store.UpdateProfile(updated); err != nil {
		return profile, item, fmt.Errorf("failed to save profile: %w", err)
	}

	if s.observer != nil {
		s.observer.ItemPurchased(item)
	}
	logger.Info("Item purchased", "item", item.ID, "cost", item.CoinCost)
	return updated, item, nil
}

// Equip equips itemID on the profile.
func (s *Service) Equip(profileID, itemID string) (models.Profile, error) {
	profile, item, err := s.load(profileID, itemID)
	if err != nil {
		return models.Profile{}, err
	}
	items, err := s.store.GetCatalog()
	if err != nil {
		return profile, fmt.Errorf("failed to load catalog: %w", err)
	}

	updated, err := Equip(profile, item, models.NewCatalog(items))
	if err != nil {
		logger.Debug("Equip refused", "item", item.ID, "reason", err)
		return profile, err
	}
	if err := s.store.UpdateProfile(updated); err != nil {
		return profile, fmt.Errorf("failed to save profile: %w", err)
	}
	return updated, nil
}

// Unequip removes itemID from the profile's equipment.
func (s *Service) Unequip(profileID, itemID string) (models.Profile, error) {
	profile, item, err := s.load(profileID, itemID)
	if err != nil {
		return models.Profile{}, err
	}
	if !profile.HasEquipped(item.ID) {
		return profile, nil
	}

	updated := Unequip(profile, item)
	if err := s.store.UpdateProfile(updated); err != nil {
		return profile, fmt.Errorf("failed to save profile: %w", err)
	}
	return updated, nil
}

func (s *Service) load(profileID, itemID string) (models.Profile, models.CharacterItem, error) {
	profile, err := s.store.GetProfile(profileID)
	if err != nil {
		return models.Profile{}, models.CharacterItem{}, fmt.Errorf("failed to load profile: %w", err)
	}
	item, err := s.store.GetItem(itemID)
	if err != nil {
		return models.Profile{}, models.CharacterItem{}, fmt.Errorf("item %q: %w", itemID, err)
	}
	return profile, item, nil
}
