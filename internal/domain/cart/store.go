package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

// Namespace prefixes every cart snapshot key.
const Namespace = "cart"

func SnapshotKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", Namespace, sessionID)
}

// Store is the single source of truth for one session's cart.
// Every mutation updates memory first and then writes the full snapshot while
// still holding the lock, so snapshot writes land in mutation order.
type Store struct {
	mu     sync.Mutex
	items  model.CartItems
	slot   repository.SnapshotStore
	key    string
	logger *zap.Logger
}

// NewStore builds a store and loads the persisted snapshot. A missing or
// malformed snapshot yields an empty cart.
func NewStore(ctx context.Context, slot repository.SnapshotStore, key string, logger *zap.Logger) *Store {
	s := &Store{
		items:  model.CartItems{},
		slot:   slot,
		key:    key,
		logger: logger,
	}
	s.Load(ctx)
	return s
}

// Load replaces the in-memory cart with the stored snapshot.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = model.CartItems{}

	raw, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("cart snapshot unreadable, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}

	items, err := Decode(raw)
	if err != nil {
		s.logger.Warn("cart snapshot malformed, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}
	s.items = items
}

// Add merges quantity into the line for product.ID, creating it if needed.
// A quantity below 1 counts as the default of 1.
func (s *Store) Add(ctx context.Context, product model.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.items.IndexOf(product.ID); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, model.CartLineItem{Product: product, Quantity: quantity})
	}
	return s.persist(ctx)
}

// Remove drops the line for productID. Absent ids are not an error.
func (s *Store) Remove(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(productID)
	return s.persist(ctx)
}

// UpdateQuantity sets the quantity; zero or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(productID)
	} else if i := s.items.IndexOf(productID); i >= 0 {
		s.items[i].Quantity = quantity
	}
	return s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = model.CartItems{}
	return s.persist(ctx)
}

// Deduct takes the given quantities back out of the cart, dropping lines that
// reach zero. Lines added after items were read are left in place.
func (s *Store) Deduct(ctx context.Context, items model.CartItems) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		i := s.items.IndexOf(it.Product.ID)
		if i < 0 {
			continue
		}
		s.items[i].Quantity -= it.Quantity
		if s.items[i].Quantity <= 0 {
			s.removeLocked(it.Product.ID)
		}
	}
	return s.persist(ctx)
}

// Items returns a copy of the line items.
func (s *Store) Items() model.CartItems {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(model.CartItems, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Total()
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.ItemCount()
}

func (s *Store) removeLocked(productID string) {
	if i := s.items.IndexOf(productID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

// caller holds s.mu
func (s *Store) persist(ctx context.Context) error {
	raw, err := Encode(s.items)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := s.slot.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("write cart snapshot: %w", err)
	}
	return nil
}

// Encode serializes line items as a JSON array of {product, quantity}.
func Encode(items model.CartItems) (string, error) {
	if items == nil {
		items = model.CartItems{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a snapshot and restores the line invariants: entries without
// a product id or with a non-positive quantity are dropped and duplicate ids
// are merged.
func Decode(raw string) (model.CartItems, error) {
	var stored []model.CartLineItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}

	items := make(model.CartItems, 0, len(stored))
	for _, it := range stored {
		if it.Product.ID == "" || it.Quantity <= 0 {
			continue
		}
		if i := items.IndexOf(it.Product.ID); i >= 0 {
			items[i].Quantity += it.Quantity
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
