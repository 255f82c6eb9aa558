package usecase

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/checkout"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const maxLineQuantity = 9999

// ProductLookup resolves a product a customer may buy.
type ProductLookup interface {
	GetProductDetail(ctx context.Context, productID string) (model.Product, error)
}

// CartUsecase serves /cart. It keeps one cart.Store per session, created on
// first use from the session's snapshot. Sessions untouched for longer than
// the idle timeout are dropped by Sweep and reload from the snapshot later.
type CartUsecase struct {
	slot     repo.SnapshotStore
	products ProductLookup
	pricing  checkout.Pricing
	idle     time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	stores  map[string]*cartEntry
	onEvict []func(sessionID string)
}

type cartEntry struct {
	store    *cart.Store
	lastSeen time.Time
}

func NewCartUsecase(slot repo.SnapshotStore, products ProductLookup, pricing checkout.Pricing, idle time.Duration, logger *zap.Logger) *CartUsecase {
	return &CartUsecase{
		slot:     slot,
		products: products,
		pricing:  pricing,
		idle:     idle,
		logger:   logger,
		now:      time.Now,
		stores:   map[string]*cartEntry{},
	}
}

type CartResponse struct {
	Items   model.CartItems  `json:"items"`
	Summary checkout.Summary `json:"summary"`
}

type AddCartInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemInput struct {
	Quantity int `json:"quantity"`
}

// Store returns the session's cart, loading it on first access.
func (u *CartUsecase) Store(ctx context.Context, sessionID string) *cart.Store {
	if s, ok := u.cached(sessionID); ok {
		return s
	}
	return u.register(sessionID, u.load(ctx, sessionID))
}

// OnEvict registers fn to run for every session Sweep drops.
func (u *CartUsecase) OnEvict(fn func(sessionID string)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onEvict = append(u.onEvict, fn)
}

// Sweep drops sessions idle longer than the idle timeout and reports how many.
func (u *CartUsecase) Sweep() int {
	cutoff := u.now().Add(-u.idle)

	u.mu.Lock()
	var evicted []string
	for id, e := range u.stores {
		if e.lastSeen.Before(cutoff) {
			delete(u.stores, id)
			evicted = append(evicted, id)
		}
	}
	hooks := u.onEvict
	u.mu.Unlock()

	for _, id := range evicted {
		for _, fn := range hooks {
			fn(id)
		}
	}
	return len(evicted)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (u *CartUsecase) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := u.Sweep(); n > 0 {
				u.logger.Debug("idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}

// touch marks the session as active without loading it.
func (u *CartUsecase) touch(sessionID string) {
	u.cached(sessionID)
}

func (u *CartUsecase) cached(sessionID string) (*cart.Store, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	e, ok := u.stores[sessionID]
	if !ok {
		return nil, false
	}
	e.lastSeen = u.now()
	return e.store, true
}

func (u *CartUsecase) load(ctx context.Context, sessionID string) *cart.Store {
	return cart.NewStore(ctx, u.slot, cart.SnapshotKey(sessionID), u.logger.With(zap.String("session_id", sessionID)))
}

// register keeps s unless another request registered the session first.
func (u *CartUsecase) register(sessionID string, s *cart.Store) *cart.Store {
	u.mu.Lock()
	defer u.mu.Unlock()

	if e, ok := u.stores[sessionID]; ok {
		e.lastSeen = u.now()
		return e.store
	}
	u.stores[sessionID] = &cartEntry{store: s, lastSeen: u.now()}
	return s
}

func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}
	if s, ok := u.cached(sessionID); ok {
		return u.response(s), nil
	}

	// reading an empty cart does not keep the session in memory
	s := u.load(ctx, sessionID)
	if len(s.Items()) == 0 {
		return u.response(s), nil
	}
	return u.response(u.register(sessionID, s)), nil
}

func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, in AddCartInput) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}
	if in.Quantity < 0 || in.Quantity > maxLineQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.products.GetProductDetail(ctx, strings.TrimSpace(in.ProductID))
	if err != nil {
		if he, ok := AsHTTPError(err); ok && he.Status == http.StatusNotFound {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product not available")
		}
		return CartResponse{}, err
	}

	s := u.Store(ctx, sessionID)
	u.logPersist(s.Add(ctx, p, in.Quantity), sessionID)
	return u.response(s), nil
}

// UpdateQuantity removes the line when quantity <= 0.
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID string, productID string, in UpdateCartItemInput) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}
	if in.Quantity > maxLineQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	s := u.Store(ctx, sessionID)
	u.logPersist(s.UpdateQuantity(ctx, productID, in.Quantity), sessionID)
	return u.response(s), nil
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, sessionID string, productID string) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}

	s := u.Store(ctx, sessionID)
	u.logPersist(s.Remove(ctx, productID), sessionID)
	return u.response(s), nil
}

func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}

	s := u.Store(ctx, sessionID)
	u.logPersist(s.Clear(ctx), sessionID)
	return u.response(s), nil
}

// The in-memory cart stays authoritative for the session when the snapshot
// write fails; the next successful write catches the slot up.
func (u *CartUsecase) logPersist(err error, sessionID string) {
	if err != nil {
		u.logger.Warn("cart snapshot not saved", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (u *CartUsecase) response(s *cart.Store) CartResponse {
	items := s.Items()
	return CartResponse{
		Items:   items,
		Summary: u.pricing.Summarize(items.Total(), items.ItemCount()),
	}
}
