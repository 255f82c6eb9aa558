package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

type memSlot struct {
	mu      sync.Mutex
	data    map[string]string
	writes  []string
	getErr  error
	failSet error
}

func newMemSlot() *memSlot {
	return &memSlot{data: map[string]string{}}
}

func (m *memSlot) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (m *memSlot) Set(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = value
	m.writes = append(m.writes, value)
	return nil
}

func product(id string, price string) model.Product {
	return model.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price)}
}

func newTestStore(t *testing.T, slot *memSlot) *Store {
	t.Helper()
	return NewStore(context.Background(), slot, SnapshotKey("s1"), zap.NewNop())
}

func TestStore_AddToEmptyCart(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemSlot())

	require.NoError(t, s.Add(ctx, product("a", "10"), 2))

	assert.True(t, decimal.NewFromInt(20).Equal(s.Total()))
	assert.Equal(t, 2, s.ItemCount())
}

func TestStore_AddSameProductMerges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemSlot())

	require.NoError(t, s.Add(ctx, product("a", "10"), 2))
	require.NoError(t, s.Add(ctx, product("a", "10"), 3))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.True(t, decimal.NewFromInt(50).Equal(s.Total()))
}

func TestStore_AddDefaultsQuantityToOne(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemSlot())

	require.NoError(t, s.Add(ctx, product("a", "10"), 0))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestStore_UpdateQuantityNonPositiveRemoves(t *testing.T) {
	for _, qty := range []int{0, -1, -50} {
		ctx := context.Background()
		s := newTestStore(t, newMemSlot())
		require.NoError(t, s.Add(ctx, product("a", "10"), 2))
		require.NoError(t, s.Add(ctx, product("b", "5"), 1))

		require.NoError(t, s.UpdateQuantity(ctx, "a", qty))

		assert.Equal(t, -1, s.Items().IndexOf("a"), "qty=%d", qty)
		assert.Equal(t, 1, s.ItemCount())
	}
}

func TestStore_UpdateQuantitySetsValue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemSlot())
	require.NoError(t, s.Add(ctx, product("a", "10"), 2))

	require.NoError(t, s.UpdateQuantity(ctx, "a", 7))
	assert.Equal(t, 7, s.ItemCount())

	// unknown ids are left alone
	require.NoError(t, s.UpdateQuantity(ctx, "zzz", 4))
	assert.Len(t, s.Items(), 1)
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := newTestStore(t, slot)
	require.NoError(t, s.Add(ctx, product("a", "10"), 1))

	require.NoError(t, s.Remove(ctx, "missing"))
	assert.Len(t, s.Items(), 1)

	require.NoError(t, s.Remove(ctx, "a"))
	assert.Empty(t, s.Items())
}

func TestStore_ClearPersistsEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := newTestStore(t, slot)
	require.NoError(t, s.Add(ctx, product("a", "10"), 1))

	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, "[]", slot.data[SnapshotKey("s1")])
	assert.True(t, s.Total().IsZero())
}

func TestStore_TotalMatchesLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemSlot())
	require.NoError(t, s.Add(ctx, product("a", "19.99"), 3))
	require.NoError(t, s.Add(ctx, product("b", "0.01"), 1))
	require.NoError(t, s.Add(ctx, product("c", "250"), 2))
	require.NoError(t, s.UpdateQuantity(ctx, "c", 1))

	want := decimal.Zero
	for _, it := range s.Items() {
		want = want.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, want.Equal(s.Total()), "want %s got %s", want, s.Total())
	assert.Equal(t, "309.98", s.Total().StringFixed(2))
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := newTestStore(t, slot)
	require.NoError(t, s.Add(ctx, product("b", "5"), 1))
	require.NoError(t, s.Add(ctx, product("a", "10"), 4))

	reloaded := newTestStore(t, slot)

	got := map[string]int{}
	for _, it := range reloaded.Items() {
		got[it.Product.ID] = it.Quantity
	}
	assert.Equal(t, map[string]int{"a": 4, "b": 1}, got)
	assert.True(t, s.Total().Equal(reloaded.Total()))
}

func TestStore_MalformedSnapshotStartsEmpty(t *testing.T) {
	slot := newMemSlot()
	slot.data[SnapshotKey("s1")] = "{not json"

	s := newTestStore(t, slot)
	assert.Empty(t, s.Items())
}

func TestStore_UnreadableSlotStartsEmpty(t *testing.T) {
	slot := newMemSlot()
	slot.getErr = errors.New("connection refused")

	s := newTestStore(t, slot)
	assert.Empty(t, s.Items())
}

func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := newTestStore(t, slot)
	slot.failSet = errors.New("disk full")

	err := s.Add(ctx, product("a", "10"), 1)
	assert.Error(t, err)
	assert.Equal(t, 1, s.ItemCount())
}

func TestStore_WritesFollowMutationOrder(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := newTestStore(t, slot)

	require.NoError(t, s.Add(ctx, product("a", "10"), 1))
	require.NoError(t, s.Add(ctx, product("a", "10"), 1))
	require.NoError(t, s.UpdateQuantity(ctx, "a", 9))

	require.Len(t, slot.writes, 3)
	last, err := Decode(slot.writes[2])
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, 9, last[0].Quantity)
}

func TestStore_ConcurrentAddsAreSerialized(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := newTestStore(t, slot)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Add(ctx, product("a", "1"), 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.ItemCount())
	stored, err := Decode(slot.data[SnapshotKey("s1")])
	require.NoError(t, err)
	assert.Equal(t, 50, stored.ItemCount())
}

func TestDecode_RepairsInvariants(t *testing.T) {
	raw := `[
		{"product":{"id":"a","name":"A","price":"10"},"quantity":2},
		{"product":{"id":"a","name":"A","price":"10"},"quantity":1},
		{"product":{"id":"b","name":"B","price":"3"},"quantity":0},
		{"product":{"id":"","name":"?","price":"1"},"quantity":4}
	]`

	items, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestStore_DeductKeepsLaterAdditions(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := newTestStore(t, slot)
	require.NoError(t, s.Add(ctx, product("a", "10"), 2))
	frozen := s.Items()

	require.NoError(t, s.Add(ctx, product("a", "10"), 1))
	require.NoError(t, s.Add(ctx, product("b", "5"), 4))

	require.NoError(t, s.Deduct(ctx, frozen))

	got := map[string]int{}
	for _, it := range s.Items() {
		got[it.Product.ID] = it.Quantity
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 4}, got)

	stored, err := Decode(slot.data[SnapshotKey("s1")])
	require.NoError(t, err)
	assert.Equal(t, 5, stored.ItemCount())
}

func TestStore_DeductEverythingEmptiesCart(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := newTestStore(t, slot)
	require.NoError(t, s.Add(ctx, product("a", "10"), 2))
	require.NoError(t, s.Add(ctx, product("b", "5"), 1))

	require.NoError(t, s.Deduct(ctx, s.Items()))

	assert.Empty(t, s.Items())
	assert.Equal(t, "[]", slot.data[SnapshotKey("s1")])
}
