package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/makeup-store/internal/domain/pricing"
	"github.com/xenking/makeup-store/internal/domain/product"
	"github.com/xenking/makeup-store/internal/domain/promo"
	"github.com/xenking/makeup-store/internal/storage/memory"
)

type stubProductRepo struct {
	p product.Product
}

func (s *stubProductRepo) List(_ context.Context) ([]product.Product, error) {
	return []product.Product{s.p}, nil
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if id != s.p.ID {
		return nil, product.ErrNotFound
	}
	p := s.p
	return &p, nil
}

func (s *stubProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	for _, id := range ids {
		if id == s.p.ID {
			return []product.Product{s.p}, nil
		}
	}
	return nil, nil
}

func newTestManager() *Manager {
	repo := &stubProductRepo{p: product.Product{
		ID:    "p1",
		Name:  "Velvet Lipstick",
		Price: decimal.RequireFromString("12.50"),
		Stock: 10,
	}}
	return NewManager(repo, memory.NewKVStore(), promo.NewTable(nil), pricing.DefaultConfig(), zap.NewNop())
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewSessionID())
}

func TestCart_CachesEngine(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	e1 := m.Cart(ctx, "sess-1")
	e2 := m.Cart(ctx, "sess-1")
	assert.Same(t, e1, e2)

	other := m.Cart(ctx, "sess-2")
	assert.NotSame(t, e1, other)
}

func TestCart_IsolatedPerSession(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	require.NoError(t, m.Cart(ctx, "sess-1").AddItem(ctx, "p1", 2))

	assert.Equal(t, 2, m.Cart(ctx, "sess-1").ItemCount())
	assert.Zero(t, m.Cart(ctx, "sess-2").ItemCount())
}

func TestDrop_RestoresFromStore(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	e := m.Cart(ctx, "sess-1")
	require.NoError(t, e.AddItem(ctx, "p1", 3))

	m.Drop("sess-1")

	restored := m.Cart(ctx, "sess-1")
	assert.NotSame(t, e, restored)
	assert.Equal(t, 3, restored.ItemCount())
}
