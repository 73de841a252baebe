// Package session hands out one cart engine per storefront session.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/makeup-store/internal/domain/cart"
	"github.com/xenking/makeup-store/internal/domain/pricing"
	"github.com/xenking/makeup-store/internal/domain/product"
	"github.com/xenking/makeup-store/internal/domain/promo"
)

// cartKeyPrefix namespaces cart blobs in the key-value store. One key per
// session; the name carries over from the storefront's original local
// storage key.
const cartKeyPrefix = "makeup_cart:"

// Manager creates and caches cart engines keyed by session ID. Each engine
// is restored from the store on first access. Engines for the same session
// ID in different processes are not coordinated: the storage layer is
// last-writer-wins.
type Manager struct {
	products product.Repository
	store    cart.Store
	promos   *promo.Table
	pricing  pricing.Config
	lg       *zap.Logger

	mu      sync.Mutex
	engines map[string]*cart.Engine
}

// NewManager creates a Manager with the collaborators every engine needs.
func NewManager(
	products product.Repository,
	store cart.Store,
	promos *promo.Table,
	pricingCfg pricing.Config,
	lg *zap.Logger,
) *Manager {
	return &Manager{
		products: products,
		store:    store,
		promos:   promos,
		pricing:  pricingCfg,
		lg:       lg,
		engines:  make(map[string]*cart.Engine),
	}
}

// NewSessionID mints a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// Cart returns the engine for the given session, creating and restoring it
// on first access.
func (m *Manager) Cart(ctx context.Context, sessionID string) *cart.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[sessionID]; ok {
		return e
	}

	e := cart.NewEngine(ctx, cartKeyPrefix+sessionID,
		m.products, m.store, m.promos, m.pricing,
		m.lg.With(zap.String("session_id", sessionID)),
	)
	m.engines[sessionID] = e
	return e
}

// Drop forgets the cached engine for a session. The persisted blob stays;
// a later Cart call restores from it.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.engines, sessionID)
}
