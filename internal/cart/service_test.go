package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpio"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/querycache"
)

const (
	variantA = "c1000000-0000-4000-8000-000000000001"
	variantB = "c1000000-0000-4000-8000-000000000003"
	unknown  = "c1000000-0000-4000-8000-0000000000ff"
	address1 = "d1000000-0000-4000-8000-000000000001"
	address2 = "d1000000-0000-4000-8000-000000000002"
)

type storedItem struct {
	id        string
	variantID string
	quantity  int
}

type storedCart struct {
	id        string
	userID    string
	addressID string
	items     []storedItem
}

// memStore keeps carts in memory and joins items to the variant catalog on
// read, like the SQL repository does.
type memStore struct {
	mu       sync.Mutex
	carts    map[string]*storedCart
	variants map[string]domain.VariantDetails
	seq      int
	calls    int
}

func newMemStore() *memStore {
	return &memStore{
		carts: map[string]*storedCart{},
		variants: map[string]domain.VariantDetails{
			variantA: {ProductVariant: domain.ProductVariant{ID: variantA, Name: "Preta", PriceInCents: 1000}, ProductName: "Camiseta"},
			variantB: {ProductVariant: domain.ProductVariant{ID: variantB, Name: "Azul", PriceInCents: 500}, ProductName: "Tênis"},
		},
	}
}

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("e1000000-0000-4000-8000-%012d", m.seq)
}

func (m *memStore) VariantByID(_ context.Context, id string) (*domain.VariantDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	v, ok := m.variants[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *memStore) setPrice(variantID string, cents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.variants[variantID]
	v.PriceInCents = cents
	m.variants[variantID] = v
}

func (m *memStore) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	if _, ok := m.carts[userID]; !ok {
		m.carts[userID] = &storedCart{id: m.nextID(), userID: userID}
	}
	m.mu.Unlock()
	return m.Get(ctx, userID)
}

func (m *memStore) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	cart := &domain.Cart{ID: c.id, UserID: c.userID, ShippingAddressID: c.addressID, Items: []domain.CartItem{}}
	for _, it := range c.items {
		v := m.variants[it.variantID]
		cart.Items = append(cart.Items, domain.CartItem{
			ID:           it.id,
			CartID:       c.id,
			VariantID:    it.variantID,
			Quantity:     it.quantity,
			ProductName:  v.ProductName,
			VariantName:  v.Name,
			PriceInCents: v.PriceInCents,
		})
	}
	return cart, nil
}

func (m *memStore) cartByID(cartID string) *storedCart {
	for _, c := range m.carts {
		if c.id == cartID {
			return c
		}
	}
	return nil
}

func (m *memStore) UpsertItem(_ context.Context, cartID, variantID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c := m.cartByID(cartID)
	for i := range c.items {
		if c.items[i].variantID == variantID {
			c.items[i].quantity += quantity
			return nil
		}
	}
	c.items = append(c.items, storedItem{id: m.nextID(), variantID: variantID, quantity: quantity})
	return nil
}

func (m *memStore) DecrementItem(_ context.Context, cartID, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c := m.cartByID(cartID)
	for i := range c.items {
		if c.items[i].id != itemID {
			continue
		}
		if c.items[i].quantity <= 1 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		} else {
			c.items[i].quantity--
		}
		return true, nil
	}
	return false, nil
}

func (m *memStore) RemoveItem(_ context.Context, cartID, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c := m.cartByID(cartID)
	for i := range c.items {
		if c.items[i].id == itemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SetShippingAddress(_ context.Context, cartID, addressID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.cartByID(cartID).addressID = addressID
	return nil
}

type addressBook map[string]string // address id -> owner

func (a addressBook) GetForUser(_ context.Context, id, userID string) (*domain.ShippingAddress, error) {
	if owner, ok := a[id]; ok && owner == userID {
		return &domain.ShippingAddress{ID: id, UserID: userID}, nil
	}
	return nil, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

var tokens = auth.AuthenticatorFunc(func(_ context.Context, token string) (string, error) {
	switch token {
	case "token-1":
		return "user-1", nil
	case "token-2":
		return "user-2", nil
	default:
		return "", domain.AuthError("invalid or expired session")
	}
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store *memStore
	pub   *recordingPublisher
	svc   *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := newMemStore()
	pub := &recordingPublisher{}
	addresses := addressBook{address1: "user-1", address2: "user-2"}
	svc := NewService(store, store, addresses, tokens, pub, nil, discardLogger())
	return fixture{store: store, pub: pub, svc: svc}
}

func TestService_AddItemAccumulatesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, qty := range []int{1, 3, 2} {
		_, err := f.svc.AddItem(ctx, "token-1", AddItemInput{VariantID: variantA, Quantity: qty})
		require.NoError(t, err)
	}
	cart, err := f.svc.IncreaseQuantity(ctx, "token-1", variantA)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 7, cart.Items[0].Quantity)
	assert.Equal(t, int64(7000), cart.TotalInCents())
	assert.Len(t, f.pub.events, 4)
	for _, e := range f.pub.events {
		assert.Equal(t, domain.EventCartChanged, e.Type)
		assert.Equal(t, "user-1", e.UserID)
	}
}

func TestService_TotalsScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "token-1", AddItemInput{VariantID: variantA, Quantity: 2})
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, "token-1", AddItemInput{VariantID: variantB, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), cart.TotalInCents())

	itemA := cart.Items[0]
	require.Equal(t, variantA, itemA.VariantID)

	cart, err = f.svc.RemoveItem(ctx, "token-1", itemA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cart.TotalInCents())
	assert.Equal(t, 1, len(cart.Items))
}

func TestService_TotalFollowsLivePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "token-1", AddItemInput{VariantID: variantA, Quantity: 2})
	require.NoError(t, err)

	f.store.setPrice(variantA, 1200)

	cart, err := f.svc.GetCart(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2400), cart.TotalInCents())
}

func TestService_AddItemValidation(t *testing.T) {
	tests := []struct {
		name string
		in   AddItemInput
	}{
		{name: "zero quantity", in: AddItemInput{VariantID: variantA, Quantity: 0}},
		{name: "negative quantity", in: AddItemInput{VariantID: variantA, Quantity: -1}},
		{name: "missing variant", in: AddItemInput{Quantity: 1}},
		{name: "malformed variant", in: AddItemInput{VariantID: "42", Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.AddItem(context.Background(), "token-1", tt.in)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Zero(t, f.store.calls)
			assert.Empty(t, f.pub.events)
		})
	}
}

func TestService_AddItemFailures(t *testing.T) {
	t.Run("unknown variant", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddItem(context.Background(), "token-1", AddItemInput{VariantID: unknown, Quantity: 1})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, f.pub.events)
	})

	t.Run("no session", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddItem(context.Background(), "", AddItemInput{VariantID: variantA, Quantity: 1})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		assert.Zero(t, f.store.calls)
	})
}

func TestService_DecreaseQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "token-1", AddItemInput{VariantID: variantA, Quantity: 2})
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, "token-1", AddItemInput{VariantID: variantB, Quantity: 1})
	require.NoError(t, err)
	itemA, itemB := cart.Items[0].ID, cart.Items[1].ID

	cart, err = f.svc.DecreaseQuantity(ctx, "token-1", itemA)
	require.NoError(t, err)
	got, ok := findItem(cart, itemA)
	require.True(t, ok)
	assert.Equal(t, 1, got.Quantity)

	before := len(cart.Items)
	cart, err = f.svc.DecreaseQuantity(ctx, "token-1", itemB)
	require.NoError(t, err)
	assert.Equal(t, before-1, len(cart.Items))
	_, ok = findItem(cart, itemB)
	assert.False(t, ok)
	assert.Equal(t, int64(1000), cart.TotalInCents())

	_, err = f.svc.DecreaseQuantity(ctx, "token-1", itemB)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_ItemsAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, "token-1", AddItemInput{VariantID: variantA, Quantity: 1})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = f.svc.GetCart(ctx, "token-2")
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, "token-2", itemID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.DecreaseQuantity(ctx, "token-2", itemID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cart, err = f.svc.GetCart(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, 1, len(cart.Items))
}

func TestService_SetShippingAddress(t *testing.T) {
	t.Run("links an owned address", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.svc.GetCart(ctx, "token-1")
		require.NoError(t, err)

		cart, err := f.svc.SetShippingAddress(ctx, "token-1", address1)
		require.NoError(t, err)
		assert.Equal(t, address1, cart.ShippingAddressID)
	})

	t.Run("without session leaves the address unchanged", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.svc.GetCart(ctx, "token-1")
		require.NoError(t, err)
		_, err = f.svc.SetShippingAddress(ctx, "token-1", address1)
		require.NoError(t, err)
		events := len(f.pub.events)

		_, err = f.svc.SetShippingAddress(ctx, "", address1)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)

		cart, err := f.svc.GetCart(ctx, "token-1")
		require.NoError(t, err)
		assert.Equal(t, address1, cart.ShippingAddressID)
		assert.Len(t, f.pub.events, events)
	})

	t.Run("address owned by someone else", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.svc.GetCart(ctx, "token-1")
		require.NoError(t, err)

		_, err = f.svc.SetShippingAddress(ctx, "token-1", address2)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		cart, err := f.svc.GetCart(ctx, "token-1")
		require.NoError(t, err)
		assert.Empty(t, cart.ShippingAddressID)
	})

	t.Run("caller without a cart", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SetShippingAddress(context.Background(), "token-1", address1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SetShippingAddress(context.Background(), "token-1", "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestService_CachedCartIsInvalidatedByMutations(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := querycache.New(client, time.Minute, discardLogger())
	hub := notify.NewHub(discardLogger())
	hub.Subscribe(cache)

	store := newMemStore()
	svc := NewService(store, store, addressBook{}, tokens, hub, cache, discardLogger())
	ctx := context.Background()

	cart, err := svc.GetCart(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	store.setPrice(variantA, 1500)
	cached, err := svc.GetCart(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, cached.ID)

	_, err = svc.AddItem(ctx, "token-1", AddItemInput{VariantID: variantA, Quantity: 2})
	require.NoError(t, err)

	cart, err = svc.GetCart(ctx, "token-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(3000), cart.TotalInCents())
}

func findItem(cart *domain.Cart, id string) (domain.CartItem, bool) {
	for _, item := range cart.Items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.CartItem{}, false
}

var errConnRefused = errors.New("pq: connection refused")

// brokenStore fails every write the cart service makes.
type brokenStore struct {
	*memStore
}

func (b brokenStore) UpsertItem(context.Context, string, string, int) error {
	return errConnRefused
}

func (b brokenStore) DecrementItem(context.Context, string, string) (bool, error) {
	return false, errConnRefused
}

func (b brokenStore) RemoveItem(context.Context, string, string) (bool, error) {
	return false, errConnRefused
}

func (b brokenStore) SetShippingAddress(context.Context, string, string) error {
	return errConnRefused
}

func TestService_StoreFailuresAreUpstreamErrors(t *testing.T) {
	tests := map[string]func(*Service) error{
		"add item": func(svc *Service) error {
			_, err := svc.AddItem(context.Background(), "token-1", AddItemInput{VariantID: variantA, Quantity: 1})
			return err
		},
		"decrease quantity": func(svc *Service) error {
			_, err := svc.DecreaseQuantity(context.Background(), "token-1", unknown)
			return err
		},
		"remove item": func(svc *Service) error {
			_, err := svc.RemoveItem(context.Background(), "token-1", unknown)
			return err
		},
		"set shipping address": func(svc *Service) error {
			_, err := svc.SetShippingAddress(context.Background(), "token-1", address1)
			return err
		},
	}

	for name, call := range tests {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			pub := &recordingPublisher{}
			svc := NewService(brokenStore{store}, store, addressBook{address1: "user-1"}, tokens, pub, nil, discardLogger())
			_, err := store.GetOrCreate(context.Background(), "user-1")
			require.NoError(t, err)

			err = call(svc)

			require.ErrorIs(t, err, domain.ErrUpstream)
			assert.ErrorIs(t, err, errConnRefused)
			status, code := httpio.StatusFor(err)
			assert.Equal(t, 502, status)
			assert.Equal(t, "upstream", code)
			assert.Empty(t, pub.events)
		})
	}
}

func TestService_GetCartStoreFailure(t *testing.T) {
	svc := NewService(failingReads{}, newMemStore(), addressBook{}, tokens, notify.Nop, nil, discardLogger())

	_, err := svc.GetCart(context.Background(), "token-1")

	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.ErrorIs(t, err, errConnRefused)
}

type failingReads struct {
	brokenStore
}

func (failingReads) GetOrCreate(context.Context, string) (*domain.Cart, error) {
	return nil, errConnRefused
}
