package cart

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/querycache"
	"github.com/joao-fontenele/storefront/internal/validate"
)

var (
	tracer = otel.Tracer("storefront/cart")
	meter  = otel.Meter("storefront/cart")

	mutationCounter = newMutationCounter()
)

func newMutationCounter() metric.Int64Counter {
	counter, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation and outcome"),
	)
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return counter
}

type Store interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertItem(ctx context.Context, cartID, variantID string, quantity int) error
	DecrementItem(ctx context.Context, cartID, itemID string) (bool, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (bool, error)
	SetShippingAddress(ctx context.Context, cartID, addressID string) error
}

type VariantFinder interface {
	VariantByID(ctx context.Context, id string) (*domain.VariantDetails, error)
}

type AddressFinder interface {
	GetForUser(ctx context.Context, id, userID string) (*domain.ShippingAddress, error)
}

type AddItemInput struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type Service struct {
	store     Store
	variants  VariantFinder
	addresses AddressFinder
	auth      auth.Authenticator
	publisher notify.Publisher
	cache     *querycache.Cache
	logger    *slog.Logger
}

func NewService(
	store Store,
	variants VariantFinder,
	addresses AddressFinder,
	authn auth.Authenticator,
	publisher notify.Publisher,
	cache *querycache.Cache,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		variants:  variants,
		addresses: addresses,
		auth:      authn,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
	}
}

// GetCart returns the caller's cart, creating an empty one on first use.
func (s *Service) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	cart, err := querycache.Load(ctx, s.cache, userID, domain.QueryCart, func(ctx context.Context) (*domain.Cart, error) {
		return s.store.GetOrCreate(ctx, userID)
	})
	if err != nil {
		return nil, domain.StoreError("failed to get cart", err)
	}

	return cart, nil
}

// AddItem adds quantity units of a variant, merging with an existing line
// item for the same variant.
func (s *Service) AddItem(ctx context.Context, token string, in AddItemInput) (cart *domain.Cart, err error) {
	ctx, span := tracer.Start(ctx, "cart.AddItem")
	defer span.End()
	defer func() { recordMutation(ctx, "add_item", err) }()

	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	variant, err := s.variants.VariantByID(ctx, in.VariantID)
	if err != nil {
		return nil, domain.StoreError("failed to find variant", err)
	}
	if variant == nil {
		return nil, domain.NotFoundError("product variant")
	}

	current, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, domain.StoreError("failed to get cart", err)
	}

	if err := s.store.UpsertItem(ctx, current.ID, in.VariantID, in.Quantity); err != nil {
		return nil, domain.StoreError("failed to add cart item", err)
	}

	s.logger.InfoContext(ctx, "cart item added",
		"user_id", userID,
		"cart_id", current.ID,
		"variant_id", in.VariantID,
		"quantity", in.Quantity,
	)

	return s.changed(ctx, userID, current.ID)
}

// IncreaseQuantity adds one unit of the variant.
func (s *Service) IncreaseQuantity(ctx context.Context, token, variantID string) (*domain.Cart, error) {
	return s.AddItem(ctx, token, AddItemInput{VariantID: variantID, Quantity: 1})
}

// DecreaseQuantity removes one unit of the item; the item disappears when
// its last unit goes.
func (s *Service) DecreaseQuantity(ctx context.Context, token, itemID string) (cart *domain.Cart, err error) {
	ctx, span := tracer.Start(ctx, "cart.DecreaseQuantity")
	defer span.End()
	defer func() { recordMutation(ctx, "decrease_quantity", err) }()

	if err := validate.ID("item_id", itemID); err != nil {
		return nil, err
	}

	userID, current, err := s.ownedCart(ctx, token)
	if err != nil {
		return nil, err
	}

	found, err := s.store.DecrementItem(ctx, current.ID, itemID)
	if err != nil {
		return nil, domain.StoreError("failed to decrease cart item", err)
	}
	if !found {
		return nil, domain.NotFoundError("cart item")
	}

	return s.changed(ctx, userID, current.ID)
}

func (s *Service) RemoveItem(ctx context.Context, token, itemID string) (cart *domain.Cart, err error) {
	ctx, span := tracer.Start(ctx, "cart.RemoveItem")
	defer span.End()
	defer func() { recordMutation(ctx, "remove_item", err) }()

	if err := validate.ID("item_id", itemID); err != nil {
		return nil, err
	}

	userID, current, err := s.ownedCart(ctx, token)
	if err != nil {
		return nil, err
	}

	found, err := s.store.RemoveItem(ctx, current.ID, itemID)
	if err != nil {
		return nil, domain.StoreError("failed to remove cart item", err)
	}
	if !found {
		return nil, domain.NotFoundError("cart item")
	}

	return s.changed(ctx, userID, current.ID)
}

// SetShippingAddress points the caller's cart at one of the caller's
// addresses, replacing any previous choice.
func (s *Service) SetShippingAddress(ctx context.Context, token, addressID string) (cart *domain.Cart, err error) {
	ctx, span := tracer.Start(ctx, "cart.SetShippingAddress")
	defer span.End()
	defer func() { recordMutation(ctx, "set_shipping_address", err) }()

	if err := validate.ID("shipping_address_id", addressID); err != nil {
		return nil, err
	}

	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	address, err := s.addresses.GetForUser(ctx, addressID, userID)
	if err != nil {
		return nil, domain.StoreError("failed to find shipping address", err)
	}
	if address == nil {
		return nil, domain.NotFoundError("shipping address")
	}

	current, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, domain.StoreError("failed to get cart", err)
	}
	if current == nil {
		return nil, domain.NotFoundError("cart")
	}

	if err := s.store.SetShippingAddress(ctx, current.ID, address.ID); err != nil {
		return nil, domain.StoreError("failed to set shipping address", err)
	}

	s.logger.InfoContext(ctx, "cart shipping address set", "user_id", userID, "cart_id", current.ID, "address_id", address.ID)

	return s.changed(ctx, userID, current.ID)
}

// ownedCart authenticates the token and loads the caller's existing cart.
// Item ids are only looked up inside that cart, so another user's item is
// reported as not found.
func (s *Service) ownedCart(ctx context.Context, token string) (string, *domain.Cart, error) {
	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return "", nil, err
	}

	current, err := s.store.Get(ctx, userID)
	if err != nil {
		return "", nil, domain.StoreError("failed to get cart", err)
	}
	if current == nil {
		return "", nil, domain.NotFoundError("cart item")
	}

	return userID, current, nil
}

// changed reloads the cart after a mutation and tells dependent readers.
func (s *Service) changed(ctx context.Context, userID, cartID string) (*domain.Cart, error) {
	notify.Emit(ctx, s.publisher, s.logger, domain.NewEvent(domain.EventCartChanged, userID, cartID))

	updated, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, domain.StoreError("failed to reload cart", err)
	}
	if updated == nil {
		return nil, domain.NotFoundError("cart")
	}

	return updated, nil
}

func recordMutation(ctx context.Context, operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(domain.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	mutationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}
