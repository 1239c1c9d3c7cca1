package address

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/querycache"
	"github.com/joao-fontenele/storefront/internal/validate"
)

type Store interface {
	Create(ctx context.Context, a *domain.ShippingAddress) error
	ListByUser(ctx context.Context, userID string) ([]domain.ShippingAddress, error)
	GetForUser(ctx context.Context, id, userID string) (*domain.ShippingAddress, error)
}

// CreateInput is the shipping address form. Formats are the Brazilian
// masks: cpf 000.000.000-00, phone (00) 00000-0000, cep 00000-000.
type CreateInput struct {
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"full_name" validate:"required,max=255"`
	CPF          string `json:"cpf" validate:"required,min=14,max=255"`
	Phone        string `json:"phone" validate:"required,min=15,max=255"`
	ZipCode      string `json:"cep" validate:"required,min=9,max=255"`
	Street       string `json:"address" validate:"required,max=255"`
	Number       string `json:"number" validate:"required,max=32"`
	Complement   string `json:"complement" validate:"omitempty,max=255"`
	Neighborhood string `json:"neighborhood" validate:"required,max=255"`
	City         string `json:"city" validate:"required,max=255"`
	State        string `json:"state" validate:"required,min=2,max=64"`
}

func (in *CreateInput) normalize() {
	for _, f := range []*string{
		&in.Email, &in.FullName, &in.CPF, &in.Phone, &in.ZipCode, &in.Street,
		&in.Number, &in.Complement, &in.Neighborhood, &in.City, &in.State,
	} {
		*f = strings.TrimSpace(*f)
	}
}

type Service struct {
	store     Store
	auth      auth.Authenticator
	publisher notify.Publisher
	cache     *querycache.Cache
	logger    *slog.Logger
}

func NewService(store Store, authn auth.Authenticator, publisher notify.Publisher, cache *querycache.Cache, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		auth:      authn,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
	}
}

// Create stores a new address for the caller. It does not select it for the
// cart; callers follow up with the cart's SetShippingAddress.
func (s *Service) Create(ctx context.Context, token string, in CreateInput) (*domain.ShippingAddress, error) {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	a := &domain.ShippingAddress{
		UserID:       userID,
		FullName:     in.FullName,
		Email:        in.Email,
		CPF:          in.CPF,
		Phone:        in.Phone,
		ZipCode:      in.ZipCode,
		Street:       in.Street,
		Number:       in.Number,
		Complement:   in.Complement,
		Neighborhood: in.Neighborhood,
		City:         in.City,
		State:        in.State,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Create(ctx, a); err != nil {
		return nil, domain.StoreError("failed to create shipping address", err)
	}

	s.logger.InfoContext(ctx, "shipping address created", "address_id", a.ID, "user_id", userID)
	notify.Emit(ctx, s.publisher, s.logger, domain.NewEvent(domain.EventShippingAddressesChanged, userID, a.ID))

	return a, nil
}

// List returns the caller's addresses, newest first.
func (s *Service) List(ctx context.Context, token string) ([]domain.ShippingAddress, error) {
	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	addresses, err := querycache.Load(ctx, s.cache, userID, domain.QueryShippingAddresses,
		func(ctx context.Context) ([]domain.ShippingAddress, error) {
			return s.store.ListByUser(ctx, userID)
		})
	if err != nil {
		return nil, domain.StoreError("failed to list shipping addresses", err)
	}

	return addresses, nil
}
