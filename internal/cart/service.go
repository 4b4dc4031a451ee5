package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/google/uuid"
)

const maxLineQuantity = 99

type productLoader interface {
	GetPublished(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the session-scoped cart operations.
type Service interface {
	Read(ctx context.Context, sessionID string) (Snapshot, error)
	AddProduct(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (Snapshot, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (Snapshot, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (Snapshot, error)
	SetOpen(ctx context.Context, sessionID string, open bool) (Snapshot, error)
	// Mutate runs fn against the session's Store and persists the result atomically.
	Mutate(ctx context.Context, sessionID string, fn func(*Store) error) (Snapshot, error)
}

type service struct {
	state    StateStore
	products productLoader
}

// NewService builds a cart service over the given state backend.
func NewService(state StateStore, products productLoader) (Service, error) {
	if state == nil {
		return nil, fmt.Errorf("cart state store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{state: state, products: products}, nil
}

func (s *service) Read(ctx context.Context, sessionID string) (Snapshot, error) {
	if err := validateSession(sessionID); err != nil {
		return Snapshot{}, err
	}
	snap, err := s.state.Load(ctx, sessionID)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart unavailable")
	}
	return snap, nil
}

// AddProduct copies the catalog record into a line item and merges it into the
// cart. The merged line may not exceed maxLineQuantity.
func (s *service) AddProduct(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (Snapshot, error) {
	if quantity < 1 || quantity > maxLineQuantity {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", maxLineQuantity))
	}
	product, err := s.products.GetPublished(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	candidate := LineItem{
		ID:       product.ID.String(),
		Name:     product.Name,
		Price:    product.Price,
		Image:    product.Image,
		Quantity: quantity,
	}
	return s.Mutate(ctx, sessionID, func(store *Store) error {
		if merged := store.Quantity(candidate.ID) + quantity; merged > maxLineQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("a line holds at most %d units", maxLineQuantity))
		}
		store.AddItem(candidate)
		return nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (Snapshot, error) {
	if quantity > maxLineQuantity {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at most %d", maxLineQuantity))
	}
	return s.Mutate(ctx, sessionID, func(store *Store) error {
		store.UpdateQuantity(itemID, quantity)
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, itemID string) (Snapshot, error) {
	return s.Mutate(ctx, sessionID, func(store *Store) error {
		store.RemoveItem(itemID)
		return nil
	})
}

func (s *service) SetOpen(ctx context.Context, sessionID string, open bool) (Snapshot, error) {
	return s.Mutate(ctx, sessionID, func(store *Store) error {
		store.SetOpen(open)
		return nil
	})
}

func (s *service) Mutate(ctx context.Context, sessionID string, fn func(*Store) error) (Snapshot, error) {
	if err := validateSession(sessionID); err != nil {
		return Snapshot{}, err
	}
	snap, err := s.state.Update(ctx, sessionID, fn)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return Snapshot{}, err
		}
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart unavailable")
	}
	return snap, nil
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return nil
}
