package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/folio-storefront/pkg/db"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/outbox"
	"github.com/angelmondragon/folio-storefront/pkg/outbox/payloads"
	"github.com/angelmondragon/folio-storefront/pkg/pagination"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records paid orders and serves them back by reference.
type Service interface {
	Record(ctx context.Context, input PaidOrder) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	List(ctx context.Context, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

// Record stores the order and queues order_paid in one transaction. Recording
// the same reference twice returns the first order unchanged.
func (s *service) Record(ctx context.Context, input PaidOrder) (*models.Order, error) {
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported currency %q", input.Currency)
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	status := enums.OrderStatusPaid
	if input.NeedsReview {
		status = enums.OrderStatusNeedsReview
	}

	var recorded *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByReference(ctx, reference)
		if err == nil {
			recorded = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		order, err := repo.Create(ctx, &models.Order{
			Reference:      reference,
			Email:          strings.ToLower(strings.TrimSpace(input.Email)),
			Currency:       input.Currency,
			BaseTotal:      input.BaseTotal,
			ConvertedTotal: input.ConvertedTotal,
			AmountMinor:    input.AmountMinor,
			Status:         status,
			Items:          input.Items,
			PaidAt:         paidAt,
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data:          paidEvent(order),
			OccurredAt:    paidAt,
		}); err != nil {
			return err
		}
		recorded = order
		return nil
	})
	if err == nil {
		return recorded, nil
	}
	if db.IsUniqueViolation(err, "") {
		// a concurrent settle for the same reference won the insert
		return s.FindByReference(ctx, reference)
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order")
}

func (s *service) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ref is required")
	}
	order, err := s.repo.FindByReference(ctx, reference)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*OrderList, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	items, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &OrderList{Items: items, NextCursor: next}, nil
}

func paidEvent(order *models.Order) payloads.OrderPaidEvent {
	items := make([]payloads.OrderPaidItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payloads.OrderPaidItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return payloads.OrderPaidEvent{
		OrderID:        order.ID,
		Reference:      order.Reference,
		Email:          order.Email,
		Currency:       string(order.Currency),
		BaseTotal:      order.BaseTotal,
		ConvertedTotal: order.ConvertedTotal,
		AmountMinor:    order.AmountMinor,
		Status:         string(order.Status),
		Items:          items,
		PaidAt:         order.PaidAt,
	}
}
