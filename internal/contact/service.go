package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/folio-storefront/api/validators"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/outbox"
	"github.com/angelmondragon/folio-storefront/pkg/outbox/payloads"
	"github.com/angelmondragon/folio-storefront/pkg/pagination"
	"gorm.io/gorm"
)

const (
	maxNameLen    = 120
	maxSubjectLen = 200
	maxBodyLen    = 5000
)

// Submission is the public contact form body.
type Submission struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type MessageList struct {
	Items      []models.ContactMessage `json:"items"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type Service interface {
	Submit(ctx context.Context, input Submission, remoteIP string) (*models.ContactMessage, error)
	List(ctx context.Context, params pagination.Params) (*MessageList, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxPublisher
}

func NewService(repo *Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contact repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

// Submit strips markup from every field, stores the message and queues
// contact_message_received in the same transaction.
func (s *service) Submit(ctx context.Context, input Submission, remoteIP string) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:     validators.SanitizeString(input.Name, maxNameLen),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Subject:  validators.SanitizeString(input.Subject, maxSubjectLen),
		Body:     validators.SanitizeString(input.Message, maxBodyLen),
		RemoteIP: remoteIP,
	}
	if msg.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if msg.Body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if msg.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, msg); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContactMessageReceived,
			AggregateType: enums.AggregateContactMessage,
			AggregateID:   msg.ID,
			Data: payloads.ContactMessageReceivedEvent{
				MessageID: msg.ID,
				Name:      msg.Name,
				Email:     msg.Email,
				Subject:   msg.Subject,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store contact message")
	}
	return msg, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*MessageList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contact messages")
	}
	items, next := pagination.Trim(rows, params.Limit, func(m models.ContactMessage) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	return &MessageList{Items: items, NextCursor: next}, nil
}
