package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/outbox"
	"github.com/angelmondragon/folio-storefront/pkg/outbox/payloads"
)

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type store interface {
	CreateOnce(ctx context.Context, n *models.Notification) (bool, error)
}

type claimer interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type amountFormatter interface {
	Format(amount decimal.Decimal, code enums.Currency) string
}

type ConsumerParams struct {
	Name         string
	Subscription receiver
	Store        store
	Claims       claimer
	Formatter    amountFormatter
	Logger       *logger.Logger
}

// Consumer turns order and contact events from one subscription into inbox rows.
type Consumer struct {
	name      string
	sub       receiver
	store     store
	claims    claimer
	formatter amountFormatter
	logg      *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	switch {
	case params.Name == "":
		return nil, errors.New("consumer name required")
	case params.Subscription == nil:
		return nil, errors.New("subscription required")
	case params.Store == nil:
		return nil, errors.New("notification store required")
	case params.Claims == nil:
		return nil, errors.New("idempotency tracker required")
	case params.Formatter == nil:
		return nil, errors.New("amount formatter required")
	case params.Logger == nil:
		return nil, errors.New("logger required")
	}
	return &Consumer{
		name:      params.Name,
		sub:       params.Subscription,
		store:     params.Store,
		claims:    params.Claims,
		formatter: params.Formatter,
		logg:      params.Logger,
	}, nil
}

func (c *Consumer) Name() string { return c.name }

// Run receives until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.handle(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// handle reports whether the message should be acked. Malformed messages are
// acked and logged since redelivery cannot fix them.
func (c *Consumer) handle(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	eventType := enums.OutboxEventType(attrs["event_type"])
	ctx = c.logg.WithFields(ctx, map[string]any{
		"consumer":   c.name,
		"message_id": messageID,
		"event_type": string(eventType),
	})
	if eventType != enums.EventOrderPaid && eventType != enums.EventContactMessageReceived {
		c.logg.Debug(ctx, "event not handled by notifications")
		return true
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(ctx, "undecodable envelope", err)
		return true
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(ctx, "invalid event id", err)
		return true
	}
	ctx = c.logg.WithField(ctx, "event_id", eventID.String())

	notification, err := c.build(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(ctx, "undecodable event payload", err)
		return true
	}
	notification.EventID = eventID

	first, err := c.claims.Claim(ctx, c.name, eventID)
	if err != nil {
		c.logg.Error(ctx, "idempotency claim failed", err)
		return false
	}
	if !first {
		c.logg.Info(ctx, "event already handled")
		return true
	}

	created, err := c.store.CreateOnce(ctx, notification)
	if err != nil {
		c.logg.Error(ctx, "store notification", err)
		if relErr := c.claims.Release(ctx, c.name, eventID); relErr != nil {
			c.logg.Warn(ctx, fmt.Sprintf("release claim: %v", relErr))
		}
		return false
	}
	if created {
		c.logg.Info(ctx, "notification stored")
	}
	return true
}

func (c *Consumer) build(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.EventOrderPaid:
		var event payloads.OrderPaidEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, err
		}
		if event.Reference == "" {
			return nil, errors.New("order reference missing")
		}
		amount := c.formatter.Format(event.ConvertedTotal, enums.Currency(event.Currency))
		title := "New order paid"
		if event.Status == string(enums.OrderStatusNeedsReview) {
			title = "Paid order needs review"
		}
		return &models.Notification{
			Kind:    enums.NotificationKindOrderPaid,
			Title:   title,
			Message: fmt.Sprintf("%s paid %s for %s (%s).", event.Email, amount, itemCount(event.Items), event.Reference),
			Link:    stringPtr("/admin/orders?ref=" + url.QueryEscape(event.Reference)),
		}, nil
	default:
		var event payloads.ContactMessageReceivedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, err
		}
		if event.MessageID == uuid.Nil {
			return nil, errors.New("message id missing")
		}
		subject := strings.TrimSpace(event.Subject)
		if subject == "" {
			subject = "no subject"
		}
		return &models.Notification{
			Kind:    enums.NotificationKindContactMessage,
			Title:   "New message from " + event.Name,
			Message: fmt.Sprintf("%s <%s> wrote: %s", event.Name, event.Email, subject),
			Link:    stringPtr("/admin/contact/" + event.MessageID.String()),
		}, nil
	}
}

func itemCount(items []payloads.OrderPaidItem) string {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	if total == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", total)
}

func stringPtr(value string) *string {
	return &value
}
