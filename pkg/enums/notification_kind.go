package enums

// NotificationKind says which event produced an admin notification.
type NotificationKind string

const (
	NotificationKindOrderPaid      NotificationKind = "order_paid"
	NotificationKindContactMessage NotificationKind = "contact_message"
)

func (k NotificationKind) IsValid() bool {
	return k == NotificationKindOrderPaid || k == NotificationKindContactMessage
}
