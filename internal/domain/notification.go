package domain

import "time"

// Notification is the canonical record of one real-world card event, shared
// by every holder of the card product. Rows are append-only.
type Notification struct {
	NotificationID   string     `json:"id" dynamodbav:"notification_id"`
	CardIssuer       string     `json:"card_issuer" dynamodbav:"card_issuer"`
	CardName         string     `json:"card_name" dynamodbav:"card_name"`
	NotificationType OfferType  `json:"notification_type" dynamodbav:"notification_type"`
	Title            string     `json:"title" dynamodbav:"title"`
	Description      string     `json:"description" dynamodbav:"description"`
	StartDate        time.Time  `json:"start_date" dynamodbav:"start_date"`
	EndDate          *time.Time `json:"end_date" dynamodbav:"end_date,omitempty"`
	CreatedAt        time.Time  `json:"created" dynamodbav:"created_at"`
	ProductTypeKey   string     `json:"-" dynamodbav:"product_type_key"` // bank#card_name#type
}

// ProductTypeKey is the hash key of the notifications lookup index.
func ProductTypeKey(bank, cardName string, t OfferType) string {
	return CardKey(bank, cardName) + "#" + string(t)
}

// UserNotification links a Notification to one user and carries the user's
// read state. At most one row exists per (UserID, NotificationID).
type UserNotification struct {
	UserID         string     `json:"user_id" dynamodbav:"user_id"`
	NotificationID string     `json:"notification_id" dynamodbav:"notification_id"`
	Read           bool       `json:"read" dynamodbav:"read"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty" dynamodbav:"read_at,omitempty"`
}

// UserNotificationView is a canonical notification joined with one user's
// read flag, as returned by the API.
type UserNotificationView struct {
	Notification
	Read   bool       `json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}

// ListUserNotificationsRequest carries the query for a user's notifications.
type ListUserNotificationsRequest struct {
	Limit      int    `validate:"min=1,max=100"`
	Cursor     string
	UnreadOnly bool
}

// MarkReadRequest marks either the listed notifications or all of them.
type MarkReadRequest struct {
	NotificationIDs []string `json:"notification_ids" validate:"omitempty,max=100,dive,required"`
	All             bool     `json:"all"`
}
