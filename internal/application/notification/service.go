package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/card-offer-notifier/internal/domain"
	"github.com/card-offer-notifier/internal/pkg/validate"
)

// DefaultLimit is the page size when the caller does not ask for one.
const DefaultLimit = 20

// Page is one page of a user's notifications.
type Page struct {
	Data        []domain.UserNotificationView `json:"data"`
	NextCursor  string                        `json:"next_cursor,omitempty"`
	UnreadCount int                           `json:"unread_count"`
}

type Service interface {
	List(ctx context.Context, userID string, req domain.ListUserNotificationsRequest) (*Page, error)
	MarkRead(ctx context.Context, userID string, req domain.MarkReadRequest) (int, error)
	MarkOne(ctx context.Context, userID, notificationID string) error
}

type linkStore interface {
	ListForUser(ctx context.Context, userID string, limit int, cursor string, unreadOnly bool) ([]domain.UserNotification, string, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	ListUnreadIDs(ctx context.Context, userID string) ([]string, error)
	MarkRead(ctx context.Context, userID, notificationID string, at time.Time) (bool, error)
	Exists(ctx context.Context, userID, notificationID string) (bool, error)
}

type notificationStore interface {
	BatchGet(ctx context.Context, ids []string) (map[string]domain.Notification, error)
}

type service struct {
	links         linkStore
	notifications notificationStore
	now           func() time.Time
}

func NewService(links linkStore, notifications notificationStore) Service {
	return &service{links: links, notifications: notifications, now: time.Now}
}

func (s *service) List(ctx context.Context, userID string, req domain.ListUserNotificationsRequest) (*Page, error) {
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	links, next, err := s.links.ListForUser(ctx, userID, req.Limit, req.Cursor, req.UnreadOnly)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.NotificationID
	}
	canonical, err := s.notifications.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}

	page := &Page{Data: make([]domain.UserNotificationView, 0, len(links)), NextCursor: next}
	for _, l := range links {
		n, ok := canonical[l.NotificationID]
		if !ok {
			continue
		}
		page.Data = append(page.Data, domain.UserNotificationView{Notification: n, Read: l.Read, ReadAt: l.ReadAt})
	}

	page.UnreadCount, err = s.links.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// MarkRead marks the listed notifications, or every unread one when
// req.All is set, and returns how many changed. Ids the user has no link
// to and ids already read are ignored.
func (s *service) MarkRead(ctx context.Context, userID string, req domain.MarkReadRequest) (int, error) {
	if err := validate.Struct(req); err != nil {
		return 0, err
	}
	ids := req.NotificationIDs
	if req.All {
		var err error
		if ids, err = s.links.ListUnreadIDs(ctx, userID); err != nil {
			return 0, err
		}
	} else if len(ids) == 0 {
		return 0, fmt.Errorf("notification_ids or all is required: %w", domain.ErrBadRequest)
	}

	at := s.now().UTC()
	seen := make(map[string]struct{}, len(ids))
	updated := 0
	for _, nid := range ids {
		if _, dup := seen[nid]; dup {
			continue
		}
		seen[nid] = struct{}{}
		ok, err := s.links.MarkRead(ctx, userID, nid, at)
		if err != nil {
			return updated, err
		}
		if ok {
			updated++
		}
	}
	return updated, nil
}

// MarkOne marks a single notification read. Marking an already-read
// notification succeeds; one the user has no link to is ErrNotFound.
func (s *service) MarkOne(ctx context.Context, userID, notificationID string) error {
	ok, err := s.links.MarkRead(ctx, userID, notificationID, s.now().UTC())
	if err != nil || ok {
		return err
	}
	exists, err := s.links.Exists(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	return nil
}
