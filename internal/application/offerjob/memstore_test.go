package offerjob

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/card-offer-notifier/internal/domain"
)

// memStore is an in-memory stand-in for the DynamoDB tables. Links are
// keyed by (user, notification) like the user_notifications primary key.
type memStore struct {
	mu            sync.Mutex
	cards         []domain.HeldCard
	notifications map[string]domain.Notification
	links         map[linkKey]domain.UserNotification

	scanErr      error
	holderErr    map[string]error // by bank#card_name
	queryErr     map[string]error // by offer title being resolved
	linkErrUsers map[string]bool
}

type linkKey struct{ userID, notificationID string }

func newMemStore(cards ...domain.HeldCard) *memStore {
	return &memStore{
		cards:         cards,
		notifications: make(map[string]domain.Notification),
		links:         make(map[linkKey]domain.UserNotification),
		holderErr:     make(map[string]error),
		queryErr:      make(map[string]error),
		linkErrUsers:  make(map[string]bool),
	}
}

func (s *memStore) ListHeldCards(context.Context) ([]domain.HeldCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return slices.Clone(s.cards), nil
}

func (s *memStore) ListHolders(_ context.Context, bank, cardName string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ck := domain.CardKey(bank, cardName)
	if err := s.holderErr[ck]; err != nil {
		return nil, err
	}
	var users []string
	for _, c := range s.cards {
		if domain.CardKey(c.Bank, c.CardName) == ck && !slices.Contains(users, c.UserID) {
			users = append(users, c.UserID)
		}
	}
	return users, nil
}

func (s *memStore) seedNotification(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[n.NotificationID] = n
}

func (s *memStore) notificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func (s *memStore) notificationsFor(bank, cardName string, t domain.OfferType) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.CardIssuer == bank && n.CardName == cardName && n.NotificationType == t {
			out = append(out, n)
		}
	}
	return out
}

func (s *memStore) linkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

func (s *memStore) link(userID, notificationID string) (domain.UserNotification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	un, ok := s.links[linkKey{userID, notificationID}]
	return un, ok
}

func (s *memStore) linksOf(userID string) []domain.UserNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UserNotification
	for k, un := range s.links {
		if k.userID == userID {
			out = append(out, un)
		}
	}
	return out
}

func (s *memStore) markRead(userID, notificationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := linkKey{userID, notificationID}
	un := s.links[k]
	un.Read = true
	s.links[k] = un
}

// memNotifications exposes the notifications table methods.
type memNotifications struct{ *memStore }

func (s memNotifications) QueryRecent(_ context.Context, bank, cardName string, t domain.OfferType, limit int) ([]domain.Notification, error) {
	out := s.notificationsFor(bank, cardName, t)
	// ULIDs sort by creation time; newest first.
	slices.SortFunc(out, func(a, b domain.Notification) int {
		return cmp.Compare(b.NotificationID, a.NotificationID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memNotifications) Insert(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.NotificationID]; ok {
		return domain.ErrConflict
	}
	s.notifications[n.NotificationID] = *n
	return nil
}

// memLinks exposes the user_notifications table methods.
type memLinks struct{ *memStore }

func (s memLinks) Exists(_ context.Context, userID, notificationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkErrUsers[userID] {
		return false, errors.New("link store unavailable")
	}
	_, ok := s.links[linkKey{userID, notificationID}]
	return ok, nil
}

func (s memLinks) Insert(_ context.Context, un *domain.UserNotification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := linkKey{un.UserID, un.NotificationID}
	if _, ok := s.links[k]; ok {
		return false, nil
	}
	s.links[k] = *un
	return true, nil
}

// failingResolver wraps a resolver and fails offers whose title is listed in
// the store's queryErr.
type failingResolver struct {
	store *memStore
	next  notificationResolver
}

func (f failingResolver) Resolve(ctx context.Context, key domain.CardProductKey, offer domain.Offer) (string, bool, error) {
	f.store.mu.Lock()
	err := f.store.queryErr[offer.Title]
	f.store.mu.Unlock()
	if err != nil {
		return "", false, err
	}
	return f.next.Resolve(ctx, key, offer)
}
