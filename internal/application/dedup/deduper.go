// Package dedup maps a candidate offer onto a canonical notification,
// creating one only when no recent notification already describes it.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/card-offer-notifier/internal/domain"
	"github.com/card-offer-notifier/internal/pkg/id"
	"github.com/card-offer-notifier/internal/pkg/similarity"
)

// Window is how many recent notifications of the same card and type are
// compared against a candidate.
const Window = 5

type notificationStore interface {
	QueryRecent(ctx context.Context, bank, cardName string, t domain.OfferType, limit int) ([]domain.Notification, error)
	Insert(ctx context.Context, n *domain.Notification) error
}

type Deduper struct {
	store notificationStore
	now   func() time.Time
}

func NewDeduper(store notificationStore) *Deduper {
	return &Deduper{store: store, now: time.Now}
}

// Resolve returns the id of the canonical notification for offer, and
// whether it was created by this call.
//
// The lookup and the insert are separate store calls. Two runners resolving
// the same offer at once can both miss and both insert; callers avoid this
// by never resolving one card product from two places at the same time.
func (d *Deduper) Resolve(ctx context.Context, key domain.CardProductKey, offer domain.Offer) (string, bool, error) {
	recent, err := d.store.QueryRecent(ctx, key.Bank, key.CardName, offer.Type, Window)
	if err != nil {
		return "", false, fmt.Errorf("query recent notifications: %w", err)
	}
	for _, n := range recent {
		if similarity.IsTitleSimilar(n.Title, offer.Title) {
			return n.NotificationID, false, nil
		}
	}

	now := d.now().UTC()
	n := &domain.Notification{
		NotificationID:   id.NewAt(now),
		CardIssuer:       key.Bank,
		CardName:         key.CardName,
		NotificationType: offer.Type,
		Title:            offer.Title,
		Description:      offer.Description,
		StartDate:        offer.StartDate,
		EndDate:          offer.EndDate,
		CreatedAt:        now,
	}
	if err := d.store.Insert(ctx, n); err != nil {
		return "", false, fmt.Errorf("insert notification: %w", err)
	}
	return n.NotificationID, true, nil
}
