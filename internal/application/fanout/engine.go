package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/card-offer-notifier/internal/domain"
	"go.uber.org/zap"
)

type holderStore interface {
	ListHolders(ctx context.Context, bank, cardName string) ([]string, error)
}

type linkStore interface {
	Exists(ctx context.Context, userID, notificationID string) (bool, error)
	Insert(ctx context.Context, un *domain.UserNotification) (bool, error)
}

// Result counts the outcome of linking one notification to its holders.
type Result struct {
	Created  int
	Existing int
	Failed   int
}

// Engine links a canonical notification to every user holding the card.
type Engine struct {
	holders holderStore
	links   linkStore
	log     *zap.Logger
	now     func() time.Time
}

func NewEngine(holders holderStore, links linkStore, log *zap.Logger) *Engine {
	return &Engine{holders: holders, links: links, log: log, now: time.Now}
}

// Fanout ensures a link exists for each holder of key. Per-user failures are
// logged and counted in Result.Failed; only a holder lookup failure is
// returned as an error.
func (e *Engine) Fanout(ctx context.Context, notificationID string, key domain.CardProductKey) (Result, error) {
	var res Result
	users, err := e.holders.ListHolders(ctx, key.Bank, key.CardName)
	if err != nil {
		return res, fmt.Errorf("list holders: %w", err)
	}

	for _, userID := range users {
		exists, err := e.links.Exists(ctx, userID, notificationID)
		if err != nil {
			e.linkFailed(userID, notificationID, err)
			res.Failed++
			continue
		}
		if exists {
			res.Existing++
			continue
		}
		created, err := e.links.Insert(ctx, &domain.UserNotification{
			UserID:         userID,
			NotificationID: notificationID,
			CreatedAt:      e.now().UTC(),
		})
		switch {
		case err != nil:
			e.linkFailed(userID, notificationID, err)
			res.Failed++
		case created:
			res.Created++
		default:
			// Lost a race with another writer; the row is there either way.
			res.Existing++
		}
	}
	return res, nil
}

func (e *Engine) linkFailed(userID, notificationID string, err error) {
	e.log.Warn("user notification link failed",
		zap.String("user_id", userID),
		zap.String("notification_id", notificationID),
		zap.Error(err))
}
