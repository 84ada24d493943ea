package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/card-offer-notifier/internal/domain"
)

type heldCardStore interface {
	ListHeldCards(ctx context.Context) ([]domain.HeldCard, error)
}

// Scanner derives the set of card products that at least one user holds.
type Scanner struct {
	store heldCardStore
}

func NewScanner(store heldCardStore) *Scanner {
	return &Scanner{store: store}
}

// ListDistinctCardProducts returns each (bank, card name, country) once,
// sorted. Rows with an empty bank or card name are skipped. A store failure
// wraps domain.ErrCatalogScan.
func (s *Scanner) ListDistinctCardProducts(ctx context.Context) ([]domain.CardProductKey, error) {
	cards, err := s.store.ListHeldCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogScan, err)
	}

	seen := make(map[domain.CardProductKey]struct{}, len(cards))
	keys := make([]domain.CardProductKey, 0, len(cards))
	for _, c := range cards {
		k := domain.CardProductKey{
			Bank:     strings.TrimSpace(c.Bank),
			CardName: strings.TrimSpace(c.CardName),
			Country:  strings.TrimSpace(c.Country),
		}
		if k.Bank == "" || k.CardName == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b domain.CardProductKey) int {
		return cmp.Or(
			cmp.Compare(a.Bank, b.Bank),
			cmp.Compare(a.CardName, b.CardName),
			cmp.Compare(a.Country, b.Country),
		)
	})
	return keys, nil
}
