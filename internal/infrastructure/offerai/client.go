package offerai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/card-offer-notifier/internal/domain"
	"github.com/card-offer-notifier/internal/pkg/metrics"
	"github.com/card-offer-notifier/internal/pkg/validate"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response is copied into the error.
const maxErrorBody = 512

// Client calls the AI offer service for one card product at a time.
// It never retries; a failed call costs the caller one unit of work.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
	now        func() time.Time
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		now:        time.Now,
	}
}

type offersRequest struct {
	CardName string `json:"card_name"`
	Bank     string `json:"bank"`
	Country  string `json:"country"`
}

type offersResponse struct {
	Offers []rawOffer `json:"offers"`
}

type rawOffer struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// FetchOffers returns the normalized candidate offers for key in the order
// the service listed them. Every failure wraps domain.ErrOfferFetch.
func (c *Client) FetchOffers(ctx context.Context, key domain.CardProductKey) ([]domain.Offer, error) {
	start := time.Now()
	status := "error"
	defer func() { metrics.RecordOfferFetch(status, time.Since(start)) }()

	b, err := json.Marshal(offersRequest{CardName: key.CardName, Bank: key.Bank, Country: key.Country})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOfferFetch, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/offers", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOfferFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOfferFetch, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: offer service returned %d: %s",
			domain.ErrOfferFetch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out offersResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrOfferFetch, err)
	}
	return c.normalize(key, out.Offers), nil
}

// normalize trims fields, maps unknown types to "other" and drops offers
// that fail validation or carry unparseable dates.
func (c *Client) normalize(key domain.CardProductKey, raw []rawOffer) []domain.Offer {
	fetchedDay := c.now().UTC().Truncate(24 * time.Hour)
	offers := make([]domain.Offer, 0, len(raw))
	for i, r := range raw {
		o := domain.Offer{
			Type:        domain.ParseOfferType(strings.ToLower(strings.TrimSpace(r.Type))),
			Title:       strings.TrimSpace(r.Title),
			Description: strings.TrimSpace(r.Description),
			StartDate:   fetchedDay,
		}
		if s := strings.TrimSpace(r.StartDate); s != "" {
			t, err := parseDate(s)
			if err != nil {
				c.drop(key, i, "start_date", err)
				continue
			}
			o.StartDate = t
		}
		if s := strings.TrimSpace(r.EndDate); s != "" {
			t, err := parseDate(s)
			if err != nil {
				c.drop(key, i, "end_date", err)
				continue
			}
			o.EndDate = &t
		}
		if err := validate.Struct(o); err != nil {
			c.drop(key, i, "validation", err)
			continue
		}
		offers = append(offers, o)
	}
	return offers
}

func (c *Client) drop(key domain.CardProductKey, index int, reason string, err error) {
	c.log.Warn("dropping offer",
		zap.String("card_product", key.String()),
		zap.Int("index", index),
		zap.String("reason", reason),
		zap.Error(err))
}

// parseDate accepts a calendar date or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
