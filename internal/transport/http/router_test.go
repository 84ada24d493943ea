package http

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/card-offer-notifier/internal/application/notification"
	"github.com/card-offer-notifier/internal/config"
	"github.com/card-offer-notifier/internal/domain"
	jwtinfra "github.com/card-offer-notifier/internal/infrastructure/jwt"
	"github.com/card-offer-notifier/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubNotifications struct{ mock.Mock }

func (s *stubNotifications) List(ctx context.Context, userID string, req domain.ListUserNotificationsRequest) (*notification.Page, error) {
	args := s.Called(ctx, userID, req)
	p, _ := args.Get(0).(*notification.Page)
	return p, args.Error(1)
}
func (s *stubNotifications) MarkRead(ctx context.Context, userID string, req domain.MarkReadRequest) (int, error) {
	args := s.Called(ctx, userID, req)
	return args.Int(0), args.Error(1)
}
func (s *stubNotifications) MarkOne(ctx context.Context, userID, notificationID string) error {
	return s.Called(ctx, userID, notificationID).Error(0)
}

type stubRunner struct{ runs int }

func (s *stubRunner) Run(context.Context) (*domain.JobSummary, error) {
	s.runs++
	return &domain.JobSummary{Success: true}, nil
}

type routerFixture struct {
	handler  http.Handler
	provider *jwtinfra.Provider
	svc      *stubNotifications
	runner   *stubRunner
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &routerFixture{
		provider: jwtinfra.NewProviderFromKeys(key, &key.PublicKey, time.Hour),
		svc:      &stubNotifications{},
		runner:   &stubRunner{},
	}
	f.handler = NewRouter(&config.Config{AllowedOrigins: []string{"*"}}, &Deps{
		Notifications: f.svc,
		Jobs:          f.runner,
		Verifier:      f.provider,
		Logger:        zap.NewNop(),
	})
	return f
}

func (f *routerFixture) do(t *testing.T, method, target, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if role != "" {
		tok, err := f.provider.Sign("u1", role)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, r)
	return rr
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/v1/health-check/ping", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/metrics", "", "").Code)
}

func TestRouter_NotificationsRequireAuth(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/v1/notifications", "", "").Code)
}

func TestRouter_ReadAllRouteIsNotAnID(t *testing.T) {
	f := newRouterFixture(t)
	f.svc.On("MarkRead", mock.Anything, "u1", domain.MarkReadRequest{All: true}).Return(3, nil)

	rr := f.do(t, http.MethodPut, "/v1/notifications/read", "user", `{"all":true}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"updated":3}`, rr.Body.String())
	f.svc.AssertNotCalled(t, "MarkOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_MarkOneRoute(t *testing.T) {
	f := newRouterFixture(t)
	f.svc.On("MarkOne", mock.Anything, "u1", "01HX").Return(nil)

	rr := f.do(t, http.MethodPut, "/v1/notifications/01HX", "user", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	f.svc.AssertExpectations(t)
}

func TestRouter_JobTriggerIsAdminOnly(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/v1/jobs/offer-notifications", "", "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/v1/jobs/offer-notifications", "user", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/v1/jobs/offer-notifications", domain.RoleAdmin, "").Code)
	assert.Equal(t, 1, f.runner.runs)
}

func TestRouter_UnmatchedPathsShareOneMetricSeries(t *testing.T) {
	f := newRouterFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/no-such-route", "", "").Code)
	before := testutil.CollectAndCount(metrics.HTTPRequestDuration)

	for _, path := range []string{"/unknown-a", "/unknown-b", "/unknown-c/deeper"} {
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, "", "").Code)
	}

	assert.Equal(t, before, testutil.CollectAndCount(metrics.HTTPRequestDuration))
}

func TestRouter_JobRateLimitIgnoresForwardedFor(t *testing.T) {
	f := newRouterFixture(t)

	codes := make([]int, 0, 3)
	for i := range 3 {
		r := httptest.NewRequest(http.MethodPost, "/v1/jobs/offer-notifications", nil)
		tok, err := f.provider.Sign("u1", domain.RoleAdmin)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+tok)
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rr := httptest.NewRecorder()
		f.handler.ServeHTTP(rr, r)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
