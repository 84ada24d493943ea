package http

import (
	"github.com/card-offer-notifier/internal/application/notification"
	"github.com/card-offer-notifier/internal/transport/http/handler"
	appmiddleware "github.com/card-offer-notifier/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// Deps holds everything the router needs. Verifier may be nil in local
// development, in which case routes are served without authentication.
type Deps struct {
	Notifications notification.Service
	Jobs          handler.JobRunner
	Verifier      appmiddleware.TokenVerifier
	Logger        *zap.Logger
}
