// Package http implements the HTTP delta-ingestion transport: a webhook
// endpoint the triplestore (or an intermediary like mu-delta-notifier)
// POSTs changesets to.
//
// Grounded on cli/root.go's echo.New()/middleware.Logger()/Recover()
// bootstrap in the teacher codebase, with a request-scoped identifier
// attached the way pkg/statemanager/middleware.go attaches an operation
// ID — here as a logging field rather than a tracked operation, since the
// delta endpoint has no operation lifecycle to track beyond the request
// itself.
package http

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/mu-semtech/delta-indexer/internal/deltarouter"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
	"github.com/mu-semtech/delta-indexer/internal/updatehandler"
)

// requestIDKey is the echo.Context key the request-id middleware stores
// under.
const requestIDKey = "delta_request_id"

// Server hosts the POST /delta ingestion endpoint.
type Server struct {
	Echo   *echo.Echo
	Router *deltarouter.Router
	Queue  *updatehandler.CoalescingQueue
	Logger *logrus.Entry
}

// NewServer builds a Server with its middleware stack and routes wired.
func NewServer(router *deltarouter.Router, queue *updatehandler.CoalescingQueue, logger *logrus.Entry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(requestIDMiddleware)

	s := &Server{Echo: e, Router: router, Queue: queue, Logger: logger}
	e.POST("/delta", s.handleDelta)
	return s
}

// requestIDMiddleware attaches a fresh identifier to every request,
// following the uuid.New().String() idiom of statemanager.Middleware.
func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(requestIDKey, uuid.New().String())
		return next(c)
	}
}

// handleDelta implements the §6 delta wire contract: a non-array payload
// is logged and acknowledged without mutating any index (spec §8 "Delta
// with non-array payload: no index mutation; error logged"). A
// well-formed payload is routed to Update Jobs and enqueued; the response
// is sent only after every job has been accepted onto the (possibly
// bounded, blocking) coalescing queue, so a slow consumer naturally
// backpressures the sender.
func (s *Server) handleDelta(c echo.Context) error {
	reqID, _ := c.Get(requestIDKey).(string)
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		s.logf(reqID, "read delta body: %v", err)
		return c.NoContent(http.StatusBadRequest)
	}

	msg, err := rdfmodel.ParseDeltaMessage(body)
	if err != nil {
		s.logf(reqID, "parse delta payload: %v", err)
		return c.NoContent(http.StatusOK)
	}

	ctx := c.Request().Context()
	jobs, err := s.Router.Route(ctx, msg)
	if err != nil {
		s.logf(reqID, "route delta message: %v", err)
		return c.NoContent(http.StatusOK)
	}

	for _, job := range jobs {
		if err := s.Queue.Enqueue(ctx, job); err != nil {
			s.logf(reqID, "enqueue job %s/%s: %v", job.TypeName, job.Subject, err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) logf(reqID, format string, args ...interface{}) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithField("request_id", reqID).Warnf(format, args...)
}
