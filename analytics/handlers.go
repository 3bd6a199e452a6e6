package analytics

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubsite/logger"
)

// Handler serves the collect endpoint and the stats API.
type Handler struct {
	store   *Store
	log     *logger.Logger
	limiter *keyedLimiter
	done    chan struct{}
	now     func() time.Time
}

// NewHandler creates a handler. The collect endpoint accepts 60 requests
// per IP per minute. Call Close to stop its background sweeper.
func NewHandler(store *Store, log *logger.Logger) *Handler {
	h := &Handler{
		store:   store,
		log:     log,
		limiter: newKeyedLimiter(60, time.Minute),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go h.limiter.run(h.done)
	return h
}

// Close stops the limiter sweeper.
func (h *Handler) Close() {
	close(h.done)
}

// CollectRequest is the body posted by the tracking script.
type CollectRequest struct {
	Kind     string `json:"kind"`
	Target   string `json:"target"`
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
}

// Input limits for the collect endpoint.
const (
	maxTargetLen   = 2048
	maxPathLen     = 2048
	maxReferrerLen = 2048
	statsRowLimit  = 10
)

var errInvalidCollect = errors.New("invalid collect request")

func validateCollectRequest(req *CollectRequest) error {
	switch {
	case !Kind(req.Kind).Valid():
		return errInvalidCollect
	case req.Target == "" || len(req.Target) > maxTargetLen:
		return errInvalidCollect
	case !strings.HasPrefix(req.Path, "/") || len(req.Path) > maxPathLen:
		return errInvalidCollect
	case len(req.Referrer) > maxReferrerLen:
		return errInvalidCollect
	}
	return nil
}

// Collect records one event. It always answers 204 for accepted, ignored
// (DNT or bot) and failed-to-store events so the client never retries.
func (h *Handler) Collect(c echo.Context) error {
	if !h.limiter.allow(c.RealIP()) {
		return c.NoContent(http.StatusTooManyRequests)
	}
	if c.Request().Header.Get("DNT") == "1" {
		return c.NoContent(http.StatusNoContent)
	}

	var req CollectRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}
	if err := validateCollectRequest(&req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}

	ua := c.Request().UserAgent()
	if IsBot(ua) {
		return c.NoContent(http.StatusNoContent)
	}

	path := req.Path
	if u, err := url.Parse(req.Path); err == nil {
		path = u.Path
	}
	ev := &Event{
		Kind:      Kind(req.Kind),
		Target:    req.Target,
		Path:      path,
		Referrer:  CleanReferrer(req.Referrer),
		Visitor:   VisitorID(c.RealIP(), ua),
		Timestamp: h.now().UTC(),
	}
	if err := h.store.SaveEvent(ev); err != nil {
		h.log.Error("save analytics event", "error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats returns the summary for the requested period.
func (h *Handler) Stats(period string) (*Stats, error) {
	name, d := ParsePeriod(period)
	now := h.now().UTC()
	st, err := h.store.GetStats(now.Add(-d), now.Add(time.Second), statsRowLimit)
	if err != nil {
		return nil, err
	}
	st.Period = name
	return st, nil
}

// GetStats serves Stats as JSON.
func (h *Handler) GetStats(c echo.Context) error {
	st, err := h.Stats(c.QueryParam("period"))
	if err != nil {
		h.log.Error("analytics stats", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, st)
}

// RegisterRoutes mounts the public collect endpoint and the admin stats API.
// adminMiddleware must reject requests without an admin session.
func (h *Handler) RegisterRoutes(e *echo.Echo, adminMiddleware ...echo.MiddlewareFunc) {
	e.POST("/api/analytics/collect", h.Collect)

	admin := e.Group("/admin/analytics", adminMiddleware...)
	admin.GET("/api/stats", h.GetStats)
}
