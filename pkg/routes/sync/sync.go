package sync

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/synclog"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/orchestrator"
	"github.com/Ramsey-B/fern/pkg/syncer"
)

// Handler handles sync API endpoints
type Handler struct {
	orch            *orchestrator.Orchestrator
	logs            *synclog.Repository
	continueOnError bool
	logger          ectologger.Logger
}

// NewHandler creates a new sync handler. continueOnError is the default for
// runs that do not specify it.
func NewHandler(orch *orchestrator.Orchestrator, logs *synclog.Repository, continueOnError bool, logger ectologger.Logger) *Handler {
	return &Handler{
		orch:            orch,
		logs:            logs,
		continueOnError: continueOnError,
		logger:          logger,
	}
}

// Register registers the sync routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Run)
	g.POST("/entities/:entityType", h.RunEntity)
	g.POST("/cancel", h.Cancel)
	g.GET("/status", h.Status)
	g.GET("/log", h.ListLog)
}

func (h *Handler) requireOrchestrator(c echo.Context) (*orchestrator.Orchestrator, error) {
	// Prefer explicitly provided orchestrator (useful for tests), but fall
	// back to DI-from-context.
	if h != nil && h.orch != nil {
		return h.orch, nil
	}

	ctx := c.Request().Context()
	_, orch, err := ectoinject.GetContext[*orchestrator.Orchestrator](ctx)
	if err != nil || orch == nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "sync orchestrator unavailable")
	}
	return orch, nil
}

// RunRequest is the request body for starting a sync run
type RunRequest struct {
	SkipCompute     bool `json:"skip_compute"`
	SkipCache       bool `json:"skip_cache"`
	ContinueOnError bool `json:"continue_on_error"`
	Legacy          bool `json:"legacy"`
}

// Run starts a full sync run
// @Summary Run a full sync
// @Description Sync all entities from the source, rebuild relationships, compute derived fields and invalidate caches
// @Tags Sync
// @Accept json
// @Produce json
// @Param body body RunRequest false "Run options"
// @Success 200 {object} orchestrator.RunResult
// @Failure 409 {object} httperror.HTTPError
// @Failure 500 {object} httperror.HTTPError
// @Router /api/v1/sync [post]
func (h *Handler) Run(c echo.Context) error {
	ctx := c.Request().Context()

	orch, err := h.requireOrchestrator(c)
	if err != nil {
		return err
	}

	req := RunRequest{ContinueOnError: h.continueOnError}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	opts := orchestrator.Options{
		SkipCompute:     req.SkipCompute,
		SkipCache:       req.SkipCache,
		ContinueOnError: req.ContinueOnError,
	}

	var result *orchestrator.RunResult
	if req.Legacy {
		result, err = orch.RunLegacy(ctx, opts)
	} else {
		result, err = orch.Run(ctx, opts)
	}
	if errors.Is(err, orchestrator.ErrSyncInProgress) {
		return httperror.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil && result == nil {
		return err
	}

	// failed and cancelled runs still return the full result
	return c.JSON(http.StatusOK, result)
}

// RunEntity syncs a single entity type
// @Summary Sync one entity type
// @Description Sync a single entity type from the source; dry_run reports what would happen without writing
// @Tags Sync
// @Produce json
// @Param entityType path string true "Entity type" Enums(characters, timeline_events, elements, puzzles)
// @Param dry_run query bool false "Fetch and map without writing"
// @Param continue_on_error query bool false "Skip bad records instead of aborting"
// @Success 200 {object} syncer.Result
// @Failure 400 {object} httperror.HTTPError
// @Failure 409 {object} httperror.HTTPError
// @Failure 500 {object} httperror.HTTPError
// @Router /api/v1/sync/entities/{entityType} [post]
func (h *Handler) RunEntity(c echo.Context) error {
	ctx := c.Request().Context()

	orch, err := h.requireOrchestrator(c)
	if err != nil {
		return err
	}

	kind := models.EntityKind(c.Param("entityType"))
	switch kind {
	case models.KindCharacter, models.KindTimelineEvent, models.KindElement, models.KindPuzzle:
	default:
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown entity type")
	}

	opts := syncer.Options{ContinueOnError: h.continueOnError}
	if v := c.QueryParam("dry_run"); v != "" {
		_ = echo.QueryParamsBinder(c).Bool("dry_run", &opts.DryRun).BindError()
	}
	if v := c.QueryParam("continue_on_error"); v != "" {
		_ = echo.QueryParamsBinder(c).Bool("continue_on_error", &opts.ContinueOnError).BindError()
	}

	result, err := orch.RunEntity(ctx, kind, opts)
	if errors.Is(err, orchestrator.ErrSyncInProgress) {
		return httperror.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil && result == nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Cancel asks the active run to stop at the next phase boundary
// @Summary Cancel the active sync
// @Tags Sync
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /api/v1/sync/cancel [post]
func (h *Handler) Cancel(c echo.Context) error {
	orch, err := h.requireOrchestrator(c)
	if err != nil {
		return err
	}

	accepted := orch.Cancel()
	return c.JSON(http.StatusOK, map[string]bool{"cancel_requested": accepted})
}

// Status reports whether a sync is running and what the last run did
// @Summary Sync status
// @Tags Sync
// @Produce json
// @Success 200 {object} orchestrator.Status
// @Router /api/v1/sync/status [get]
func (h *Handler) Status(c echo.Context) error {
	orch, err := h.requireOrchestrator(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orch.Status())
}

// ListLog returns recent sync log entries
// @Summary List sync log entries
// @Tags Sync
// @Produce json
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {array} models.SyncLogEntry
// @Failure 500 {object} httperror.HTTPError
// @Router /api/v1/sync/log [get]
func (h *Handler) ListLog(c echo.Context) error {
	ctx := c.Request().Context()

	if h.logs == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "sync log unavailable")
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		var parsed int
		if err := echo.QueryParamsBinder(c).Int("limit", &parsed).BindError(); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.logs.List(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}
