package sync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/logging"
	"github.com/Ramsey-B/fern/internal/middleware"
	characterrepo "github.com/Ramsey-B/fern/internal/repositories/character"
	elementrepo "github.com/Ramsey-B/fern/internal/repositories/element"
	graphcacherepo "github.com/Ramsey-B/fern/internal/repositories/graphcache"
	puzzlerepo "github.com/Ramsey-B/fern/internal/repositories/puzzle"
	relationshiprepo "github.com/Ramsey-B/fern/internal/repositories/relationship"
	synclogrepo "github.com/Ramsey-B/fern/internal/repositories/synclog"
	timelineeventrepo "github.com/Ramsey-B/fern/internal/repositories/timelineevent"
	"github.com/Ramsey-B/fern/internal/testutil"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/derive"
	"github.com/Ramsey-B/fern/pkg/mapper"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/orchestrator"
	"github.com/Ramsey-B/fern/pkg/relationships"
	"github.com/Ramsey-B/fern/pkg/source"
	"github.com/Ramsey-B/fern/pkg/syncer"
)

func newHandler(t *testing.T) (*Handler, *source.Fake) {
	t.Helper()

	db := testutil.NewTestDB(t)
	logger := logging.NewNop()
	fake := source.NewFake()

	chars := characterrepo.NewRepository(db, logger)
	events := timelineeventrepo.NewRepository(db, logger)
	elements := elementrepo.NewRepository(db, logger)
	puzzles := puzzlerepo.NewRepository(db, logger)
	rels := relationshiprepo.NewRepository(db, logger)
	logs := synclogrepo.NewRepository(db, logger)
	graphCache := graphcacherepo.NewRepository(db, logger)

	m := mapper.New(fake)
	driver := syncer.NewDriver(db, logs, logger)
	orch := orchestrator.New(
		driver,
		syncer.NewCharacterSyncer(fake, m, chars),
		syncer.NewTimelineEventSyncer(fake, m, events),
		syncer.NewElementSyncer(fake, m, elements),
		syncer.NewPuzzleSyncer(fake, m, puzzles),
		relationships.NewSyncer(db, fake, m, rels, chars, events, elements, puzzles, relationships.DefaultWeights, logger),
		derive.NewComputer(db, chars, events, elements, puzzles, logger),
		cache.NewInvalidator(graphCache, logger),
		logger,
	)
	return NewHandler(orch, logs, true, logger), fake
}

func request(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logging.NewNop())
	h.Register(e.Group("/api/v1/sync"))

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRunEndpoint(t *testing.T) {
	h, fake := newHandler(t)
	fake.Add(models.KindCharacter, source.Record{
		ID:   "char-1",
		Data: map[string]any{"name": "Howie"},
	})

	rec := request(t, h, http.MethodPost, "/api/v1/sync", `{"continue_on_error": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result orchestrator.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, orchestrator.RunStatusCompleted, result.Status)
	assert.Len(t, result.Phases, 4)
}

func TestRunEntityEndpoint(t *testing.T) {
	h, fake := newHandler(t)
	fake.Add(models.KindElement, source.Record{
		ID:   "el-1",
		Data: map[string]any{"name": "Rusted key"},
	})

	rec := request(t, h, http.MethodPost, "/api/v1/sync/entities/elements", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result syncer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Synced)
}

func TestRunEntityEndpointDryRun(t *testing.T) {
	h, fake := newHandler(t)
	fake.Add(models.KindElement, source.Record{
		ID:   "el-1",
		Data: map[string]any{"name": "Rusted key"},
	})

	rec := request(t, h, http.MethodPost, "/api/v1/sync/entities/elements?dry_run=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result syncer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.DryRun)
}

func TestRunEntityEndpointRejectsUnknownType(t *testing.T) {
	h, _ := newHandler(t)

	rec := request(t, h, http.MethodPost, "/api/v1/sync/entities/bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	h, _ := newHandler(t)

	rec := request(t, h, http.MethodGet, "/api/v1/sync/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status orchestrator.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)
}

func TestCancelEndpointWithoutActiveRun(t *testing.T) {
	h, _ := newHandler(t)

	rec := request(t, h, http.MethodPost, "/api/v1/sync/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["cancel_requested"])
}

func TestListLogEndpoint(t *testing.T) {
	h, fake := newHandler(t)
	fake.Add(models.KindCharacter, source.Record{
		ID:   "char-1",
		Data: map[string]any{"name": "Howie"},
	})

	rec := request(t, h, http.MethodPost, "/api/v1/sync/entities/characters", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, h, http.MethodGet, "/api/v1/sync/log", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.SyncLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "characters", entries[0].EntityType)
}
