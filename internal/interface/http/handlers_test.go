package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finquest-app/progression-engine/internal/application/ledger"
	"github.com/finquest-app/progression-engine/internal/domain/achievement"
	"github.com/finquest-app/progression-engine/internal/domain/challenge"
	"github.com/finquest-app/progression-engine/internal/infrastructure/persistence/memory"
)

type frozenClock struct{ now time.Time }

func (c frozenClock) Now() time.Time { return c.now }

// newTestMux builds the full route table over a fresh in-memory ledger.
// Catalogs are empty so reward math stays predictable per test.
func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	l, err := ledger.New(ledger.Config{
		UserID:             "user-1",
		Store:              memory.NewSnapshotStore(),
		Clock:              frozenClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)},
		AchievementCatalog: []achievement.Definition{},
		ChallengeCatalog:   []challenge.Template{},
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewProgressHandler(l, 1.0, 1.0).Register(mux)
	return mux
}

func doJSON(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCompleteLesson_ReturnsRewardSummary(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(mux, http.MethodPost, "/v1/lessons/complete",
		`{"lesson_id":"quiz-101","xp":40,"coins":10}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary ledger.RewardSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))

	assert.Equal(t, 40, summary.XPGained)
	// 10 lesson coins plus the first-day streak bonus.
	assert.Equal(t, 15, summary.CoinsGained)
	assert.False(t, summary.LeveledUp)
}

func TestCompleteLesson_MissingLessonID(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(mux, http.MethodPost, "/v1/lessons/complete", `{"xp":40}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteLesson_MalformedBody(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(mux, http.MethodPost, "/v1/lessons/complete", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCombo(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(mux, http.MethodPost, "/v1/combo", `{"correct":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(mux, http.MethodPost, "/v1/combo", `{"correct":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp["combo"])

	rec = doJSON(mux, http.MethodPost, "/v1/combo", `{"correct":false}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp["combo"])
}

func TestLives_LoseAndRefill(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(mux, http.MethodPost, "/v1/lives/lose", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp["lives"])

	rec = doJSON(mux, http.MethodPost, "/v1/lives/refill", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp["lives"])
}

func TestSpendCoins(t *testing.T) {
	mux := newTestMux(t)

	// Nothing earned yet.
	rec := doJSON(mux, http.MethodPost, "/v1/coins/spend", `{"amount":10}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(mux, http.MethodPost, "/v1/coins/spend", `{"amount":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Earn 10 coins + 5 streak bonus, then spend 12.
	rec = doJSON(mux, http.MethodPost, "/v1/lessons/complete",
		`{"lesson_id":"quiz-101","xp":20,"coins":10}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(mux, http.MethodPost, "/v1/coins/spend", `{"amount":12}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp["coins"])
}

func TestGetProgress(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(mux, http.MethodGet, "/v1/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "user-1", snap["user_id"])
	assert.Equal(t, float64(1), snap["level"])
	assert.Equal(t, float64(5), snap["lives"])
}

func TestResetProgress(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(mux, http.MethodPost, "/v1/lessons/complete",
		`{"lesson_id":"quiz-101","xp":120,"coins":10}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(mux, http.MethodPost, "/v1/progress/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, float64(0), snap["total_xp"])
	assert.Equal(t, float64(1), snap["level"])
}

func TestHealth(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(mux, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(mux, http.MethodGet, "/v1/combo", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestConfigAddress(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())

	cfg.Host = "127.0.0.1"
	cfg.Port = 9000
	assert.Equal(t, "127.0.0.1:9000", cfg.Address())
}
