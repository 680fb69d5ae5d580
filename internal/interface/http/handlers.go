package http

import (
	"encoding/json"
	"net/http"

	"github.com/finquest-app/progression-engine/internal/application/ledger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ProgressHandler serves the progression API over one user's ledger.
type ProgressHandler struct {
	ledger *ledger.Ledger

	// Campaign multipliers applied to every lesson reward.
	xpMultiplier   float64
	coinMultiplier float64

	// adminKeyHash guards the reset endpoint; empty disables the check.
	adminKeyHash string
}

// NewProgressHandler creates the handler. Multipliers <= 0 read as 1.
func NewProgressHandler(l *ledger.Ledger, xpMult, coinMult float64) *ProgressHandler {
	return &ProgressHandler{
		ledger:         l,
		xpMultiplier:   xpMult,
		coinMultiplier: coinMult,
	}
}

// WithAdminKeyHash sets the bcrypt hash protecting destructive endpoints.
func (h *ProgressHandler) WithAdminKeyHash(hash string) *ProgressHandler {
	h.adminKeyHash = hash
	return h
}

// Register mounts all routes on the mux.
func (h *ProgressHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/lessons/complete", h.CompleteLesson)
	mux.HandleFunc("POST /v1/combo", h.UpdateCombo)
	mux.HandleFunc("POST /v1/lives/lose", h.LoseLife)
	mux.HandleFunc("POST /v1/lives/refill", h.RefillLives)
	mux.HandleFunc("POST /v1/coins/spend", h.SpendCoins)
	mux.HandleFunc("POST /v1/progress/reset", RequireAdminKey(h.adminKeyHash, h.ResetProgress))
	mux.HandleFunc("GET /v1/progress", h.GetProgress)
	mux.HandleFunc("GET /healthz", h.Health)
}

// completeLessonRequest is the wire form of a finished lesson.
type completeLessonRequest struct {
	LessonID        string  `json:"lesson_id"`
	XP              float64 `json:"xp"`
	Coins           float64 `json:"coins"`
	Perfect         bool    `json:"perfect"`
	DurationSeconds int     `json:"duration_seconds"`
}

// CompleteLesson handles POST /v1/lessons/complete.
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	var req completeLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := ledger.LessonResult{
		LessonID:        req.LessonID,
		XP:              req.XP,
		Coins:           req.Coins,
		Perfect:         req.Perfect,
		DurationSeconds: req.DurationSeconds,
	}

	summary, err := h.ledger.CompleteLesson(r.Context(), result, h.xpMultiplier, h.coinMultiplier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type comboRequest struct {
	Correct bool `json:"correct"`
}

// UpdateCombo handles POST /v1/combo.
func (h *ProgressHandler) UpdateCombo(w http.ResponseWriter, r *http.Request) {
	var req comboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	combo := h.ledger.UpdateCombo(r.Context(), req.Correct)
	writeJSON(w, http.StatusOK, map[string]int{"combo": combo})
}

// LoseLife handles POST /v1/lives/lose.
func (h *ProgressHandler) LoseLife(w http.ResponseWriter, r *http.Request) {
	lives := h.ledger.LoseLife(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"lives": lives})
}

// RefillLives handles POST /v1/lives/refill.
func (h *ProgressHandler) RefillLives(w http.ResponseWriter, r *http.Request) {
	lives := h.ledger.RefillLives(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"lives": lives})
}

type spendCoinsRequest struct {
	Amount int `json:"amount"`
}

// SpendCoins handles POST /v1/coins/spend. An insufficient balance is a
// 409, not a 400: the request was well-formed, the purchase just failed.
func (h *ProgressHandler) SpendCoins(w http.ResponseWriter, r *http.Request) {
	var req spendCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	if !h.ledger.SpendCoins(r.Context(), req.Amount) {
		writeError(w, http.StatusConflict, "insufficient coins")
		return
	}

	snap := h.ledger.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"coins": snap.Coins})
}

// ResetProgress handles POST /v1/progress/reset.
func (h *ProgressHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	h.ledger.ResetProgress(r.Context())
	writeJSON(w, http.StatusOK, h.ledger.Snapshot(r.Context()))
}

// GetProgress handles GET /v1/progress: the full current snapshot.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Snapshot(r.Context()))
}

// Health handles GET /healthz.
func (h *ProgressHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
