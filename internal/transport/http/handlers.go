package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"prepgate/pkg/platform/httputil"
)

// Handler serves the protected product endpoints. These are intentionally
// thin: the content service owns the real question bank, and this edge only
// needs routes for the gating chain to protect.
type Handler struct {
	logger *slog.Logger
	health map[string]HealthChecker
}

type currentQuestionResponse struct {
	ID       string `json:"id"`
	Exam     string `json:"exam"`
	Domain   string `json:"domain"`
	Prompt   string `json:"prompt"`
	ServedAt string `json:"servedAt"`
}

func (h *Handler) handleCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	httputil.WriteJSON(w, http.StatusOK, currentQuestionResponse{
		ID:       uuid.NewString(),
		Exam:     "pmle",
		Domain:   "model-deployment",
		Prompt:   "Your team needs to roll out a new model version to 5% of traffic. Which deployment strategy fits?",
		ServedAt: now.Format(time.RFC3339),
	})
}

type diagnosticSessionResponse struct {
	SessionID     string `json:"sessionId"`
	QuestionCount int    `json:"questionCount"`
	StartedAt     string `json:"startedAt"`
}

func (h *Handler) handleStartDiagnostic(w http.ResponseWriter, r *http.Request) {
	session := diagnosticSessionResponse{
		SessionID:     uuid.NewString(),
		QuestionCount: 20,
		StartedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	h.logger.InfoContext(r.Context(), "diagnostic session started", "session_id", session.SessionID)
	httputil.WriteJSON(w, http.StatusCreated, session)
}
