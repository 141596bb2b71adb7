package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ppiankov/askcup/internal/cache"
	"github.com/ppiankov/askcup/internal/model"
	"github.com/ppiankov/askcup/internal/page"
	"github.com/ppiankov/askcup/internal/render"
)

const sessionCookie = "askcup_session"

// Handler serves the question page for every browser session
type Handler struct {
	sessions       *cache.SessionStore
	refreshSeconds int

	// base bounds submissions; they outlive the POST that started them
	base context.Context
}

// NewHandler creates the page handler. Submissions started by it are
// cancelled when base is done.
func NewHandler(base context.Context, sessions *cache.SessionStore, refreshSeconds int) *Handler {
	return &Handler{
		sessions:       sessions,
		refreshSeconds: refreshSeconds,
		base:           base,
	}
}

// session resolves the caller's page, issuing a cookie for new sessions
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *page.QuestionPage {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	newID, p := h.sessions.GetOrCreate(id)
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return p
}

// Index renders the page
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	p := h.session(w, r)

	v := render.NewView(p.Snapshot())
	v.RefreshSeconds = h.refreshSeconds

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := render.HTML(w, v); err != nil {
		slog.ErrorContext(r.Context(), "failed to render page", "error", err)
	}
}

// Ask submits the posted question without waiting for the answer
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	p := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	p.SetQuestion(r.PostForm.Get("question"))
	id, err := p.Start(h.base)
	switch {
	case errors.Is(err, page.ErrEmptyQuestion):
		// Blank submissions are ignored, as a disabled button would.
	case err != nil:
		slog.ErrorContext(r.Context(), "submit failed", "error", err)
	default:
		slog.DebugContext(r.Context(), "question submitted", "page_request", id)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Sample fills the question with one of the sample questions
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	p := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	q := r.PostForm.Get("q")
	if !model.IsSampleQuestion(q) {
		http.Error(w, "unknown sample question", http.StatusBadRequest)
		return
	}
	p.PickSample(q)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Reset returns the page to idle
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.session(w, r).Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// stateResponse is the JSON form of a page snapshot
type stateResponse struct {
	State       page.Kind      `json:"state"`
	Question    string         `json:"question"`
	RequestID   uint64         `json:"request_id,omitempty"`
	Error       string         `json:"error,omitempty"`
	Answer      string         `json:"answer,omitempty"`
	Sources     []model.Source `json:"sources,omitempty"`
	Chips       []string       `json:"chips,omitempty"`
	CanSubmit   bool           `json:"can_submit"`
	ShowSamples bool           `json:"show_samples"`
	Samples     []string       `json:"samples,omitempty"`
}

func newStateResponse(snap page.Snapshot) stateResponse {
	resp := stateResponse{
		State:       snap.State.Kind(),
		Question:    snap.Question,
		CanSubmit:   snap.CanSubmit,
		ShowSamples: snap.ShowSamples,
	}
	if snap.ShowSamples {
		resp.Samples = snap.Samples
	}

	switch st := snap.State.(type) {
	case page.Loading:
		resp.RequestID = st.RequestID
	case page.Failed:
		resp.Error = st.Message
	case page.Answered:
		resp.Answer = st.Answer
		resp.Sources = st.Sources
		resp.Chips = render.SourceLabels(st.Sources)
	}
	return resp
}

// State returns the caller's page as JSON
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	p := h.session(w, r)
	writeJSON(w, http.StatusOK, newStateResponse(p.Snapshot()))
}

// Healthz reports liveness
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
