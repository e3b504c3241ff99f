package leads

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/agency-leads/pkg/logging"
)

// DefaultMaxBodyBytes caps submission bodies.
const DefaultMaxBodyBytes int64 = 64 << 10

// SubmitResponse is the success body for an accepted submission.
type SubmitResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
}

// ErrorResponse is the body for rejected submissions and failures.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Leads   []Lead `json:"leads"`
}

// Reply is a transport-neutral HTTP reply, shared by the HTTP handler and
// the Lambda entry point.
type Reply struct {
	Status  int
	Body    any
	Headers map[string]string
}

// RenderSubmit maps a submission result to its HTTP reply. Internal error
// detail is never echoed to the caller.
func RenderSubmit(result SubmitResult, err error) Reply {
	if err != nil {
		return Reply{
			Status: http.StatusInternalServerError,
			Body:   ErrorResponse{Success: false, Error: "Internal server error"},
		}
	}
	switch result.Outcome {
	case OutcomeRateLimited:
		reply := Reply{
			Status: http.StatusTooManyRequests,
			Body:   ErrorResponse{Success: false, Error: "Too many requests"},
		}
		if result.RetryAfter > 0 {
			secs := int(math.Ceil(result.RetryAfter.Seconds()))
			reply.Headers = map[string]string{"Retry-After": strconv.Itoa(secs)}
		}
		return reply
	case OutcomeInvalid:
		return Reply{
			Status: http.StatusBadRequest,
			Body:   ErrorResponse{Success: false, Error: "Validation failed", Details: result.FieldErrors},
		}
	case OutcomeAccepted:
		return Reply{
			Status: http.StatusOK,
			Body:   SubmitResponse{Success: true, LeadID: result.LeadID},
		}
	}
	return Reply{
		Status: http.StatusInternalServerError,
		Body:   ErrorResponse{Success: false, Error: "Internal server error"},
	}
}

// Handler handles HTTP requests for one intake and the shared read side.
type Handler struct {
	intake         *Intake
	query          *Query
	logger         *logging.Logger
	maxBody        int64
	trustForwarded bool
}

// NewHandler creates a new leads handler. query may be nil when the handler
// only accepts submissions.
func NewHandler(intake *Intake, query *Query, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		intake:         intake,
		query:          query,
		logger:         logger,
		maxBody:        DefaultMaxBodyBytes,
		trustForwarded: true,
	}
}

// WithMaxBody overrides the request body cap.
func (h *Handler) WithMaxBody(n int64) *Handler {
	if n > 0 {
		h.maxBody = n
	}
	return h
}

// WithTrustForwardedFor chooses between proxy headers (true, the default)
// and the connection's RemoteAddr for the rate limit key.
func (h *Handler) WithTrustForwardedFor(trust bool) *Handler {
	h.trustForwarded = trust
	return h
}

func (h *Handler) clientKey(r *http.Request) string {
	if h.trustForwarded {
		return ClientKey(r)
	}
	return ClientKeyFromAddr(r.RemoteAddr)
}

// Submit handles POST /api/leads and POST /api/contact.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	clientKey := h.clientKey(r)
	body := http.MaxBytesReader(w, r.Body, h.maxBody)

	result, err := h.intake.SubmitJSON(r.Context(), body, clientKey, h.intake.Now())
	if err != nil {
		h.logger.Error("failed to process submission", "error", err, "intake", h.intake.Name(), "client_key", clientKey)
	}
	writeReply(w, RenderSubmit(result, err))
}

// ListLeads handles GET /admin/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	status := Status(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	if status != "" && !status.Valid() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid status filter"})
		return
	}

	leads, count, err := h.query.ListAll(r.Context(), status)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Success: false, Error: "failed to list leads"})
		return
	}
	writeJSON(w, http.StatusOK, ListLeadsResponse{Success: true, Count: count, Leads: leads})
}

// GetLead handles GET /admin/leads/{leadID} requests
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "leadID")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Error: "missing lead id"})
		return
	}
	lead, err := h.query.Get(r.Context(), id)
	if errors.Is(err, ErrLeadNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Success: false, Error: "Lead not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get lead", "error", err, "lead_id", id)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Success: false, Error: "failed to get lead"})
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func writeReply(w http.ResponseWriter, reply Reply) {
	for k, v := range reply.Headers {
		w.Header().Set(k, v)
	}
	writeJSON(w, reply.Status, reply.Body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
