package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chimehq/roi-intake/internal/dispatch"
	"github.com/chimehq/roi-intake/internal/leadscore"
	"github.com/chimehq/roi-intake/internal/observability/metrics"
	"github.com/chimehq/roi-intake/internal/roi"
	"github.com/chimehq/roi-intake/pkg/logging"
)

var intakeTracer = otel.Tracer("roi.internal.submissions")

// JobPublisher enqueues the notification fan-out job. Satisfied by
// *dispatch.Publisher.
type JobPublisher interface {
	EnqueueSubmission(ctx context.Context, job dispatch.SubmissionJob) error
}

// EventRecorder writes the intake audit trail. Satisfied by *audit.Service.
type EventRecorder interface {
	LogSubmissionCreated(ctx context.Context, submissionID, email, tier string, score int, insights []string) error
	LogValidationFailed(ctx context.Context, email string, fieldErrors map[string]string) error
}

// Handler serves the ROI calculator endpoints.
type Handler struct {
	repo      Repository
	publisher JobPublisher
	recorder  EventRecorder
	metrics   *metrics.IntakeMetrics
	logger    *logging.Logger
}

// NewHandler creates the intake handler. publisher and recorder may be nil;
// submissions are still persisted without them.
func NewHandler(repo Repository, publisher JobPublisher, recorder EventRecorder, m *metrics.IntakeMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:      repo,
		publisher: publisher,
		recorder:  recorder,
		metrics:   m,
		logger:    logger,
	}
}

// Calculate returns real-time ROI projections without persisting anything.
// POST /api/roi-calculator/calculate
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || len(raw) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No data provided"})
		return
	}

	form := SanitizeForm(raw)

	if result := ValidateCalculation(form); !result.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": result.Errors["monthly_revenue"]})
		return
	}

	revenue, _ := form.Number("monthly_revenue")
	projections := roi.Project(revenue)

	elapsed := time.Since(start).Seconds()
	h.metrics.ObserveProcessing("calculate", elapsed)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"projections":     projections,
		"processing_time": round3(elapsed),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

// Submit runs the full intake pipeline: sanitize, validate, score, persist,
// and enqueue the notification fan-out.
// POST /api/roi-calculator/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := intakeTracer.Start(r.Context(), "submissions.submit")
	defer span.End()

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || len(raw) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No data provided"})
		return
	}

	form := SanitizeForm(raw)

	if result := Validate(form); !result.Valid {
		span.SetAttributes(attribute.Int("roi.validation_errors", len(result.Errors)))
		h.metrics.ObserveSubmission("none", "rejected")
		if h.recorder != nil {
			if err := h.recorder.LogValidationFailed(ctx, form.String("email"), result.Errors); err != nil {
				h.logger.Error("failed to record validation failure", "error", err)
			}
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":        "Validation failed",
			"field_errors": result.Errors,
		})
		return
	}

	m := form.Metrics()
	breakdown := leadscore.Compute(m)
	tier := leadscore.AssignTier(breakdown.Total)
	projections := roi.Project(m.MonthlyRevenue)
	insights := leadscore.Insights(m)

	span.SetAttributes(
		attribute.Int("roi.lead_score", breakdown.Total),
		attribute.String("roi.lead_tier", string(tier)),
	)

	submission := &Submission{
		Email:     form.String("email"),
		FirstName: form.String("first_name"),
		LastName:  form.String("last_name"),
		Company:   form.String("company"),
		Phone:     form.String("phone"),
		Website:   form.String("website"),

		Industry:      form.String("industry"),
		CompanySize:   form.String("company_size"),
		BusinessStage: form.String("business_stage"),

		MonthlyRevenue:    m.MonthlyRevenue,
		AverageOrderValue: m.AverageOrderValue,
		MonthlyOrders:     m.MonthlyOrders,
		ConversionRate:    m.ConversionRate,
		CartAbandonment:   m.CartAbandonment,
		ManualHours:       m.ManualHoursPerWeek,
		MonthlyAdSpend:    m.MonthlyAdSpend,

		ConservativeRevenue: projections.Conservative.MonthlyRevenue,
		ExpectedRevenue:     projections.Expected.MonthlyRevenue,
		OptimisticRevenue:   projections.Optimistic.MonthlyRevenue,

		LeadScore: breakdown.Total,
		LeadTier:  tier,

		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),

		UTMSource:   form.String("utm_source"),
		UTMMedium:   form.String("utm_medium"),
		UTMCampaign: form.String("utm_campaign"),
	}

	if err := h.repo.Create(ctx, submission); err != nil {
		span.RecordError(err)
		h.logger.Error("failed to persist submission", "error", err, "email", submission.Email)
		h.metrics.ObserveSubmission(string(tier), "error")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Submission failed",
			"message": "Unable to process your submission. Please try again or contact support.",
		})
		return
	}

	if h.recorder != nil {
		if err := h.recorder.LogSubmissionCreated(ctx, submission.ID, submission.Email, string(tier), breakdown.Total, insights); err != nil {
			h.logger.Error("failed to record submission event", "error", err, "submission_id", submission.ID)
		}
	}

	h.enqueueFanOut(ctx, submission, m, insights)

	elapsed := time.Since(start).Seconds()
	h.metrics.ObserveSubmission(string(tier), "accepted")
	h.metrics.ObserveProcessing("submit", elapsed)

	h.logger.Info("submission accepted",
		"submission_id", submission.ID,
		"tier", tier,
		"lead_score", breakdown.Total,
	)

	followUp := leadscore.FollowUpPlan(tier)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Your ROI analysis has been submitted successfully!",
		"submission_id":   submission.ID,
		"lead_score":      breakdown.Total,
		"tier":            tier,
		"processing_time": round3(elapsed),
		"next_steps": map[string]string{
			"email_confirmation": "Check your email for detailed projections",
			"follow_up":          "Our team will contact you within " + followUp.Timing,
			"calendar_link":      "https://calendly.com/chimehq/roi-consultation",
		},
	})
}

// enqueueFanOut publishes the notification job. Failures are logged only; the
// submission is already persisted and the worker path is best-effort.
func (h *Handler) enqueueFanOut(ctx context.Context, s *Submission, m leadscore.Metrics, insights []string) {
	if h.publisher == nil {
		return
	}
	job := dispatch.SubmissionJob{
		SubmissionID:      s.ID,
		Email:             s.Email,
		FirstName:         s.FirstName,
		LastName:          s.LastName,
		Company:           s.Company,
		Phone:             s.Phone,
		Website:           s.Website,
		Industry:          s.Industry,
		CompanySize:       s.CompanySize,
		BusinessStage:     s.BusinessStage,
		MonthlyRevenue:    m.MonthlyRevenue,
		AverageOrderValue: m.AverageOrderValue,
		MonthlyOrders:     m.MonthlyOrders,
		LeadScore:         s.LeadScore,
		LeadTier:          string(s.LeadTier),
		Insights:          insights,
	}
	if err := h.publisher.EnqueueSubmission(ctx, job); err != nil {
		h.logger.Error("failed to enqueue notification job", "error", err, "submission_id", s.ID)
	}
}

// ListSubmissions returns recent submissions for the admin dashboard.
// GET /admin/submissions?tier=Hot&limit=50&offset=0
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}

	if tier := r.URL.Query().Get("tier"); tier != "" {
		filter.Tier = leadscore.Tier(tier)
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list submissions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to list submissions"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": list,
		"count":       len(list),
	})
}

// GetSubmission returns one submission by ID.
// GET /admin/submissions/{id}
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing submission id"})
		return
	}

	submission, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Submission not found"})
			return
		}
		h.logger.Error("failed to load submission", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to load submission"})
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

// clientIP prefers the first X-Forwarded-For hop, matching how the service
// runs behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return host
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
