package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/imocalc/imocalc/internal/calc"
	"github.com/imocalc/imocalc/internal/domain"
	"github.com/imocalc/imocalc/internal/metrics"
	"github.com/imocalc/imocalc/internal/middleware"
	"github.com/imocalc/imocalc/internal/quota"
)

// Request bodies are small JSON documents; anything bigger is abuse.
const maxRequestBody = 64 * 1024

// CalculatorHandler serves the calculation endpoints.
type CalculatorHandler struct {
	validator *calc.Validator
	engine    *calc.Engine
	quota     quota.Enforcer
	logger    *slog.Logger
}

// NewCalculatorHandler creates a CalculatorHandler.
func NewCalculatorHandler(validator *calc.Validator, engine *calc.Engine, enforcer quota.Enforcer, logger *slog.Logger) *CalculatorHandler {
	return &CalculatorHandler{
		validator: validator,
		engine:    engine,
		quota:     enforcer,
		logger:    logger,
	}
}

// calculationResponse is the success envelope: the result plus the
// caller's remaining quota so clients can render a usage meter without a
// second request.
type calculationResponse struct {
	Result     *domain.CalculationResult `json:"result"`
	Validation quotedValidation          `json:"validation"`
	Quota      quotaSnapshot             `json:"quota"`
}

// quotedValidation carries the non-blocking warnings alongside a result.
type quotedValidation struct {
	Warnings []string `json:"warnings,omitempty"`
}

type quotaSnapshot struct {
	Remaining int64     `json:"remaining"` // -1 when unlimited
	Unlimited bool      `json:"unlimited"`
	ResetAt   time.Time `json:"resetAt"`
}

// Calculate handles POST /api/v1/calculators/{type}.
//
// Order of checks: calculator type, body decode, validation, quota,
// calculation. Validation runs before quota so a rejected input does not
// consume a calculation.
func (h *CalculatorHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	const op = "handler.calculate"

	calcType, ok := domain.ParseCalculatorType(r.PathValue("type"))
	if !ok {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "calculator", r.PathValue("type")))
		return
	}

	var input domain.CalculationInput
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Request body is not valid JSON for this calculator."))
		return
	}

	validation := h.validator.Validate(calcType, input)
	if !validation.IsValid {
		metrics.ValidationFailuresTotal.WithLabelValues(string(calcType)).Inc()
		ve := &domain.ValidationError{Op: op, Fields: validation.Errors}
		ValidationErrorResponse(w, r, h.logger, ve)
		return
	}

	caller := middleware.GetCaller(r.Context())
	decision := h.quota.CheckAndConsume(r.Context(), caller.Key, caller.Tier)
	if !decision.Allowed {
		h.writeQuotaDenial(w, r, decision)
		return
	}

	result, err := h.engine.Calculate(calcType, input)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.CalculationsTotal.WithLabelValues(string(calcType)).Inc()

	writeJSON(w, http.StatusOK, calculationResponse{
		Result:     result,
		Validation: quotedValidation{Warnings: validation.Warnings},
		Quota: quotaSnapshot{
			Remaining: decision.Remaining,
			Unlimited: decision.Unlimited,
			ResetAt:   decision.ResetAt,
		},
	})
}

// writeQuotaDenial maps a quota decision to a 429 with Retry-After.
func (h *CalculatorHandler) writeQuotaDenial(w http.ResponseWriter, r *http.Request, d quota.Decision) {
	const op = "handler.calculate"

	retryAfter := int(d.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	var err error
	if d.Reason == quota.ReasonRateLimit {
		err = domain.RateLimited(op)
	} else {
		err = domain.QuotaExhausted(op, d.ResetAt)
	}
	ErrorResponse(w, r, h.logger, err)
}

// Usage handles GET /api/v1/usage.
func (h *CalculatorHandler) Usage(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())

	usage, err := h.quota.Usage(r.Context(), caller.Key, caller.Tier)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tier":  caller.Tier,
		"usage": usage,
	})
}
