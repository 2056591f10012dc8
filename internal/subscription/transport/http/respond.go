package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/terang55/rainbow-rich-auth-server/internal/api/dto"
	"github.com/terang55/rainbow-rich-auth-server/internal/auth"
	"github.com/terang55/rainbow-rich-auth-server/internal/metrics"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
	"github.com/terang55/rainbow-rich-auth-server/pkg/hash"
)

type adminRequest interface {
	Credentials() (subject, secret string)
}

// decodeAdmin reads and validates an admin body and checks its secret. It
// writes the response itself and returns false when the request must stop.
func (h *Handler) decodeAdmin(w http.ResponseWriter, r *http.Request, op string, dst adminRequest) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		h.invalid(w, r, op, []string{"request body must be a JSON object"})
		return false
	}
	if err := dto.Validate.Struct(dst); err != nil {
		h.invalid(w, r, op, dto.Problems(err))
		return false
	}

	subject, secret := dst.Credentials()
	if !hash.VerifyAdminSecret(secret, h.adminDigest) {
		h.unauthorized(w, r, op, subject, "bad_admin_secret")
		return false
	}
	return true
}

func (h *Handler) result(r *http.Request, success bool, status subscription.Status, expires string) dto.Result {
	tag := h.localizer.Match(r.Header.Get("Accept-Language"))
	return dto.Result{
		Success: success,
		Status:  status,
		Message: h.localizer.Message(tag, status, expires),
		Expires: expires,
	}
}

func (h *Handler) invalid(w http.ResponseWriter, r *http.Request, op string, problems []string) {
	res := h.result(r, false, subscription.StatusInvalid, "")
	res.Errors = problems
	h.respond(w, r, http.StatusBadRequest, op, res)
}

// unauthorized logs the rejection for audit and answers without details.
func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, op, subject, reason string) {
	product := chi.URLParam(r, "product")
	metrics.AuthFailuresTotal.WithLabelValues(product, reason).Inc()
	h.logger.WarnContext(r.Context(), "authentication rejected",
		slog.String("operation", op),
		slog.String("product", product),
		slog.String("subject", subject),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("reason", reason),
	)
	h.respond(w, r, http.StatusUnauthorized, op, h.result(r, false, subscription.StatusUnauthorized, ""))
}

// failure maps an operation error onto the result shape.
func (h *Handler) failure(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		h.respond(w, r, http.StatusOK, op, h.result(r, false, subscription.StatusNotFound, ""))
	case errors.Is(err, subscription.ErrInvalidDuration),
		errors.Is(err, subscription.ErrInvalidSubject),
		errors.Is(err, subscription.ErrInvalidDate):
		h.invalid(w, r, op, []string{err.Error()})
	case errors.Is(err, subscription.ErrStoreUnavailable), errors.Is(err, auth.ErrGuardUnavailable):
		h.logger.ErrorContext(r.Context(), "backing store unavailable",
			slog.String("operation", op),
			slog.String("product", chi.URLParam(r, "product")),
			slog.String("error", err.Error()),
		)
		h.respond(w, r, http.StatusServiceUnavailable, op, h.result(r, false, subscription.StatusError, ""))
	default:
		h.logger.ErrorContext(r.Context(), "operation failed",
			slog.String("operation", op),
			slog.String("product", chi.URLParam(r, "product")),
			slog.String("error", err.Error()),
		)
		h.respond(w, r, http.StatusInternalServerError, op, h.result(r, false, subscription.StatusError, ""))
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, code int, op string, body any) {
	var status subscription.Status
	switch b := body.(type) {
	case dto.Result:
		status = b.Status
	case dto.ListResult:
		status = b.Status
	case dto.StatsResult:
		status = b.Status
	}
	metrics.SubscriptionOperationsTotal.WithLabelValues(chi.URLParam(r, "product"), op, string(status)).Inc()

	render.Status(r, code)
	render.JSON(w, r, body)
}
