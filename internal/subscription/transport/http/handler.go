package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/terang55/rainbow-rich-auth-server/internal/api/dto"
	"github.com/terang55/rainbow-rich-auth-server/internal/auth"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription/service"
	"github.com/terang55/rainbow-rich-auth-server/pkg/jwt"
)

type Options struct {
	Service       *service.Service
	Authenticator *auth.Authenticator
	Localizer     *subscription.Localizer
	Logger        *slog.Logger

	// AdminSecretDigest is a SHA-256 hex digest or a bcrypt hash.
	AdminSecretDigest string
	// LicenseTokenSecret enables license tokens on active verify results.
	LicenseTokenSecret string
	Products           []string
}

type Handler struct {
	svc         *service.Service
	authn       *auth.Authenticator
	localizer   *subscription.Localizer
	logger      *slog.Logger
	adminDigest string
	tokenSecret string
	products    map[string]struct{}
	now         func() time.Time
}

func NewSubscriptionHandler(opts Options) *Handler {
	products := make(map[string]struct{}, len(opts.Products))
	for _, p := range opts.Products {
		products[p] = struct{}{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:         opts.Service,
		authn:       opts.Authenticator,
		localizer:   opts.Localizer,
		logger:      logger.With(slog.String("component", "subscription_handler")),
		adminDigest: opts.AdminSecretDigest,
		tokenSecret: opts.LicenseTokenSecret,
		products:    products,
		now:         time.Now,
	}
}

// Routes mounts the product-scoped API under r. The caller picks the prefix.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/{product}", func(pr chi.Router) {
		pr.Use(h.productScope)

		pr.Post("/verify", h.Verify)
		pr.Post("/subscribe", h.Subscribe)
		pr.Post("/renew", h.Renew)
		pr.Post("/cancel", h.Cancel)
		pr.Post("/admin/subscriptions", h.List)
		pr.Post("/admin/stats", h.Stats)
	})
}

func (h *Handler) productScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		product := chi.URLParam(r, "product")
		if _, ok := h.products[product]; !ok {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, h.result(r, false, subscription.StatusUnknownProduct, ""))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Verify answers a signed license check from client software.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	const op = "verify"
	product := chi.URLParam(r, "product")

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		h.invalid(w, r, op, []string{"request body must be a JSON object"})
		return
	}

	subject, _ := payload[auth.SubjectField].(string)
	if err := h.authn.Authenticate(r.Context(), payload); err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			h.invalid(w, r, op, verr.Problems)
		case errors.Is(err, auth.ErrInvalidSignature):
			h.unauthorized(w, r, op, subject, "bad_signature")
		case errors.Is(err, auth.ErrReplayed):
			h.unauthorized(w, r, op, subject, "replayed")
		default:
			h.failure(w, r, op, err)
		}
		return
	}

	state, err := h.svc.Verify(r.Context(), product, subject)
	if err != nil {
		h.failure(w, r, op, err)
		return
	}

	res := h.result(r, state.Status == subscription.StatusActive, state.Status, state.ExpiresOn)
	if state.Status == subscription.StatusActive && h.tokenSecret != "" {
		token, err := jwt.GenerateLicenseToken(h.tokenSecret, subscription.NormalizeSubject(subject),
			product, state.ExpiresOn, h.now(), h.svc.Location())
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to issue license token", "product", product, "error", err)
		} else {
			res.LicenseToken = token
		}
	}
	h.respond(w, r, http.StatusOK, op, res)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	const op = "subscribe"
	var req dto.SubscribeRequest
	if !h.decodeAdmin(w, r, op, &req) {
		return
	}

	rec, err := h.svc.Subscribe(r.Context(), chi.URLParam(r, "product"), req.SubjectID, req.DurationDays)
	if err != nil {
		h.failure(w, r, op, err)
		return
	}
	h.respond(w, r, http.StatusOK, op, h.result(r, true, subscription.StatusCreated, rec.ExpiresOn))
}

func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	const op = "renew"
	var req dto.RenewRequest
	if !h.decodeAdmin(w, r, op, &req) {
		return
	}

	rec, err := h.svc.Renew(r.Context(), chi.URLParam(r, "product"), req.SubjectID, req.DurationDays)
	if err != nil {
		h.failure(w, r, op, err)
		return
	}
	h.respond(w, r, http.StatusOK, op, h.result(r, true, subscription.StatusRenewed, rec.ExpiresOn))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "cancel"
	var req dto.CancelRequest
	if !h.decodeAdmin(w, r, op, &req) {
		return
	}

	if err := h.svc.Cancel(r.Context(), chi.URLParam(r, "product"), req.SubjectID); err != nil {
		h.failure(w, r, op, err)
		return
	}
	h.respond(w, r, http.StatusOK, op, h.result(r, true, subscription.StatusCancelled, ""))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "list"
	var req dto.AdminRequest
	if !h.decodeAdmin(w, r, op, &req) {
		return
	}

	entries, err := h.svc.List(r.Context(), chi.URLParam(r, "product"))
	if err != nil {
		h.failure(w, r, op, err)
		return
	}
	h.respond(w, r, http.StatusOK, op, dto.ListResult{
		Result:        h.result(r, true, subscription.StatusOK, ""),
		Subscriptions: entries,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	const op = "stats"
	var req dto.AdminRequest
	if !h.decodeAdmin(w, r, op, &req) {
		return
	}

	stats, err := h.svc.Stats(r.Context(), chi.URLParam(r, "product"))
	if err != nil {
		h.failure(w, r, op, err)
		return
	}
	h.respond(w, r, http.StatusOK, op, dto.StatsResult{
		Result: h.result(r, true, subscription.StatusOK, ""),
		Stats:  stats,
	})
}
