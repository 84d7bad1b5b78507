// Package httpapi exposes the relay and admin surfaces over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mlewis26201/pushgate/internal/errs"
	"github.com/mlewis26201/pushgate/internal/metrics"
	"github.com/mlewis26201/pushgate/internal/model"
	"github.com/mlewis26201/pushgate/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	relay      service.RelayService
	admin      service.AdminService
	signKey    []byte
	sessionTTL time.Duration
	log        *zap.Logger
}

// New constructs an HTTP server facade with injected services.
func New(relay service.RelayService, admin service.AdminService, signKey []byte, sessionTTL time.Duration, log *zap.Logger) *Server {
	return &Server{relay: relay, admin: admin, signKey: signKey, sessionTTL: sessionTTL, log: log}
}

// Routes builds the full handler, middleware included.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /send", s.handleSend)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /admin/login", s.handleLogin)

	auth := s.requireAdmin
	mux.Handle("POST /admin/tokens", auth(http.HandlerFunc(s.handleCreateToken)))
	mux.Handle("GET /admin/tokens", auth(http.HandlerFunc(s.handleListTokens)))
	mux.Handle("POST /admin/tokens/{id}/rotate", auth(http.HandlerFunc(s.handleRotateToken)))
	mux.Handle("DELETE /admin/tokens/{id}", auth(http.HandlerFunc(s.handleDeleteToken)))
	mux.Handle("GET /admin/providers", auth(http.HandlerFunc(s.handleListProviders)))
	mux.Handle("POST /admin/providers", auth(http.HandlerFunc(s.handleCreateProvider)))
	mux.Handle("PUT /admin/providers/{id}", auth(http.HandlerFunc(s.handleUpdateProvider)))
	mux.Handle("DELETE /admin/providers/{id}", auth(http.HandlerFunc(s.handleDeleteProvider)))
	mux.Handle("PUT /admin/password", auth(http.HandlerFunc(s.handleSetPassword)))
	mux.Handle("GET /admin/deliveries", auth(http.HandlerFunc(s.handleListDeliveries)))

	return Recover(s.log)(Logging(s.log)(mux))
}

// --- relay ---

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		metrics.RelayTotal.WithLabelValues("validation").Inc()
		writeError(w, http.StatusBadRequest, "malformed form body")
		return
	}
	req := service.RelayRequest{
		Token:   r.PostFormValue("token"),
		Message: r.PostFormValue("message"),
	}
	if raw := r.PostFormValue("provider_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			metrics.RelayTotal.WithLabelValues("validation").Inc()
			writeError(w, http.StatusBadRequest, "provider_id must be a positive integer")
			return
		}
		req.Provider = id
	}

	res, err := s.relay.Relay(r.Context(), req)
	if err != nil {
		s.writeRelayError(w, err)
		return
	}
	metrics.RelayTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"provider_status": res.ProviderStatus,
		"response":        res.ProviderBody,
		"delivery_id":     res.DeliveryID,
	})
}

// writeRelayError maps pipeline errors onto the relay status contract.
// Reason strings stay human-readable; internals are never leaked.
func (s *Server) writeRelayError(w http.ResponseWriter, err error) {
	var (
		vErr  *errs.ValidationError
		rlErr *errs.RateLimitError
		dErr  *errs.DispatchError
		pErr  *errs.ProviderError
	)
	switch {
	case errors.As(err, &vErr):
		metrics.RelayTotal.WithLabelValues("validation").Inc()
		writeError(w, http.StatusBadRequest, vErr.Reason)
	case errors.Is(err, errs.ErrInvalidToken):
		metrics.RelayTotal.WithLabelValues("auth").Inc()
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.As(err, &rlErr):
		metrics.RelayTotal.WithLabelValues("rate_limited").Inc()
		writeError(w, http.StatusTooManyRequests, rlErr.Error())
	case errors.As(err, &pErr):
		metrics.RelayTotal.WithLabelValues("provider").Inc()
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":           "provider rejected the message",
			"provider_status": pErr.StatusCode,
			"response":        pErr.Body,
		})
	case errors.As(err, &dErr):
		metrics.RelayTotal.WithLabelValues("dispatch").Inc()
		writeError(w, http.StatusBadGateway, dErr.Error())
	default:
		metrics.RelayTotal.WithLabelValues("internal").Inc()
		s.log.Error("relay", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- admin auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}
	if err := s.admin.VerifyPassword(r.Context(), body.Password); err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "bad password")
			return
		}
		s.log.Error("login", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	tok, exp, err := s.issueSession()
	if err != nil {
		s.log.Error("issue session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "expires_at": exp})
}

// --- admin: tokens ---

type tokenView struct {
	ID          int64      `json:"id"`
	HourlyLimit int        `json:"hourly_limit"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Limit int `json:"limit"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}
	}
	plain, id, err := s.admin.CreateToken(r.Context(), body.Limit)
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "token": plain})
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	toks, err := s.admin.ListTokens(r.Context())
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	views := make([]tokenView, 0, len(toks))
	for _, t := range toks {
		views = append(views, tokenView{ID: t.ID, HourlyLimit: t.HourlyLimit, CreatedAt: t.CreatedAt, LastUsed: t.LastUsed})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleRotateToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Limit *int `json:"limit"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}
	}
	plain, err := s.admin.RotateToken(r.Context(), id, body.Limit)
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "token": plain})
}

func (s *Server) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.admin.DeleteToken(r.Context(), id); err != nil {
		s.writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- admin: providers ---

type providerView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

type providerBody struct {
	Name     string `json:"name"`
	AppToken string `json:"app_token"`
	UserKey  string `json:"user_key"`
}

func (s *Server) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	var body providerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	id, err := s.admin.CreateProvider(r.Context(), body.Name, body.AppToken, body.UserKey)
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	cfgs, err := s.admin.ListProviders(r.Context())
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	views := make([]providerView, 0, len(cfgs))
	for _, p := range cfgs {
		views = append(views, providerView{ID: p.ID, Name: p.Name, UpdatedAt: p.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body providerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if err := s.admin.UpdateProvider(r.Context(), id, body.Name, body.AppToken, body.UserKey); err != nil {
		s.writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.admin.DeleteProvider(r.Context(), id); err != nil {
		s.writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- admin: password / deliveries ---

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if err := s.admin.SetPassword(r.Context(), body.Password); err != nil {
		s.writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.DeliveryFilter{
		Outcome: q.Get("outcome"),
		Search:  q.Get("q"),
	}
	if raw := q.Get("token_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "token_id must be a positive integer")
			return
		}
		f.TokenID = id
	}
	perPage := 50
	if raw := q.Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "per_page must be 1..500")
			return
		}
		perPage = n
	}
	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}
	f.Limit = perPage
	f.Offset = (page - 1) * perPage

	recs, err := s.admin.ListDeliveries(r.Context(), f)
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	if recs == nil {
		recs = []model.Delivery{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// --- misc ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) writeAdminError(w http.ResponseWriter, err error) {
	var vErr *errs.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Reason)
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrNameTaken):
		writeError(w, http.StatusConflict, "name already taken")
	default:
		s.log.Error("admin", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}
