// Package api exposes the translation trigger over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/handler"
)

const maxBodyBytes = 1 << 20

// Trigger is the part of the handler the API calls.
type Trigger interface {
	Enqueue(ctx context.Context, req handler.Request) (*handler.Response, error)
	EnqueueProduct(ctx context.Context, id int64, targetLang string) (*handler.Response, error)
}

// NewRouter builds the HTTP routes. An empty token disables authentication.
func NewRouter(t Trigger, token string, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	h := &translateHandler{trigger: t}
	r.Route("/v1", func(r chi.Router) {
		r.Use(bearerAuth(token))
		r.Use(maxBodySize(maxBodyBytes))

		r.Post("/translate", h.Translate)
		r.Post("/products/{id}/translate", h.TranslateProduct)
	})

	return r
}

type translateHandler struct {
	trigger Trigger
}

type translateBody struct {
	ProductIDs json.RawMessage `json:"product_ids"`
	TargetLang string          `json:"target_lang"`
}

// Translate queues a bulk translation.
func (h *translateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var body translateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid_input", "request body must be a JSON object", http.StatusBadRequest)
		return
	}

	var ids []int64
	if err := json.Unmarshal(body.ProductIDs, &ids); err != nil || ids == nil {
		jsonError(w, "invalid_input", "product_ids must be an array of integers", http.StatusBadRequest)
		return
	}

	req := handler.Request{ProductIDs: ids, TargetLang: strings.TrimSpace(body.TargetLang)}
	if err := handler.ValidateRequest(req); err != nil {
		jsonError(w, "invalid_input", err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.trigger.Enqueue(r.Context(), req)
	writeTriggerResponse(w, resp, err, http.StatusOK)
}

// TranslateProduct queues one product.
func (h *translateHandler) TranslateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, "invalid_input", "product id must be a positive integer", http.StatusBadRequest)
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("target_lang"))
	if err := handler.ValidateRequest(handler.Request{ProductIDs: []int64{id}, TargetLang: target}); err != nil {
		jsonError(w, "invalid_input", err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.trigger.EnqueueProduct(r.Context(), id, target)
	writeTriggerResponse(w, resp, err, http.StatusAccepted)
}

func writeTriggerResponse(w http.ResponseWriter, resp *handler.Response, err error, okStatus int) {
	if err != nil {
		jsonError(w, "internal_error", err.Error(), http.StatusInternalServerError)
		return
	}
	if resp.Error != "" {
		jsonError(w, "enqueue_failed", resp.Error, http.StatusBadGateway)
		return
	}
	jsonResponse(w, map[string]any{"success": true, "queued": resp.Queued}, okStatus)
}

func jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, code, msg string, status int) {
	jsonResponse(w, map[string]string{"code": code, "message": msg}, status)
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				jsonError(w, "unauthorized", "invalid or missing bearer token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func maxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if r.URL.Path == "/healthz" && ww.Status() < 400 {
				return
			}
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
