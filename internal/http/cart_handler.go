package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/cart-session/internal/cart"
	"github.com/fjod/go_cart/cart-session/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartSession is the part of cart.Manager the view layer talks to.
type CartSession interface {
	Items() []domain.CartItem
	AddToCart(ctx context.Context, p domain.Product) error
	Increment(ctx context.Context, id string) (bool, error)
	Decrement(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
	Flush(ctx context.Context) error
}

type CartHandler struct {
	session CartSession
	timeout time.Duration
	log     *zap.Logger
}

func NewCartHandler(session CartSession, timeout time.Duration, log *zap.Logger) *CartHandler {
	return &CartHandler{
		session: session,
		timeout: timeout,
		log:     log,
	}
}

type CartResponseDTO struct {
	Items   []domain.CartItem `json:"items"`
	Summary domain.Summary    `json:"summary"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Routes mounts the cart endpoints under the caller's router.
func (h *CartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetCart)
	r.Delete("/", h.ClearCart)
	r.Post("/sync", h.Sync)
	r.Post("/items", h.AddItem)
	r.Post("/items/{id}/increment", h.Increment)
	r.Post("/items/{id}/decrement", h.Decrement)
	return r
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.snapshot())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.Product
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "id must not be empty")
		return
	}

	if err := h.session.AddToCart(ctx, req); err != nil {
		h.handleCartError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, h.snapshot())
}

func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, h.session.Increment)
}

func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, h.session.Decrement)
}

func (h *CartHandler) changeQuantity(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string) (bool, error),
) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	found, err := op(ctx, id)
	if err != nil {
		h.handleCartError(w, err)
		return
	}
	if !found {
		h.respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
		return
	}

	h.respondJSON(w, http.StatusOK, h.snapshot())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.session.Clear(ctx); err != nil {
		h.handleCartError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.snapshot())
}

// Sync retries the snapshot write after a persistence failure.
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.session.Flush(ctx); err != nil {
		h.handleCartError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.snapshot())
}

func (h *CartHandler) snapshot() CartResponseDTO {
	items := h.session.Items()
	return CartResponseDTO{
		Items:   items,
		Summary: domain.Summarize(items),
	}
}

func (h *CartHandler) handleCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrPersist):
		h.log.Warn("cart change not persisted", zap.Error(err))
		h.respondError(w, http.StatusServiceUnavailable, "persistence_failed", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.respondError(w, http.StatusGatewayTimeout, "timeout", "cart did not respond in time")
	case errors.Is(err, context.Canceled):
		h.respondError(w, http.StatusRequestTimeout, "canceled", "request canceled")
	default:
		h.log.Error("cart operation failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (h *CartHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *CartHandler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
