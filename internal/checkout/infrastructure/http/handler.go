package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	cartapp "github.com/fieldserve/checkout-core/internal/cart/application"
	cartdomain "github.com/fieldserve/checkout-core/internal/cart/domain"
	"github.com/fieldserve/checkout-core/internal/checkout/application"
	"github.com/fieldserve/checkout-core/internal/checkout/domain"
	"github.com/fieldserve/checkout-core/internal/directory"
	"github.com/fieldserve/checkout-core/internal/pricing"
	tenderdomain "github.com/fieldserve/checkout-core/internal/tender/domain"
	"github.com/fieldserve/checkout-core/pkg/idempotency"
	"github.com/fieldserve/checkout-core/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// IdempotencyStore is the duplicate-submit guard. Seen must be a pure read;
// keys are marked only after a submit settles successfully, so a failed
// submit can be retried under the same key.
type IdempotencyStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) (bool, error)
	RequestKey(sessionID, key string) string
}

type Handler struct {
	log    *slog.Logger
	ctrl   *application.Controller
	carts  *cartapp.Service
	idem   IdempotencyStore
	met    *metrics.CheckoutMetrics
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, ctrl *application.Controller, carts *cartapp.Service, idem IdempotencyStore, met *metrics.CheckoutMetrics) *Handler {
	return &Handler{
		log:    log,
		ctrl:   ctrl,
		carts:  carts,
		idem:   idem,
		met:    met,
		tracer: otel.Tracer("checkout-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/cart", h.instrument("get_cart", h.getCart))
	r.Get("/cart/count", h.instrument("cart_count", h.cartCount))
	r.Post("/cart/items", h.instrument("add_item", h.addItem))
	r.Put("/cart/items/{id}", h.instrument("set_quantity", h.setQuantity))
	r.Delete("/cart/items/{id}", h.instrument("remove_item", h.removeItem))
	r.Post("/cart/customer", h.instrument("select_customer", h.selectCustomer))
	r.Delete("/cart", h.instrument("clear_cart", h.clearCart))

	r.Post("/checkout", h.instrument("begin_checkout", h.beginCheckout))
	r.Post("/checkout/collect", h.instrument("collect_payment", h.collectPayment))
	r.Post("/checkout/tender", h.instrument("select_tender", h.selectTender))
	r.Post("/checkout/tender/submit", h.instrument("submit_tender", h.submitTender))
	r.Post("/checkout/tender/cancel", h.instrument("cancel_tender", h.cancelTender))
	r.Post("/checkout/cancel", h.instrument("cancel_checkout", h.cancelCheckout))

	return r
}

type lineResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SKU        string `json:"sku"`
	UnitPrice  string `json:"unit_price"`
	Quantity   int64  `json:"quantity"`
	StockLimit int64  `json:"stock_limit,omitempty"`
	ImageRef   string `json:"image_ref,omitempty"`
}

type totalsResponse struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type attemptResponse struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

type statusResponse struct {
	SessionID  string           `json:"session_id,omitempty"`
	State      string           `json:"state"`
	CustomerID string           `json:"customer_id,omitempty"`
	Lines      []lineResponse   `json:"lines"`
	Totals     totalsResponse   `json:"totals"`
	Attempt    *attemptResponse `json:"attempt,omitempty"`
	OrderID    string           `json:"order_id,omitempty"`
	ChangeDue  string           `json:"change_due,omitempty"`
}

func toStatusResponse(st application.Status) statusResponse {
	resp := statusResponse{
		SessionID:  st.SessionID,
		State:      st.State.String(),
		CustomerID: st.CustomerID,
		Lines:      make([]lineResponse, 0, len(st.Lines)),
		Totals: totalsResponse{
			Subtotal: pricing.FormatCents(st.Totals.SubtotalCents),
			Tax:      pricing.FormatCents(st.Totals.TaxCents),
			Total:    pricing.FormatCents(st.Totals.TotalCents),
		},
		OrderID: st.OrderID,
	}
	for _, line := range st.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:         line.ID,
			Name:       line.Name,
			SKU:        line.SKU,
			UnitPrice:  pricing.FormatCents(line.UnitPriceCents),
			Quantity:   line.Quantity,
			StockLimit: line.StockLimit,
			ImageRef:   line.ImageRef,
		})
	}
	if st.Attempt != nil {
		resp.Attempt = &attemptResponse{
			Method: st.Attempt.Method.String(),
			Status: string(st.Attempt.Status),
		}
	}
	if st.ChangeDueCents != nil {
		resp.ChangeDue = pricing.FormatCents(*st.ChangeDueCents)
	}
	return resp
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCart")
	defer span.End()
	writeJSON(w, http.StatusOK, toStatusResponse(h.ctrl.Status(ctx)))
}

func (h *Handler) cartCount(w http.ResponseWriter, r *http.Request) {
	count := h.carts.TotalItemCount(r.Context())
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

type addItemReq struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	ImageRef  string `json:"image_ref"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddItem")
	defer span.End()

	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	priceCents, err := pricing.ParseCents(req.UnitPrice)
	if err != nil {
		h.writeError(w, &tenderdomain.ValidationError{Field: "unit_price", Reason: "malformed amount"})
		return
	}
	line, err := h.carts.AddItem(ctx, cartdomain.LineItem{
		ID:             req.ID,
		Name:           req.Name,
		SKU:            req.SKU,
		UnitPriceCents: priceCents,
		ImageRef:       req.ImageRef,
	}, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       line.ID,
		"quantity": line.Quantity,
		"count":    h.carts.TotalItemCount(ctx),
	})
}

type setQuantityReq struct {
	Quantity int64 `json:"quantity"`
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetQuantity")
	defer span.End()

	var req setQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	line, err := h.carts.SetQuantity(ctx, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": line.ID, "quantity": line.Quantity})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectCustomerReq struct {
	CustomerID string `json:"customer_id"`
}

func (h *Handler) selectCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SelectCustomer")
	defer span.End()

	var req selectCustomerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	st, err := h.ctrl.SelectCustomer(ctx, req.CustomerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(st))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.carts.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) beginCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "BeginCheckout")
	defer span.End()

	st, err := h.ctrl.BeginCheckout(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(st))
}

func (h *Handler) collectPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CollectPayment")
	defer span.End()

	st, err := h.ctrl.CollectPayment(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(st))
}

type selectTenderReq struct {
	Method string `json:"method"`
}

func (h *Handler) selectTender(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SelectTender")
	defer span.End()

	var req selectTenderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	st, err := h.ctrl.SelectTender(ctx, tenderdomain.Method(req.Method))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(st))
}

type submitTenderReq struct {
	Fields map[string]string `json:"fields"`
}

func (h *Handler) submitTender(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitTender")
	defer span.End()

	prev := h.ctrl.Status(ctx)

	// Transport-level duplicate guard. The tender machine's idempotent
	// completion is authoritative; this just avoids a pointless round trip
	// through validation on rapid double-submits. Keys are marked below only
	// once the submit settles, so a failed submit retried under the same key
	// is reprocessed rather than answered with stale status.
	key := idempotency.FromRequest(r)
	if key != "" && h.idem != nil && prev.SessionID != "" {
		seen, err := h.idem.Seen(ctx, h.idem.RequestKey(prev.SessionID, key))
		if err != nil {
			h.log.Error("idempotency check failed", "err", err)
		} else if seen {
			writeJSON(w, http.StatusOK, toStatusResponse(prev))
			return
		}
	}

	var req submitTenderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	traceparent := r.Header.Get("traceparent")
	headers := map[string]string{"source": "checkout-service"}

	st, err := h.ctrl.SubmitTender(ctx, req.Fields, headers, traceparent)
	if err != nil {
		h.recordTender(st, prev.State, err)
		h.writeError(w, err)
		return
	}
	if key != "" && h.idem != nil && prev.SessionID != "" {
		if _, err := h.idem.Mark(ctx, h.idem.RequestKey(prev.SessionID, key)); err != nil {
			h.log.Error("idempotency mark failed", "err", err)
		}
	}
	h.recordTender(st, prev.State, nil)
	writeJSON(w, http.StatusOK, toStatusResponse(st))
}

func (h *Handler) cancelTender(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctrl.CancelTender(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(st))
}

func (h *Handler) cancelCheckout(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctrl.CancelCheckout(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.met != nil {
		h.met.SessionsFinished.WithLabelValues("cancelled").Inc()
	}
	writeJSON(w, http.StatusOK, toStatusResponse(st))
}

func (h *Handler) recordTender(st application.Status, prev domain.FlowState, err error) {
	if h.met == nil {
		return
	}
	method := "unknown"
	if st.Attempt != nil {
		method = st.Attempt.Method.String()
	}
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	h.met.TenderAttempts.WithLabelValues(method, outcome).Inc()
	// Count the session once, on the call that actually completed it.
	// Suppressed duplicate submits also answer 200 but change nothing.
	if err == nil && st.State == domain.StateCompleted && prev != domain.StateCompleted {
		h.met.SessionsFinished.WithLabelValues("completed").Inc()
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		stockErr   *cartdomain.InsufficientStockError
		valErr     *tenderdomain.ValidationError
		payErr     *tenderdomain.InsufficientPaymentError
		gatewayErr *tenderdomain.GatewayError
	)
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "insufficient_stock",
			"item_id":   stockErr.ItemID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation_failed",
			"field":  valErr.Field,
			"reason": valErr.Reason,
		})
	case errors.As(err, &payErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":           "insufficient_payment",
			"amount_due":      pricing.FormatCents(payErr.AmountDueCents),
			"amount_tendered": pricing.FormatCents(payErr.AmountTenderedCents),
		})
	case errors.As(err, &gatewayErr):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": "gateway_error",
			"code":  gatewayErr.Code,
		})
	case errors.Is(err, directory.ErrNotFound), errors.Is(err, cartdomain.ErrUnknownItem):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, tenderdomain.ErrAttemptInProgress),
		errors.Is(err, application.ErrNotCollecting),
		errors.Is(err, application.ErrWrongFlowState),
		errors.Is(err, application.ErrNoSession),
		errors.Is(err, application.ErrSessionClosed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, cartdomain.ErrInvalidItem),
		errors.Is(err, cartdomain.ErrNegativePrice),
		errors.Is(err, tenderdomain.ErrUnknownMethod),
		errors.Is(err, pricing.ErrBadAmount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.met == nil {
			next(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		h.met.Requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		h.met.LatencyMS.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	}
}
