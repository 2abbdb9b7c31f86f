package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"orderservice/pkg/events"
	"orderservice/pkg/logger"
	"orderservice/pkg/metrics"
	"orderservice/pkg/order"
	"orderservice/pkg/otel"
	"orderservice/pkg/users"
)

const (
	apiVersion     = "1.0.0"
	publishTimeout = 5 * time.Second
)

// app carries the dependencies shared by every handler.
type app struct {
	log       *logger.Logger
	repo      order.Repository
	verifier  users.Verifier
	publisher events.Publisher
	metrics   *metrics.ServerMetrics
	tracer    trace.Tracer
	validate  *validator.Validate
	limiter   *rateLimiter
	origins   []string
	service   string
	now       func() time.Time
}

// appConfig lists what newApp needs. Verifier and Limiter are optional.
type appConfig struct {
	Log         *logger.Logger
	Repo        order.Repository
	Verifier    users.Verifier
	Publisher   events.Publisher
	Metrics     *metrics.ServerMetrics
	Tracer      trace.Tracer
	Limiter     *rateLimiter
	CORSOrigins []string
	ServiceName string
}

func newApp(cfg appConfig) *app {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &app{
		log:       cfg.Log,
		repo:      cfg.Repo,
		verifier:  cfg.Verifier,
		publisher: publisher,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		validate:  newValidator(),
		limiter:   cfg.Limiter,
		origins:   cfg.CORSOrigins,
		service:   cfg.ServiceName,
		now:       time.Now,
	}
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error" example:"Order not found"`
	Message string `json:"message,omitempty" example:"Detailed error description"`
}

// messageResponse is a plain confirmation body.
type messageResponse struct {
	Message string `json:"message" example:"Order deleted successfully"`
}

// statusRequest is the body of a status update.
type statusRequest struct {
	Status order.Status `json:"status" example:"shipped"`
}

// healthResponse reports liveness.
type healthResponse struct {
	Status    string `json:"status" example:"UP"`
	Service   string `json:"service" example:"order-service"`
	Timestamp string `json:"timestamp" example:"2025-01-01T00:00:00.000Z"`
}

// rootResponse describes the API.
type rootResponse struct {
	Message       string `json:"message" example:"Order Service API"`
	Version       string `json:"version" example:"1.0.0"`
	Documentation string `json:"documentation" example:"/api-docs"`
}

// rootHandler describes the service.
// @Summary API info
// @Tags Health
// @Produce json
// @Success 200 {object} rootResponse
// @Router / [get]
func (a *app) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message:       "Order Service API",
		Version:       apiVersion,
		Documentation: "/api-docs",
	})
}

// healthHandler reports that the process is serving.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (a *app) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "UP",
		Service:   a.service,
		Timestamp: a.now().UTC().Format(order.TimeLayout),
	})
}

// listOrdersHandler lists orders, optionally for a single user.
// @Summary Get all orders
// @Description Retrieve all orders, newest first. A userId that is not a number yields an empty list.
// @Tags Orders
// @Produce json
// @Param userId query integer false "Filter orders by user ID"
// @Success 200 {array} order.Order
// @Failure 500 {object} errorResponse
// @Router /api/orders [get]
func (a *app) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	var (
		orders []order.Order
		err    error
	)
	raw := r.URL.Query().Get("userId")
	switch userID, ok := order.ParseUserID(raw); {
	case raw == "":
		orders, err = a.repo.List(ctx)
	case ok:
		orders, err = a.repo.ListByUser(ctx, userID)
	default:
		orders = []order.Order{}
	}
	if err != nil {
		a.serverError(ctx, w, "Failed to fetch orders", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order by ID
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders/{id} [get]
func (a *app) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	id := mux.Vars(r)["id"]
	o, err := a.repo.Get(ctx, id)
	if err != nil {
		a.repoError(ctx, w, id, "Failed to fetch order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// createOrderHandler creates a new order.
// @Summary Create a new order
// @Description Status defaults to pending. totalAmount is stored as supplied.
// @Tags Orders
// @Accept json
// @Produce json
// @Param order body order.NewOrder true "Order"
// @Success 201 {object} order.Order
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders [post]
func (a *app) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	var n order.NewOrder
	if err := decodeJSON(r, &n); err != nil {
		a.badRequest(ctx, w, errorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if err := a.validate.Struct(n); err != nil {
		a.badRequest(ctx, w, errorResponse{Error: validationMessage(err)})
		return
	}

	if a.verifier != nil {
		u, err := a.verifier.Verify(ctx, n.UserID)
		if err != nil {
			a.serverError(ctx, w, "Failed to create order", fmt.Errorf("verify user %d: %w", n.UserID, err))
			return
		}
		if u == nil {
			a.badRequest(ctx, w, errorResponse{Error: "User not found"})
			return
		}
	}

	o, err := a.repo.Create(ctx, n)
	if err != nil {
		a.serverError(ctx, w, "Failed to create order", err)
		return
	}
	span.SetAttributes(attribute.String("order_id", o.ID))
	a.log.Info(ctx, "order created", "order_id", o.ID, "user_id", o.UserID, "total_amount", o.TotalAmount)

	a.publish(ctx, events.New(events.TypeOrderCreated, o.ID, &o))
	writeJSON(w, http.StatusCreated, o)
}

// updateOrderHandler updates an existing order.
// @Summary Update an order
// @Description Only items, totalAmount, status and shippingAddress are applied. A supplied shippingAddress replaces the stored one.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param order body order.Patch true "Fields to update"
// @Success 200 {object} order.Order
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders/{id} [put]
func (a *app) updateOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateOrderHandler")
	defer span.End()

	id := mux.Vars(r)["id"]
	var p order.Patch
	if err := decodeJSON(r, &p); err != nil {
		a.badRequest(ctx, w, errorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if err := a.validate.Struct(p); err != nil {
		a.badRequest(ctx, w, errorResponse{Error: validationMessage(err)})
		return
	}

	o, err := a.repo.Update(ctx, id, p)
	if err != nil {
		a.repoError(ctx, w, id, "Failed to update order", err)
		return
	}

	a.publish(ctx, events.New(events.TypeOrderUpdated, o.ID, &o))
	writeJSON(w, http.StatusOK, o)
}

// deleteOrderHandler removes an order.
// @Summary Delete an order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders/{id} [delete]
func (a *app) deleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteOrderHandler")
	defer span.End()

	id := mux.Vars(r)["id"]
	if err := a.repo.Delete(ctx, id); err != nil {
		a.repoError(ctx, w, id, "Failed to delete order", err)
		return
	}
	a.log.Info(ctx, "order deleted", "order_id", id)

	a.publish(ctx, events.New(events.TypeOrderDeleted, id, nil))
	writeJSON(w, http.StatusOK, messageResponse{Message: "Order deleted successfully"})
}

// updateOrderStatusHandler changes only the status of an order.
// @Summary Update order status
// @Description Any known status may follow any other.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param status body statusRequest true "New status"
// @Success 200 {object} order.Order
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders/{id}/status [patch]
func (a *app) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateOrderStatusHandler")
	defer span.End()

	id := mux.Vars(r)["id"]
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		a.badRequest(ctx, w, errorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if req.Status == "" {
		a.badRequest(ctx, w, errorResponse{Error: "Status is required"})
		return
	}
	if !req.Status.Valid() {
		a.badRequest(ctx, w, errorResponse{
			Error:   "Invalid status",
			Message: fmt.Sprintf("status must be one of: %s", statusList()),
		})
		return
	}

	o, err := a.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		a.repoError(ctx, w, id, "Failed to update order status", err)
		return
	}
	a.log.Info(ctx, "order status changed", "order_id", o.ID, "status", o.Status)

	a.publish(ctx, events.New(events.TypeOrderStatusChanged, o.ID, &o))
	writeJSON(w, http.StatusOK, o)
}

func (a *app) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:   "Not Found",
		Message: fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
	})
}

func (a *app) methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error:   "Method Not Allowed",
		Message: fmt.Sprintf("%s is not supported on %s", r.Method, r.URL.Path),
	})
}

// publish emits e without letting broker trouble fail the request.
func (a *app) publish(ctx context.Context, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := a.publisher.Publish(ctx, e); err != nil {
		a.log.Error(ctx, "publish event", "type", e.Type, "order_id", e.OrderID, "error", err)
	}
}

func (a *app) repoError(ctx context.Context, w http.ResponseWriter, id, msg string, err error) {
	if errors.Is(err, order.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "Order not found",
			Message: fmt.Sprintf("no order with id %q", id),
		})
		return
	}
	a.serverError(ctx, w, msg, err)
}

func (a *app) badRequest(ctx context.Context, w http.ResponseWriter, resp errorResponse) {
	a.log.Debug(ctx, "rejected request", "error", resp.Error, "message", resp.Message)
	writeJSON(w, http.StatusBadRequest, resp)
}

func (a *app) serverError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	a.log.Error(ctx, msg, "error", err)
	trace.SpanFromContext(ctx).RecordError(err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg, Message: err.Error()})
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
