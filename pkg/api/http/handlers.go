package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExecuteOrderResponse is returned when an order is accepted
type ExecuteOrderResponse struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID            string             `json:"id"`
	TokenIn       string             `json:"tokenIn"`
	TokenOut      string             `json:"tokenOut"`
	Amount        decimal.Decimal    `json:"amount"`
	Status        domain.OrderStatus `json:"status"`
	SelectedDex   *string            `json:"selectedDex,omitempty"`
	ExecutedPrice *decimal.Decimal   `json:"executedPrice,omitempty"`
	TxHash        *string            `json:"txHash,omitempty"`
	FailureReason *string            `json:"failureReason,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// FailureResponse is the API view of a failure log row
type FailureResponse struct {
	ID        uint64    `json:"id"`
	OrderID   string    `json:"orderId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PageResponse wraps a listing
type PageResponse[T any] struct {
	Data     []T      `json:"data"`
	Paginate Paginate `json:"paginate"`
}

// Paginate describes the returned page
type Paginate struct {
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Page       int   `json:"page"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		TokenIn:       o.TokenIn,
		TokenOut:      o.TokenOut,
		Amount:        o.Amount,
		Status:        o.Status,
		SelectedDex:   o.SelectedDex,
		ExecutedPrice: o.ExecutedPrice,
		TxHash:        o.TxHash,
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// handleHealth reports worker pool health
func (s *Server) handleHealth(c *gin.Context) {
	health := s.workers.Health().GetStatus()

	status := http.StatusOK
	state := "healthy"
	if !health.Healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": health.Timestamp.UTC().Format(time.RFC3339),
		"checks": gin.H{
			"workers": health,
		},
	})
}

// handleHealthCheck is a liveness probe
func (s *Server) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleExecuteOrder accepts a new order
func (s *Server) handleExecuteOrder(c *gin.Context) {
	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Info("invalid request", zap.Error(err))
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	order, err := s.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeError(c, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
			return
		}

		s.logger.Error("failed to create order", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "ORDER_CREATION_FAILED", "failed to create order")
		return
	}

	c.JSON(http.StatusCreated, ExecuteOrderResponse{
		OrderID: order.ID,
		Status:  order.Status,
	})
}

// handleGetOrder returns one order
func (s *Server) handleGetOrder(c *gin.Context) {
	order, err := s.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "order not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get order", zap.String("order_id", c.Param("id")), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to get order")
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// handleListOrders returns a page of orders
func (s *Server) handleListOrders(c *gin.Context) {
	page, limit, ok := s.pageParams(c)
	if !ok {
		return
	}

	result, err := s.orders.ListOrders(c.Request.Context(), page, limit)
	if err != nil {
		s.logger.Error("failed to list orders", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list orders")
		return
	}

	data := make([]OrderResponse, 0, len(result.Data))
	for i := range result.Data {
		data = append(data, toOrderResponse(&result.Data[i]))
	}

	c.JSON(http.StatusOK, PageResponse[OrderResponse]{
		Data:     data,
		Paginate: paginate(result.TotalCount, result.Limit, result.Offset),
	})
}

// handleListFailures returns a page of the failure log
func (s *Server) handleListFailures(c *gin.Context) {
	page, limit, ok := s.pageParams(c)
	if !ok {
		return
	}

	result, err := s.orders.ListFailures(c.Request.Context(), page, limit)
	if err != nil {
		s.logger.Error("failed to list order failures", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list order failures")
		return
	}

	data := make([]FailureResponse, 0, len(result.Data))
	for _, f := range result.Data {
		data = append(data, FailureResponse{
			ID:        f.ID,
			OrderID:   f.OrderID,
			Reason:    f.Reason,
			CreatedAt: f.CreatedAt,
			UpdatedAt: f.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, PageResponse[FailureResponse]{
		Data:     data,
		Paginate: paginate(result.TotalCount, result.Limit, result.Offset),
	})
}

// WorkerResponse is the API view of one worker
type WorkerResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// handleListWorkers reports the worker pool
func (s *Server) handleListWorkers(c *gin.Context) {
	statuses := s.workers.GetStatus()

	data := make([]WorkerResponse, 0, len(statuses))
	for id, st := range statuses {
		data = append(data, WorkerResponse{ID: id, State: string(st)})
	}
	sort.Slice(data, func(i, j int) bool { return data[i].ID < data[j].ID })

	c.JSON(http.StatusOK, gin.H{
		"data":   data,
		"health": s.workers.Health().GetStatus(),
	})
}

// pageParams reads page and limit, writing a 400 when either is malformed
func (s *Server) pageParams(c *gin.Context) (page, limit int, ok bool) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "page must be an integer")
		return 0, 0, false
	}
	limit, err = queryInt(c, "limit", 0)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be an integer")
		return 0, 0, false
	}
	return page, limit, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func paginate(total int64, limit, offset int) Paginate {
	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}
	return Paginate{TotalCount: total, Limit: limit, Page: page}
}
