package handler

import (
	"context"
	"net/http"

	"ortus/internal/middleware"
	"ortus/internal/usecase"

	"github.com/labstack/echo/v4"
)

// OrderService は購入者側の注文usecase
type OrderService interface {
	CreateOrder(ctx context.Context, userID string, items []usecase.OrderItemInput) (usecase.OrderOutput, error)
	ListMyOrders(ctx context.Context, userID string) ([]usecase.OrderOutput, error)
	RequestDelivery(ctx context.Context, userID, orderID string) (usecase.OrderOutput, error)
}

// AdminOrderService は管理者側の注文usecase
type AdminOrderService interface {
	ListAll(ctx context.Context, actor usecase.Actor) ([]usecase.OrderOutput, error)
	ListDeliveryRequests(ctx context.Context, actor usecase.Actor) ([]usecase.OrderOutput, error)
	UpdateStatus(ctx context.Context, actor usecase.Actor, orderID string, status string) (usecase.OrderOutput, error)
	ExportCSV(ctx context.Context, actor usecase.Actor, from, to string) ([]byte, error)
}

type OrderHandler struct {
	uc    OrderService
	admin AdminOrderService
}

// DI
func NewOrderHandler(uc OrderService, admin AdminOrderService) *OrderHandler {
	return &OrderHandler{uc: uc, admin: admin}
}

type createOrderRequest struct {
	Items []usecase.OrderItemInput `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, g Guards) {
	orders := api.Group("/orders", g.Protect...)

	orders.POST("", h.create)
	orders.GET("/my-orders", h.myOrders)
	orders.PATCH("/:id/delivery-request", h.requestDelivery)

	orders.GET("/all", h.all, g.Admin)
	orders.GET("/delivery-requests", h.deliveryRequests, g.Admin)
	orders.PATCH("/:id/status", h.updateStatus, g.Admin)
}

func (h *OrderHandler) create(c echo.Context) error {
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), middleware.CurrentUserID(c), req.Items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) myOrders(c echo.Context) error {
	out, err := h.uc.ListMyOrders(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) requestDelivery(c echo.Context) error {
	out, err := h.uc.RequestDelivery(c.Request().Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) all(c echo.Context) error {
	out, err := h.admin.ListAll(c.Request().Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) deliveryRequests(c echo.Context) error {
	out, err := h.admin.ListDeliveryRequests(c.Request().Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.admin.UpdateStatus(c.Request().Context(), actorFrom(c), c.Param("id"), req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
