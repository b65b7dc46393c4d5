package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"ortus/internal/domain/model"
	"ortus/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// AuditService は監査ログ一覧のusecase
type AuditService interface {
	List(ctx context.Context, actor usecase.Actor, in usecase.AuditListInput) ([]model.AuditLog, error)
}

// /api/admin（CSV出力・監査ログ）
type AdminHandler struct {
	orders AdminOrderService
	audits AuditService
	clock  usecase.Clock
}

// DI
func NewAdminHandler(orders AdminOrderService, audits AuditService, clock usecase.Clock) *AdminHandler {
	return &AdminHandler{orders: orders, audits: audits, clock: clock}
}

func (h *AdminHandler) RegisterRoutes(api *echo.Group, g Guards) {
	admin := api.Group("/admin", g.admin()...)

	admin.GET("/orders/export", h.exportOrders)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminHandler) exportOrders(c echo.Context) error {
	b, err := h.orders.ExportCSV(c.Request().Context(), actorFrom(c), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return writeError(c, err)
	}

	name := fmt.Sprintf("orders-%s.csv", h.clock.Now().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", b)
}

func (h *AdminHandler) auditLogs(c echo.Context) error {
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		return err
	}

	logs, err := h.audits.List(c.Request().Context(), actorFrom(c), usecase.AuditListInput{
		ActorUserID:  c.QueryParam("actorUserId"),
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resourceType"),
		ResourceID:   c.QueryParam("resourceId"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

// 空なら0
func intQuery(c echo.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(key))
	if raw == "" {
		return 0, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, badRequest(key + " must be a number")
	}
	return n, nil
}
