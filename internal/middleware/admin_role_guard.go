package middleware

import (
	"net/http"

	"ortus/internal/domain/model"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleがadminかどうかを確認します。

func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := CurrentRole(c)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("not authorized"))
			}

			//customerは拒否、adminだけ許可
			if role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, errorJSON("admin access required"))
			}

			return next(c)
		}
	}
}
