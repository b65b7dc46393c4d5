package middleware

import (
	"errors"
	"net/http"

	"ortus/internal/repository"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// トークンのユーザーがまだ存在するか確認し、roleをDBの値で上書きする
func IdentityGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := CurrentUserID(c)
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("not authorized, token failed"))
			}

			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, errorJSON("not authorized, user not found"))
				}
				//DB障害は認証失敗ではない
				zap.L().Error("identity lookup failed", zap.String("user_id", userID), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			c.Set(CtxUserRoleKey, user.Role)
			return next(c)
		}
	}
}
