package middleware

import (
	"errors"
	"net/http"

	"ortus/internal/domain/model"
	"ortus/internal/infra/jwtauth"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // string
	CtxUserRoleKey = "user_role" // model.Role
)

type errorResponse struct {
	Message string `json:"message"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Message: msg}
}

// TokenParser は署名・有効期限を検証してClaimsを返す（jwtauth.Issuer）
type TokenParser interface {
	Parse(raw string) (*jwtauth.Claims, error)
}

// AuthJWT は Authorization: Bearer <token> を検証して user_id / user_role をcontextに入れる
func AuthJWT(parser TokenParser) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return parser.Parse(auth)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get("user").(*jwtauth.Claims)
			if !ok {
				return
			}
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserRoleKey, claims.UserType)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var missing *echojwt.TokenExtractionError
			if errors.As(err, &missing) {
				return c.JSON(http.StatusUnauthorized, errorJSON("not authorized, no token"))
			}
			return c.JSON(http.StatusUnauthorized, errorJSON("not authorized, token failed"))
		},
	})
}

// CurrentUserID はAuthJWTが入れたuser_id
func CurrentUserID(c echo.Context) string {
	id, _ := c.Get(CtxUserIDKey).(string)
	return id
}

// CurrentRole はIdentityGuardで最新化されたrole
func CurrentRole(c echo.Context) model.Role {
	role, _ := c.Get(CtxUserRoleKey).(model.Role)
	return role
}
