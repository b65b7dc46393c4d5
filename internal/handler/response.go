package handler

import (
	"net/http"

	"ortus/internal/middleware"
	"ortus/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// エラーは常に {message}
type ErrorResponse struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Guards はルート登録で使うミドルウェア
type Guards struct {
	Protect []echo.MiddlewareFunc // bearer検証 + ユーザー確認
	Admin   echo.MiddlewareFunc
}

func (g Guards) admin() []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(g.Protect)+1)
	out = append(out, g.Protect...)
	return append(out, g.Admin)
}

var kindStatus = map[usecase.ErrorKind]int{
	usecase.KindValidation:     http.StatusBadRequest,
	usecase.KindConflict:       http.StatusConflict,
	usecase.KindAuthentication: http.StatusUnauthorized,
	usecase.KindAuthorization:  http.StatusForbidden,
	usecase.KindNotFound:       http.StatusNotFound,
	usecase.KindDelivery:       http.StatusBadGateway,
	usecase.KindUnexpected:     http.StatusInternalServerError,
}

// writeError はusecaseのエラーをステータスに変換する。原因はログにだけ出す。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	ue, ok := usecase.AsError(err)
	if !ok {
		zap.L().Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}

	switch ue.Kind {
	case usecase.KindUnexpected:
		zap.L().Error("request failed", zap.String("path", c.Path()), zap.Error(ue.Err))
	case usecase.KindDelivery:
		zap.L().Warn("delivery failed", zap.String("path", c.Path()), zap.Error(ue.Err))
	}

	status, ok := kindStatus[ue.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, ErrorResponse{Message: ue.Message})
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// bind + validate。エラーはHTTPErrorとして返し、HTTPErrorHandlerが {message} にする。
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body")
	}
	return c.Validate(req)
}

// HTTPErrorHandler はecho由来のエラー（404ルート、405、bind/validate）も {message} で返す
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(status)
		}
		if he.Internal != nil && status >= http.StatusInternalServerError {
			zap.L().Error("http error", zap.String("path", c.Path()), zap.Error(he.Internal))
		}
	} else if _, ok := usecase.AsError(err); ok {
		_ = writeError(c, err)
		return
	} else {
		zap.L().Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, ErrorResponse{Message: msg})
}

func actorFrom(c echo.Context) usecase.Actor {
	return usecase.Actor{
		UserID: middleware.CurrentUserID(c),
		Role:   middleware.CurrentRole(c),
	}
}
