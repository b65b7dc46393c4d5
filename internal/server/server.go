package server

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ortus/internal/config"
	"ortus/internal/handler"
	"ortus/internal/middleware"
	"ortus/internal/validator"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// 画像5枚 + フォーム
const bodyLimit = "25M"

// Server はechoとその設定を持つ
type Server struct {
	e    *echo.Echo
	addr string
	log  *zap.Logger
}

// Options はサーバー構築に必要なもの
type Options struct {
	Config config.Config
	Logger *zap.Logger
	Guards handler.Guards
	Routes []Routes
	// 空でなければ Media.BaseURL 配下で静的配信する（localドライバ）
	UploadsDir string
}

func New(opts Options) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = validator.NewRequestValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	allowOrigin, err := originMatcher(opts.Config.CORSAllowOrigins)
	if err != nil {
		return nil, err
	}

	//レジストリはサーバーごと（テストで何度もNewするため）
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "ortus",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOriginFunc:  allowOrigin,
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(bodyLimit))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))

	if opts.UploadsDir != "" && strings.HasPrefix(opts.Config.Media.BaseURL, "/") {
		e.Static(opts.Config.Media.BaseURL, opts.UploadsDir)
	}

	api := e.Group("/api")
	for _, r := range opts.Routes {
		r.RegisterRoutes(api, opts.Guards)
	}

	return &Server{e: e, addr: ":" + strings.TrimPrefix(opts.Config.Port, ":"), log: opts.Logger}, nil
}

// Routes は /api 配下にルートを登録するハンドラ
type Routes interface {
	RegisterRoutes(api *echo.Group, g handler.Guards)
}

// Echo はテスト用
func (s *Server) Echo() *echo.Echo {
	return s.e
}

// Start はShutdownされるまでブロックする
func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.addr))
	if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}

// originMatcher は正規表現のどれかに一致するOriginを許可する。
// Originなし（curl、サーバー間）はCORSミドルウェアがそのまま通す。
func originMatcher(patterns []string) (func(origin string) (bool, error), error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid CORS origin pattern %q", p)
		}
		res = append(res, re)
	}
	return func(origin string) (bool, error) {
		for _, re := range res {
			if re.MatchString(origin) {
				return true, nil
			}
		}
		return false, nil
	}, nil
}
