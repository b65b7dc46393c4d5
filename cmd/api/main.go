package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ortus/internal/config"
	"ortus/internal/handler"
	"ortus/internal/infra/cache"
	"ortus/internal/infra/db"
	"ortus/internal/infra/jwtauth"
	"ortus/internal/infra/mail"
	"ortus/internal/infra/media"
	infraRepo "ortus/internal/infra/repository"
	"ortus/internal/jobs"
	"ortus/internal/logging"
	"ortus/internal/middleware"
	repo "ortus/internal/repository"
	"ortus/internal/server"
	"ortus/internal/usecase"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now().UTC()
}

// 注文番号はsnowflake（時系列順・ノード内で一意）
type snowflakeNumbers struct {
	node *snowflake.Node
}

func newSnowflakeNumbers(nodeID int64) (*snowflakeNumbers, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "snowflake node")
	}
	return &snowflakeNumbers{node: node}, nil
}

func (g *snowflakeNumbers) NextOrderNumber() string {
	return g.node.Generate().String()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.Init(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	//金額はJSONで数値として返す
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	//Repository（ドライバ選択）
	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeStores)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	hasher := usecase.NewBcryptPasswordHasher(12)
	issuer := jwtauth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	numbers, err := newSnowflakeNumbers(cfg.NodeID)
	if err != nil {
		return err
	}

	transport, err := mail.NewTransport(cfg.Mail)
	if err != nil {
		return err
	}
	mailer := mail.NewResetCodeMailer(transport, cfg.ResetCodeTTL)

	mediaStore, uploadsDir, closeMedia, err := openMediaStore(cfg.Media)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeMedia)

	uploader, err := media.NewUploader(mediaStore, cfg.Media.Workers)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, uploader.Release)

	productCache := openCache(ctx, cfg.Redis, log)
	if c, ok := productCache.(*cache.ProductCache); ok {
		cleanups = append(cleanups, func() { _ = c.Close() })
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(stores.Users, hasher, issuer, mailer, clock, idGen, cfg.ResetCodeTTL)
	productUC := usecase.NewProductUsecase(stores.Products, stores.Tx, uploader, productCache, clock, idGen)
	orderUC := usecase.NewOrderUsecase(stores.Users, stores.Products, stores.Orders, stores.Tx, numbers, productCache, clock, idGen)
	adminOrderUC := usecase.NewAdminOrderUsecase(stores.Orders, stores.Users, stores.Tx, clock, idGen)
	auditUC := usecase.NewAuditUsecase(stores.AuditLogs)

	guards := handler.Guards{
		Protect: []echo.MiddlewareFunc{
			middleware.AuthJWT(issuer),
			middleware.IdentityGuard(stores.Users),
		},
		Admin: middleware.AdminRoleGuard(),
	}

	srv, err := server.New(server.Options{
		Config: cfg,
		Logger: log,
		Guards: guards,
		Routes: []server.Routes{
			handler.NewAuthHandler(authUC),
			handler.NewProductHandler(productUC),
			handler.NewOrderHandler(orderUC, adminOrderUC),
			handler.NewAdminHandler(adminOrderUC, auditUC, clock),
		},
		UploadsDir: uploadsDir,
	})
	if err != nil {
		return err
	}

	sched := jobs.NewScheduler(log)
	if err := sched.AddResetCodeSweep(cfg.ResetSweepSpec, stores.Users, clock.Now); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start()
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sched.Stop(context.Background())
		return srv.Shutdown(context.Background())
	})
	return g.Wait()
}

// openStores は STORE_DRIVER に応じてpostgres(gorm)かmongoの実装を返す
func openStores(ctx context.Context, cfg config.Config) (repo.Stores, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, mdb, err := db.ConnectMongo(ctx, cfg)
		if err != nil {
			return repo.Stores{}, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		if err := db.EnsureIndexes(ctx, mdb); err != nil {
			closeFn()
			return repo.Stores{}, nil, err
		}
		return infraRepo.NewMongoStores(client, mdb), closeFn, nil
	default:
		gdb, err := db.Connect(cfg)
		if err != nil {
			return repo.Stores{}, nil, err
		}
		closeFn := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		if err := db.Migrate(gdb); err != nil {
			closeFn()
			return repo.Stores{}, nil, err
		}
		return infraRepo.NewGormStores(gdb), closeFn, nil
	}
}

// localなら静的配信するディレクトリも返す
func openMediaStore(cfg config.MediaConfig) (media.Store, string, func(), error) {
	if cfg.Driver == config.MediaDriverSFTP {
		s, err := media.NewSFTPStore(cfg)
		if err != nil {
			return nil, "", nil, err
		}
		return s, "", func() { _ = s.Close() }, nil
	}

	s, err := media.NewLocalStore(cfg.LocalDir, cfg.BaseURL)
	if err != nil {
		return nil, "", nil, err
	}
	return s, s.Dir(), func() {}, nil
}

// REDIS_ADDR が無い、または繋がらない場合はキャッシュ無しで動かす
func openCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) usecase.ProductCache {
	if cfg.Addr == "" {
		return cache.Noop{}
	}

	c := cache.NewProductCache(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, catalog cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = c.Close()
		return cache.Noop{}
	}
	return c
}
