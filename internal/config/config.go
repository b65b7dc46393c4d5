package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// Mail providers
const (
	MailProviderSMTP     = "smtp"
	MailProviderSendGrid = "sendgrid"
	MailProviderLog      = "log"
)

// Media drivers
const (
	MediaDriverLocal = "local"
	MediaDriverSFTP  = "sftp"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（5000）
	GoEnv string // dev/prod

	StoreDriver string // postgres / mongo

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	MongoURI string
	MongoDB  string

	JWTSecret string        // JWT署名シークレット
	TokenTTL  time.Duration // 30日

	ResetCodeTTL   time.Duration // 15分
	ResetSweepSpec string        // cron式

	CORSAllowOrigins []string // 正規表現

	LogMode string // development / production
	LogFile string // 空ならstdoutのみ

	Mail  MailConfig
	Media MediaConfig
	Redis RedisConfig

	NodeID int64 // 注文番号(snowflake)のノード
}

type MailConfig struct {
	Provider       string
	From           string
	FromName       string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SendGridAPIKey string
}

type MediaConfig struct {
	Driver       string
	LocalDir     string
	BaseURL      string // 公開URLのprefix
	SFTPAddr     string
	SFTPUser     string
	SFTPPassword string
	SFTPDir      string
	SFTPHostKey  string // authorized_keys形式。空ならホスト鍵を検証しない
	Workers      int
}

type RedisConfig struct {
	Addr     string // 空ならキャッシュ無効
	Username string
	Password string
	DB       int
	TTL      time.Duration
}

// Loadは.env(あれば)と環境変数から設定を組み立てる
func Load() (Config, error) {
	//.envは無くてもよい
	_ = godotenv.Load()

	cfg := Config{
		Port:  getenv("PORT", "5000"),
		GoEnv: getenv("GO_ENV", "dev"),

		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", StoreDriverPostgres)),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "ortus"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:  getenv("MONGO_DB", "ortus"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		ResetSweepSpec: getenv("RESET_SWEEP_SPEC", "@every 10m"),

		CORSAllowOrigins: splitList(getenv("CORS_ALLOW_ORIGINS", `^http://localhost:\d+$`)),

		LogMode: getenv("LOG_MODE", "development"),
		LogFile: os.Getenv("LOG_FILE"),

		Mail: MailConfig{
			Provider:       strings.ToLower(getenv("MAIL_PROVIDER", MailProviderLog)),
			From:           os.Getenv("MAIL_FROM"),
			FromName:       getenv("MAIL_FROM_NAME", "Ortus Brand"),
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPUser:       os.Getenv("SMTP_USER"),
			SMTPPass:       os.Getenv("SMTP_PASS"),
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		},

		Media: MediaConfig{
			Driver:       strings.ToLower(getenv("MEDIA_DRIVER", MediaDriverLocal)),
			LocalDir:     getenv("MEDIA_LOCAL_DIR", "uploads"),
			BaseURL:      strings.TrimRight(getenv("MEDIA_BASE_URL", "/uploads"), "/"),
			SFTPAddr:     os.Getenv("SFTP_ADDR"),
			SFTPUser:     os.Getenv("SFTP_USER"),
			SFTPPassword: os.Getenv("SFTP_PASSWORD"),
			SFTPDir:      getenv("SFTP_DIR", "/var/www/uploads"),
			SFTPHostKey:  os.Getenv("SFTP_HOST_KEY"),
		},

		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Username: os.Getenv("REDIS_USERNAME"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}

	var err error
	if cfg.PostgresPort, err = intEnv("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.Mail.SMTPPort, err = intEnv("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.Media.Workers, err = intEnv("MEDIA_WORKERS", 5); err != nil {
		return Config{}, err
	}
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	nodeID, err := intEnv("NODE_ID", 1)
	if err != nil {
		return Config{}, err
	}
	cfg.NodeID = int64(nodeID)

	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ResetCodeTTL, err = durationEnv("RESET_CODE_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Redis.TTL, err = durationEnv("CATALOG_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo:
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or mongo: %q", c.StoreDriver)
	}
	switch c.Mail.Provider {
	case MailProviderLog:
	case MailProviderSMTP:
		if c.Mail.SMTPHost == "" || c.Mail.From == "" {
			return fmt.Errorf("SMTP_HOST and MAIL_FROM are required for smtp mail")
		}
	case MailProviderSendGrid:
		if c.Mail.SendGridAPIKey == "" || c.Mail.From == "" {
			return fmt.Errorf("SENDGRID_API_KEY and MAIL_FROM are required for sendgrid mail")
		}
	default:
		return fmt.Errorf("MAIL_PROVIDER must be smtp, sendgrid or log: %q", c.Mail.Provider)
	}
	switch c.Media.Driver {
	case MediaDriverLocal:
	case MediaDriverSFTP:
		if c.Media.SFTPAddr == "" || c.Media.SFTPUser == "" {
			return fmt.Errorf("SFTP_ADDR and SFTP_USER are required for sftp media")
		}
	default:
		return fmt.Errorf("MEDIA_DRIVER must be local or sftp: %q", c.Media.Driver)
	}
	if c.Media.Workers <= 0 {
		return fmt.Errorf("MEDIA_WORKERS must be positive")
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be between 0 and 1023")
	}
	return nil
}

// IsProd は本番かどうか
func (c Config) IsProd() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

// PostgresDSN は DATABASE_URL があればそれを返す
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

// "15m" や "720h" の形式
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
