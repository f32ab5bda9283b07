package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type App struct {
	Name            string `mapstructure:"name"`
	Env             string `mapstructure:"env"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeoutSec  int    `mapstructure:"readTimeoutSec"`
	WriteTimeoutSec int    `mapstructure:"writeTimeoutSec"`
	IdleTimeoutSec  int    `mapstructure:"idleTimeoutSec"`
	MaxBodyBytes    int64  `mapstructure:"maxBodyBytes"`
}

func (a App) Production() bool { return a.Env == "production" }

type Log struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress"`
}

type Mongo struct {
	URI               string `mapstructure:"uri"`
	Database          string `mapstructure:"database"`
	ConnectTimeoutSec int    `mapstructure:"connectTimeoutSec"`
}

type JWT struct {
	Secret   string `mapstructure:"secret"`
	Issuer   string `mapstructure:"issuer"`
	TTLHours int    `mapstructure:"ttlHours"`
}

type Auth struct {
	BcryptCost  int      `mapstructure:"bcryptCost"`
	AdminEmails []string `mapstructure:"adminEmails"`
}

// Redis is optional; without an address the per-user issue limit is off.
type Redis struct {
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	IssueKeyPrefix  string `mapstructure:"issueKeyPrefix"`
	DailyIssueLimit int    `mapstructure:"dailyIssueLimit"`
}

type Engagement struct {
	AuthenticatedUpvotes bool `mapstructure:"authenticatedUpvotes"`
	CommentFanout        int  `mapstructure:"commentFanout"`
}

type HTTP struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
	RateRPS      float64  `mapstructure:"rateRPS"`
	RateBurst    int      `mapstructure:"rateBurst"`
}

// Storage configures the S3 compatible image host. Upload is disabled when
// Endpoint is empty.
type Storage struct {
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"accessKey"`
	SecretKey      string `mapstructure:"secretKey"`
	Bucket         string `mapstructure:"bucket"`
	UseSSL         bool   `mapstructure:"useSSL"`
	PublicBaseURL  string `mapstructure:"publicBaseURL"`
	MaxUploadBytes int64  `mapstructure:"maxUploadBytes"`
}

type Config struct {
	App        App        `mapstructure:"app"`
	Log        Log        `mapstructure:"log"`
	Mongo      Mongo      `mapstructure:"mongo"`
	JWT        JWT        `mapstructure:"jwt"`
	Auth       Auth       `mapstructure:"auth"`
	Redis      Redis      `mapstructure:"redis"`
	Engagement Engagement `mapstructure:"engagement"`
	HTTP       HTTP       `mapstructure:"http"`
	Storage    Storage    `mapstructure:"storage"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "naagrik-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.readTimeoutSec", 15)
	v.SetDefault("app.writeTimeoutSec", 30)
	v.SetDefault("app.idleTimeoutSec", 60)
	v.SetDefault("app.maxBodyBytes", 8<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 5)
	v.SetDefault("log.maxAgeDays", 14)
	v.SetDefault("log.compress", true)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "naagrik")
	v.SetDefault("mongo.connectTimeoutSec", 10)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "naagrik-api")
	v.SetDefault("jwt.ttlHours", 7*24)

	v.SetDefault("auth.bcryptCost", 12)
	v.SetDefault("auth.adminEmails", []string{})

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.issueKeyPrefix", "issue-limit")
	v.SetDefault("redis.dailyIssueLimit", 10)

	v.SetDefault("engagement.authenticatedUpvotes", false)
	v.SetDefault("engagement.commentFanout", 8)

	v.SetDefault("http.allowOrigins", []string{"*"})
	v.SetDefault("http.rateRPS", 20.0)
	v.SetDefault("http.rateBurst", 40)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accessKey", "")
	v.SetDefault("storage.secretKey", "")
	v.SetDefault("storage.bucket", "naagrik")
	v.SetDefault("storage.useSSL", true)
	v.SetDefault("storage.publicBaseURL", "")
	v.SetDefault("storage.maxUploadBytes", 5<<20)
}

// legacyEnv keeps the environment names used by existing deployments.
var legacyEnv = map[string][]string{
	"mongo.uri":            {"NAAGRIK_MONGO_URI", "MONGODB_URI", "DATABASE_URL"},
	"jwt.secret":           {"NAAGRIK_JWT_SECRET", "JWT_SECRET"},
	"redis.addr":           {"NAAGRIK_REDIS_ADDR", "REDIS_ADDRESS"},
	"redis.password":       {"NAAGRIK_REDIS_PASSWORD", "REDIS_PASSWORD"},
	"redis.issueKeyPrefix": {"NAAGRIK_REDIS_ISSUEKEYPREFIX", "REDIS_QUEUE_FOR_ISSUE_LIMIT"},
	"app.env":              {"NAAGRIK_APP_ENV", "GO_ENV"},
	"app.port":             {"NAAGRIK_APP_PORT", "PORT"},
}

// Load reads .env, then an optional YAML file, then NAAGRIK_* variables.
// An empty path falls back to CONFIG_PATH; no file at all is fine.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("NAAGRIK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret (JWT_SECRET) is required"))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri (MONGODB_URI) is required"))
	}
	if c.Storage.Endpoint != "" && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket is required when storage.endpoint is set"))
	}
	if c.Engagement.CommentFanout < 1 {
		errs = append(errs, errors.New("engagement.commentFanout must be positive"))
	}
	return errors.Join(errs...)
}
