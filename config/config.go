package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds file and environment driven configuration values.
// Secrets (keys, passwords, pinning credentials) never have defaults inside code
// and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Chain access
	RPCURL               string
	ChainID              int64
	ForumAddress         string
	SimulateWrites       bool
	ConfirmTimeoutSec    int
	CommunityCooldownSec int
	AllowTopicAdd        bool
	RefreshAfterTopicAdd bool
	TopicCaseSensitive   bool
	ResolveConcurrency   int
	// Off-chain content
	Gateways          []string
	ImageGateway      string
	GatewayTimeoutSec int
	PinataEndpoint    string
	PinataJWT         string
	PinataAPIKey      string
	PinataSecretKey   string
	// Wallet
	WalletPrivateKey  string
	KeystoreDir       string
	KeystoreAccount   string
	KeystorePassword  string
	PreferredProvider string
	// Database (transaction journal and pin records); empty DBHost and
	// DatabaseURI disables persistence.
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis second-tier content cache
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Kafka event stream for confirmed transactions
	KafkaBrokers []string
	KafkaTopic   string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// GatewayTimeout returns the per-gateway request timeout.
func (c AppConfig) GatewayTimeout() time.Duration {
	return time.Duration(c.GatewayTimeoutSec) * time.Second
}

// ConfirmTimeout bounds the wait for one confirmation.
func (c AppConfig) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSec) * time.Second
}

// CommunityCooldown is the per-address wait between community creations.
// Zero selects the one hour default; a negative value disables the check.
func (c AppConfig) CommunityCooldown() time.Duration {
	if c.CommunityCooldownSec < 0 {
		return 0
	}
	return time.Duration(c.CommunityCooldownSec) * time.Second
}

// WriteTimeout is the HTTP write deadline. A write request blocks for the
// whole confirmation wait, so it is never shorter than that plus a margin.
func (c AppConfig) WriteTimeout(base time.Duration) time.Duration {
	if d := c.ConfirmTimeout() + 30*time.Second; d > base {
		return d
	}
	return base
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config/config.json -> defaults -> .env / environment overrides
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("config/config.json ignored: %v", err)
	}

	applyDefaults(&cfg)

	// A missing .env is normal in production where the environment is set directly.
	_ = godotenv.Load()
	applyEnvOverrides(&cfg)

	if cfg.ForumAddress == "" {
		log.Println("FORUM_ADDRESS is not set; contract calls will fail")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the grouped JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if ch, ok := raw["chain"].(map[string]any); ok {
		out.RPCURL = getString(ch, "RPCURL")
		out.ChainID = int64(getInt(ch, "ChainID"))
		out.ForumAddress = getString(ch, "ForumAddress")
		out.SimulateWrites = getBool(ch, "SimulateWrites")
		out.ConfirmTimeoutSec = getInt(ch, "ConfirmTimeoutSec")
	}

	if fm, ok := raw["forum"].(map[string]any); ok {
		out.CommunityCooldownSec = getInt(fm, "CommunityCooldownSec")
		out.AllowTopicAdd = getBool(fm, "AllowTopicAdd")
		out.RefreshAfterTopicAdd = getBool(fm, "RefreshAfterTopicAdd")
		out.TopicCaseSensitive = getBool(fm, "TopicCaseSensitive")
		out.ResolveConcurrency = getInt(fm, "ResolveConcurrency")
	}

	if ip, ok := raw["ipfs"].(map[string]any); ok {
		out.Gateways = getStringSlice(ip, "Gateways")
		out.ImageGateway = getString(ip, "ImageGateway")
		out.GatewayTimeoutSec = getInt(ip, "GatewayTimeoutSec")
		out.PinataEndpoint = getString(ip, "PinataEndpoint")
	}

	if w, ok := raw["wallet"].(map[string]any); ok {
		out.KeystoreDir = getString(w, "KeystoreDir")
		out.KeystoreAccount = getString(w, "KeystoreAccount")
		out.PreferredProvider = getString(w, "PreferredProvider")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisEnabled = getBool(rds, "Enabled")
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
	}

	if kf, ok := raw["kafka"].(map[string]any); ok {
		out.KafkaBrokers = getStringSlice(kf, "Brokers")
		out.KafkaTopic = getString(kf, "Topic")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RPCURL == "" {
		c.RPCURL = "http://127.0.0.1:8545"
	}
	if c.ConfirmTimeoutSec == 0 {
		c.ConfirmTimeoutSec = 180
	}
	if c.CommunityCooldownSec == 0 {
		c.CommunityCooldownSec = 3600
	}
	if c.ResolveConcurrency == 0 {
		c.ResolveConcurrency = 8
	}
	if len(c.Gateways) == 0 {
		c.Gateways = []string{
			"https://gateway.pinata.cloud/ipfs/",
			"https://ipfs.io/ipfs/",
			"https://cloudflare-ipfs.com/ipfs/",
		}
	}
	if c.ImageGateway == "" {
		c.ImageGateway = c.Gateways[0]
	}
	if c.GatewayTimeoutSec == 0 {
		c.GatewayTimeoutSec = 10
	}
	if c.PinataEndpoint == "" {
		c.PinataEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	}
	if c.PreferredProvider == "" {
		c.PreferredProvider = "keystore"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBName == "" {
		c.DBName = "nodespeak"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = "nodespeak.forum.tx"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides lets the environment win over file values and defaults.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	c.AllowedOrigins = readListEnv("ALLOWED_ORIGINS", c.AllowedOrigins)

	if v := getEnv("RPC_URL", ""); v != "" {
		c.RPCURL = v
	}
	if v := getEnv("CHAIN_ID", ""); v != "" {
		c.ChainID = int64(mustParseInt(v))
	}
	if v := getEnv("FORUM_ADDRESS", ""); v != "" {
		c.ForumAddress = v
	}
	if v := getEnv("SIMULATE_WRITES", ""); v != "" {
		c.SimulateWrites = v == "true"
	}
	if v := getEnv("CONFIRM_TIMEOUT_SEC", ""); v != "" {
		c.ConfirmTimeoutSec = mustParseInt(v)
	}
	if v := getEnv("COMMUNITY_COOLDOWN_SEC", ""); v != "" {
		c.CommunityCooldownSec = mustParseInt(v)
	}
	if v := getEnv("ALLOW_TOPIC_ADD", ""); v != "" {
		c.AllowTopicAdd = v == "true"
	}
	if v := getEnv("REFRESH_AFTER_TOPIC_ADD", ""); v != "" {
		c.RefreshAfterTopicAdd = v == "true"
	}
	if v := getEnv("TOPIC_CASE_SENSITIVE", ""); v != "" {
		c.TopicCaseSensitive = v == "true"
	}
	if v := getEnv("RESOLVE_CONCURRENCY", ""); v != "" {
		c.ResolveConcurrency = mustParseInt(v)
	}

	c.Gateways = readListEnv("IPFS_GATEWAYS", c.Gateways)
	if v := getEnv("IPFS_IMAGE_GATEWAY", ""); v != "" {
		c.ImageGateway = v
	}
	if v := getEnv("IPFS_GATEWAY_TIMEOUT_SEC", ""); v != "" {
		c.GatewayTimeoutSec = mustParseInt(v)
	}
	if v := getEnv("PINATA_ENDPOINT", ""); v != "" {
		c.PinataEndpoint = v
	}
	if v := getEnv("PINATA_JWT", ""); v != "" {
		c.PinataJWT = v
	}
	if v := getEnv("PINATA_API_KEY", ""); v != "" {
		c.PinataAPIKey = v
	}
	if v := getEnv("PINATA_SECRET_API_KEY", ""); v != "" {
		c.PinataSecretKey = v
	}

	if v := getEnv("WALLET_PRIVATE_KEY", ""); v != "" {
		c.WalletPrivateKey = v
	}
	if v := getEnv("KEYSTORE_DIR", ""); v != "" {
		c.KeystoreDir = v
	}
	if v := getEnv("KEYSTORE_ACCOUNT", ""); v != "" {
		c.KeystoreAccount = v
	}
	if v := getEnv("KEYSTORE_PASSWORD", ""); v != "" {
		c.KeystorePassword = v
	}
	if v := getEnv("WALLET_PREFERRED_PROVIDER", ""); v != "" {
		c.PreferredProvider = v
	}

	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}

	if v := getEnv("REDIS_ENABLED", ""); v != "" {
		c.RedisEnabled = v == "true"
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}

	c.KafkaBrokers = readListEnv("KAFKA_BROKERS", c.KafkaBrokers)
	if v := getEnv("KAFKA_TOPIC", ""); v != "" {
		c.KafkaTopic = v
	}

	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
