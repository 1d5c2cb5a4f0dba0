package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Upload    UploadConfig    `yaml:"upload"`
	Minio     MinioConfig     `yaml:"minio"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     []User          `yaml:"users"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// LLMConfig describes the OpenAI-compatible chat-completion endpoint.
type LLMConfig struct {
	BaseURL       string  `yaml:"base_url"`
	APIKey        string  `yaml:"api_key"`
	Model         string  `yaml:"model"`
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
	MaxInputChars int     `yaml:"max_input_chars"`
	TimeoutSecs   int     `yaml:"timeout_secs"`
}

type UploadConfig struct {
	MaxFileSizeMB     int64    `yaml:"max_file_size_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type MinioConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// User is a login account. Password may be plain text or a bcrypt hash.
type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	MaxContracts int `yaml:"max_contracts"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
	// AnalyzeRequests bounds the LLM-backed routes separately.
	AnalyzeRequests int `yaml:"analyze_requests"`
}

const (
	DefaultBaseURL       = "https://api-inference.modelscope.cn/v1"
	DefaultModel         = "ZhipuAI/GLM-4.5"
	DefaultMaxInputChars = 3000
	DefaultTemperature   = 0.3
)

// EnvPrefix is the prefix of every environment override, e.g. CONTRACTREVIEW_LLM_API_KEY.
const EnvPrefix = "CONTRACTREVIEW"

var envKeys = []string{
	"server.port",
	"llm.base_url",
	"llm.api_key",
	"llm.model",
	"llm.timeout_secs",
	"llm.temperature",
	"minio.enabled",
	"minio.endpoint",
	"minio.access_key",
	"minio.secret_key",
	"minio.bucket",
	"auth.jwt_secret",
	"log.level",
	"log.format",
}

// Load reads the YAML file at path, applies defaults and then overlays
// environment variables (a .env file in the working directory is honoured).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{
		// Seeded before decoding so that an explicit 0 in the file survives.
		LLM: LLMConfig{Temperature: DefaultTemperature},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	setString := func(key string, dst *string) {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}
	setInt := func(key string, dst *int) {
		if v.GetString(key) != "" {
			*dst = v.GetInt(key)
		}
	}

	setInt("server.port", &cfg.Server.Port)
	setString("llm.base_url", &cfg.LLM.BaseURL)
	setString("llm.api_key", &cfg.LLM.APIKey)
	setString("llm.model", &cfg.LLM.Model)
	setInt("llm.timeout_secs", &cfg.LLM.TimeoutSecs)
	if v.GetString("llm.temperature") != "" {
		cfg.LLM.Temperature = v.GetFloat64("llm.temperature")
	}
	if v.GetString("minio.enabled") != "" {
		cfg.Minio.Enabled = v.GetBool("minio.enabled")
	}
	setString("minio.endpoint", &cfg.Minio.Endpoint)
	setString("minio.access_key", &cfg.Minio.AccessKey)
	setString("minio.secret_key", &cfg.Minio.SecretKey)
	setString("minio.bucket", &cfg.Minio.Bucket)
	setString("auth.jwt_secret", &cfg.Auth.JWTSecret)
	setString("log.level", &cfg.Log.Level)
	setString("log.format", &cfg.Log.Format)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultBaseURL
	}
	cfg.LLM.BaseURL = strings.TrimRight(cfg.LLM.BaseURL, "/")
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}
	if cfg.LLM.MaxInputChars == 0 {
		cfg.LLM.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.Upload.MaxFileSizeMB == 0 {
		cfg.Upload.MaxFileSizeMB = 10
	}
	if len(cfg.Upload.AllowedExtensions) == 0 {
		cfg.Upload.AllowedExtensions = []string{".pdf", ".docx", ".doc", ".txt"}
	}
	for i, ext := range cfg.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Upload.AllowedExtensions[i] = ext
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Store.MaxContracts == 0 {
		cfg.Store.MaxContracts = 100
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 100
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.RateLimit.AnalyzeRequests == 0 {
		cfg.RateLimit.AnalyzeRequests = 10
	}
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}

// MaxFileSize returns the upload limit in bytes.
func (u *UploadConfig) MaxFileSize() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// IsAllowedExtension reports whether ext (with leading dot, any case) may be uploaded.
func (u *UploadConfig) IsAllowedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range u.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}
