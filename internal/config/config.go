package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/fraudwatch/internal/domain/risk"
	"github.com/bryanwahyu/fraudwatch/internal/logger"
)

type Config struct {
	Server struct {
		Port            int               `yaml:"port"`
		ReadTimeout     time.Duration     `yaml:"readTimeout"`
		WriteTimeout    time.Duration     `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration     `yaml:"shutdownTimeout"`
		CORSOrigins     []string          `yaml:"corsOrigins"`
		APIKeys         map[string]string `yaml:"apiKeys"`
		RateLimit       struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Log logger.Options `yaml:"log"`

	OpenAI struct {
		APIKey         string `yaml:"apiKey"`
		BaseURL        string `yaml:"baseURL"`
		Model          string `yaml:"model"`
		EmbeddingModel string `yaml:"embeddingModel"`
	} `yaml:"openai"`

	Vector struct {
		Driver     string `yaml:"driver"` // memory | qdrant
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		APIKey     string `yaml:"apiKey"`
		UseTLS     bool   `yaml:"useTLS"`
		Collection string `yaml:"collection"`
		Dimension  uint64 `yaml:"dimension"`
		Capacity   int    `yaml:"capacity"`
	} `yaml:"vector"`

	Agents struct {
		Interval     time.Duration `yaml:"interval"`
		SimilarLimit int           `yaml:"similarLimit"`
		HistoryLimit int           `yaml:"historyLimit"`
		AlertLimit   int           `yaml:"alertLimit"`
		CallTimeout  time.Duration `yaml:"callTimeout"`
		Seed         uint64        `yaml:"seed"`
		Demo         struct {
			Disabled   bool     `yaml:"disabled"`
			Name       string   `yaml:"name"`
			AccountIDs []string `yaml:"accountIds"`
			AutoStart  bool     `yaml:"autoStart"`
		} `yaml:"demo"`
	} `yaml:"agents"`

	Risk Risk `yaml:"risk"`

	Archive struct {
		Driver   string `yaml:"driver"` // none | mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"archive"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Kafka struct {
		Brokers  []string `yaml:"brokers"`
		Topic    string   `yaml:"topic"`
		ClientID string   `yaml:"clientID"`
	} `yaml:"kafka"`

	GeoIP struct {
		CityPath string `yaml:"cityPath"`
	} `yaml:"geoip"`
}

// Risk is the hot-reloadable part of the config.
type Risk struct {
	AlertThreshold     float64       `yaml:"alertThreshold"`
	ActionThreshold    float64       `yaml:"actionThreshold"`
	SuspiciousPrefixes []string      `yaml:"suspiciousPrefixes"`
	Defaults           risk.Defaults `yaml:"defaults"`
}

// Rules builds the analyzer fallback rules from this section.
func (r Risk) Rules() risk.FallbackRules {
	return risk.FallbackRules{
		Defaults:           r.Defaults.Normalized(),
		SuspiciousPrefixes: append([]string(nil), r.SuspiciousPrefixes...),
	}
}

// Load baca file config.yaml, isi default, lalu override dari env
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 100
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 20
	}

	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}

	if c.Vector.Driver == "" {
		c.Vector.Driver = "memory"
	}
	if c.Vector.Host == "" {
		c.Vector.Host = "localhost"
	}
	if c.Vector.Port == 0 {
		c.Vector.Port = 6334
	}
	if c.Vector.Collection == "" {
		c.Vector.Collection = "fraud_events"
	}
	if c.Vector.Dimension == 0 {
		c.Vector.Dimension = 1536
	}

	if c.Agents.Interval == 0 {
		c.Agents.Interval = 10 * time.Second
	}
	if c.Agents.SimilarLimit == 0 {
		c.Agents.SimilarLimit = 5
	}
	if c.Agents.HistoryLimit == 0 {
		c.Agents.HistoryLimit = 100
	}
	if c.Agents.AlertLimit == 0 {
		c.Agents.AlertLimit = 50
	}
	if c.Agents.Demo.Name == "" {
		c.Agents.Demo.Name = "Demo Agent"
	}
	if len(c.Agents.Demo.AccountIDs) == 0 {
		c.Agents.Demo.AccountIDs = []string{"ACC001", "ACC002", "ACC003"}
	}

	c.Risk = c.Risk.withDefaults()

	if c.Archive.Driver == "" {
		c.Archive.Driver = "none"
	}
	if c.Archive.SSLMode == "" {
		c.Archive.SSLMode = "disable"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "fraud.alerts"
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "fraudwatch"
	}
}

func (r Risk) withDefaults() Risk {
	if r.AlertThreshold == 0 {
		r.AlertThreshold = 0.5
	}
	if r.ActionThreshold == 0 {
		r.ActionThreshold = 0.7
	}
	r.Defaults = r.Defaults.Normalized()
	return r
}

// applyEnv lets secrets and endpoints come from the environment.
func (c *Config) applyEnv() {
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.Vector.Host, "QDRANT_HOST")
	setInt(&c.Vector.Port, "QDRANT_PORT")
	setString(&c.Vector.APIKey, "QDRANT_API_KEY")
	setString(&c.Archive.Password, "ARCHIVE_PASSWORD")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	setInt(&c.Server.Port, "PORT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate rejects settings the process cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Vector.Driver {
	case "memory", "qdrant":
	default:
		errs = append(errs, fmt.Errorf("vector.driver %q: want memory or qdrant", c.Vector.Driver))
	}
	switch c.Archive.Driver {
	case "none", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("archive.driver %q: want none, mysql or postgres", c.Archive.Driver))
	}
	if err := c.Risk.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Agents.Interval < 0 || c.Agents.CallTimeout < 0 {
		errs = append(errs, errors.New("agents: durations must not be negative"))
	}
	return errors.Join(errs...)
}

func (r Risk) Validate() error {
	if r.AlertThreshold < 0 || r.AlertThreshold > 1 || r.ActionThreshold < 0 || r.ActionThreshold > 1 {
		return fmt.Errorf("risk thresholds must be within [0,1]")
	}
	if r.ActionThreshold < r.AlertThreshold {
		return fmt.Errorf("risk.actionThreshold %.2f below alertThreshold %.2f", r.ActionThreshold, r.AlertThreshold)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Archive.User,
		c.Archive.Password,
		c.Archive.Host,
		orPort(c.Archive.Port, 3306),
		c.Archive.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Archive.Host,
		orPort(c.Archive.Port, 5432),
		c.Archive.User,
		c.Archive.Password,
		c.Archive.Name,
		c.Archive.SSLMode,
	)
}

func orPort(p, def int) int {
	if p == 0 {
		return def
	}
	return p
}
