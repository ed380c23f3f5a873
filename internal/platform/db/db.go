package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	driverName     = "mysql"
	ConfigFilePath = "config/config.yaml"
	EnvFilePath    = ".env"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type MailConfig struct {
	SMTPServer       string `yaml:"smtp_server"`
	SMTPPort         int    `yaml:"smtp_port"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	FromEmail        string `yaml:"from_email"`
	FromName         string `yaml:"from_name"`
	TLSEnabled       bool   `yaml:"tls"`
	SkipTLSCheck     bool   `yaml:"skip_tls_check"`
	DefaultRecipient string `yaml:"default_recipient"`
	OpsRecipient     string `yaml:"ops_recipient"`
}

type AlertingConfig struct {
	QueueSize     int           `yaml:"queue_size"`
	JobTimeout    time.Duration `yaml:"job_timeout"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

type PushConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	Topic           string `yaml:"topic"`
}

type ImportConfig struct {
	MaxRows            int `yaml:"max_rows"`
	MaxErrorsInSummary int `yaml:"max_errors_in_summary"`
}

type Config struct {
	Version     string         `yaml:"version"`
	Mode        string         `yaml:"mode"`
	Server      ServerConfig   `yaml:"server"`
	DB          DatabaseConfig `yaml:"database"`
	Certificate Certs          `yaml:"certificate"`
	Timezone    string         `yaml:"timezone"`
	Auth        AuthConfig     `yaml:"auth"`
	Mail        MailConfig     `yaml:"mail"`
	Alerting    AlertingConfig `yaml:"alerting"`
	Push        PushConfig     `yaml:"push"`
	Import      ImportConfig   `yaml:"import"`
}

// LoadConfig reads the yaml file, then lets .env / process env override secrets.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// .env is optional
	if err := godotenv.Load(EnvFilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", EnvFilePath, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("FIREBASE_CREDENTIALS"); v != "" {
		c.Push.CredentialsFile = v
	}
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8443"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = 587
	}
	if c.Mail.DefaultRecipient == "" {
		c.Mail.DefaultRecipient = "hr-alerts@localhost"
	}
	if c.Mail.OpsRecipient == "" {
		c.Mail.OpsRecipient = c.Mail.DefaultRecipient
	}
	if c.Alerting.QueueSize <= 0 {
		c.Alerting.QueueSize = 64
	}
	if c.Alerting.JobTimeout <= 0 {
		c.Alerting.JobTimeout = 30 * time.Second
	}
	if c.Alerting.SweepSchedule == "" {
		c.Alerting.SweepSchedule = "0 18 * * *"
	}
	if c.Push.Topic == "" {
		c.Push.Topic = "hr-alerts"
	}
	if c.Import.MaxRows <= 0 {
		c.Import.MaxRows = 5000
	}
	if c.Import.MaxErrorsInSummary <= 0 {
		c.Import.MaxErrorsInSummary = 100
	}
}

// Location resolves the configured timezone; unknown names fall back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	// keep the sum of all pools below MySQL max_connections
	db.SetMaxOpenConns(40)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
