package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	Port        string
	JWTSecret   string
	CORSOrigins []string
	RabbitMQURL string
	// ReconcileSchedule is a cron spec for the indexer's drift repair job.
	ReconcileSchedule string
	// TokenTTL is how long tokens issued by the auth service stay valid.
	TokenTTL time.Duration
	// RegistrarAccounts are gateway accounts that receive the registrar role.
	RegistrarAccounts []string
	Fabric            FabricConfig
	// Registrar is the optional identity used for registrar transactions.
	Registrar RegistrarIdentity
	DB        DBConfig
}

type FabricConfig struct {
	ConnectionProfile string `mapstructure:"FABRIC_CONFIG"`
	Channel           string `mapstructure:"FABRIC_CHANNEL"`
	Chaincode         string `mapstructure:"FABRIC_CHAINCODE"`
	MSPID             string `mapstructure:"MSP_ID"`
	CertPath          string `mapstructure:"CERT_PATH"`
	KeyPath           string `mapstructure:"KEY_PATH"`
	WalletPath        string `mapstructure:"WALLET_PATH"`
	Identity          string `mapstructure:"WALLET_IDENTITY"`
}

// RegistrarIdentity is an enrolled identity of the registrar organisation.
type RegistrarIdentity struct {
	MSPID    string `mapstructure:"REGISTRAR_MSP_ID"`
	CertPath string `mapstructure:"REGISTRAR_CERT_PATH"`
	KeyPath  string `mapstructure:"REGISTRAR_KEY_PATH"`
	Identity string `mapstructure:"REGISTRAR_WALLET_IDENTITY"`
}

// Enabled reports whether registrar credentials were configured.
func (r RegistrarIdentity) Enabled() bool {
	return r.CertPath != "" && r.KeyPath != ""
}

// AsRegistrar returns a copy of c that connects with the registrar identity.
func (c FabricConfig) AsRegistrar(r RegistrarIdentity) FabricConfig {
	c.MSPID = r.MSPID
	c.CertPath = r.CertPath
	c.KeyPath = r.KeyPath
	c.Identity = r.Identity
	return c
}

type DBConfig struct {
	Host     string `mapstructure:"DB_HOST"`
	Port     string `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

var defaults = map[string]interface{}{
	"APP_ENV":              "production",
	"PORT":                 "8080",
	"CORS_ALLOWED_ORIGINS": "*",
	"RECONCILE_SCHEDULE":   "@every 10m",
	"TOKEN_TTL":            "24h",
	"FABRIC_CONFIG":        "connection-profile.yaml",
	"FABRIC_CHANNEL":       "registration-channel",
	"FABRIC_CHAINCODE":     "regnet",
	"MSP_ID":               "usersMSP",
	"WALLET_PATH":          "wallet",
	"WALLET_IDENTITY":      "appUser",
	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "postgres",
	"DB_NAME":              "regnet",
	"DB_SSLMODE":           "disable",

	"REGISTRAR_MSP_ID":          "registrarMSP",
	"REGISTRAR_WALLET_IDENTITY": "registrarAdmin",
}

// LoadConfig reads .env (when present) and the environment. Environment wins.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range []string{"JWT_SECRET", "RABBITMQ_URL", "REGISTRAR_ACCOUNTS", "CERT_PATH", "KEY_PATH", "REGISTRAR_CERT_PATH", "REGISTRAR_KEY_PATH"} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{
		Environment:       v.GetString("APP_ENV"),
		Port:              v.GetString("PORT"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		CORSOrigins:       splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		ReconcileSchedule: v.GetString("RECONCILE_SCHEDULE"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),
		RegistrarAccounts: splitList(v.GetString("REGISTRAR_ACCOUNTS")),
	}
	// Nested sections use flat env names, so decode each from the same key space.
	if err := v.Unmarshal(&cfg.Fabric); err != nil {
		return nil, fmt.Errorf("failed to decode fabric config: %w", err)
	}
	if err := v.Unmarshal(&cfg.Registrar); err != nil {
		return nil, fmt.Errorf("failed to decode registrar identity: %w", err)
	}
	if err := v.Unmarshal(&cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to decode db config: %w", err)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
