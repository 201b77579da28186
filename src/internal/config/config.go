package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=core_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultKafkaBrokers = "localhost:9092"
const defaultListenAddr = ":8080"
const defaultChannelID = "LedgerChannel"
const defaultChannelKey = "LedgerChannelKey001"
const defaultPendingExpiryMinutes = 30
const defaultSweepIntervalSeconds = 60

type Config struct {
	DatabaseDSN          string
	MigrationsDir        string
	PolicyCatalogPath    string
	ListenAddr           string
	ChannelID            string
	ChannelKey           string
	KafkaBrokers         []string
	PendingExpiryHorizon time.Duration
	SweepInterval        time.Duration
}

func Load() (Config, error) {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokers == "" {
		brokers = defaultKafkaBrokers
	}

	catalogPath := strings.TrimSpace(os.Getenv("POLICY_CATALOG_PATH"))
	if catalogPath == "" {
		catalogPath = filepath.Join("src", "config", "institutions.yaml")
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	channelID := strings.TrimSpace(os.Getenv("CHANNEL_ID"))
	if channelID == "" {
		channelID = defaultChannelID
	}

	channelKey := strings.TrimSpace(os.Getenv("CHANNEL_KEY"))
	if channelKey == "" {
		channelKey = defaultChannelKey
	}

	expiryMinutes := envInt("PENDING_EXPIRY_MINUTES", defaultPendingExpiryMinutes)
	sweepSeconds := envInt("SWEEP_INTERVAL_SECONDS", defaultSweepIntervalSeconds)

	return Config{
		DatabaseDSN:          normalizeConnectionString(conn),
		MigrationsDir:        filepath.Join("src", "migrations"),
		PolicyCatalogPath:    catalogPath,
		ListenAddr:           listenAddr,
		ChannelID:            channelID,
		ChannelKey:           channelKey,
		KafkaBrokers:         splitBrokers(brokers),
		PendingExpiryHorizon: time.Duration(expiryMinutes) * time.Minute,
		SweepInterval:        time.Duration(sweepSeconds) * time.Second,
	}, nil
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
