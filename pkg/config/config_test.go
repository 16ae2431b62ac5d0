package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
binance:
  symbols: [BTCUSDT]
  intervals: [1h, 4h]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("server port = %d", cfg.Server.Port)
	}
	if cfg.ClickHouse.Database != "tradeagent" {
		t.Fatalf("database = %q", cfg.ClickHouse.Database)
	}
	if cfg.Kafka.FactsTopic != "market.facts" {
		t.Fatalf("facts topic = %q", cfg.Kafka.FactsTopic)
	}
	if cfg.Ingest.Backend != "clickhouse" {
		t.Fatalf("ingest backend = %q", cfg.Ingest.Backend)
	}
	if cfg.Redis.FactsTTL != 5*time.Minute {
		t.Fatalf("facts ttl = %v", cfg.Redis.FactsTTL)
	}
	if cfg.Analysis.Lookback != 1000 {
		t.Fatalf("lookback = %d", cfg.Analysis.Lookback)
	}
	if cfg.Analysis.Trend.EMAFast != 20 {
		t.Fatalf("trend ema_fast default = %d", cfg.Analysis.Trend.EMAFast)
	}
}

func TestLoadRejectsMissingSymbols(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\nbinance:\n  intervals: [1h]\n"))
	if err == nil {
		t.Fatalf("expected error for missing symbols")
	}
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	body := minimalYAML + "kafka:\n  enabled: true\n"
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for enabled kafka without brokers")
	}
}

func TestLoadRejectsKafkaBackendWithoutKafka(t *testing.T) {
	body := minimalYAML + "ingest:\n  backend: kafka\n"
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for kafka backend with kafka disabled")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "SOLUSDT,ADAUSDT")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Binance.Symbols) != 2 || cfg.Binance.Symbols[0] != "SOLUSDT" {
		t.Fatalf("symbols = %v", cfg.Binance.Symbols)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
}
