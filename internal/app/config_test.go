package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_StockPromoCodes(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.InDelta(t, 0.10, cfg.PromoCodes["MAKEUP10"], 0.0001)
	assert.InDelta(t, 0.20, cfg.PromoCodes["MAKEUP20"], 0.0001)
}

func TestApplyDefaults_KeepsConfiguredPromoCodes(t *testing.T) {
	cfg := &Config{PromoCodes: map[string]float64{"SUMMER15": 0.15}}
	cfg.applyDefaults()

	assert.Len(t, cfg.PromoCodes, 1)
	assert.InDelta(t, 0.15, cfg.PromoCodes["SUMMER15"], 0.0001)
}

func TestApplyDefaults_PortEnv(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg := &Config{Addr: "0.0.0.0:8080"}
	cfg.applyDefaults()
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
}

func TestApplyDefaults_DatabaseURLEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/store")

	cfg := &Config{}
	cfg.applyDefaults()
	assert.Equal(t, "postgres://localhost/store", cfg.DatabaseURL)
}
