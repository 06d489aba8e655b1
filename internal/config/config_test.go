package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Database.DSN = "host=localhost user=aurora dbname=aurora"
	cfg.App.Tickers = []string{"BTC", "ETH"}
	cfg.App.Timeframe = "1d"
	cfg.App.FetchInterval = 15 * time.Minute
	cfg.Fusion.Policy = "weighted_average"
	cfg.Fusion.SentimentWeight = 1.0
	cfg.Risk.MinStopPct = 0.05
	cfg.Risk.MaxStopPct = 0.12
	cfg.Tracker.Interval = time.Minute
	cfg.Trading.InitialBalance = 10000
	cfg.Trading.Leverage = 1
	return cfg
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"유효한 설정", func(cfg *Config) {}, false},
		{"레버리지 초과", func(cfg *Config) { cfg.Trading.Leverage = 200 }, true},
		{"짧은 조회 주기", func(cfg *Config) { cfg.App.FetchInterval = 30 * time.Second }, true},
		{"빈 종목 목록", func(cfg *Config) { cfg.App.Tickers = nil }, true},
		{"알 수 없는 융합 정책", func(cfg *Config) { cfg.Fusion.Policy = "random" }, true},
		{"뒤집힌 손절 범위", func(cfg *Config) { cfg.Risk.MaxStopPct = 0.01 }, true},
		{"잔고 0", func(cfg *Config) { cfg.Trading.InitialBalance = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
