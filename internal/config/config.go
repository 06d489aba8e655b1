package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// 디스코드 웹훅 설정
	Discord struct {
		SignalWebhook string `envconfig:"DISCORD_SIGNAL_WEBHOOK"`
		TradeWebhook  string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook  string `envconfig:"DISCORD_ERROR_WEBHOOK"`
		InfoWebhook   string `envconfig:"DISCORD_INFO_WEBHOOK"`
	}

	// 감성 스냅샷 데이터베이스 설정
	Database struct {
		DSN string `envconfig:"DATABASE_DSN" required:"true"`
	}

	// 애플리케이션 설정
	App struct {
		Tickers       []string      `envconfig:"TICKERS" default:"BTC,ETH,SOL"`
		Timeframe     string        `envconfig:"TIMEFRAME" default:"1d"`
		FetchInterval time.Duration `envconfig:"FETCH_INTERVAL" default:"15m"`
	}

	// 시그널 융합 설정
	Fusion struct {
		Policy          string  `envconfig:"FUSION_POLICY" default:"weighted_average"`
		SentimentWeight float64 `envconfig:"SENTIMENT_WEIGHT" default:"1.0"`
	}

	// 리스크 한도 설정
	Risk struct {
		MaxPositions    int     `envconfig:"MAX_OPEN_POSITIONS" default:"4"`
		MaxRiskPerTrade float64 `envconfig:"MAX_RISK_PER_TRADE" default:"500"`
		MaxLossPct      float64 `envconfig:"MAX_LOSS_PER_TRADE_PCT" default:"0.10"`
		MaxExposurePct  float64 `envconfig:"MAX_TOTAL_EXPOSURE_PCT" default:"0.50"`
		MinStopPct      float64 `envconfig:"MIN_STOP_LOSS_PCT" default:"0.05"`
		MaxStopPct      float64 `envconfig:"MAX_STOP_LOSS_PCT" default:"0.12"`
		RiskRewardRatio float64 `envconfig:"RISK_REWARD_RATIO" default:"3.0"`
		DailyLossLimit  float64 `envconfig:"DAILY_LOSS_LIMIT" default:"1000"`
	}

	// 포지션 트래커 설정
	Tracker struct {
		Interval time.Duration `envconfig:"TRACKER_INTERVAL" default:"1m"`
		MaxHold  time.Duration `envconfig:"TRACKER_MAX_HOLD" default:"168h"`
	}

	// 거래 설정
	Trading struct {
		InitialBalance float64 `envconfig:"INITIAL_BALANCE" default:"10000"`
		Leverage       int     `envconfig:"LEVERAGE" default:"1" validate:"min=1,max=100"`
		UsePriceStream bool    `envconfig:"USE_PRICE_STREAM" default:"true"`
	}
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if cfg.Trading.Leverage < 1 || cfg.Trading.Leverage > 100 {
		return fmt.Errorf("레버리지는 1 이상 100 이하이어야 합니다")
	}

	if cfg.App.FetchInterval < 1*time.Minute {
		return fmt.Errorf("FETCH_INTERVAL은 1분 이상이어야 합니다")
	}

	if len(cfg.App.Tickers) == 0 {
		return fmt.Errorf("TICKERS가 비어 있습니다")
	}

	switch cfg.Fusion.Policy {
	case "weighted_average", "majority_vote", "priority":
	default:
		return fmt.Errorf("알 수 없는 융합 정책: %s", cfg.Fusion.Policy)
	}

	if cfg.Risk.MinStopPct <= 0 || cfg.Risk.MaxStopPct < cfg.Risk.MinStopPct {
		return fmt.Errorf("손절 한도 범위가 잘못되었습니다 (min: %.3f, max: %.3f)",
			cfg.Risk.MinStopPct, cfg.Risk.MaxStopPct)
	}

	if cfg.Tracker.Interval < time.Second {
		return fmt.Errorf("TRACKER_INTERVAL은 1초 이상이어야 합니다")
	}

	if cfg.Trading.InitialBalance <= 0 {
		return fmt.Errorf("INITIAL_BALANCE는 0보다 커야 합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
func LoadConfig() (*Config, error) {
	// .env 파일이 없으면 환경변수만 사용합니다
	_ = godotenv.Load()

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
