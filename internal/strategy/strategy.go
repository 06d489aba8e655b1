package strategy

import (
	"time"

	"github.com/assist-by/aurora/internal/domain"
)

// Type은 전략 유형을 정의합니다
type Type string

const (
	SentimentShort Type = "sentiment_short" // 감성 단타 (2~3일)
	SentimentSwing Type = "sentiment_swing" // 감성 스윙 (5~7일)
	TechnicalTrend Type = "technical_trend" // 기술적 추세 (10~20일)
	Fundamental    Type = "fundamental"     // 기본적 분석 (30~90일)
	HighFrequency  Type = "high_frequency"  // 고빈도 (분~시간)
)

// SizingMethod는 포지션 크기 계산 방식을 정의합니다
type SizingMethod string

const (
	SizingFixed             SizingMethod = "fixed"
	SizingKelly             SizingMethod = "kelly"
	SizingKellyConservative SizingMethod = "kelly_conservative"
)

// TradingStrategy는 하나의 트레이딩 전략 설정입니다.
// 시작 시 로드되며 런타임에 변경되지 않습니다.
type TradingStrategy struct {
	Name string
	Type Type

	// 시그널 요건
	MinConfidence   float64
	MinStrength     float64
	RequiredSources []string

	// 자산/보유 기간
	AllowedAssetTypes []domain.AssetType
	MinHold           time.Duration
	MaxHold           time.Duration

	// 포지션 크기
	BasePositionSize float64
	Sizing           SizingMethod

	// 손절/익절
	StopLossPct            float64
	TakeProfitPct          float64
	UseTrailingStop        bool
	TrailingStopActivation float64

	// 거래 빈도 제한
	MaxTradesPerDay int
	MinSignalGap    time.Duration
}

// Allows는 전략이 해당 자산 유형을 허용하는지 확인합니다
func (s TradingStrategy) Allows(assetType domain.AssetType) bool {
	for _, t := range s.AllowedAssetTypes {
		if t == assetType {
			return true
		}
	}
	return false
}

// HasRequiredSources는 현재 사용 가능한 시그널 소스가 전략 요건을 충족하는지 확인합니다
func (s TradingStrategy) HasRequiredSources(available []string) bool {
	for _, required := range s.RequiredSources {
		found := false
		for _, a := range available {
			if a == required {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MeetsCriteria는 융합 시그널이 전략의 최소 요건을 충족하는지 확인합니다
func (s TradingStrategy) MeetsCriteria(sig domain.AggregatedSignal) bool {
	if sig.Confidence < s.MinConfidence {
		return false
	}
	if sig.Strength < s.MinStrength {
		return false
	}
	return sig.Type.IsActionable()
}
