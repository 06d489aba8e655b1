package strategy

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/assist-by/aurora/internal/domain"
)

// Catalog은 등록된 전략을 등록 순서대로 관리합니다
type Catalog struct {
	strategies []TradingStrategy
}

// NewCatalog은 빈 전략 카탈로그를 생성합니다
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Register는 전략을 카탈로그에 등록합니다.
// 같은 이름의 전략이 이미 있으면 기존 위치를 유지한 채 교체합니다.
func (c *Catalog) Register(s TradingStrategy) {
	for i, existing := range c.strategies {
		if existing.Name == s.Name {
			c.strategies[i] = s
			log.Printf("전략 교체: %s", s.Name)
			return
		}
	}
	c.strategies = append(c.strategies, s)
	log.Printf("전략 등록: %s (유형: %s)", s.Name, s.Type)
}

// Get은 이름으로 전략을 조회합니다
func (c *Catalog) Get(name string) (TradingStrategy, bool) {
	for _, s := range c.strategies {
		if s.Name == name {
			return s, true
		}
	}
	return TradingStrategy{}, false
}

// List는 등록 순서대로 모든 전략을 반환합니다
func (c *Catalog) List() []TradingStrategy {
	out := make([]TradingStrategy, len(c.strategies))
	copy(out, c.strategies)
	return out
}

// Select는 사용 가능한 시그널 소스와 자산 유형에 맞는 전략을 선택합니다.
// 조건: 자산 유형이 허용 목록에 있고, 전략이 요구하는 모든 소스가 존재해야 합니다.
// 조건을 충족하는 전략이 여럿이면 먼저 등록된 전략이 선택됩니다.
// 적합한 전략이 없으면 nil을 반환하며, 해당 종목은 이번 사이클에서 제외됩니다.
func (c *Catalog) Select(availableSources []string, assetType domain.AssetType) *TradingStrategy {
	for _, s := range c.strategies {
		if !s.Allows(assetType) {
			continue
		}
		if !s.HasRequiredSources(availableSources) {
			continue
		}
		selected := s
		return &selected
	}
	return nil
}

// DefaultCatalog은 기본 전략 세트가 등록된 카탈로그를 생성합니다
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	// 감성 단타: 빠르게 진입하고 빠르게 빠져나오는 고요건 전략
	c.Register(TradingStrategy{
		Name:              "sentiment_short",
		Type:              SentimentShort,
		MinConfidence:     0.80,
		MinStrength:       0.70,
		RequiredSources:   []string{"sentiment"},
		AllowedAssetTypes: []domain.AssetType{domain.AssetCrypto},
		MinHold:           12 * time.Hour,
		MaxHold:           72 * time.Hour,
		BasePositionSize:  800,
		Sizing:            SizingFixed,
		StopLossPct:       0.08,
		TakeProfitPct:     0.20,
		UseTrailingStop:   true,
		TrailingStopActivation: 0.12,
		MaxTradesPerDay:   2,
		MinSignalGap:      6 * time.Hour,
	})

	// 감성 스윙: 중기 추세를 잡는 전략
	c.Register(TradingStrategy{
		Name:              "sentiment_swing",
		Type:              SentimentSwing,
		MinConfidence:     0.75,
		MinStrength:       0.60,
		RequiredSources:   []string{"sentiment"},
		AllowedAssetTypes: []domain.AssetType{domain.AssetStock, domain.AssetCrypto},
		MinHold:           24 * time.Hour,
		MaxHold:           168 * time.Hour,
		BasePositionSize:  1200,
		Sizing:            SizingKellyConservative,
		StopLossPct:       0.12,
		TakeProfitPct:     0.35,
		UseTrailingStop:   true,
		TrailingStopActivation: 0.15,
		MaxTradesPerDay:   2,
		MinSignalGap:      12 * time.Hour,
	})

	// 기술적 추세: 감성과 기술적 시그널이 모두 필요한 장기 전략
	c.Register(TradingStrategy{
		Name:              "technical_trend",
		Type:              TechnicalTrend,
		MinConfidence:     0.70,
		MinStrength:       0.60,
		RequiredSources:   []string{"technical", "sentiment"},
		AllowedAssetTypes: []domain.AssetType{domain.AssetStock, domain.AssetCrypto},
		MinHold:           48 * time.Hour,
		MaxHold:           480 * time.Hour,
		BasePositionSize:  1500,
		Sizing:            SizingKelly,
		StopLossPct:       0.15,
		TakeProfitPct:     0.50,
		UseTrailingStop:   true,
		TrailingStopActivation: 0.15,
		MaxTradesPerDay:   1,
		MinSignalGap:      24 * time.Hour,
	})

	return c
}
