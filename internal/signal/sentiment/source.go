package sentiment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/assist-by/aurora/internal/domain"
	"github.com/assist-by/aurora/internal/snapshot"
)

// Reader는 소스가 사용하는 스냅샷 조회 인터페이스입니다
type Reader interface {
	Latest(ctx context.Context, ticker string, maxAge time.Duration) (*snapshot.Snapshot, error)
	Freshness(ctx context.Context, window time.Duration) (snapshot.Freshness, error)
}

// Thresholds는 감성 점수를 시그널 방향으로 변환하는 경계값입니다
type Thresholds struct {
	StrongBullish float64
	Bullish       float64
	Bearish       float64
	StrongBearish float64
}

// DefaultThresholds는 기본 감성 경계값을 반환합니다
func DefaultThresholds() Thresholds {
	return Thresholds{
		StrongBullish: 0.75,
		Bullish:       0.60,
		Bearish:       0.40,
		StrongBearish: 0.25,
	}
}

// Source는 감성 분석 데이터 기반 시그널 소스입니다.
// Reddit 언급량, 비정상 옵션 거래, 검색 트렌드를 합성한 스냅샷을 읽어
// 표준화된 시그널로 변환합니다.
type Source struct {
	reader     Reader
	thresholds Thresholds
	minMentions int
	maxDataAge  time.Duration

	mu         sync.Mutex
	errorCount int
}

// Option은 소스 생성 옵션을 정의합니다
type Option func(*Source)

// WithThresholds는 감성 경계값을 지정합니다
func WithThresholds(t Thresholds) Option {
	return func(s *Source) { s.thresholds = t }
}

// WithMinMentions는 시그널로 인정할 최소 언급 수를 지정합니다
func WithMinMentions(n int) Option {
	return func(s *Source) { s.minMentions = n }
}

// WithMaxDataAge는 허용하는 데이터 최대 나이를 지정합니다
func WithMaxDataAge(d time.Duration) Option {
	return func(s *Source) { s.maxDataAge = d }
}

// NewSource는 새로운 감성 시그널 소스를 생성합니다
func NewSource(reader Reader, opts ...Option) *Source {
	s := &Source{
		reader:      reader,
		thresholds:  DefaultThresholds(),
		minMentions: 50,
		maxDataAge:  2 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSignal은 최신 감성 스냅샷을 읽어 시그널을 생성합니다.
// 데이터가 없거나 오래되었으면 신뢰도 0의 중립 시그널을 반환합니다.
func (s *Source) GetSignal(ctx context.Context, ticker, timeframe string) (domain.Signal, error) {
	snap, err := s.reader.Latest(ctx, ticker, s.maxDataAge)
	if err != nil {
		s.recordError()
		return domain.Signal{}, err
	}

	if snap == nil {
		return domain.Signal{
			Ticker:     ticker,
			AssetType:  detectAssetType(ticker),
			Type:       domain.SignalNeutral,
			Strength:   0.0,
			Confidence: 0.0,
			Timeframe:  timeframe,
			Source:     "sentiment",
			Metadata:   map[string]interface{}{"reason": "no_data"},
			Timestamp:  time.Now(),
			Weight:     1.0,
		}, nil
	}

	signalType, strength := s.classify(snap)
	dataAge := time.Since(snap.SnapshotTime)
	confidence := s.confidence(snap, dataAge)

	return domain.Signal{
		Ticker:     ticker,
		AssetType:  detectAssetType(ticker),
		Type:       signalType,
		Strength:   strength,
		Confidence: confidence,
		Timeframe:  timeframe,
		Source:     "sentiment",
		Metadata: map[string]interface{}{
			"sentiment_score":      snap.CombinedSentiment,
			"total_mentions":       snap.TotalMentions,
			"reddit_sentiment":     snap.RedditSentiment,
			"reddit_mentions":      snap.RedditMentions,
			"unusual_flow":         snap.UnusualFlow,
			"trends_interest":      snap.TrendsInterest,
			"sentiment_change_24h": snap.SentimentChange24h,
			"mention_spike":        snap.MentionSpike,
			"data_age_hours":       dataAge.Hours(),
		},
		Timestamp: time.Now(),
		Weight:    1.0,
	}, nil
}

// classify는 감성 점수를 시그널 방향과 강도로 변환합니다
func (s *Source) classify(snap *snapshot.Snapshot) (domain.SignalType, float64) {
	// 언급량이 부족하면 시그널로 인정하지 않습니다
	if snap.TotalMentions < s.minMentions {
		return domain.SignalNeutral, 0.0
	}

	th := s.thresholds
	score := snap.CombinedSentiment

	var signalType domain.SignalType
	var strength float64

	switch {
	case score >= th.StrongBullish:
		signalType = domain.SignalBuy
		strength = (score - th.StrongBullish) / (1.0 - th.StrongBullish)
		if strength > 1.0 {
			strength = 1.0
		}
		if strength < 0.7 {
			strength = 0.7 // 강한 매수 구간은 최소 0.7
		}
	case score >= th.Bullish:
		signalType = domain.SignalBuy
		strength = 0.5 + (score-th.Bullish)/(th.StrongBullish-th.Bullish)*0.2
	case score <= th.StrongBearish:
		signalType = domain.SignalSell
		strength = (th.StrongBearish - score) / th.StrongBearish
		if strength > 1.0 {
			strength = 1.0
		}
		if strength < 0.7 {
			strength = 0.7
		}
	case score <= th.Bearish:
		signalType = domain.SignalSell
		strength = 0.5 + (th.Bearish-score)/(th.Bearish-th.StrongBearish)*0.2
	default:
		return domain.SignalNeutral, 0.0
	}

	// 24시간 감성 변화가 시그널과 같은 방향으로 급격하면 강도를 보강합니다
	change := snap.SentimentChange24h
	if change > 0.2 && signalType == domain.SignalBuy ||
		change < -0.2 && signalType == domain.SignalSell {
		strength *= 1.2
		if strength > 1.0 {
			strength = 1.0
		}
	}

	return signalType, strength
}

// confidence는 언급량, 데이터 소스 다양성, 신선도, 언급 급증 여부로 신뢰도를 계산합니다
func (s *Source) confidence(snap *snapshot.Snapshot, dataAge time.Duration) float64 {
	confidence := 0.0

	// 1. 언급량 (최대 0.4)
	switch {
	case snap.TotalMentions >= 200:
		confidence += 0.4
	case snap.TotalMentions >= 100:
		confidence += 0.3
	case snap.TotalMentions >= 50:
		confidence += 0.2
	default:
		confidence += 0.1
	}

	// 2. 데이터 소스 다양성 (소스당 0.15)
	if snap.RedditMentions > 10 {
		confidence += 0.15
	}
	if snap.UnusualFlow > 0 {
		confidence += 0.15
	}

	// 3. 데이터 신선도 (최대 0.2)
	switch {
	case dataAge < time.Hour:
		confidence += 0.2
	case dataAge < 2*time.Hour:
		confidence += 0.1
	}

	// 4. 언급 급증 보너스
	if snap.MentionSpike {
		confidence += 0.1
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// Validate는 스냅샷 저장소에 데이터가 존재하는지 확인합니다
func (s *Source) Validate(ctx context.Context) bool {
	fr, err := s.reader.Freshness(ctx, 24*time.Hour)
	if err != nil {
		log.Printf("감성 시그널 소스 검증 실패: %v", err)
		s.recordError()
		return false
	}
	return fr.RecentCount > 0
}

// GetHealth는 스냅샷 데이터의 신선도로 소스 상태를 판단합니다
func (s *Source) GetHealth(ctx context.Context) domain.SourceHealth {
	fr, err := s.reader.Freshness(ctx, s.maxDataAge)
	if err != nil {
		s.recordError()
		return domain.SourceHealth{
			Status:     domain.HealthDown,
			ErrorCount: s.errors(),
			Details:    err.Error(),
		}
	}

	if fr.LastUpdate.IsZero() {
		return domain.SourceHealth{
			Status:     domain.HealthDown,
			ErrorCount: s.errors(),
			Details:    "최근 스냅샷 데이터 없음",
		}
	}

	age := time.Since(fr.LastUpdate)
	health := domain.SourceHealth{
		LastUpdate: fr.LastUpdate,
		ErrorCount: s.errors(),
	}

	if age > s.maxDataAge {
		health.Status = domain.HealthDegraded
		health.Details = fmt.Sprintf("데이터가 %.1f시간 전 것입니다", age.Hours())
	} else {
		health.Status = domain.HealthHealthy
		health.Details = fmt.Sprintf("최근 구간 스냅샷 %d건", fr.RecentCount)
	}
	return health
}

func (s *Source) recordError() {
	s.mu.Lock()
	s.errorCount++
	s.mu.Unlock()
}

func (s *Source) errors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount
}

// cryptoTickers는 자산 유형 판별용 주요 암호화폐 심볼 목록입니다
var cryptoTickers = map[string]struct{}{
	"BTC": {}, "ETH": {}, "SOL": {}, "DOGE": {}, "ADA": {}, "DOT": {},
	"AVAX": {}, "MATIC": {}, "ATOM": {}, "LTC": {}, "LINK": {}, "UNI": {},
	"AAVE": {}, "CRV": {}, "SUSHI": {}, "MKR": {}, "COMP": {}, "SNX": {},
	"YFI": {}, "BAL": {}, "ZRX": {}, "ENJ": {}, "MANA": {}, "SAND": {},
}

// detectAssetType은 종목 코드로 자산 유형을 추정합니다
func detectAssetType(ticker string) domain.AssetType {
	if _, ok := cryptoTickers[strings.ToUpper(ticker)]; ok {
		return domain.AssetCrypto
	}
	return domain.AssetStock
}
