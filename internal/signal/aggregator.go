package signal

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/assist-by/aurora/internal/domain"
)

// FusionPolicy는 시그널 융합 정책을 정의합니다
type FusionPolicy string

const (
	WeightedAverage FusionPolicy = "weighted_average"
	MajorityVote    FusionPolicy = "majority_vote"
	Priority        FusionPolicy = "priority"
)

// 방향 판단 경계값: 최종 점수가 이 범위 안이면 중립으로 취급합니다
const (
	buyThreshold  = 0.65
	sellThreshold = 0.35
)

// registeredSource는 등록된 시그널 소스와 가중치를 묶습니다
type registeredSource struct {
	name   string
	source Source
	weight float64
}

// Aggregator는 여러 시그널 소스의 출력을 하나의 융합 시그널로 결합합니다
type Aggregator struct {
	policy  FusionPolicy
	sources []registeredSource // 등록 순서 유지
}

// NewAggregator는 새로운 시그널 융합기를 생성합니다.
// 지원하지 않는 정책이면 에러를 반환합니다.
func NewAggregator(policy FusionPolicy) (*Aggregator, error) {
	switch policy {
	case WeightedAverage, MajorityVote, Priority:
	default:
		return nil, fmt.Errorf("지원하지 않는 융합 정책: %s", policy)
	}
	return &Aggregator{policy: policy}, nil
}

// RegisterSource는 새로운 시그널 소스를 등록합니다
func (a *Aggregator) RegisterSource(name string, source Source, weight float64) {
	a.sources = append(a.sources, registeredSource{name: name, source: source, weight: weight})
	log.Printf("시그널 소스 등록: %s (가중치 %.2f)", name, weight)
}

// Aggregate는 등록된 모든 소스에서 시그널을 수집해 하나로 융합합니다.
// 실패한 소스는 이번 융합에서 제외될 뿐 전체 실패로 이어지지 않으며,
// 사용할 수 있는 시그널이 하나도 없으면 표준 중립 시그널을 반환합니다.
func (a *Aggregator) Aggregate(ctx context.Context, ticker, timeframe string) domain.AggregatedSignal {
	var signals []domain.Signal

	for _, rs := range a.sources {
		s, err := rs.source.GetSignal(ctx, ticker, timeframe)
		if err != nil {
			log.Printf("시그널 소스 %s 실패 (%s): %v", rs.name, ticker, err)
			continue
		}
		s.Weight = rs.weight
		signals = append(signals, s)
	}

	if len(signals) == 0 {
		log.Printf("%s: 사용 가능한 시그널 없음, 중립 시그널 반환", ticker)
		return domain.NewNeutralSignal(ticker, "")
	}

	switch a.policy {
	case MajorityVote:
		return a.majorityVote(signals, ticker, timeframe)
	case Priority:
		return a.priority(signals, ticker, timeframe)
	default:
		return a.weightedAverage(signals, ticker, timeframe)
	}
}

// directionalValue는 시그널 방향과 강도를 0~1 값으로 사상합니다.
// BUY는 0.5 초과, SELL은 0.5 미만, NEUTRAL은 정확히 0.5입니다.
func directionalValue(s domain.Signal) float64 {
	switch s.Type {
	case domain.SignalBuy:
		return 0.5 + s.Strength*0.5
	case domain.SignalSell:
		return 0.5 - s.Strength*0.5
	default:
		return 0.5
	}
}

// weightedAverage는 가중 평균 융합 정책입니다.
// 각 시그널의 방향 값에 신뢰도와 가중치를 곱해 합산한 뒤 가중치 합으로 정규화합니다.
func (a *Aggregator) weightedAverage(signals []domain.Signal, ticker, timeframe string) domain.AggregatedSignal {
	var weightedSum, totalWeight float64

	for _, s := range signals {
		score := directionalValue(s) * s.Confidence
		weightedSum += score * s.Weight
		totalWeight += s.Weight
	}

	finalScore := 0.5
	if totalWeight > 0 {
		finalScore = weightedSum / totalWeight
	}

	var signalType domain.SignalType
	var strength float64

	switch {
	case finalScore >= buyThreshold:
		signalType = domain.SignalBuy
		strength = (finalScore - 0.5) * 2
	case finalScore <= sellThreshold:
		signalType = domain.SignalSell
		strength = (0.5 - finalScore) * 2
	default:
		signalType = domain.SignalNeutral
		strength = 0.0
	}

	return domain.AggregatedSignal{
		Ticker:       ticker,
		AssetType:    signals[0].AssetType,
		Type:         signalType,
		Strength:     strength,
		Confidence:   consistencyConfidence(signals),
		Timeframe:    timeframe,
		Contributing: signals,
		FinalScore:   finalScore,
		Timestamp:    time.Now(),
	}
}

// majorityVote는 투표 기반 융합 정책입니다.
// 각 소스가 자신의 가중치만큼 자기 시그널 유형에 투표하고, 최다 득표 유형이 선택됩니다.
// 동률이면 BUY, SELL, NEUTRAL 순서로 앞선 유형이 유지됩니다.
func (a *Aggregator) majorityVote(signals []domain.Signal, ticker, timeframe string) domain.AggregatedSignal {
	votes := map[domain.SignalType]float64{}
	var totalVotes float64

	for _, s := range signals {
		votes[s.Type] += s.Weight
		totalVotes += s.Weight
	}

	winner := domain.SignalNeutral
	best := -1.0
	for _, t := range []domain.SignalType{domain.SignalBuy, domain.SignalSell, domain.SignalNeutral, domain.SignalClose} {
		if votes[t] > best {
			winner = t
			best = votes[t]
		}
	}

	strength := 0.0
	if totalVotes > 0 {
		strength = votes[winner] / totalVotes
	}

	return domain.AggregatedSignal{
		Ticker:       ticker,
		AssetType:    signals[0].AssetType,
		Type:         winner,
		Strength:     strength,
		Confidence:   consistencyConfidence(signals),
		Timeframe:    timeframe,
		Contributing: signals,
		FinalScore:   strength,
		Timestamp:    time.Now(),
	}
}

// priority는 신뢰도가 가장 높은 시그널을 그대로 통과시키는 정책입니다
func (a *Aggregator) priority(signals []domain.Signal, ticker, timeframe string) domain.AggregatedSignal {
	top := signals[0]
	for _, s := range signals[1:] {
		if s.Confidence > top.Confidence {
			top = s
		}
	}

	return domain.AggregatedSignal{
		Ticker:       ticker,
		AssetType:    top.AssetType,
		Type:         top.Type,
		Strength:     top.Strength,
		Confidence:   top.Confidence,
		Timeframe:    timeframe,
		Contributing: signals,
		FinalScore:   top.Score(),
		Timestamp:    time.Now(),
	}
}

// consistencyConfidence는 시그널 일치도를 전체 신뢰도로 변환합니다.
// 방향 값들의 분산이 작을수록(=모든 소스가 같은 방향) 신뢰도가 높아지고,
// 서로 충돌하는 시그널은 개별 신뢰도가 높더라도 전체 신뢰도를 깎습니다.
func consistencyConfidence(signals []domain.Signal) float64 {
	if len(signals) == 0 {
		return 0.5
	}
	if len(signals) == 1 {
		return signals[0].Confidence
	}

	var mean float64
	values := make([]float64, len(signals))
	for i, s := range signals {
		values[i] = directionalValue(s)
		mean += values[i]
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	consistency := 1 - variance*4
	if consistency < 0 {
		consistency = 0
	}

	var avgConfidence float64
	for _, s := range signals {
		avgConfidence += s.Confidence
	}
	avgConfidence /= float64(len(signals))

	return consistency * avgConfidence
}

// Health는 등록된 모든 소스의 건강 상태를 집계합니다
type Health struct {
	Overall   domain.HealthStatus
	Sources   map[string]domain.SourceHealth
	Timestamp time.Time
}

// GetHealth는 모든 시그널 소스의 건강 상태를 조회해 전체 상태를 계산합니다
func (a *Aggregator) GetHealth(ctx context.Context) Health {
	sources := make(map[string]domain.SourceHealth, len(a.sources))

	allHealthy := true
	anyDown := false
	for _, rs := range a.sources {
		h := rs.source.GetHealth(ctx)
		sources[rs.name] = h

		if h.Status != domain.HealthHealthy {
			allHealthy = false
		}
		if h.Status == domain.HealthDown {
			anyDown = true
		}
	}

	overall := domain.HealthDegraded
	if allHealthy {
		overall = domain.HealthHealthy
	} else if anyDown {
		overall = domain.HealthDown
	}

	return Health{
		Overall:   overall,
		Sources:   sources,
		Timestamp: time.Now(),
	}
}
