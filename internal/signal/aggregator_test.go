package signal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/aurora/internal/domain"
)

// fakeSource는 고정된 시그널(또는 에러)을 반환하는 테스트용 소스입니다
type fakeSource struct {
	signal domain.Signal
	err    error
	health domain.SourceHealth
}

func (f *fakeSource) GetSignal(ctx context.Context, ticker, timeframe string) (domain.Signal, error) {
	if f.err != nil {
		return domain.Signal{}, f.err
	}
	s := f.signal
	s.Ticker = ticker
	s.Timeframe = timeframe
	return s, nil
}

func (f *fakeSource) Validate(ctx context.Context) bool { return f.err == nil }

func (f *fakeSource) GetHealth(ctx context.Context) domain.SourceHealth { return f.health }

func newFakeSource(sigType domain.SignalType, strength, confidence float64) *fakeSource {
	return &fakeSource{
		signal: domain.Signal{
			AssetType:  domain.AssetCrypto,
			Type:       sigType,
			Strength:   strength,
			Confidence: confidence,
			Source:     "fake",
			Timestamp:  time.Now(),
		},
	}
}

func TestNewAggregator_UnknownPolicy(t *testing.T) {
	_, err := NewAggregator("median")
	assert.Error(t, err)
}

func TestAggregate_NoSources(t *testing.T) {
	agg, err := NewAggregator(WeightedAverage)
	require.NoError(t, err)

	result := agg.Aggregate(context.Background(), "BTC", "1h")

	assert.Equal(t, domain.SignalNeutral, result.Type)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, 0.0, result.Strength)
	assert.Empty(t, result.Contributing)
}

func TestAggregate_FailingSourceExcluded(t *testing.T) {
	agg, err := NewAggregator(WeightedAverage)
	require.NoError(t, err)

	agg.RegisterSource("broken", &fakeSource{err: fmt.Errorf("데이터베이스 연결 실패")}, 1.0)
	agg.RegisterSource("sentiment", newFakeSource(domain.SignalBuy, 0.9, 0.9), 1.0)

	result := agg.Aggregate(context.Background(), "BTC", "1h")

	// 실패한 소스는 제외되고 나머지로 융합이 계속되어야 합니다
	require.Len(t, result.Contributing, 1)
	assert.Equal(t, domain.SignalBuy, result.Type)
}

func TestWeightedAverage_IdenticalSignalsInvariant(t *testing.T) {
	// 방향과 신뢰도가 동일한 시그널이라면 소스 개수와 무관하게
	// 최종 점수는 공통 사상값과 같아야 합니다
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("소스 %d개", n), func(t *testing.T) {
			agg, err := NewAggregator(WeightedAverage)
			require.NoError(t, err)

			for i := 0; i < n; i++ {
				agg.RegisterSource(fmt.Sprintf("s%d", i), newFakeSource(domain.SignalBuy, 0.8, 1.0), 1.0)
			}

			result := agg.Aggregate(context.Background(), "BTC", "1h")

			// 사상값 = (0.5 + 0.8*0.5) * 1.0 = 0.9
			assert.InDelta(t, 0.9, result.FinalScore, 1e-9)
		})
	}
}

func TestWeightedAverage_ThreeSourceScenario(t *testing.T) {
	agg, err := NewAggregator(WeightedAverage)
	require.NoError(t, err)

	agg.RegisterSource("reddit", newFakeSource(domain.SignalBuy, 0.8, 0.9), 0.35)
	agg.RegisterSource("unusual", newFakeSource(domain.SignalBuy, 0.9, 0.8), 0.35)
	agg.RegisterSource("trends", newFakeSource(domain.SignalNeutral, 0.0, 0.5), 0.15)

	result := agg.Aggregate(context.Background(), "BTC", "1h")

	assert.Greater(t, result.FinalScore, 0.65)
	assert.Equal(t, domain.SignalBuy, result.Type)
	assert.Len(t, result.Contributing, 3)
}

func TestWeightedAverage_SellDirection(t *testing.T) {
	agg, err := NewAggregator(WeightedAverage)
	require.NoError(t, err)

	agg.RegisterSource("a", newFakeSource(domain.SignalSell, 0.9, 1.0), 1.0)
	agg.RegisterSource("b", newFakeSource(domain.SignalSell, 0.8, 1.0), 1.0)

	result := agg.Aggregate(context.Background(), "BTC", "1h")

	assert.Equal(t, domain.SignalSell, result.Type)
	assert.LessOrEqual(t, result.FinalScore, 0.35)
	assert.InDelta(t, (0.5-result.FinalScore)*2, result.Strength, 1e-9)
}

func TestWeightedAverage_NeutralBand(t *testing.T) {
	agg, err := NewAggregator(WeightedAverage)
	require.NoError(t, err)

	// BUY와 SELL이 서로 상쇄되면 중립 구간에 들어와야 합니다
	agg.RegisterSource("bull", newFakeSource(domain.SignalBuy, 0.8, 1.0), 1.0)
	agg.RegisterSource("bear", newFakeSource(domain.SignalSell, 0.8, 1.0), 1.0)

	result := agg.Aggregate(context.Background(), "BTC", "1h")

	assert.Equal(t, domain.SignalNeutral, result.Type)
	assert.Equal(t, 0.0, result.Strength)
}

func TestConsistencyConfidence(t *testing.T) {
	t.Run("단일 시그널은 신뢰도 통과", func(t *testing.T) {
		signals := []domain.Signal{{Type: domain.SignalBuy, Strength: 0.8, Confidence: 0.77}}
		assert.InDelta(t, 0.77, consistencyConfidence(signals), 1e-9)
	})

	t.Run("동일한 시그널 N개는 일치도 1.0", func(t *testing.T) {
		var signals []domain.Signal
		for i := 0; i < 4; i++ {
			signals = append(signals, domain.Signal{Type: domain.SignalBuy, Strength: 0.8, Confidence: 1.0})
		}
		assert.InDelta(t, 1.0, consistencyConfidence(signals), 1e-9)
	})

	t.Run("방향이 갈릴수록 신뢰도 하락", func(t *testing.T) {
		aligned := []domain.Signal{
			{Type: domain.SignalBuy, Strength: 0.8, Confidence: 1.0},
			{Type: domain.SignalBuy, Strength: 0.7, Confidence: 1.0},
		}
		diverging := []domain.Signal{
			{Type: domain.SignalBuy, Strength: 0.8, Confidence: 1.0},
			{Type: domain.SignalSell, Strength: 0.7, Confidence: 1.0},
		}
		conflicting := []domain.Signal{
			{Type: domain.SignalBuy, Strength: 1.0, Confidence: 1.0},
			{Type: domain.SignalSell, Strength: 1.0, Confidence: 1.0},
		}

		a := consistencyConfidence(aligned)
		d := consistencyConfidence(diverging)
		c := consistencyConfidence(conflicting)

		assert.Greater(t, a, d)
		assert.Greater(t, d, c)
		assert.Equal(t, 0.0, c) // 완전 충돌은 분산 0.25 → 일치도 0
	})
}

func TestMajorityVote(t *testing.T) {
	agg, err := NewAggregator(MajorityVote)
	require.NoError(t, err)

	agg.RegisterSource("a", newFakeSource(domain.SignalBuy, 0.8, 0.9), 2.0)
	agg.RegisterSource("b", newFakeSource(domain.SignalSell, 0.9, 0.9), 1.0)
	agg.RegisterSource("c", newFakeSource(domain.SignalBuy, 0.5, 0.6), 1.0)

	result := agg.Aggregate(context.Background(), "BTC", "1h")

	assert.Equal(t, domain.SignalBuy, result.Type)
	// 승리 득표 3.0 / 총 득표 4.0
	assert.InDelta(t, 0.75, result.Strength, 1e-9)
	assert.InDelta(t, 0.75, result.FinalScore, 1e-9)
}

func TestPriority(t *testing.T) {
	agg, err := NewAggregator(Priority)
	require.NoError(t, err)

	agg.RegisterSource("low", newFakeSource(domain.SignalSell, 0.9, 0.6), 1.0)
	agg.RegisterSource("high", newFakeSource(domain.SignalBuy, 0.7, 0.95), 1.0)

	result := agg.Aggregate(context.Background(), "BTC", "1h")

	// 신뢰도가 가장 높은 시그널이 그대로 통과해야 합니다
	assert.Equal(t, domain.SignalBuy, result.Type)
	assert.InDelta(t, 0.7, result.Strength, 1e-9)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.InDelta(t, 0.7*0.95, result.FinalScore, 1e-9)
	assert.Len(t, result.Contributing, 2)
}

func TestGetHealth(t *testing.T) {
	agg, err := NewAggregator(WeightedAverage)
	require.NoError(t, err)

	healthy := newFakeSource(domain.SignalBuy, 0.8, 0.9)
	healthy.health = domain.SourceHealth{Status: domain.HealthHealthy}
	down := newFakeSource(domain.SignalBuy, 0.8, 0.9)
	down.health = domain.SourceHealth{Status: domain.HealthDown}

	agg.RegisterSource("ok", healthy, 1.0)
	agg.RegisterSource("dead", down, 1.0)

	h := agg.GetHealth(context.Background())

	assert.Equal(t, domain.HealthDown, h.Overall)
	assert.Len(t, h.Sources, 2)
}
