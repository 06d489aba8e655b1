package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/aurora/internal/domain"
	"github.com/assist-by/aurora/internal/risk"
	"github.com/assist-by/aurora/internal/signal"
	"github.com/assist-by/aurora/internal/strategy"
	"github.com/assist-by/aurora/internal/trader"
	"github.com/assist-by/aurora/internal/trader/paper"
)

// stubSource는 항상 같은 방향의 시그널을 반환하는 테스트용 소스입니다
type stubSource struct {
	sigType    domain.SignalType
	strength   float64
	confidence float64
}

func (s *stubSource) GetSignal(ctx context.Context, ticker, timeframe string) (domain.Signal, error) {
	return domain.Signal{
		Ticker:     ticker,
		AssetType:  domain.AssetCrypto,
		Type:       s.sigType,
		Strength:   s.strength,
		Confidence: s.confidence,
		Timeframe:  timeframe,
		Source:     "sentiment",
		Timestamp:  time.Now(),
	}, nil
}

func (s *stubSource) Validate(ctx context.Context) bool { return true }

func (s *stubSource) GetHealth(ctx context.Context) domain.SourceHealth {
	return domain.SourceHealth{Status: domain.HealthHealthy, LastUpdate: time.Now()}
}

type testFixture struct {
	engine *Engine
	trader *paper.Trader
	clock  *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFixture(t *testing.T, sigType domain.SignalType, strength, confidence float64) *testFixture {
	t.Helper()

	agg, err := signal.NewAggregator(signal.WeightedAverage)
	require.NoError(t, err)
	agg.RegisterSource("sentiment", &stubSource{sigType: sigType, strength: strength, confidence: confidence}, 1.0)

	catalog := strategy.NewCatalog()
	catalog.Register(strategy.TradingStrategy{
		Name:              "test_strategy",
		Type:              strategy.SentimentShort,
		MinConfidence:     0.7,
		MinStrength:       0.6,
		RequiredSources:   []string{"sentiment"},
		AllowedAssetTypes: []domain.AssetType{domain.AssetCrypto},
		BasePositionSize:  1000,
		Sizing:            strategy.SizingFixed,
		MaxTradesPerDay:   2,
		MinSignalGap:      6 * time.Hour,
	})

	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}

	tr := paper.NewTrader("paper", 10000, paper.WithSeedPrices(map[string]float64{"BTC": 100, "ETH": 50}))

	e := NewEngine(agg, catalog, risk.DefaultLimits(),
		WithRoute(domain.AssetCrypto, "paper"),
		WithClock(clock.Now))
	e.RegisterTrader(tr)
	require.NoError(t, e.Start(context.Background()))

	return &testFixture{engine: e, trader: tr, clock: clock}
}

func TestEngine_ProcessTicker_PlacesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.SignalBuy, 0.9, 0.9)

	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)

	pos, err := f.trader.GetPosition(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, domain.LongPosition, pos.Side)
	assert.Greater(t, pos.StopLoss, 0.0)
	assert.Greater(t, pos.TakeProfit, pos.EntryPrice)
	assert.Equal(t, "test_strategy", pos.Strategy)
	assert.Equal(t, 1, f.engine.TradeLog().Len())
}

func TestEngine_ProcessTicker_SellSignalOpensShort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.SignalSell, 0.9, 0.9)

	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)

	pos, err := f.trader.GetPosition(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, domain.ShortPosition, pos.Side)
	// 숏 포지션은 손절이 진입가 위에 놓입니다
	assert.Greater(t, pos.StopLoss, pos.EntryPrice)
}

func TestEngine_ProcessTicker_NeutralDoesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.SignalNeutral, 0, 0.5)

	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)

	_, err := f.trader.GetPosition(ctx, "BTC")
	assert.ErrorIs(t, err, trader.ErrPositionNotFound)
	assert.Equal(t, 0, f.engine.TradeLog().Len())
}

func TestEngine_ProcessTicker_WeakSignalSkipped(t *testing.T) {
	ctx := context.Background()
	// 방향은 맞지만 전략의 최소 강도에 미달합니다
	f := newFixture(t, domain.SignalBuy, 0.4, 0.9)

	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)

	assert.Equal(t, 0, f.engine.TradeLog().Len())
}

func TestEngine_ProcessTicker_ExistingPositionSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.SignalBuy, 0.9, 0.9)

	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)
	require.Equal(t, 1, f.engine.TradeLog().Len())

	// 같은 종목을 다시 처리해도 새 주문이 나가면 안 됩니다
	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)
	assert.Equal(t, 1, f.engine.TradeLog().Len())
}

func TestEngine_ProcessTicker_DailyTradeLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.SignalBuy, 0.9, 0.9)

	// 한도(2회)를 미리 채웁니다
	f.engine.TradeLog().Append("SOL", "test_strategy", f.clock.Now())
	f.engine.TradeLog().Append("DOGE", "test_strategy", f.clock.Now())

	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)

	_, err := f.trader.GetPosition(ctx, "BTC")
	assert.ErrorIs(t, err, trader.ErrPositionNotFound)

	// 다음 날이 되면 한도가 풀립니다
	f.clock.Advance(24 * time.Hour)
	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)
	_, err = f.trader.GetPosition(ctx, "BTC")
	assert.NoError(t, err)
}

func TestEngine_ProcessTicker_SignalGap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.SignalBuy, 0.9, 0.9)

	// 1시간 전에 같은 종목을 거래했다면 6시간 간격 요건에 걸립니다
	f.engine.TradeLog().Append("BTC", "test_strategy", f.clock.Now().Add(-time.Hour))

	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)
	_, err := f.trader.GetPosition(ctx, "BTC")
	assert.ErrorIs(t, err, trader.ErrPositionNotFound)

	f.clock.Advance(6 * time.Hour)
	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)
	_, err = f.trader.GetPosition(ctx, "BTC")
	assert.NoError(t, err)
}

func TestEngine_ProcessTicker_UnknownPriceRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.SignalBuy, 0.9, 0.9)

	// 가격이 시드되지 않은 종목은 리스크 게이트에서 거부됩니다
	f.engine.ProcessTicker(ctx, "XRP", domain.AssetCrypto)

	_, err := f.trader.GetPosition(ctx, "XRP")
	assert.ErrorIs(t, err, trader.ErrPositionNotFound)
	assert.Equal(t, 0, f.engine.TradeLog().Len())
}

func TestEngine_ProcessTicker_NoRouteForAssetType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.SignalBuy, 0.9, 0.9)

	// 주식 라우트(alpaca)에는 등록된 트레이더가 없습니다
	f.engine.ProcessTicker(ctx, "AAPL", domain.AssetStock)
	assert.Equal(t, 0, f.engine.TradeLog().Len())
}

func TestEngine_CloseSignal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.SignalBuy, 0.9, 0.9)

	f.engine.ProcessTicker(ctx, "BTC", domain.AssetCrypto)
	_, err := f.trader.GetPosition(ctx, "BTC")
	require.NoError(t, err)

	f.engine.closeOnSignal(ctx, "BTC", domain.AssetCrypto)

	_, err = f.trader.GetPosition(ctx, "BTC")
	assert.ErrorIs(t, err, trader.ErrPositionNotFound)
}

func TestTradeLog(t *testing.T) {
	l := NewTradeLog()
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)

	l.Append("BTC", "a", now)
	l.Append("ETH", "a", now)
	l.Append("BTC", "b", now)

	assert.Equal(t, 2, l.CountToday("a", now))
	assert.Equal(t, 1, l.CountToday("b", now))

	// 달력 기준 하루가 지나면 집계에서 빠집니다
	assert.Equal(t, 0, l.CountToday("a", now.Add(time.Hour)))

	l.Append("BTC", "a", now.Add(time.Minute))
	last, ok := l.LastTrade("BTC")
	assert.True(t, ok)
	assert.Equal(t, now.Add(time.Minute), last)

	_, ok = l.LastTrade("SOL")
	assert.False(t, ok)

	l.Reset()
	assert.Equal(t, 0, l.Len())
}
