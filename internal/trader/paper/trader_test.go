package paper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/aurora/internal/domain"
	"github.com/assist-by/aurora/internal/trader"
)

func newConnected(t *testing.T, balance float64, opts ...Option) *Trader {
	t.Helper()
	tr := NewTrader("paper", balance, opts...)
	require.NoError(t, tr.Connect(context.Background()))
	return tr
}

func marketBuy(ticker string, size float64) domain.Order {
	return domain.Order{
		Ticker: ticker,
		Side:   domain.Buy,
		Size:   size,
		Type:   domain.Market,
	}
}

func TestTrader_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	tr := newConnected(t, 10000, WithSeedPrices(map[string]float64{"BTC": 100}))

	result, err := tr.PlaceOrder(ctx, marketBuy("BTC", 1000))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.OrderFilled, result.Status)
	// 매수 슬리피지 0.05%가 불리한 방향으로 붙습니다
	assert.InDelta(t, 100.05, result.FilledPrice, 1e-9)
	assert.InDelta(t, 0.5, result.Commission, 1e-9)

	pos, err := tr.GetPosition(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, domain.LongPosition, pos.Side)
	assert.InDelta(t, 1000/100.05, pos.Size, 1e-9)

	// 레버리지 1배면 증거금 = 주문 금액
	account, err := tr.GetAccountInfo(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10000-1000-0.5, account.AvailableCash, 1e-9)
}

func TestTrader_PlaceOrder_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("미연결", func(t *testing.T) {
		tr := NewTrader("paper", 10000, WithSeedPrices(map[string]float64{"BTC": 100}))
		_, err := tr.PlaceOrder(ctx, marketBuy("BTC", 1000))
		assert.ErrorIs(t, err, trader.ErrNotConnected)
	})

	t.Run("가격 불명", func(t *testing.T) {
		tr := newConnected(t, 10000)
		_, err := tr.PlaceOrder(ctx, marketBuy("UNKNOWN", 1000))
		assert.Error(t, err)
	})

	t.Run("증거금 부족", func(t *testing.T) {
		tr := newConnected(t, 500, WithSeedPrices(map[string]float64{"BTC": 100}))
		_, err := tr.PlaceOrder(ctx, marketBuy("BTC", 1000))
		assert.ErrorIs(t, err, trader.ErrInsufficientFunds)
	})

	t.Run("유효성 검사 실패", func(t *testing.T) {
		tr := newConnected(t, 10000, WithSeedPrices(map[string]float64{"BTC": 100}))
		_, err := tr.PlaceOrder(ctx, marketBuy("BTC", 0))
		assert.ErrorIs(t, err, trader.ErrInvalidOrder)
	})

	t.Run("중복 포지션", func(t *testing.T) {
		tr := newConnected(t, 10000, WithSeedPrices(map[string]float64{"BTC": 100}))
		_, err := tr.PlaceOrder(ctx, marketBuy("BTC", 1000))
		require.NoError(t, err)
		_, err = tr.PlaceOrder(ctx, marketBuy("BTC", 1000))
		assert.ErrorIs(t, err, trader.ErrInvalidOrder)
	})
}

func TestTrader_ClosePosition_Full(t *testing.T) {
	ctx := context.Background()
	tr := newConnected(t, 10000, WithSeedPrices(map[string]float64{"BTC": 100}))

	_, err := tr.PlaceOrder(ctx, marketBuy("BTC", 1000))
	require.NoError(t, err)

	// 가격이 10% 오른 뒤 전량 청산
	tr.SetPrice("BTC", 110)
	result, err := tr.ClosePosition(ctx, "BTC", 0)
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = tr.GetPosition(ctx, "BTC")
	assert.ErrorIs(t, err, trader.ErrPositionNotFound)

	// 실현 손익이 잔고와 당일 손익에 반영되어야 합니다
	summary, err := tr.AccountSummary(ctx)
	require.NoError(t, err)
	assert.Greater(t, summary.DailyPnL, 0.0)
	assert.Equal(t, 0, summary.OpenPositions)
	assert.Greater(t, summary.Cash, 10000.0)
}

func TestTrader_ClosePosition_Partial(t *testing.T) {
	ctx := context.Background()
	tr := newConnected(t, 10000, WithSeedPrices(map[string]float64{"BTC": 100}))

	_, err := tr.PlaceOrder(ctx, marketBuy("BTC", 1000))
	require.NoError(t, err)

	result, err := tr.ClosePosition(ctx, "BTC", 400)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.InDelta(t, 400, result.FilledSize, 1e-9)

	pos, err := tr.GetPosition(ctx, "BTC")
	require.NoError(t, err)
	// 60%가 남아야 합니다
	assert.InDelta(t, (1000/100.05)*0.6, pos.Size, 1e-6)
}

func TestTrader_ClosePosition_ShortProfit(t *testing.T) {
	ctx := context.Background()
	tr := newConnected(t, 10000, WithSeedPrices(map[string]float64{"BTC": 100}))

	order := marketBuy("BTC", 1000)
	order.Side = domain.Sell
	_, err := tr.PlaceOrder(ctx, order)
	require.NoError(t, err)

	// 숏 포지션은 가격이 내리면 이익입니다
	tr.SetPrice("BTC", 90)
	_, err = tr.ClosePosition(ctx, "BTC", 0)
	require.NoError(t, err)

	summary, err := tr.AccountSummary(ctx)
	require.NoError(t, err)
	assert.Greater(t, summary.DailyPnL, 0.0)
}

func TestTrader_Leverage(t *testing.T) {
	ctx := context.Background()
	tr := newConnected(t, 1000, WithLeverage(5), WithSeedPrices(map[string]float64{"BTC": 100}))

	// 레버리지 5배면 증거금 200으로 1000 포지션을 열 수 있습니다
	_, err := tr.PlaceOrder(ctx, marketBuy("BTC", 1000))
	require.NoError(t, err)

	account, err := tr.GetAccountInfo(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 200, account.UsedMargin, 1e-9)
	assert.InDelta(t, 1000-200-0.5, account.AvailableCash, 1e-9)
}

func TestTrader_OrderStatus(t *testing.T) {
	ctx := context.Background()
	tr := newConnected(t, 10000, WithSeedPrices(map[string]float64{"BTC": 100}))

	result, err := tr.PlaceOrder(ctx, marketBuy("BTC", 1000))
	require.NoError(t, err)

	status, err := tr.GetOrderStatus(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFilled, status)

	_, err = tr.GetOrderStatus(ctx, "nope")
	assert.ErrorIs(t, err, trader.ErrOrderNotFound)

	// 이미 체결된 주문은 취소할 수 없습니다
	err = tr.CancelOrder(ctx, result.OrderID)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, trader.ErrOrderNotFound))
}

type fixedPrices map[string]float64

func (f fixedPrices) Price(ticker string) (float64, bool) {
	p, ok := f[ticker]
	return p, ok
}

func TestTrader_PriceSourcePrecedence(t *testing.T) {
	ctx := context.Background()
	tr := newConnected(t, 10000,
		WithPriceSource(fixedPrices{"BTC": 200}),
		WithSeedPrices(map[string]float64{"BTC": 100, "ETH": 50}))

	// 가격 소스가 시드보다 우선합니다
	price, err := tr.GetCurrentPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 200.0, price)

	// 소스에 없으면 시드로 폴백합니다
	price, err = tr.GetCurrentPrice(ctx, "ETH")
	require.NoError(t, err)
	assert.Equal(t, 50.0, price)

	// 둘 다 없으면 0입니다
	price, err = tr.GetCurrentPrice(ctx, "SOL")
	require.NoError(t, err)
	assert.Equal(t, 0.0, price)
}
