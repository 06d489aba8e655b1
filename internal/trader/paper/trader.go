// Package paper는 실제 주문 없이 계좌와 포지션을 시뮬레이션하는
// 페이퍼 트레이딩 구현을 제공합니다.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/assist-by/aurora/internal/domain"
	"github.com/assist-by/aurora/internal/risk"
	"github.com/assist-by/aurora/internal/trader"
)

const (
	slippageRate   = 0.0005 // 체결 시 0.05% 슬리피지
	commissionRate = 0.0005 // 주문 금액 대비 0.05% 수수료
)

// PriceSource는 실시간 가격 조회 인터페이스입니다.
// 가격이 없으면 두 번째 반환값이 false입니다.
type PriceSource interface {
	Price(ticker string) (float64, bool)
}

// Trader는 페이퍼 트레이딩 구현입니다
type Trader struct {
	mu sync.Mutex

	platform  string
	connected bool

	cash          float64
	dailyRealized float64
	leverage      float64

	positions map[string]*domain.Position
	orders    map[string]domain.OrderStatus
	orderSeq  int64

	prices PriceSource
	seed   map[string]float64
}

// Option은 Trader 생성 옵션입니다
type Option func(*Trader)

// WithLeverage는 기본 레버리지를 설정합니다
func WithLeverage(leverage float64) Option {
	return func(t *Trader) {
		if leverage > 0 {
			t.leverage = leverage
		}
	}
}

// WithPriceSource는 실시간 가격 소스를 설정합니다
func WithPriceSource(prices PriceSource) Option {
	return func(t *Trader) {
		t.prices = prices
	}
}

// WithSeedPrices는 가격 소스가 없을 때 사용할 초기 가격을 설정합니다
func WithSeedPrices(seed map[string]float64) Option {
	return func(t *Trader) {
		for ticker, price := range seed {
			t.seed[ticker] = price
		}
	}
}

// NewTrader는 초기 잔고로 페이퍼 트레이더를 생성합니다
func NewTrader(platform string, initialBalance float64, opts ...Option) *Trader {
	t := &Trader{
		platform:  platform,
		cash:      initialBalance,
		leverage:  1.0,
		positions: make(map[string]*domain.Position),
		orders:    make(map[string]domain.OrderStatus),
		seed:      make(map[string]float64),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Platform은 플랫폼 식별자를 반환합니다
func (t *Trader) Platform() string {
	return t.platform
}

// Connect는 페이퍼 트레이더를 활성화합니다
func (t *Trader) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = true
	log.Printf("%s 페이퍼 트레이더 연결 완료 (잔고: %.2f, 레버리지: %.1fx)", t.platform, t.cash, t.leverage)
	return nil
}

// Disconnect는 페이퍼 트레이더를 비활성화합니다
func (t *Trader) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	return nil
}

// currentPrice는 가격 소스, 시드 가격 순으로 현재가를 찾습니다. 없으면 0을 반환합니다.
func (t *Trader) currentPrice(ticker string) float64 {
	if t.prices != nil {
		if price, ok := t.prices.Price(ticker); ok && price > 0 {
			return price
		}
	}
	return t.seed[ticker]
}

// GetCurrentPrice는 현재가를 반환합니다. 가격을 알 수 없으면 0을 반환합니다.
func (t *Trader) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentPrice(ticker), nil
}

// PlaceOrder는 시장가 체결을 시뮬레이션합니다.
// 슬리피지와 수수료를 반영하고 증거금을 차감한 뒤 포지션을 생성합니다.
func (t *Trader) PlaceOrder(ctx context.Context, order domain.Order) (domain.OrderResult, error) {
	if err := trader.ValidateOrder(order); err != nil {
		return domain.OrderResult{}, &trader.Error{Op: "PlaceOrder", Platform: t.platform, Ticker: order.Ticker, Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return domain.OrderResult{}, &trader.Error{Op: "PlaceOrder", Platform: t.platform, Ticker: order.Ticker, Err: trader.ErrNotConnected}
	}
	if _, exists := t.positions[order.Ticker]; exists {
		return domain.OrderResult{}, &trader.Error{Op: "PlaceOrder", Platform: t.platform, Ticker: order.Ticker,
			Err: fmt.Errorf("%w: 이미 포지션 보유 중", trader.ErrInvalidOrder)}
	}

	price := t.currentPrice(order.Ticker)
	if price <= 0 {
		return domain.OrderResult{}, &trader.Error{Op: "PlaceOrder", Platform: t.platform, Ticker: order.Ticker,
			Err: fmt.Errorf("현재가를 알 수 없음")}
	}

	// 매수는 불리한 방향으로, 매도는 반대 방향으로 슬리피지가 붙습니다
	fillPrice := price * (1 + slippageRate)
	if order.Side == domain.Sell {
		fillPrice = price * (1 - slippageRate)
	}

	margin := order.Size / t.leverage
	commission := order.Size * commissionRate
	if t.cash < margin+commission {
		return domain.OrderResult{}, &trader.Error{Op: "PlaceOrder", Platform: t.platform, Ticker: order.Ticker, Err: trader.ErrInsufficientFunds}
	}

	t.cash -= margin + commission
	t.orderSeq++
	orderID := fmt.Sprintf("%s-%d", t.platform, t.orderSeq)
	t.orders[orderID] = domain.OrderFilled

	side := domain.LongPosition
	if order.Side == domain.Sell {
		side = domain.ShortPosition
	}

	now := time.Now()
	t.positions[order.Ticker] = &domain.Position{
		Ticker:       order.Ticker,
		Side:         side,
		Size:         order.Size / fillPrice,
		EntryPrice:   fillPrice,
		CurrentPrice: fillPrice,
		StopLoss:     order.StopLoss,
		TakeProfit:   order.TakeProfit,
		OpenedAt:     now,
		LastUpdated:  now,
		PositionID:   orderID,
		SignalID:     order.SignalID,
		Strategy:     order.Strategy,
	}

	log.Printf("주문 체결: %s %s %.2f @ %.4f (수수료: %.4f)", order.Ticker, order.Side, order.Size, fillPrice, commission)

	return domain.OrderResult{
		Success:     true,
		OrderID:     orderID,
		FilledSize:  order.Size,
		FilledPrice: fillPrice,
		Status:      domain.OrderFilled,
		Timestamp:   now,
		Commission:  commission,
		Slippage:    fillPrice - price,
	}, nil
}

// CancelOrder는 미체결 주문을 취소합니다.
// 페이퍼 트레이딩에서는 시장가 주문이 즉시 체결되므로 취소할 수 있는 주문이 없습니다.
func (t *Trader) CancelOrder(ctx context.Context, orderID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.orders[orderID]
	if !ok {
		return &trader.Error{Op: "CancelOrder", Platform: t.platform, Err: trader.ErrOrderNotFound}
	}
	if status == domain.OrderFilled {
		return &trader.Error{Op: "CancelOrder", Platform: t.platform,
			Err: fmt.Errorf("이미 체결된 주문: %s", orderID)}
	}
	t.orders[orderID] = domain.OrderCancelled
	return nil
}

// GetOrderStatus는 주문 상태를 조회합니다
func (t *Trader) GetOrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.orders[orderID]
	if !ok {
		return "", &trader.Error{Op: "GetOrderStatus", Platform: t.platform, Err: trader.ErrOrderNotFound}
	}
	return status, nil
}

// GetPosition은 종목의 보유 포지션을 조회합니다
func (t *Trader) GetPosition(ctx context.Context, ticker string) (domain.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.positions[ticker]
	if !ok {
		return domain.Position{}, &trader.Error{Op: "GetPosition", Platform: t.platform, Ticker: ticker, Err: trader.ErrPositionNotFound}
	}
	t.refreshPrice(pos)
	return *pos, nil
}

// GetAllPositions는 모든 보유 포지션을 가격 갱신 후 반환합니다
func (t *Trader) GetAllPositions(ctx context.Context) ([]domain.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.Position, 0, len(t.positions))
	for _, pos := range t.positions {
		t.refreshPrice(pos)
		out = append(out, *pos)
	}
	return out, nil
}

func (t *Trader) refreshPrice(pos *domain.Position) {
	if price := t.currentPrice(pos.Ticker); price > 0 {
		pos.UpdatePrice(price)
	}
}

// ClosePosition은 포지션을 청산하고 증거금과 손익을 잔고에 반영합니다.
// size는 계좌 통화 기준 진입 금액이며 0이면 전량 청산합니다.
func (t *Trader) ClosePosition(ctx context.Context, ticker string, size float64) (domain.OrderResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return domain.OrderResult{}, &trader.Error{Op: "ClosePosition", Platform: t.platform, Ticker: ticker, Err: trader.ErrNotConnected}
	}
	pos, ok := t.positions[ticker]
	if !ok {
		return domain.OrderResult{}, &trader.Error{Op: "ClosePosition", Platform: t.platform, Ticker: ticker, Err: trader.ErrPositionNotFound}
	}

	price := t.currentPrice(ticker)
	if price <= 0 {
		return domain.OrderResult{}, &trader.Error{Op: "ClosePosition", Platform: t.platform, Ticker: ticker,
			Err: fmt.Errorf("현재가를 알 수 없음")}
	}

	// 청산은 진입의 반대 방향으로 슬리피지가 붙습니다
	fillPrice := price * (1 - slippageRate)
	if pos.Side == domain.ShortPosition {
		fillPrice = price * (1 + slippageRate)
	}

	notional := pos.Size * pos.EntryPrice
	closeNotional := notional
	if size > 0 && size < notional {
		closeNotional = size
	}
	fraction := closeNotional / notional
	closeQty := pos.Size * fraction

	var pnl float64
	if pos.Side == domain.LongPosition {
		pnl = (fillPrice - pos.EntryPrice) * closeQty
	} else {
		pnl = (pos.EntryPrice - fillPrice) * closeQty
	}

	margin := closeNotional / t.leverage
	commission := closeQty * fillPrice * commissionRate

	t.cash += margin + pnl - commission
	t.dailyRealized += pnl - commission

	if fraction >= 1 {
		delete(t.positions, ticker)
	} else {
		pos.Size -= closeQty
		pos.UpdatePrice(price)
	}

	t.orderSeq++
	orderID := fmt.Sprintf("%s-%d", t.platform, t.orderSeq)
	t.orders[orderID] = domain.OrderFilled

	log.Printf("포지션 청산: %s %.4f @ %.4f (실현 손익: %.2f)", ticker, closeQty, fillPrice, pnl-commission)

	return domain.OrderResult{
		Success:     true,
		OrderID:     orderID,
		FilledSize:  closeNotional,
		FilledPrice: fillPrice,
		Status:      domain.OrderFilled,
		Timestamp:   time.Now(),
		Commission:  commission,
		Slippage:    fillPrice - price,
	}, nil
}

// GetAccountInfo는 조회 시점의 계좌 스냅샷을 새로 계산해 반환합니다
func (t *Trader) GetAccountInfo(ctx context.Context) (domain.AccountInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var usedMargin, positionsValue, unrealized float64
	for _, pos := range t.positions {
		t.refreshPrice(pos)
		usedMargin += pos.Size * pos.EntryPrice / t.leverage
		positionsValue += pos.CurrentValue()
		unrealized += pos.UnrealizedPnL()
	}

	return domain.AccountInfo{
		TotalEquity:    t.cash + usedMargin + unrealized,
		AvailableCash:  t.cash,
		UsedMargin:     usedMargin,
		PositionsValue: positionsValue,
		UnrealizedPnL:  unrealized,
		Leverage:       t.leverage,
	}, nil
}

// AccountSummary는 리스크 매니저에 제공하는 계좌 요약입니다
func (t *Trader) AccountSummary(ctx context.Context) (risk.AccountSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var usedMargin, positionsValue, unrealized float64
	tickers := make([]string, 0, len(t.positions))
	for ticker, pos := range t.positions {
		t.refreshPrice(pos)
		usedMargin += pos.Size * pos.EntryPrice / t.leverage
		positionsValue += pos.CurrentValue()
		unrealized += pos.UnrealizedPnL()
		tickers = append(tickers, ticker)
	}

	return risk.AccountSummary{
		Equity:         t.cash + usedMargin + unrealized,
		Cash:           t.cash,
		PositionsValue: positionsValue,
		OpenPositions:  len(t.positions),
		HeldTickers:    tickers,
		DailyPnL:       t.dailyRealized,
	}, nil
}

// ResetDailyPnL은 당일 실현 손익을 초기화합니다. 일일 경계에서 호출됩니다.
func (t *Trader) ResetDailyPnL() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dailyRealized = 0
}

// SetPrice는 시드 가격을 갱신합니다. 테스트와 수동 운용에서 사용합니다.
func (t *Trader) SetPrice(ticker string, price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seed[ticker] = price
}
