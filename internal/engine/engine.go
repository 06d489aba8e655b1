// Package engine은 시그널 융합부터 주문 제출까지 이어지는
// 종목별 실행 파이프라인을 구현합니다.
package engine

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/assist-by/aurora/internal/domain"
	"github.com/assist-by/aurora/internal/notification"
	"github.com/assist-by/aurora/internal/risk"
	"github.com/assist-by/aurora/internal/signal"
	"github.com/assist-by/aurora/internal/strategy"
	"github.com/assist-by/aurora/internal/trader"
)

// venue는 등록된 트레이더와 그 리스크 게이트를 묶습니다
type venue struct {
	trader    trader.Trader
	risk      *risk.Manager
	connected bool
}

// Engine은 실행 엔진입니다.
// 스케줄러가 사이클마다 ProcessTicker를 호출합니다.
type Engine struct {
	aggregator *signal.Aggregator
	catalog    *strategy.Catalog
	limits     risk.Limits

	venues     map[string]*venue
	venueOrder []string
	routes     map[domain.AssetType]string

	tradeLog  *TradeLog
	notifier  notification.Notifier
	timeframe string
	now       func() time.Time
}

// Option은 엔진 생성 옵션을 정의합니다
type Option func(*Engine)

// WithNotifier는 알림 클라이언트를 설정합니다
func WithNotifier(n notification.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithTimeframe은 시그널 융합에 사용할 시간 프레임을 설정합니다
func WithTimeframe(timeframe string) Option {
	return func(e *Engine) {
		e.timeframe = timeframe
	}
}

// WithRoute는 자산 유형을 플랫폼에 연결합니다
func WithRoute(assetType domain.AssetType, platform string) Option {
	return func(e *Engine) {
		e.routes[assetType] = platform
	}
}

// WithClock은 현재 시간 함수를 교체합니다. 테스트에서 사용합니다.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine은 실행 엔진을 생성합니다
func NewEngine(aggregator *signal.Aggregator, catalog *strategy.Catalog, limits risk.Limits, opts ...Option) *Engine {
	e := &Engine{
		aggregator: aggregator,
		catalog:    catalog,
		limits:     limits,
		venues:     make(map[string]*venue),
		routes: map[domain.AssetType]string{
			domain.AssetCrypto: "dydx",
			domain.AssetStock:  "alpaca",
			domain.AssetOption: "alpaca",
		},
		tradeLog:  NewTradeLog(),
		timeframe: "1d",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// accountAdapter는 risk.AccountProvider를 구현하지 않는 트레이더를
// 계좌/포지션 조회로 감싸 요약을 만들어 줍니다.
type accountAdapter struct {
	trader trader.Trader
}

func (a accountAdapter) AccountSummary(ctx context.Context) (risk.AccountSummary, error) {
	info, err := a.trader.GetAccountInfo(ctx)
	if err != nil {
		return risk.AccountSummary{}, err
	}
	positions, err := a.trader.GetAllPositions(ctx)
	if err != nil {
		return risk.AccountSummary{}, err
	}
	tickers := make([]string, 0, len(positions))
	for _, p := range positions {
		tickers = append(tickers, p.Ticker)
	}
	return risk.AccountSummary{
		Equity:         info.TotalEquity,
		Cash:           info.AvailableCash,
		PositionsValue: info.PositionsValue,
		OpenPositions:  len(positions),
		HeldTickers:    tickers,
	}, nil
}

// RegisterTrader는 트레이더를 플랫폼 이름으로 등록하고 리스크 게이트를 연결합니다
func (e *Engine) RegisterTrader(tr trader.Trader) {
	var provider risk.AccountProvider
	if p, ok := tr.(risk.AccountProvider); ok {
		provider = p
	} else {
		provider = accountAdapter{trader: tr}
	}

	platform := tr.Platform()
	if _, exists := e.venues[platform]; !exists {
		e.venueOrder = append(e.venueOrder, platform)
	}
	e.venues[platform] = &venue{
		trader: tr,
		risk:   risk.NewManager(provider, e.limits),
	}
	log.Printf("트레이더 등록: %s", platform)
}

// TradeLog는 거래 기록을 반환합니다. 테스트에서 초기화할 때 사용합니다.
func (e *Engine) TradeLog() *TradeLog {
	return e.tradeLog
}

// Start는 등록된 모든 트레이더에 연결합니다.
// 연결에 실패한 플랫폼은 이번 실행에서 제외되며, 나머지는 계속 동작합니다.
func (e *Engine) Start(ctx context.Context) error {
	for _, platform := range e.venueOrder {
		v := e.venues[platform]
		if err := v.trader.Connect(ctx); err != nil {
			log.Printf("플랫폼 연결 실패: %s: %v", platform, err)
			e.notifyError(err)
			continue
		}
		v.connected = true
	}
	return nil
}

// Stop은 연결된 모든 트레이더의 연결을 해제합니다
func (e *Engine) Stop(ctx context.Context) {
	for _, platform := range e.venueOrder {
		v := e.venues[platform]
		if !v.connected {
			continue
		}
		if err := v.trader.Disconnect(ctx); err != nil {
			log.Printf("연결 해제 실패: %s: %v", platform, err)
		}
		v.connected = false
	}
}

// venueFor는 자산 유형에 연결된 사용 가능한 플랫폼을 찾습니다
func (e *Engine) venueFor(assetType domain.AssetType) *venue {
	platform, ok := e.routes[assetType]
	if !ok {
		return nil
	}
	v, ok := e.venues[platform]
	if !ok || !v.connected {
		return nil
	}
	return v
}

// ProcessTicker는 한 종목에 대한 전체 파이프라인을 실행합니다.
// 어느 단계에서 실패하든 이번 사이클에서 해당 종목만 건너뛰고 다음 사이클에 다시 시도합니다.
func (e *Engine) ProcessTicker(ctx context.Context, ticker string, assetType domain.AssetType) {
	sig := e.aggregator.Aggregate(ctx, ticker, e.timeframe)

	if sig.Type == domain.SignalClose {
		e.closeOnSignal(ctx, ticker, assetType)
		return
	}
	if !sig.Type.IsActionable() {
		log.Printf("시그널 없음: %s (타입: %s, 스코어: %.3f)", ticker, sig.Type, sig.FinalScore)
		return
	}

	e.notifySignal(sig)

	strat := e.catalog.Select(sig.SourceNames(), assetType)
	if strat == nil {
		log.Printf("적합한 전략 없음: %s (소스: %v)", ticker, sig.SourceNames())
		return
	}
	if !strat.MeetsCriteria(sig) {
		log.Printf("전략 요건 미달: %s (전략: %s, 신뢰도: %.2f, 강도: %.2f)",
			ticker, strat.Name, sig.Confidence, sig.Strength)
		return
	}

	now := e.now()
	if strat.MaxTradesPerDay > 0 && e.tradeLog.CountToday(strat.Name, now) >= strat.MaxTradesPerDay {
		log.Printf("일일 거래 한도 도달: %s (전략: %s)", ticker, strat.Name)
		return
	}
	if last, ok := e.tradeLog.LastTrade(ticker); ok && now.Sub(last) < strat.MinSignalGap {
		log.Printf("시그널 간격 미달: %s (마지막 거래: %s 전)", ticker, now.Sub(last))
		return
	}

	v := e.venueFor(assetType)
	if v == nil {
		log.Printf("사용 가능한 플랫폼 없음: %s (자산 유형: %s)", ticker, assetType)
		return
	}

	if e.hasOpenPosition(ctx, v, ticker) {
		log.Printf("이미 포지션 보유 중: %s", ticker)
		return
	}

	price, err := v.trader.GetCurrentPrice(ctx, ticker)
	if err != nil {
		log.Printf("현재가 조회 실패: %s: %v", ticker, err)
		return
	}

	check, err := v.risk.Evaluate(ctx, sig, *strat, price)
	if err != nil {
		log.Printf("리스크 평가 실패: %s: %v", ticker, err)
		return
	}
	if !check.Approved {
		log.Printf("리스크 거부: %s (사유: %s)", ticker, check.Reason)
		return
	}

	order := domain.Order{
		Ticker:      ticker,
		Side:        sig.Type.ToOrderSide(),
		Size:        check.Size,
		Type:        domain.Market,
		StopLoss:    check.StopLoss,
		TakeProfit:  check.TakeProfit,
		TimeInForce: "GTC",
		Strategy:    strat.Name,
	}

	// 트래커가 이 사이에 같은 종목을 청산했다가 다시 열 수 있으므로
	// 제출 직전에 포지션 유무를 한 번 더 확인합니다
	if e.hasOpenPosition(ctx, v, ticker) {
		log.Printf("제출 직전 포지션 감지, 주문 취소: %s", ticker)
		return
	}

	result, err := v.trader.PlaceOrder(ctx, order)
	if err != nil {
		log.Printf("주문 제출 실패: %s: %v", ticker, err)
		e.notifyError(err)
		return
	}
	if !result.Success {
		log.Printf("주문 거부됨: %s (상태: %s, 메시지: %s)", ticker, result.Status, result.Message)
		return
	}

	e.tradeLog.Append(ticker, strat.Name, now)
	log.Printf("주문 체결: %s %s $%.2f @ %.4f (전략: %s)",
		ticker, order.Side, result.FilledSize, result.FilledPrice, strat.Name)

	e.notifyTrade(ctx, v, order, result)
}

// hasOpenPosition은 트레이더에 해당 종목의 포지션이 있는지 확인합니다.
// 조회 에러는 보수적으로 "있다"로 취급해 주문을 막습니다.
func (e *Engine) hasOpenPosition(ctx context.Context, v *venue, ticker string) bool {
	_, err := v.trader.GetPosition(ctx, ticker)
	if err == nil {
		return true
	}
	if errors.Is(err, trader.ErrPositionNotFound) {
		return false
	}
	log.Printf("포지션 조회 실패: %s: %v", ticker, err)
	return true
}

// closeOnSignal은 CLOSE 시그널을 받아 보유 포지션을 청산합니다
func (e *Engine) closeOnSignal(ctx context.Context, ticker string, assetType domain.AssetType) {
	v := e.venueFor(assetType)
	if v == nil {
		return
	}

	pos, err := v.trader.GetPosition(ctx, ticker)
	if err != nil {
		if !errors.Is(err, trader.ErrPositionNotFound) {
			log.Printf("포지션 조회 실패: %s: %v", ticker, err)
		}
		return
	}

	result, err := v.trader.ClosePosition(ctx, ticker, 0)
	if err != nil {
		log.Printf("청산 실패: %s: %v", ticker, err)
		e.notifyError(err)
		return
	}

	log.Printf("CLOSE 시그널 청산: %s @ %.4f", ticker, result.FilledPrice)

	if e.notifier != nil {
		var pnl float64
		if pos.Side == domain.LongPosition {
			pnl = (result.FilledPrice - pos.EntryPrice) * pos.Size
		} else {
			pnl = (pos.EntryPrice - result.FilledPrice) * pos.Size
		}
		info := notification.CloseInfo{
			Ticker:       ticker,
			PositionType: string(pos.Side),
			Reason:       "signal",
			EntryPrice:   pos.EntryPrice,
			ExitPrice:    result.FilledPrice,
			PnL:          pnl,
		}
		if pos.EntryPrice > 0 {
			info.PnLPct = pnl / (pos.EntryPrice * pos.Size)
		}
		if err := e.notifier.SendPositionClosed(info); err != nil {
			log.Printf("청산 알림 전송 실패: %v", err)
		}
	}
}

func (e *Engine) notifySignal(sig domain.AggregatedSignal) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.SendSignal(sig); err != nil {
		log.Printf("시그널 알림 전송 실패: %v", err)
	}
}

func (e *Engine) notifyError(err error) {
	if e.notifier == nil {
		return
	}
	if sendErr := e.notifier.SendError(err); sendErr != nil {
		log.Printf("에러 알림 전송 실패: %v", sendErr)
	}
}

func (e *Engine) notifyTrade(ctx context.Context, v *venue, order domain.Order, result domain.OrderResult) {
	if e.notifier == nil {
		return
	}

	info := notification.TradeInfo{
		Ticker:       order.Ticker,
		PositionType: positionTypeFor(order.Side),
		Strategy:     order.Strategy,
		Size:         result.FilledSize,
		EntryPrice:   result.FilledPrice,
		StopLoss:     order.StopLoss,
		TakeProfit:   order.TakeProfit,
	}
	if result.FilledPrice > 0 {
		info.Quantity = result.FilledSize / result.FilledPrice
	}
	if account, err := v.trader.GetAccountInfo(ctx); err == nil {
		info.Balance = account.AvailableCash
	}

	if err := e.notifier.SendTradeInfo(info); err != nil {
		log.Printf("거래 알림 전송 실패: %v", err)
	}
}

func positionTypeFor(side domain.OrderSide) string {
	if side == domain.Sell {
		return "SHORT"
	}
	return "LONG"
}
