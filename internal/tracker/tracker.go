// Package tracker는 열린 포지션을 주기적으로 감시해
// 손절, 익절, 보유 시간 초과 조건에서 청산하는 백그라운드 감시자를 구현합니다.
package tracker

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/assist-by/aurora/internal/domain"
	"github.com/assist-by/aurora/internal/notification"
	"github.com/assist-by/aurora/internal/trader"
)

// 청산 사유
const (
	ReasonStopLoss   = "stop_loss"
	ReasonTakeProfit = "take_profit"
	ReasonTimeLimit  = "time_limit"
)

// Alert는 트래커가 포지션을 청산했을 때 남기는 기록입니다
type Alert struct {
	Ticker     string
	Reason     string
	Side       domain.PositionSide
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	Time       time.Time
}

// Stats는 트래커 동작 집계입니다
type Stats struct {
	Cycles       int
	Closes       int
	FailedCloses int
	Errors       int
}

// Tracker는 등록된 트레이더들의 포지션을 고정 주기로 감시합니다
type Tracker struct {
	traders  []trader.Trader
	interval time.Duration
	maxHold  time.Duration
	notifier notification.Notifier
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	alerts  []Alert
	stats   Stats
}

// Option은 트래커 생성 옵션을 정의합니다
type Option func(*Tracker)

// WithInterval은 감시 주기를 설정합니다
func WithInterval(interval time.Duration) Option {
	return func(t *Tracker) {
		if interval > 0 {
			t.interval = interval
		}
	}
}

// WithMaxHold는 최대 보유 시간을 설정합니다. 0이면 시간 제한을 검사하지 않습니다.
func WithMaxHold(maxHold time.Duration) Option {
	return func(t *Tracker) {
		t.maxHold = maxHold
	}
}

// WithNotifier는 청산 알림 클라이언트를 설정합니다
func WithNotifier(n notification.Notifier) Option {
	return func(t *Tracker) {
		t.notifier = n
	}
}

// WithClock은 현재 시간 함수를 교체합니다. 테스트에서 사용합니다.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker는 포지션 트래커를 생성합니다
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		interval: time.Minute,
		maxHold:  168 * time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RegisterTrader는 감시 대상 트레이더를 등록합니다. 등록 순서대로 순회합니다.
func (t *Tracker) RegisterTrader(tr trader.Trader) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.traders = append(t.traders, tr)
	log.Printf("트래커에 트레이더 등록: %s", tr.Platform())
}

// Start는 백그라운드 감시 루프를 시작합니다.
// 이미 실행 중이면 경고만 남기고 아무것도 하지 않습니다.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		log.Printf("트래커가 이미 실행 중입니다")
		return
	}

	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	t.running = true

	go t.loop(ctx)
	log.Printf("포지션 트래커 시작 (주기: %s)", t.interval)
}

// loop는 취소될 때까지 사이클을 반복합니다.
// 취소는 사이클 사이의 대기 지점에서만 확인하므로 진행 중인 사이클은 끝까지 수행됩니다.
func (t *Tracker) loop(ctx context.Context) {
	defer close(t.done)

	for {
		t.runCycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(t.interval):
		}
	}
}

// Stop은 감시 루프를 중지하고 진행 중인 사이클이 끝날 때까지 기다립니다
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	cancel()
	<-done

	t.mu.Lock()
	t.running = false
	t.mu.Unlock()

	log.Printf("포지션 트래커 중지 완료")
}

// runCycle은 등록 순서대로 모든 트레이더의 모든 포지션을 한 번씩 평가합니다.
// 트레이더 하나가 실패해도 나머지 감시는 계속됩니다.
func (t *Tracker) runCycle(ctx context.Context) {
	t.mu.Lock()
	traders := make([]trader.Trader, len(t.traders))
	copy(traders, t.traders)
	t.stats.Cycles++
	t.mu.Unlock()

	for _, tr := range traders {
		positions, err := tr.GetAllPositions(ctx)
		if err != nil {
			log.Printf("포지션 조회 실패: %s: %v", tr.Platform(), err)
			t.countError()
			continue
		}
		for _, pos := range positions {
			t.evaluate(ctx, tr, pos)
		}
	}
}

// evaluate는 포지션 하나의 청산 조건을 순서대로 확인합니다.
// 손절이 최우선이며 같은 사이클에서 다른 조건은 더 보지 않습니다.
func (t *Tracker) evaluate(ctx context.Context, tr trader.Trader, pos domain.Position) {
	price, err := tr.GetCurrentPrice(ctx, pos.Ticker)
	if err != nil {
		log.Printf("현재가 조회 실패: %s: %v", pos.Ticker, err)
		t.countError()
		return
	}
	if price <= 0 {
		// 가격을 모르면 이번 사이클에서는 판단하지 않습니다
		return
	}
	pos.UpdatePrice(price)

	reason := t.exitReason(pos, price)
	if reason == "" {
		return
	}

	t.closePosition(ctx, tr, pos, price, reason)
}

// exitReason은 청산 사유를 반환합니다. 청산할 필요가 없으면 빈 문자열입니다.
// 손절과 익절 경계는 포함 비교입니다.
func (t *Tracker) exitReason(pos domain.Position, price float64) string {
	long := pos.Side == domain.LongPosition

	if pos.StopLoss > 0 {
		if (long && price <= pos.StopLoss) || (!long && price >= pos.StopLoss) {
			return ReasonStopLoss
		}
	}
	if pos.TakeProfit > 0 {
		if (long && price >= pos.TakeProfit) || (!long && price <= pos.TakeProfit) {
			return ReasonTakeProfit
		}
	}
	if t.maxHold > 0 && pos.HoldDuration(t.now()) > t.maxHold {
		return ReasonTimeLimit
	}
	return ""
}

// closePosition은 포지션을 청산하고 기록을 남깁니다.
// 청산 실패는 이번 사이클에서 재시도하지 않으며 다음 사이클에 다시 평가됩니다.
func (t *Tracker) closePosition(ctx context.Context, tr trader.Trader, pos domain.Position, price float64, reason string) {
	result, err := tr.ClosePosition(ctx, pos.Ticker, 0)
	if err != nil {
		log.Printf("청산 실패: %s (%s): %v", pos.Ticker, reason, err)
		t.mu.Lock()
		t.stats.FailedCloses++
		t.mu.Unlock()
		return
	}

	pnl := pos.UnrealizedPnL()
	if result.FilledPrice > 0 {
		if pos.Side == domain.LongPosition {
			pnl = (result.FilledPrice - pos.EntryPrice) * pos.Size
		} else {
			pnl = (pos.EntryPrice - result.FilledPrice) * pos.Size
		}
	}

	alert := Alert{
		Ticker:     pos.Ticker,
		Reason:     reason,
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  result.FilledPrice,
		PnL:        pnl,
		Time:       t.now(),
	}

	t.mu.Lock()
	t.alerts = append(t.alerts, alert)
	t.stats.Closes++
	t.mu.Unlock()

	log.Printf("포지션 청산: %s (사유: %s, 손익: %.2f)", pos.Ticker, reason, pnl)

	if t.notifier != nil {
		info := notification.CloseInfo{
			Ticker:       pos.Ticker,
			PositionType: string(pos.Side),
			Reason:       reason,
			EntryPrice:   pos.EntryPrice,
			ExitPrice:    result.FilledPrice,
			PnL:          pnl,
		}
		if pos.EntryPrice > 0 && pos.Size > 0 {
			info.PnLPct = pnl / (pos.EntryPrice * pos.Size)
		}
		if err := t.notifier.SendPositionClosed(info); err != nil {
			log.Printf("청산 알림 전송 실패: %v", err)
		}
	}
}

func (t *Tracker) countError() {
	t.mu.Lock()
	t.stats.Errors++
	t.mu.Unlock()
}

// Alerts는 지금까지의 청산 기록을 반환합니다
func (t *Tracker) Alerts() []Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Alert, len(t.alerts))
	copy(out, t.alerts)
	return out
}

// Stats는 동작 집계를 반환합니다
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
