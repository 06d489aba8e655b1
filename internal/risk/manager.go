package risk

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/assist-by/aurora/internal/domain"
	"github.com/assist-by/aurora/internal/strategy"
)

// AccountSummary는 리스크 판정에 필요한 계좌 상태 스냅샷입니다
type AccountSummary struct {
	Equity         float64  // 총 자산 (현금 + 포지션 평가액)
	Cash           float64  // 사용 가능 현금
	PositionsValue float64  // 보유 포지션 평가액 합계
	OpenPositions  int      // 보유 포지션 수
	HeldTickers    []string // 보유 중인 종목
	DailyPnL       float64  // 당일 실현 손익
}

// Holds는 해당 종목을 이미 보유 중인지 확인합니다
func (a AccountSummary) Holds(ticker string) bool {
	for _, t := range a.HeldTickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// AccountProvider는 계좌 상태를 조회하는 인터페이스입니다
type AccountProvider interface {
	AccountSummary(ctx context.Context) (AccountSummary, error)
}

// Limits는 리스크 한도 설정입니다
type Limits struct {
	MaxPositions    int     // 동시 보유 포지션 수 한도
	MaxRiskPerTrade float64 // 거래당 최대 허용 손실 금액
	MaxLossPct      float64 // 포지션당 최대 손실 비율 (리스크 금액 계산용)
	MaxExposurePct  float64 // 총 자산 대비 최대 노출 비율
	MinStopPct      float64 // 손절 거리 하한
	MaxStopPct      float64 // 손절 거리 상한
	RiskRewardRatio float64 // 익절 거리 = 손절 거리 x 비율
	DailyLossLimit  float64 // 당일 실현 손실 한도
}

// DefaultLimits는 기본 리스크 한도를 반환합니다
func DefaultLimits() Limits {
	return Limits{
		MaxPositions:    4,
		MaxRiskPerTrade: 500,
		MaxLossPct:      0.10,
		MaxExposurePct:  0.50,
		MinStopPct:      0.05,
		MaxStopPct:      0.12,
		RiskRewardRatio: 3.0,
		DailyLossLimit:  1000,
	}
}

// Check는 단일 거래에 대한 리스크 판정 결과입니다
type Check struct {
	Approved   bool
	Reason     string  // 거부 시 거부 사유
	Size       float64 // 승인된 포지션 크기 (금액)
	RiskAmount float64 // 손절 시 예상 손실 금액
	StopLoss   float64 // 손절 가격
	TakeProfit float64 // 익절 가격
}

// Manager는 모든 주문이 거쳐야 하는 사전 리스크 게이트입니다
type Manager struct {
	account AccountProvider
	limits  Limits
}

// NewManager는 리스크 매니저를 생성합니다
func NewManager(account AccountProvider, limits Limits) *Manager {
	return &Manager{
		account: account,
		limits:  limits,
	}
}

// PositionSize는 전략의 크기 산정 방식에 따라 포지션 크기를 계산합니다
func PositionSize(strat strategy.TradingStrategy, sig domain.AggregatedSignal) float64 {
	switch strat.Sizing {
	case strategy.SizingKelly:
		return strat.BasePositionSize * sig.Confidence * sig.Strength
	case strategy.SizingKellyConservative:
		return strat.BasePositionSize * sig.Confidence * sig.Strength * 0.25
	default:
		return strat.BasePositionSize
	}
}

// stopPct는 시그널 강도에 따라 손절 거리를 계산합니다.
// 강한 시그널일수록 확신이 크므로 손절을 좁게 잡습니다.
func (m *Manager) stopPct(strength float64) float64 {
	pct := m.limits.MinStopPct + (m.limits.MaxStopPct-m.limits.MinStopPct)*(1-strength)
	if pct < m.limits.MinStopPct {
		pct = m.limits.MinStopPct
	}
	if pct > m.limits.MaxStopPct {
		pct = m.limits.MaxStopPct
	}
	return pct
}

// Evaluate는 거래 후보를 순서대로 검사해 승인 여부와 손절/익절 가격을 반환합니다.
// 현재가를 알 수 없으면(price <= 0) 거래를 거부합니다.
func (m *Manager) Evaluate(ctx context.Context, sig domain.AggregatedSignal, strat strategy.TradingStrategy, price float64) (Check, error) {
	account, err := m.account.AccountSummary(ctx)
	if err != nil {
		return Check{}, fmt.Errorf("계좌 조회 실패: %w", err)
	}

	size := PositionSize(strat, sig)
	riskAmount := size * m.limits.MaxLossPct

	reject := func(reason string) Check {
		log.Printf("리스크 거부: %s (종목: %s, 크기: %.2f)", reason, sig.Ticker, size)
		return Check{Approved: false, Reason: reason, Size: size, RiskAmount: riskAmount}
	}

	// 검사 순서는 고정입니다. 가장 먼저 걸린 사유가 거부 사유가 됩니다.
	if account.Cash < size {
		return reject(fmt.Sprintf("현금 부족: %.2f < %.2f", account.Cash, size)), nil
	}
	if account.OpenPositions >= m.limits.MaxPositions {
		return reject(fmt.Sprintf("포지션 수 한도 초과: %d >= %d", account.OpenPositions, m.limits.MaxPositions)), nil
	}
	if riskAmount > m.limits.MaxRiskPerTrade {
		return reject(fmt.Sprintf("거래당 리스크 초과: %.2f > %.2f", riskAmount, m.limits.MaxRiskPerTrade)), nil
	}
	if account.PositionsValue+size > account.Equity*m.limits.MaxExposurePct {
		return reject(fmt.Sprintf("노출 한도 초과: %.2f > %.2f", account.PositionsValue+size, account.Equity*m.limits.MaxExposurePct)), nil
	}
	if account.Holds(sig.Ticker) {
		return reject(fmt.Sprintf("이미 보유 중인 종목: %s", sig.Ticker)), nil
	}
	if account.DailyPnL < -m.limits.DailyLossLimit {
		return reject(fmt.Sprintf("당일 손실 한도 도달: %.2f", account.DailyPnL)), nil
	}

	if price <= 0 {
		return reject("현재가를 알 수 없음"), nil
	}

	pct := m.stopPct(sig.Strength)
	var stopLoss, takeProfit float64
	switch sig.Type {
	case domain.SignalSell:
		stopLoss = price * (1 + pct)
		takeProfit = price * (1 - pct*m.limits.RiskRewardRatio)
	default:
		stopLoss = price * (1 - pct)
		takeProfit = price * (1 + pct*m.limits.RiskRewardRatio)
	}

	return Check{
		Approved:   true,
		Size:       size,
		RiskAmount: riskAmount,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}, nil
}
