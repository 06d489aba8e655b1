package domain

import "time"

// Position은 하나의 거래소에 열려 있는 포지션입니다.
// 트레이더가 소유하며, 가격 갱신 외에는 수정되지 않습니다.
type Position struct {
	Ticker       string
	Side         PositionSide
	Size         float64 // 보유 수량 (코인/주식 개수)
	EntryPrice   float64
	CurrentPrice float64
	StopLoss     float64 // 0이면 미설정
	TakeProfit   float64 // 0이면 미설정
	OpenedAt     time.Time
	LastUpdated  time.Time
	PositionID   string
	SignalID     int64
	Strategy     string
}

// CurrentValue는 현재 포지션 가치를 반환합니다
func (p *Position) CurrentValue() float64 {
	return p.Size * p.CurrentPrice
}

// UnrealizedPnL은 미실현 손익을 반환합니다
func (p *Position) UnrealizedPnL() float64 {
	if p.Side == LongPosition {
		return (p.CurrentPrice - p.EntryPrice) * p.Size
	}
	return (p.EntryPrice - p.CurrentPrice) * p.Size
}

// UnrealizedPnLPct는 미실현 손익률을 반환합니다
func (p *Position) UnrealizedPnLPct() float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	if p.Side == LongPosition {
		return (p.CurrentPrice - p.EntryPrice) / p.EntryPrice
	}
	return (p.EntryPrice - p.CurrentPrice) / p.EntryPrice
}

// UpdatePrice는 현재 가격을 갱신합니다
func (p *Position) UpdatePrice(price float64) {
	p.CurrentPrice = price
	p.LastUpdated = time.Now()
}

// HoldDuration은 포지션 보유 시간을 반환합니다
func (p *Position) HoldDuration(now time.Time) time.Duration {
	return now.Sub(p.OpenedAt)
}
