package engine

import (
	"sync"
	"time"
)

// tradeRecord는 체결된 거래 한 건의 기록입니다
type tradeRecord struct {
	Ticker   string
	Strategy string
	Time     time.Time
}

// TradeLog는 거래 빈도 제한 판정에 사용하는 인메모리 거래 기록입니다.
// 추가 전용이며 실행 엔진이 단독으로 소유합니다.
type TradeLog struct {
	mu      sync.Mutex
	records []tradeRecord
}

// NewTradeLog는 빈 거래 기록을 생성합니다
func NewTradeLog() *TradeLog {
	return &TradeLog{}
}

// Append는 체결된 거래를 기록합니다
func (l *TradeLog) Append(ticker, strategy string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, tradeRecord{Ticker: ticker, Strategy: strategy, Time: at})
}

// CountToday는 해당 전략으로 오늘(달력 기준) 체결된 거래 수를 반환합니다
func (l *TradeLog) CountToday(strategy string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	y, m, d := now.Date()
	count := 0
	for _, r := range l.records {
		if r.Strategy != strategy {
			continue
		}
		ry, rm, rd := r.Time.Date()
		if ry == y && rm == m && rd == d {
			count++
		}
	}
	return count
}

// LastTrade는 해당 종목의 마지막 거래 시간을 반환합니다
func (l *TradeLog) LastTrade(ticker string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Ticker == ticker {
			return l.records[i].Time, true
		}
	}
	return time.Time{}, false
}

// Len은 전체 기록 수를 반환합니다
func (l *TradeLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Reset은 모든 기록을 비웁니다
func (l *TradeLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}
