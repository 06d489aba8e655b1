package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPosition_UnrealizedPnL(t *testing.T) {
	tests := []struct {
		name    string
		side    PositionSide
		entry   float64
		current float64
		size    float64
		wantPnL float64
		wantPct float64
	}{
		{
			name:    "롱 포지션 이익",
			side:    LongPosition,
			entry:   100, current: 110, size: 5,
			wantPnL: 50, wantPct: 0.10,
		},
		{
			name:    "롱 포지션 손실",
			side:    LongPosition,
			entry:   100, current: 92, size: 5,
			wantPnL: -40, wantPct: -0.08,
		},
		{
			name:    "숏 포지션 이익",
			side:    ShortPosition,
			entry:   100, current: 90, size: 2,
			wantPnL: 20, wantPct: 0.10,
		},
		{
			name:    "숏 포지션 손실",
			side:    ShortPosition,
			entry:   100, current: 105, size: 2,
			wantPnL: -10, wantPct: -0.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Position{
				Ticker:       "BTC",
				Side:         tt.side,
				Size:         tt.size,
				EntryPrice:   tt.entry,
				CurrentPrice: tt.current,
			}

			assert.InDelta(t, tt.wantPnL, p.UnrealizedPnL(), 1e-9)
			assert.InDelta(t, tt.wantPct, p.UnrealizedPnLPct(), 1e-9)
			assert.InDelta(t, tt.size*tt.current, p.CurrentValue(), 1e-9)
		})
	}
}

func TestPosition_UpdatePrice(t *testing.T) {
	p := &Position{Ticker: "ETH", Side: LongPosition, Size: 1, EntryPrice: 3000, CurrentPrice: 3000}

	before := p.LastUpdated
	p.UpdatePrice(3100)

	assert.Equal(t, 3100.0, p.CurrentPrice)
	assert.True(t, p.LastUpdated.After(before))
}

func TestSignal_Score(t *testing.T) {
	s := Signal{Strength: 0.8, Confidence: 0.75}
	assert.InDelta(t, 0.6, s.Score(), 1e-9)
}

func TestNewNeutralSignal(t *testing.T) {
	agg := NewNeutralSignal("BTC", AssetCrypto)

	assert.Equal(t, SignalNeutral, agg.Type)
	assert.Equal(t, 0.0, agg.Strength)
	assert.Equal(t, 0.5, agg.Confidence)
	assert.Equal(t, 0.5, agg.FinalScore)
	assert.Empty(t, agg.Contributing)
}

func TestPosition_HoldDuration(t *testing.T) {
	opened := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Position{OpenedAt: opened}

	now := opened.Add(36 * time.Hour)
	assert.Equal(t, 36*time.Hour, p.HoldDuration(now))
}
