package notification

import "github.com/assist-by/aurora/internal/domain"

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendSignal은 융합 시그널 알림을 전송합니다
	SendSignal(sig domain.AggregatedSignal) error

	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendTradeInfo는 거래 실행 정보를 전송합니다
	SendTradeInfo(info TradeInfo) error

	// SendPositionClosed는 포지션 청산 알림을 전송합니다
	SendPositionClosed(info CloseInfo) error
}

// TradeInfo는 거래 실행 정보를 정의합니다
type TradeInfo struct {
	Ticker       string  // 종목 (예: BTC)
	PositionType string  // "LONG" or "SHORT"
	Strategy     string  // 사용한 전략 이름
	Size         float64 // 포지션 크기 (USD)
	Quantity     float64 // 체결 수량 (코인/주식)
	EntryPrice   float64 // 진입가
	StopLoss     float64 // 손절가
	TakeProfit   float64 // 익절가
	Balance      float64 // 체결 후 사용 가능 현금
}

// CloseInfo는 포지션 청산 정보를 정의합니다
type CloseInfo struct {
	Ticker       string
	PositionType string // "LONG" or "SHORT"
	Reason       string // stop_loss, take_profit, time_limit, signal
	EntryPrice   float64
	ExitPrice    float64
	PnL          float64
	PnLPct       float64
}

// GetColorForPosition은 포지션 타입에 따른 색상을 반환합니다
func GetColorForPosition(positionType string) int {
	switch positionType {
	case "LONG":
		return ColorSuccess
	case "SHORT":
		return ColorError
	default:
		return ColorInfo
	}
}

// GetColorForPnL은 손익 부호에 따른 색상을 반환합니다
func GetColorForPnL(pnl float64) int {
	if pnl >= 0 {
		return ColorSuccess
	}
	return ColorError
}
