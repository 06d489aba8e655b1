package domain

import "time"

// Order는 실행 엔진이 생성하고 트레이더가 한 번 소비하는 주문입니다
type Order struct {
	Ticker      string
	Side        OrderSide
	Size        float64 // 계좌 통화 기준 금액 (USD)
	Type        OrderType
	Price       float64 // LIMIT 주문에만 필요 (0이면 미지정)
	StopLoss    float64
	TakeProfit  float64
	TimeInForce string // GTC, IOC, FOK

	// 시그널/전략 연결 정보
	Strategy string
	SignalID int64
	Metadata map[string]interface{}
}

// OrderResult는 하나의 Order에 대한 트레이더의 실행 결과입니다
type OrderResult struct {
	Success     bool
	OrderID     string
	FilledSize  float64
	FilledPrice float64
	Status      OrderStatus
	Message     string
	Timestamp   time.Time
	Commission  float64
	Slippage    float64
}

// AccountInfo는 조회 시점마다 새로 계산되는 계좌 스냅샷입니다
type AccountInfo struct {
	TotalEquity    float64 // 총 권익
	AvailableCash  float64 // 사용 가능 현금
	UsedMargin     float64 // 사용 중인 증거금
	PositionsValue float64 // 보유 포지션 가치
	UnrealizedPnL  float64 // 미실현 손익
	Leverage       float64
}
