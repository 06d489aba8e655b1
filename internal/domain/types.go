package domain

// SignalType은 트레이딩 시그널 유형을 정의합니다
type SignalType string

const (
	SignalBuy     SignalType = "BUY"
	SignalSell    SignalType = "SELL"
	SignalNeutral SignalType = "NEUTRAL"
	SignalClose   SignalType = "CLOSE"
)

// IsActionable은 시그널이 실제 주문으로 이어질 수 있는 방향인지 확인합니다
func (s SignalType) IsActionable() bool {
	return s == SignalBuy || s == SignalSell
}

// ToOrderSide는 시그널 방향을 주문 방향으로 변환합니다
func (s SignalType) ToOrderSide() OrderSide {
	if s == SignalSell {
		return Sell
	}
	return Buy
}

// AssetType은 자산 유형을 정의합니다
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
	AssetOption AssetType = "option"
)

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market     OrderType = "MARKET"
	Limit      OrderType = "LIMIT"
	StopLoss   OrderType = "STOP_LOSS"
	TakeProfit OrderType = "TAKE_PROFIT"
)

// OrderStatus는 주문 상태를 정의합니다
type OrderStatus string

const (
	OrderPending         OrderStatus = "PENDING"
	OrderFilled          OrderStatus = "FILLED"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderCancelled       OrderStatus = "CANCELLED"
	OrderRejected        OrderStatus = "REJECTED"
	OrderExpired         OrderStatus = "EXPIRED"
)

// PositionSide는 포지션 방향을 정의합니다
type PositionSide string

const (
	LongPosition  PositionSide = "LONG"
	ShortPosition PositionSide = "SHORT"
)

// HealthStatus는 시그널 소스의 상태를 정의합니다
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthDown     HealthStatus = "down"
)
