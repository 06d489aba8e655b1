package trader

import (
	"context"
	"errors"
	"fmt"

	"github.com/assist-by/aurora/internal/domain"
)

// Trader는 거래 플랫폼 연동이 구현해야 하는 계약입니다.
// 실행 엔진과 포지션 트래커는 이 인터페이스만 바라봅니다.
type Trader interface {
	// Connect는 플랫폼에 연결합니다. 실패하면 해당 플랫폼은 사용할 수 없습니다.
	Connect(ctx context.Context) error
	// Disconnect는 연결을 해제합니다
	Disconnect(ctx context.Context) error

	// PlaceOrder는 주문을 제출하고 체결 결과를 반환합니다
	PlaceOrder(ctx context.Context, order domain.Order) (domain.OrderResult, error)
	// CancelOrder는 미체결 주문을 취소합니다
	CancelOrder(ctx context.Context, orderID string) error
	// GetOrderStatus는 주문 상태를 조회합니다
	GetOrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error)

	// GetPosition은 종목의 보유 포지션을 조회합니다. 없으면 ErrPositionNotFound를 반환합니다.
	GetPosition(ctx context.Context, ticker string) (domain.Position, error)
	// GetAllPositions는 모든 보유 포지션을 반환합니다
	GetAllPositions(ctx context.Context) ([]domain.Position, error)
	// ClosePosition은 포지션을 청산합니다. size가 0이면 전량 청산합니다.
	ClosePosition(ctx context.Context, ticker string, size float64) (domain.OrderResult, error)

	// GetAccountInfo는 계좌 요약을 반환합니다
	GetAccountInfo(ctx context.Context) (domain.AccountInfo, error)
	// GetCurrentPrice는 현재가를 반환합니다. 가격을 알 수 없으면 0을 반환합니다.
	GetCurrentPrice(ctx context.Context, ticker string) (float64, error)

	// Platform은 플랫폼 식별자를 반환합니다
	Platform() string
}

var (
	// ErrNotConnected는 연결되지 않은 상태에서 주문/조회를 시도할 때 반환됩니다
	ErrNotConnected = errors.New("플랫폼에 연결되어 있지 않음")
	// ErrPositionNotFound는 조회한 포지션이 없을 때 반환됩니다
	ErrPositionNotFound = errors.New("포지션을 찾을 수 없음")
	// ErrOrderNotFound는 조회한 주문이 없을 때 반환됩니다
	ErrOrderNotFound = errors.New("주문을 찾을 수 없음")
	// ErrInvalidOrder는 주문 유효성 검사 실패 시 반환됩니다
	ErrInvalidOrder = errors.New("유효하지 않은 주문")
	// ErrInsufficientFunds는 증거금 부족 시 반환됩니다
	ErrInsufficientFunds = errors.New("증거금 부족")
)

// Error는 플랫폼 작업 실패를 나타냅니다
type Error struct {
	Op       string // 실패한 작업 이름
	Platform string
	Ticker   string
	Err      error
}

func (e *Error) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("%s: %s [%s]: %v", e.Platform, e.Op, e.Ticker, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidateOrder는 주문을 제출하기 전 기본 유효성을 검사합니다
func ValidateOrder(order domain.Order) error {
	if order.Ticker == "" {
		return fmt.Errorf("%w: 종목이 비어 있음", ErrInvalidOrder)
	}
	if order.Size <= 0 {
		return fmt.Errorf("%w: 주문 크기는 0보다 커야 함 (크기: %.4f)", ErrInvalidOrder, order.Size)
	}
	if order.Type == domain.Limit && order.Price <= 0 {
		return fmt.Errorf("%w: 지정가 주문에는 가격이 필요함", ErrInvalidOrder)
	}
	return nil
}
