package signal

import (
	"context"

	"github.com/assist-by/aurora/internal/domain"
)

// Source는 모든 시그널 소스가 구현해야 하는 인터페이스입니다.
// 소스가 실패하더라도 다른 소스의 융합은 계속되어야 합니다.
type Source interface {
	// GetSignal은 지정된 종목과 시간 프레임에 대한 시그널을 생성합니다
	GetSignal(ctx context.Context, ticker, timeframe string) (domain.Signal, error)

	// Validate는 시그널 소스가 사용 가능한 상태인지 확인합니다
	Validate(ctx context.Context) bool

	// GetHealth는 소스의 건강 상태를 반환합니다
	GetHealth(ctx context.Context) domain.SourceHealth
}
