package domain

import "time"

// Signal은 하나의 시그널 소스가 생성한 단일 종목에 대한 방향성 판단입니다.
// 생성 이후에는 수정되지 않습니다.
type Signal struct {
	Ticker     string                 // 종목 코드 (예: BTC, AAPL)
	AssetType  AssetType              // 자산 유형
	Type       SignalType             // 시그널 방향
	Strength   float64                // 시그널 강도 (0~1)
	Confidence float64                // 시그널 신뢰도 (0~1)
	Timeframe  string                 // 시간 프레임 (1h, 4h, 1d, swing)
	Source     string                 // 시그널 소스 이름
	Metadata   map[string]interface{} // 소스별 추가 정보
	Timestamp  time.Time              // 생성 시간
	Weight     float64                // 융합 시 사용할 가중치 (기본 1.0)
}

// Score는 종합 점수(강도 × 신뢰도)를 반환합니다
func (s Signal) Score() float64 {
	return s.Strength * s.Confidence
}

// AggregatedSignal은 여러 Signal을 융합한 최종 판단입니다.
// 융합 호출마다 한 번 생성되며 이후 읽기 전용입니다.
type AggregatedSignal struct {
	Ticker       string
	AssetType    AssetType
	Type         SignalType
	Strength     float64
	Confidence   float64
	Timeframe    string
	Contributing []Signal // 융합에 기여한 시그널 (등록 순서)
	FinalScore   float64  // 0~1
	Timestamp    time.Time
}

// NewNeutralSignal은 사용할 수 있는 시그널이 없을 때 반환하는 표준 중립 시그널을 생성합니다
func NewNeutralSignal(ticker string, assetType AssetType) AggregatedSignal {
	return AggregatedSignal{
		Ticker:     ticker,
		AssetType:  assetType,
		Type:       SignalNeutral,
		Strength:   0.0,
		Confidence: 0.5,
		FinalScore: 0.5,
		Timestamp:  time.Now(),
	}
}

// SourceNames는 기여 시그널들의 소스 이름 목록을 반환합니다
func (a AggregatedSignal) SourceNames() []string {
	names := make([]string, 0, len(a.Contributing))
	for _, s := range a.Contributing {
		names = append(names, s.Source)
	}
	return names
}

// SourceHealth는 시그널 소스의 건강 상태 정보를 담습니다
type SourceHealth struct {
	Status     HealthStatus
	LastUpdate time.Time
	ErrorCount int
	Details    string
}
