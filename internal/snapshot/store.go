package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Snapshot은 데이터 수집 파이프라인이 기록한 종목별 감성 스냅샷입니다.
// 수집 자체는 이 저장소의 책임이 아니며 여기서는 읽기만 합니다.
type Snapshot struct {
	ID                 uint      `gorm:"primaryKey"`
	Ticker             string    `gorm:"column:ticker;index:idx_ticker_time"`
	CombinedSentiment  float64   `gorm:"column:combined_sentiment"`
	TotalMentions      int       `gorm:"column:total_mentions"`
	RedditSentiment    float64   `gorm:"column:reddit_sentiment"`
	RedditMentions     int       `gorm:"column:reddit_mentions"`
	UnusualFlow        float64   `gorm:"column:unusual_flow"`
	TrendsInterest     float64   `gorm:"column:trends_interest"`
	SentimentChange24h float64   `gorm:"column:sentiment_change_24h"`
	MentionSpike       bool      `gorm:"column:mention_spike"`
	SnapshotTime       time.Time `gorm:"column:snapshot_time;index:idx_ticker_time"`
}

// TableName은 스냅샷 테이블 이름을 지정합니다
func (Snapshot) TableName() string {
	return "sentiment_snapshots"
}

// Freshness는 저장소의 데이터 신선도 요약입니다
type Freshness struct {
	LastUpdate  time.Time
	RecentCount int64 // 최근 조회 구간 안에 기록된 스냅샷 수
}

// Store는 PostgreSQL 기반 스냅샷 저장소입니다
type Store struct {
	db *gorm.DB
}

// NewStore는 주어진 DSN으로 스냅샷 저장소를 엽니다
func NewStore(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("스냅샷 DB 연결 실패: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB는 이미 열린 gorm DB로 저장소를 생성합니다 (테스트용)
func NewStoreWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Latest는 종목의 가장 최근 스냅샷을 반환합니다.
// maxAge보다 오래된 데이터만 있으면 (nil, nil)을 반환합니다.
func (s *Store) Latest(ctx context.Context, ticker string, maxAge time.Duration) (*Snapshot, error) {
	cutoff := time.Now().Add(-maxAge)

	var snap Snapshot
	err := s.db.WithContext(ctx).
		Where("ticker = ? AND snapshot_time > ?", ticker, cutoff).
		Order("snapshot_time DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("스냅샷 조회 실패 (%s): %w", ticker, err)
	}
	return &snap, nil
}

// Freshness는 최근 window 구간의 스냅샷 수와 마지막 갱신 시간을 반환합니다
func (s *Store) Freshness(ctx context.Context, window time.Duration) (Freshness, error) {
	cutoff := time.Now().Add(-window)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Snapshot{}).
		Where("snapshot_time > ?", cutoff).
		Count(&count).Error; err != nil {
		return Freshness{}, fmt.Errorf("스냅샷 개수 조회 실패: %w", err)
	}

	var last Snapshot
	err := s.db.WithContext(ctx).
		Order("snapshot_time DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Freshness{RecentCount: count}, nil
	}
	if err != nil {
		return Freshness{}, fmt.Errorf("최근 스냅샷 조회 실패: %w", err)
	}

	return Freshness{LastUpdate: last.SnapshotTime, RecentCount: count}, nil
}
