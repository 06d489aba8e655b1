// Package market는 바이낸스 선물 웹소켓에서 실시간 가격을 수신해
// 가격 북을 유지합니다.
package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bitly/go-simplejson"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	defaultStreamURL = "wss://fstream.binance.com/stream"
	maxBackoff       = 30 * time.Second
)

// Stream은 miniTicker 스트림을 구독해 종목별 최신 가격을 유지합니다
type Stream struct {
	url     string
	tickers []string

	mu     sync.RWMutex
	prices map[string]float64 // 심볼 -> 최신 종가

	cancel context.CancelFunc
	done   chan struct{}
}

// StreamOption은 스트림 생성 옵션을 정의합니다
type StreamOption func(*Stream)

// WithStreamURL은 웹소켓 기본 URL을 설정합니다
func WithStreamURL(url string) StreamOption {
	return func(s *Stream) {
		s.url = url
	}
}

// NewStream은 감시할 종목 목록으로 가격 스트림을 생성합니다
func NewStream(tickers []string, opts ...StreamOption) *Stream {
	s := &Stream{
		url:     defaultStreamURL,
		tickers: tickers,
		prices:  make(map[string]float64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// symbolFor는 종목 코드를 바이낸스 선물 심볼로 변환합니다
func symbolFor(ticker string) string {
	return strings.ToUpper(ticker) + "USDT"
}

// streamURL은 구독할 결합 스트림 URL을 생성합니다
func (s *Stream) streamURL() string {
	streams := make([]string, 0, len(s.tickers))
	for _, ticker := range s.tickers {
		streams = append(streams, strings.ToLower(symbolFor(ticker))+"@miniTicker")
	}
	return fmt.Sprintf("%s?streams=%s", s.url, strings.Join(streams, "/"))
}

// Start는 백그라운드에서 가격 수신을 시작합니다.
// 연결이 끊어지면 백오프를 두고 재연결합니다.
func (s *Stream) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		backoff := time.Second
		for {
			if ctx.Err() != nil {
				return
			}

			if err := s.run(ctx); err != nil {
				log.Printf("가격 스트림 연결 끊김: %v (%.0fs 후 재연결)", err, backoff.Seconds())
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}()
}

// run은 한 번의 연결 수명 동안 메시지를 수신합니다
func (s *Stream) run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.streamURL(), nil)
	if err != nil {
		return fmt.Errorf("웹소켓 연결 실패: %w", err)
	}
	defer conn.Close()

	log.Printf("가격 스트림 연결 완료 (종목: %d개)", len(s.tickers))

	// ctx 취소 시 읽기를 깨우기 위해 연결을 닫습니다
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("메시지 수신 실패: %w", err)
		}
		s.handleMessage(message)
	}
}

// handleMessage는 miniTicker 페이로드를 파싱해 가격 북을 갱신합니다
func (s *Stream) handleMessage(message []byte) {
	j, err := simplejson.NewJson(message)
	if err != nil {
		log.Printf("페이로드 파싱 실패: %v", err)
		return
	}

	data := j.Get("data")
	symbol, err := data.Get("s").String()
	if err != nil {
		return
	}
	closeStr, err := data.Get("c").String()
	if err != nil {
		return
	}
	price, err := strconv.ParseFloat(closeStr, 64)
	if err != nil || price <= 0 {
		return
	}

	s.mu.Lock()
	s.prices[symbol] = price
	s.mu.Unlock()
}

// Price는 종목의 최신 가격을 반환합니다.
// 아직 수신된 가격이 없으면 두 번째 반환값이 false입니다.
func (s *Stream) Price(ticker string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[symbolFor(ticker)]
	return price, ok
}

// Stop은 스트림을 중지하고 수신 고루틴이 끝날 때까지 기다립니다
func (s *Stream) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	log.Printf("가격 스트림 중지 완료")
}
