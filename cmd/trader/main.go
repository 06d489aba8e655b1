package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/assist-by/aurora/internal/config"
	"github.com/assist-by/aurora/internal/domain"
	"github.com/assist-by/aurora/internal/engine"
	"github.com/assist-by/aurora/internal/market"
	"github.com/assist-by/aurora/internal/notification/discord"
	"github.com/assist-by/aurora/internal/risk"
	"github.com/assist-by/aurora/internal/scheduler"
	"github.com/assist-by/aurora/internal/signal"
	"github.com/assist-by/aurora/internal/signal/sentiment"
	"github.com/assist-by/aurora/internal/snapshot"
	"github.com/assist-by/aurora/internal/strategy"
	"github.com/assist-by/aurora/internal/tracker"
	"github.com/assist-by/aurora/internal/trader/paper"
)

// PipelineTask는 감시 종목 전체에 대해 실행 파이프라인을 한 번씩 돌립니다
type PipelineTask struct {
	engine  *engine.Engine
	tickers []string
}

// Execute는 파이프라인 작업을 실행합니다
func (t *PipelineTask) Execute(ctx context.Context) error {
	for _, ticker := range t.tickers {
		t.engine.ProcessTicker(ctx, ticker, assetTypeFor(ticker))
	}
	return nil
}

// assetTypeFor는 종목의 자산 유형을 판별합니다
func assetTypeFor(ticker string) domain.AssetType {
	switch ticker {
	case "BTC", "ETH", "SOL", "DOGE", "ADA", "XRP", "AVAX", "DOT", "MATIC", "LINK":
		return domain.AssetCrypto
	default:
		return domain.AssetStock
	}
}

func main() {
	// 명령줄 플래그 정의
	jsonLogFlag := flag.Bool("jsonlog", false, "JSON 형식으로 로그 출력")
	dryRunFlag := flag.Bool("dryrun", false, "설정과 연결만 확인하고 종료")

	// 플래그 파싱
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 로그 설정
	if *jsonLogFlag {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.Println("트레이딩 봇 시작...")

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}

	// Discord 클라이언트 생성
	discordClient := discord.NewClient(
		cfg.Discord.SignalWebhook,
		cfg.Discord.TradeWebhook,
		cfg.Discord.ErrorWebhook,
		cfg.Discord.InfoWebhook,
		discord.WithTimeout(10*time.Second),
	)

	// 시작 알림 전송
	if err := discordClient.SendInfo("🚀 트레이딩 봇이 시작되었습니다."); err != nil {
		log.Printf("시작 알림 전송 실패: %v", err)
	}

	// 감성 스냅샷 저장소 연결
	store, err := snapshot.NewStore(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("스냅샷 저장소 연결 실패: %v", err)
	}

	// 감성 시그널 소스 생성
	sentimentSource := sentiment.NewSource(store)

	// 시그널 융합기 생성
	aggregator, err := signal.NewAggregator(signal.FusionPolicy(cfg.Fusion.Policy))
	if err != nil {
		log.Fatalf("융합기 생성 실패: %v", err)
	}
	aggregator.RegisterSource("sentiment", sentimentSource, cfg.Fusion.SentimentWeight)

	// 전략 카탈로그 생성
	catalog := strategy.DefaultCatalog()

	// 리스크 한도 설정
	limits := risk.Limits{
		MaxPositions:    cfg.Risk.MaxPositions,
		MaxRiskPerTrade: cfg.Risk.MaxRiskPerTrade,
		MaxLossPct:      cfg.Risk.MaxLossPct,
		MaxExposurePct:  cfg.Risk.MaxExposurePct,
		MinStopPct:      cfg.Risk.MinStopPct,
		MaxStopPct:      cfg.Risk.MaxStopPct,
		RiskRewardRatio: cfg.Risk.RiskRewardRatio,
		DailyLossLimit:  cfg.Risk.DailyLossLimit,
	}

	// 실시간 가격 스트림 (선택)
	var paperOpts []paper.Option
	paperOpts = append(paperOpts, paper.WithLeverage(float64(cfg.Trading.Leverage)))

	var priceStream *market.Stream
	if cfg.Trading.UsePriceStream {
		priceStream = market.NewStream(cfg.App.Tickers)
		priceStream.Start(ctx)
		paperOpts = append(paperOpts, paper.WithPriceSource(priceStream))
	}

	// 페이퍼 트레이더 생성
	paperTrader := paper.NewTrader("dydx", cfg.Trading.InitialBalance, paperOpts...)

	// 실행 엔진 생성
	eng := engine.NewEngine(aggregator, catalog, limits,
		engine.WithNotifier(discordClient),
		engine.WithTimeframe(cfg.App.Timeframe),
		engine.WithRoute(domain.AssetCrypto, "dydx"),
	)
	eng.RegisterTrader(paperTrader)

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("엔진 시작 실패: %v", err)
	}

	// 포지션 트래커 생성 및 시작
	positionTracker := tracker.NewTracker(
		tracker.WithInterval(cfg.Tracker.Interval),
		tracker.WithMaxHold(cfg.Tracker.MaxHold),
		tracker.WithNotifier(discordClient),
	)
	positionTracker.RegisterTrader(paperTrader)
	positionTracker.Start(ctx)

	// dry run 모드면 연결 확인 후 종료
	if *dryRunFlag {
		health := aggregator.GetHealth(ctx)
		log.Printf("소스 상태: %s", health.Overall)
		positionTracker.Stop()
		eng.Stop(ctx)
		if priceStream != nil {
			priceStream.Stop()
		}
		log.Println("dry run 완료, 프로그램을 종료합니다.")
		return
	}

	// 파이프라인 작업 생성
	task := &PipelineTask{
		engine:  eng,
		tickers: cfg.App.Tickers,
	}

	// 스케줄러 생성 (fetchInterval)
	sched := scheduler.NewScheduler(cfg.App.FetchInterval, task)

	// 시그널 처리
	sigChan := make(chan os.Signal, 1)
	osSignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 스케줄러 시작
	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("스케줄러 실행 중 에러 발생: %v", err)
			if err := discordClient.SendError(err); err != nil {
				log.Printf("에러 알림 전송 실패: %v", err)
			}
		}
	}()

	// 시그널 대기
	sig := <-sigChan
	log.Printf("시스템 종료 신호 수신: %v", sig)

	// 스케줄러 → 트래커 → 엔진 순서로 중지합니다
	sched.Stop()
	positionTracker.Stop()
	eng.Stop(ctx)
	if priceStream != nil {
		priceStream.Stop()
	}

	// 종료 알림 전송
	if err := discordClient.SendInfo(fmt.Sprintf("👋 트레이딩 봇이 정상적으로 종료되었습니다. (감시 종목: %d개)", len(cfg.App.Tickers))); err != nil {
		log.Printf("종료 알림 전송 실패: %v", err)
	}

	log.Println("프로그램을 종료합니다.")
}
