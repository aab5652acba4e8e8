package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/msp-gateway/internal/config"
	"github.com/taoyao-code/msp-gateway/internal/gateway"
	"github.com/taoyao-code/msp-gateway/internal/httpserver"
	"github.com/taoyao-code/msp-gateway/internal/logging"
	"github.com/taoyao-code/msp-gateway/internal/metrics"
	"github.com/taoyao-code/msp-gateway/internal/migrate"
	"github.com/taoyao-code/msp-gateway/internal/protocol/msp"
	"github.com/taoyao-code/msp-gateway/internal/source"
	"github.com/taoyao-code/msp-gateway/internal/state"
	"github.com/taoyao-code/msp-gateway/internal/storage/gormrepo"
	"github.com/taoyao-code/msp-gateway/internal/storage/pg"
	redisstore "github.com/taoyao-code/msp-gateway/internal/storage/redis"
	"github.com/taoyao-code/msp-gateway/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "config file path")
	flag.Parse()

	// 1) 加载配置（资源建立失败为致命错误，不进入解码循环）
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	// 3) 指标
	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)
	metricsHandler := metrics.Handler(reg)

	// 4) 共享状态与路由表
	st := state.New()
	table := msp.NewTable()
	msp.RegisterDefaults(table, log)

	// 5) 遥测外发（RC 链路转发器作为 MSP_RC 的第二个处理器追加）
	var sink telemetry.Sink = telemetry.NopSink{}
	if cfg.Telemetry.Enable {
		udpSink, err := telemetry.NewUDPSink(cfg.Telemetry.Addr)
		if err != nil {
			log.Fatal("telemetry sink setup failed", zap.Error(err))
		}
		defer udpSink.Close()
		sink = udpSink

		fw := msp.NewRCLinkForwarder(sink, log, cfg.Telemetry.RatePerSec)
		fw.OnSend = func(err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			appm.TelemetrySends.WithLabelValues(result).Inc()
		}
		table.Register(uint8(msp.CmdRC), fw)
	}

	// 6) 字节源
	src, err := source.New(cfg.Source)
	if err != nil {
		log.Fatal("byte source setup failed", zap.Error(err))
	}

	pump := gateway.NewPump(src, table, st, log, appm, cfg.Source.ReadBufferSize)

	// 7) 可选落库：帧日志（pgx）+ 快照历史（gorm）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Database.Enable {
		pool, err := pg.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, log)
		if err != nil {
			log.Fatal("postgres setup failed", zap.Error(err))
		}
		if err := (migrate.Runner{Dir: "migrations"}).Up(ctx, pool); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
		repo := pg.NewRepo(pool)
		defer repo.Close()
		pump.FrameLog = repo

		snapRepo, err := gormrepo.New(cfg.Database.DSN)
		if err != nil {
			log.Fatal("snapshot store setup failed", zap.Error(err))
		}
		defer snapRepo.Close()
		go recordSnapshots(ctx, snapRepo, st, pump.RunID, cfg.Database.SnapshotInterval, log)
	}

	// 8) 可选 Redis 实时发布
	if cfg.Redis.Enable {
		rdb, err := redisstore.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal("redis setup failed", zap.Error(err))
		}
		defer rdb.Close()
		pump.Publisher = redisstore.NewSnapshotPublisher(rdb, cfg.Redis.Channel)
	}

	// 9) HTTP 服务（健康检查/指标/状态快照）
	var mh = metricsHandler
	if !cfg.Metrics.Enable {
		mh = nil
	}
	httpSrv := httpserver.New(cfg.HTTP, cfg.Metrics.Path, mh, st, func() bool { return true })
	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()

	// 10) 解码主循环
	pumpErr := make(chan error, 1)
	go func() { pumpErr <- pump.Run(ctx) }()

	// 信号处理，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-sigCh:
		log.Info("signal received, shutting down")
		cancel()
		_ = src.Close() // 解除阻塞中的读取
		<-pumpErr
	case err := <-pumpErr:
		if err != nil {
			// 源故障：记诊断并以非零码退出
			log.Error("pump failed", zap.Error(err))
			exitCode = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = src.Close()
	if exitCode != 0 {
		logger.Sync()
		os.Exit(exitCode)
	}
}

// recordSnapshots 周期性把状态快照写入历史表
func recordSnapshots(ctx context.Context, repo *gormrepo.Repository, st *state.FlightState, runID string, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := repo.SaveSnapshot(ctx, runID, st.Snapshot()); err != nil {
				log.Warn("snapshot save failed", zap.Error(err))
			}
		}
	}
}
