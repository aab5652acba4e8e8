package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/msp-gateway/internal/metrics"
	"github.com/taoyao-code/msp-gateway/internal/protocol/msp"
	"github.com/taoyao-code/msp-gateway/internal/source"
	"github.com/taoyao-code/msp-gateway/internal/state"
)

// FrameLogger 帧日志落库能力（可选协作方，nil 表示关闭）
type FrameLogger interface {
	InsertFrameLog(ctx context.Context, runID string, direction string, cmd int, size int, payload []byte) error
}

// SnapshotPublisher 快照实时发布能力（可选协作方，nil 表示关闭）
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap state.Snapshot) error
}

// Pump 解码主循环：单一流程从字节源取块、逐字节喂解析器，
// 每解出一帧立即同步跑完该命令的处理器链后才继续取字节。
// 帧按到达顺序处理，解码与分发之间没有并行。
type Pump struct {
	RunID   string
	Source  source.Source
	Parser  *msp.Parser
	Table   *msp.Table
	State   *state.FlightState
	Log     *zap.Logger
	Metrics *metrics.AppMetrics

	FrameLog  FrameLogger
	Publisher SnapshotPublisher

	ReadBufferSize int

	lastStats msp.Stats
}

// NewPump 组装解码循环；runID 进入所有日志与帧日志行
func NewPump(src source.Source, table *msp.Table, st *state.FlightState, log *zap.Logger, m *metrics.AppMetrics, readBuf int) *Pump {
	if readBuf <= 0 {
		readBuf = 1024
	}
	return &Pump{
		RunID:          uuid.New().String()[:8],
		Source:         src,
		Parser:         msp.NewParser(),
		Table:          table,
		State:          st,
		Log:            log,
		Metrics:        m,
		ReadBufferSize: readBuf,
	}
}

// Run 驱动读取-解码-分发，直到流结束或源故障。
// 流正常结束（io.EOF）返回 nil；源故障原样上抛，由进程层作为致命错误处理。
// 零长度读取表示暂无数据，继续等待。
func (p *Pump) Run(ctx context.Context) error {
	log := p.Log.With(zap.String("run", p.RunID))
	log.Info("pump started")
	buf := make([]byte, p.ReadBufferSize)
	for {
		select {
		case <-ctx.Done():
			log.Info("pump stopped", zap.Error(ctx.Err()))
			return nil
		default:
		}

		n, err := p.Source.Receive(buf)
		if n > 0 {
			if p.Metrics != nil {
				p.Metrics.SourceBytes.Add(float64(n))
			}
			for _, b := range buf[:n] {
				if f, ok := p.Parser.ProcessByte(b); ok {
					p.dispatch(ctx, f, log)
				}
			}
			p.syncParseStats()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Info("byte source ended", zap.Uint64("frames", p.Parser.Stats().Frames))
				return nil
			}
			return fmt.Errorf("byte source: %w", err)
		}
	}
}

// dispatch 一帧的完整处理：暂存、路由、落库、发布。
// 处理器错误记日志并继续（帧本身已验，不构成流故障）。
func (p *Pump) dispatch(ctx context.Context, f *msp.Frame, log *zap.Logger) {
	// 原始帧进入共享状态的外发暂存缓冲
	staged := make([]byte, 0, 3+len(f.Payload))
	staged = append(staged, byte(f.Direction), f.Cmd, f.Size)
	staged = append(staged, f.Payload...)
	p.State.StageFrame(staged)

	cmdLabel := strconv.Itoa(int(f.Cmd))
	handlers := p.Table.Handlers(f.Cmd)
	if len(handlers) == 0 {
		if p.Metrics != nil {
			p.Metrics.Unroutable.Inc()
		}
		log.Debug("unhandled command", zap.String("cmd", cmdLabel))
		return
	}
	if p.Metrics != nil {
		p.Metrics.RouteTotal.WithLabelValues(cmdLabel).Inc()
	}
	if err := p.Table.Route(f, p.State); err != nil {
		if p.Metrics != nil {
			p.Metrics.HandlerErrors.Inc()
		}
		log.Error("handler error",
			zap.String("cmd", f.Command().String()),
			zap.Uint8("rawCmd", f.Cmd),
			zap.Error(err))
	}

	if p.FrameLog != nil {
		if err := p.FrameLog.InsertFrameLog(ctx, p.RunID, f.Direction.String(), int(f.Cmd), int(f.Size), f.Payload); err != nil {
			log.Warn("frame log insert failed", zap.Error(err))
		}
	}
	if p.Publisher != nil {
		if err := p.Publisher.Publish(ctx, p.State.Snapshot()); err != nil {
			log.Warn("snapshot publish failed", zap.Error(err))
		} else if p.Metrics != nil {
			p.Metrics.SnapshotPub.Inc()
		}
	}
}

// syncParseStats 把解析器的累计计数增量同步到 Prometheus
func (p *Pump) syncParseStats() {
	if p.Metrics == nil {
		return
	}
	cur := p.Parser.Stats()
	add := func(label string, delta uint64) {
		if delta > 0 {
			p.Metrics.ParseTotal.WithLabelValues(label).Add(float64(delta))
		}
	}
	add("ok", cur.Frames-p.lastStats.Frames)
	add("checksum_error", cur.ChecksumErrs-p.lastStats.ChecksumErrs)
	add("oversize", cur.Oversize-p.lastStats.Oversize)
	add("resync", cur.Resyncs-p.lastStats.Resyncs)
	p.lastStats = cur
}
