package msp

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/taoyao-code/msp-gateway/internal/state"
	"github.com/taoyao-code/msp-gateway/internal/telemetry"
)

// StatusHandler MSP 101 STATUS：payload[6] bit0 为解锁标志
type StatusHandler struct {
	Log *zap.Logger
}

// Handle 更新解锁标志；payload 不足 7 字节时跳过
func (h *StatusHandler) Handle(f *Frame, st *state.FlightState) error {
	if int(f.Size) <= 6 {
		return nil
	}
	armed := f.Payload[6]&0x01 != 0
	st.SetArmed(armed)
	if h.Log != nil {
		h.Log.Debug("status", zap.Bool("armed", armed))
	}
	return nil
}

// AttitudeHandler MSP 108 ATTITUDE：偏移 0/2/4 处三个小端 int16
type AttitudeHandler struct {
	Log *zap.Logger
}

// Handle 更新姿态；payload 不足 6 字节时跳过
func (h *AttitudeHandler) Handle(f *Frame, st *state.FlightState) error {
	if int(f.Size) < 6 {
		return nil
	}
	roll, _ := f.Int16LE(0)
	pitch, _ := f.Int16LE(2)
	heading, _ := f.Int16LE(4)
	st.SetAttitude(roll, pitch, heading)
	if h.Log != nil {
		h.Log.Debug("attitude",
			zap.Int16("roll", roll),
			zap.Int16("pitch", pitch),
			zap.Int16("heading", heading))
	}
	return nil
}

// FCVariantHandler MSP 102 FC_VARIANT：前 4 字节为飞控固件标识
type FCVariantHandler struct {
	Log *zap.Logger
}

// Handle 标识变化时才更新；payload 不足 4 字节时跳过
func (h *FCVariantHandler) Handle(f *Frame, st *state.FlightState) error {
	if int(f.Size) < 4 {
		return nil
	}
	variant := string(f.Payload[:4])
	if st.SetFCVariant(variant) && h.Log != nil {
		h.Log.Info("fc variant changed", zap.String("variant", variant))
	}
	return nil
}

// RCChannelsHandler MSP 105 RC：前 16 个小端 uint16 写入通道数组
type RCChannelsHandler struct {
	Log *zap.Logger
}

// rcMinPayload RC 帧至少携带 16 个通道
const rcMinPayload = 16 * 2

// Handle 覆盖通道快照；payload 不足 32 字节时跳过
func (h *RCChannelsHandler) Handle(f *Frame, st *state.FlightState) error {
	if int(f.Size) < rcMinPayload {
		return nil
	}
	ch := make([]uint16, 16)
	for i := range ch {
		v, _ := f.Uint16LE(i * 2)
		ch[i] = v
	}
	st.SetChannels(ch)
	if h.Log != nil {
		h.Log.Debug("rc channels", zap.Uint16s("channels", ch))
	}
	return nil
}

// RCLinkForwarder MSP 105 的第二个处理器：从固定通道位提取链路质量遥测，
// 拼成一行文本发往 alink。通道位含义是与发送端约定死的线上契约：
// channels[8] 链路质量；channels[10] 低 5 位丢包数；channels[11] 的 bit5-9 恢复包数。
// 输出格式：TIMESTAMP:LQ:LQ:RECOVERED:LOST:20:20:20:20（RSSI 四列为固定占位值）。
// 与 RCChannelsHandler 注册在同一命令下且排在其后，读取的是它刚写入的通道值。
type RCLinkForwarder struct {
	Sink    telemetry.Sink
	Log     *zap.Logger
	Limiter *rate.Limiter    // 可选：限制外发频率，nil 表示不限
	Now     func() time.Time // 仅测试替换
	OnSend  func(err error)  // 可选：发送结果回调（指标上报）
}

// NewRCLinkForwarder 创建转发器；ratePerSec <= 0 表示不限频
func NewRCLinkForwarder(sink telemetry.Sink, log *zap.Logger, ratePerSec int) *RCLinkForwarder {
	fw := &RCLinkForwarder{Sink: sink, Log: log, Now: time.Now}
	if ratePerSec > 0 {
		fw.Limiter = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	}
	return fw
}

// Handle 发送遥测行；发送失败记日志后忽略（fire-and-forget）
func (h *RCLinkForwarder) Handle(f *Frame, st *state.FlightState) error {
	if int(f.Size) < rcMinPayload || h.Sink == nil {
		return nil
	}
	if h.Limiter != nil && !h.Limiter.Allow() {
		return nil
	}
	linkQuality := st.Channel(8)
	lost := st.Channel(10) & 0x1F
	recovered := (st.Channel(11) >> 5) & 0x1F

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	line := fmt.Sprintf("%d:%d:%d:%d:%d:20:20:20:20\n",
		now().Unix(), linkQuality, linkQuality, recovered, lost)
	err := h.Sink.Send(line)
	if h.OnSend != nil {
		h.OnSend(err)
	}
	if err != nil && h.Log != nil {
		h.Log.Warn("telemetry send failed", zap.Error(err))
	}
	return nil
}

// RegisterDefaults 注册标准处理器集合。
// RC 链路转发器单独由调用方按配置追加（见 cmd/server）。
func RegisterDefaults(t *Table, log *zap.Logger) {
	t.Register(uint8(CmdStatus), &StatusHandler{Log: log})
	t.Register(uint8(CmdAttitude), &AttitudeHandler{Log: log})
	t.Register(uint8(CmdFCVariant), &FCVariantHandler{Log: log})
	t.Register(uint8(CmdRC), &RCChannelsHandler{Log: log})
}
