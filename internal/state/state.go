package state

import "sync"

// 状态聚合的容量常量：数组尺寸由此界定，处理器在解码时按此校验
const (
	// ChannelCount RC 通道数量
	ChannelCount = 18
	// FrameBufferSize 外发暂存缓冲容量
	FrameBufferSize = 1024
)

// FlightState 飞控数据快照。
// 生命周期：启动时创建一次，仅由分发流程内的处理器修改，进程退出时销毁。
// 写入方只有单一的解码分发流程；锁只为 HTTP 快照读取这一并发读者存在，
// 这是整个系统唯一需要的同步点。
type FlightState struct {
	mu sync.RWMutex

	armed      bool
	roll       int16
	pitch      int16
	heading    int16
	channels   [ChannelCount]uint16
	fcVariant  string // 飞控固件标识，<=4 可打印字符
	frameBuf   [FrameBufferSize]byte
	fbCursor   int
	frameFlush int // 暂存缓冲被冲刷的次数
}

// New 创建空白状态
func New() *FlightState {
	return &FlightState{}
}

// SetArmed 更新解锁标志
func (s *FlightState) SetArmed(v bool) {
	s.mu.Lock()
	s.armed = v
	s.mu.Unlock()
}

// Armed 当前解锁标志
func (s *FlightState) Armed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.armed
}

// SetAttitude 更新姿态（roll/pitch/heading）
func (s *FlightState) SetAttitude(roll, pitch, heading int16) {
	s.mu.Lock()
	s.roll, s.pitch, s.heading = roll, pitch, heading
	s.mu.Unlock()
}

// Attitude 当前姿态
func (s *FlightState) Attitude() (roll, pitch, heading int16) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roll, s.pitch, s.heading
}

// SetChannels 覆盖前 n 个 RC 通道
func (s *FlightState) SetChannels(ch []uint16) {
	s.mu.Lock()
	copy(s.channels[:], ch)
	s.mu.Unlock()
}

// Channel 读取单个通道值（越界返回 0）
func (s *FlightState) Channel(i int) uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.channels) {
		return 0
	}
	return s.channels[i]
}

// SetFCVariant 更新飞控标识；值未变化时返回 false
func (s *FlightState) SetFCVariant(v string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fcVariant == v {
		return false
	}
	s.fcVariant = v
	return true
}

// FCVariant 当前飞控标识
func (s *FlightState) FCVariant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fcVariant
}

// StageFrame 把一帧原始数据追加到外发暂存缓冲；放不下时先冲刷再写入
func (s *FlightState) StageFrame(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(data) > len(s.frameBuf) {
		return
	}
	if s.fbCursor+len(data) > len(s.frameBuf) {
		s.fbCursor = 0
		s.frameFlush++
	}
	copy(s.frameBuf[s.fbCursor:], data)
	s.fbCursor += len(data)
}

// FlushFrameBuffer 清空暂存缓冲，返回被丢弃的字节数
func (s *FlightState) FlushFrameBuffer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.fbCursor
	s.fbCursor = 0
	s.frameFlush++
	return n
}

// Snapshot 状态的只读副本，供 HTTP API 与外部发布使用
type Snapshot struct {
	Armed     bool                 `json:"armed"`
	Roll      int16                `json:"roll"`
	Pitch     int16                `json:"pitch"`
	Heading   int16                `json:"heading"`
	Channels  [ChannelCount]uint16 `json:"channels"`
	FCVariant string               `json:"fcVariant"`
	Staged    int                  `json:"stagedBytes"`
}

// Snapshot 拷贝当前状态
func (s *FlightState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Armed:     s.armed,
		Roll:      s.roll,
		Pitch:     s.pitch,
		Heading:   s.heading,
		Channels:  s.channels,
		FCVariant: s.fcVariant,
		Staged:    s.fbCursor,
	}
}
