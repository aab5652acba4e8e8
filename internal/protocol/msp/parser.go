package msp

// parserState 解析器状态（严格线性推进，任何偏差回到 stateIdle）
type parserState uint8

const (
	stateIdle parserState = iota
	stateVersion
	stateDirection
	stateSize
	stateCmd
	statePayload
	stateChecksum
)

// Stats 解析器累计计数，供指标层读取。
// 噪声不作为错误上抛：坏字节/坏校验只体现在计数里。
type Stats struct {
	Frames       uint64 // 成功发出的帧
	ChecksumErrs uint64 // checksum 不匹配
	Oversize     uint64 // len 超过 MaxPayloadSize
	Resyncs      uint64 // 帧中途失步（标志字节/方向字节非法）
}

// Parser MSP 字节级流式解析器。
// 逐字节重建帧，校验通过才发出；任何畸形输入静默复位重新找同步，
// 不向调用方暴露可恢复错误（面向有噪声的串口/UDP 链路）。
// 非并发安全：约定单一读取流程喂入。
type Parser struct {
	state  parserState
	frame  Frame
	buf    [MaxPayloadSize]byte
	cursor int
	stats  Stats
}

// NewParser 创建解析器（初始为找同步状态）
func NewParser() *Parser {
	return &Parser{}
}

// reset 回到找同步状态，丢弃半成品帧
func (p *Parser) reset() {
	p.state = stateIdle
	p.frame = Frame{}
	p.cursor = 0
}

// ProcessByte 处理一个输入字节。
// 当该字节恰好补全一条校验通过的帧时返回 (frame, true)，否则 (nil, false)。
func (p *Parser) ProcessByte(b byte) (*Frame, bool) {
	switch p.state {
	case stateIdle:
		// 空闲态逐字节丢弃，直到出现起始标志
		if b == HeaderStart {
			p.state = stateVersion
		}

	case stateVersion:
		if b == HeaderVersion {
			p.state = stateDirection
		} else {
			// 不合规的字节直接丢弃，不回退重判为新的起始标志
			p.reset()
		}

	case stateDirection:
		switch b {
		case DirOutbound:
			p.frame.Direction = Outbound
		case DirInbound:
			p.frame.Direction = Inbound
		default:
			p.stats.Resyncs++
			p.reset()
			return nil, false
		}
		p.state = stateSize

	case stateSize:
		p.frame.Size = b
		p.frame.Checksum = b // checksum 从 len 字段开始累积
		p.cursor = 0
		if int(p.frame.Size) > MaxPayloadSize {
			// 超容量的帧在消费任何 payload 字节前放弃
			p.stats.Oversize++
			p.reset()
		} else {
			p.state = stateCmd
		}

	case stateCmd:
		p.frame.Checksum ^= b
		p.frame.Cmd = b
		p.cursor = 0
		if p.frame.Size == 0 {
			p.state = stateChecksum
		} else {
			p.state = statePayload
		}

	case statePayload:
		p.buf[p.cursor] = b
		p.cursor++
		p.frame.Checksum ^= b
		if p.cursor == int(p.frame.Size) {
			p.state = stateChecksum
		}

	case stateChecksum:
		ok := p.frame.Checksum == b
		if ok {
			p.stats.Frames++
			out := p.frame
			out.Payload = make([]byte, p.frame.Size)
			copy(out.Payload, p.buf[:p.frame.Size])
			p.reset()
			return &out, true
		}
		p.stats.ChecksumErrs++
		p.reset()
	}
	return nil, false
}

// Feed 按块喂入并收集本块内补全的所有帧。
// 字节源的分块边界任意，与帧边界无关。
func (p *Parser) Feed(chunk []byte) []*Frame {
	var out []*Frame
	for _, b := range chunk {
		if f, ok := p.ProcessByte(b); ok {
			out = append(out, f)
		}
	}
	return out
}

// Stats 返回累计计数快照
func (p *Parser) Stats() Stats { return p.stats }
