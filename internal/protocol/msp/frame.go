package msp

// Direction 帧方向
type Direction uint8

const (
	Outbound Direction = iota // '<' 发往飞控
	Inbound                   // '>' 飞控上行
)

// String 方向名
func (d Direction) String() string {
	if d == Inbound {
		return "inbound"
	}
	return "outbound"
}

// Frame 一条通过校验的完整 MSP 帧。
// 仅在 checksum 匹配后由解析器发出，发出后不再修改。
// Cmd 保留原始字节：未注册/未知命令同样按数值路由，不丢弃。
type Frame struct {
	Direction Direction
	Cmd       uint8
	Size      uint8  // 声明的 payload 长度
	Payload   []byte // len(Payload) == int(Size)
	Checksum  uint8
}

// Command 已知命令枚举视图
func (f *Frame) Command() Command { return Command(f.Cmd) }

// Uint16LE 读取 payload 中 offset 处的小端 uint16；越界返回 0,false
func (f *Frame) Uint16LE(offset int) (uint16, bool) {
	if offset < 0 || offset+2 > len(f.Payload) {
		return 0, false
	}
	return uint16(f.Payload[offset]) | uint16(f.Payload[offset+1])<<8, true
}

// Int16LE 读取 payload 中 offset 处的小端 int16
func (f *Frame) Int16LE(offset int) (int16, bool) {
	v, ok := f.Uint16LE(offset)
	return int16(v), ok
}
