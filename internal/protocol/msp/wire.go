package msp

// MSP (MultiWii Serial Protocol) 线上格式常量
// 帧布局：'$' 'M' '<'|'>' | len(1) | cmd(1) | payload[len] | checksum(1)
// checksum = len ^ cmd ^ payload[0] ^ ... ^ payload[len-1]
const (
	HeaderStart   byte = '$' // 帧起始标志
	HeaderVersion byte = 'M' // 协议版本标志
	DirOutbound   byte = '<' // 方向：发往飞控
	DirInbound    byte = '>' // 方向：飞控上行

	// MaxPayloadSize payload 最大容量；len 字段超过该值的帧直接丢弃
	MaxPayloadSize = 256
)

// Command 已知 MSP 命令枚举；未知命令保留原始字节参与路由
type Command uint8

const (
	CmdStatus    Command = 101 // MSP_STATUS
	CmdFCVariant Command = 102 // MSP_FC_VARIANT
	CmdRC        Command = 105 // MSP_RC
	CmdAttitude  Command = 108 // MSP_ATTITUDE
)

// String 命令名（未知命令返回 UNKNOWN，原始值仍可从 Frame.Cmd 取得）
func (c Command) String() string {
	switch c {
	case CmdStatus:
		return "STATUS"
	case CmdFCVariant:
		return "FC_VARIANT"
	case CmdRC:
		return "RC"
	case CmdAttitude:
		return "ATTITUDE"
	}
	return "UNKNOWN"
}

// Known 判断是否为已知命令
func (c Command) Known() bool {
	switch c {
	case CmdStatus, CmdFCVariant, CmdRC, CmdAttitude:
		return true
	}
	return false
}
