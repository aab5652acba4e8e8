package source

import (
	"errors"
	"fmt"
	"net"
)

// UDPSource 监听 UDP 端口的字节源（飞控侧常见输出方式）。
// 数据报边界不保证与帧边界对齐，解析器对此免疫。
type UDPSource struct {
	conn *net.UDPConn
}

// NewUDPSource 绑定监听地址（如 ":14555"）
func NewUDPSource(addr string) (*UDPSource, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve udp addr %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", addr, err)
	}
	return &UDPSource{conn: conn}, nil
}

// Receive 读取一个数据报
func (s *UDPSource) Receive(buf []byte) (int, error) {
	n, _, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			// Close 触发的读中断视为流结束
			return n, errEOF
		}
		return n, err
	}
	return n, nil
}

// Close 关闭 socket，使阻塞中的 Receive 以流结束返回
func (s *UDPSource) Close() error {
	return s.conn.Close()
}
