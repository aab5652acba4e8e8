package telemetry

import (
	"fmt"
	"net"
)

// Sink 遥测文本行的外部接收端。
// 投递是 fire-and-forget：不确认、不重试，失败由调用方记日志后忽略。
type Sink interface {
	Send(line string) error
	Close() error
}

// UDPSink 通过已连接的 UDP socket 把遥测行发往 alink 守护进程
type UDPSink struct {
	conn net.Conn
}

// NewUDPSink 连接目标地址（如 "127.0.0.1:9999"）。
// 建连失败属于启动期资源错误，由调用方作为致命错误处理。
func NewUDPSink(addr string) (*UDPSink, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial telemetry sink %s: %w", addr, err)
	}
	return &UDPSink{conn: conn}, nil
}

// Send 发送一行文本
func (s *UDPSink) Send(line string) error {
	_, err := s.conn.Write([]byte(line))
	return err
}

// Close 释放 socket
func (s *UDPSink) Close() error {
	return s.conn.Close()
}

// NopSink 遥测未启用时的占位实现
type NopSink struct{}

func (NopSink) Send(string) error { return nil }
func (NopSink) Close() error      { return nil }
