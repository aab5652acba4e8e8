package source

import (
	"fmt"

	cfgpkg "github.com/taoyao-code/msp-gateway/internal/config"
)

// Source 字节源抽象：交付下一批字节或宣告流结束。
// 约定：n == 0 且 err == nil 表示暂无数据、继续等待；
// io.EOF 表示流正常结束；其余错误视为源故障，由读取循环作为致命条件上抛。
// 分块大小任意，与帧边界无关。
type Source interface {
	Receive(buf []byte) (n int, err error)
	Close() error
}

// New 按配置选择字节源
func New(cfg cfgpkg.SourceConfig) (Source, error) {
	switch cfg.Type {
	case "udp":
		return NewUDPSource(cfg.Addr)
	case "file":
		return NewFileSource(cfg.Path)
	}
	return nil, fmt.Errorf("unknown source type %q", cfg.Type)
}
