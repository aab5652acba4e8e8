package msp

import (
	"sync"

	"github.com/taoyao-code/msp-gateway/internal/state"
)

// Handler 帧处理能力：读取一条已验帧，按需修改共享状态或产生副作用。
// 处理器必须自行校验 payload 长度，不足时跳过而不是报错——
// 通过校验但长度不够的帧视为"数据不足"，不是故障。
type Handler interface {
	Handle(f *Frame, st *state.FlightState) error
}

// HandlerFunc 函数适配器
type HandlerFunc func(f *Frame, st *state.FlightState) error

// Handle 实现 Handler
func (fn HandlerFunc) Handle(f *Frame, st *state.FlightState) error { return fn(f, st) }

// Table 路由表（cmd -> 有序处理器链）。
// 同一命令可注册多个处理器，按注册顺序串行执行；
// 前一个处理器对状态的修改对后一个可见。
type Table struct {
	mu       sync.RWMutex
	handlers map[uint8][]Handler
}

// NewTable 创建空路由表
func NewTable() *Table {
	return &Table{handlers: make(map[uint8][]Handler)}
}

// Register 把处理器追加到 cmd 的链尾，保留已有条目及其顺序
func (t *Table) Register(cmd uint8, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[cmd] = append(t.handlers[cmd], h)
}

// Handlers 返回 cmd 的处理器链（可能为空；无人注册不是错误）
func (t *Table) Handlers(cmd uint8) []Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handlers[cmd]
}

// Route 按注册顺序同步调用 cmd 的全部处理器。
// 处理器返回的错误原样上抛给调用方，后续处理器不再执行；
// 无人注册时为 no-op。路由本身不做任何长度过滤。
func (t *Table) Route(f *Frame, st *state.FlightState) error {
	for _, h := range t.Handlers(f.Cmd) {
		if err := h.Handle(f, st); err != nil {
			return err
		}
	}
	return nil
}
