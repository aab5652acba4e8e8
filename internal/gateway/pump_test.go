package gateway

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/msp-gateway/internal/protocol/msp"
	"github.com/taoyao-code/msp-gateway/internal/state"
)

// scriptedSource 按脚本逐块交付字节，随后 EOF
type scriptedSource struct {
	chunks [][]byte
	err    error // EOF 之外的终止错误
}

func (s *scriptedSource) Receive(buf []byte) (int, error) {
	if len(s.chunks) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	n := copy(buf, s.chunks[0])
	if n == len(s.chunks[0]) {
		s.chunks = s.chunks[1:]
	} else {
		s.chunks[0] = s.chunks[0][n:]
	}
	return n, nil
}

func (s *scriptedSource) Close() error { return nil }

func buildFrame(cmd uint8, payload []byte) []byte {
	buf := []byte{'$', 'M', '>', byte(len(payload)), cmd}
	buf = append(buf, payload...)
	cs := byte(len(payload)) ^ cmd
	for _, b := range payload {
		cs ^= b
	}
	return append(buf, cs)
}

func TestPump_DecodeAndDispatch(t *testing.T) {
	table := msp.NewTable()
	msp.RegisterDefaults(table, nil)
	st := state.New()

	status := buildFrame(101, []byte{0, 0, 0, 0, 0, 0, 1})
	attitude := buildFrame(108, []byte{0x0A, 0x00, 0xF6, 0xFF, 0x2C, 0x01})
	// 帧被切成与边界无关的块，且夹杂噪声
	src := &scriptedSource{chunks: [][]byte{
		{0xDE, 0xAD},
		status[:3],
		append(append([]byte{}, status[3:]...), attitude[:2]...),
		attitude[2:],
	}}

	pump := NewPump(src, table, st, zap.NewNop(), nil, 64)
	require.NoError(t, pump.Run(context.Background()))

	assert.True(t, st.Armed())
	roll, pitch, heading := st.Attitude()
	assert.Equal(t, int16(10), roll)
	assert.Equal(t, int16(-10), pitch)
	assert.Equal(t, int16(300), heading)
	assert.Equal(t, uint64(2), pump.Parser.Stats().Frames)
	// 两帧原始数据都进入了外发暂存缓冲（头3字节+payload）
	assert.Equal(t, (3+7)+(3+6), st.Snapshot().Staged)
}

func TestPump_SourceFailureIsFatal(t *testing.T) {
	src := &scriptedSource{err: errors.New("socket error")}
	pump := NewPump(src, msp.NewTable(), state.New(), zap.NewNop(), nil, 64)
	err := pump.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte source")
}

func TestPump_HandlerErrorDoesNotStopStream(t *testing.T) {
	table := msp.NewTable()
	table.Register(101, msp.HandlerFunc(func(f *msp.Frame, st *state.FlightState) error {
		return errors.New("handler boom")
	}))
	var second int
	table.Register(108, msp.HandlerFunc(func(f *msp.Frame, st *state.FlightState) error {
		second++
		return nil
	}))

	src := &scriptedSource{chunks: [][]byte{
		buildFrame(101, []byte{0, 0, 0, 0, 0, 0, 1}),
		buildFrame(108, []byte{1, 0, 2, 0, 3, 0}),
	}}
	pump := NewPump(src, table, state.New(), zap.NewNop(), nil, 64)
	require.NoError(t, pump.Run(context.Background()), "处理器错误不终止字节流")
	assert.Equal(t, 1, second)
}

func TestPump_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &scriptedSource{chunks: [][]byte{{0x00}}}
	pump := NewPump(src, msp.NewTable(), state.New(), zap.NewNop(), nil, 64)
	assert.NoError(t, pump.Run(ctx))
}
