package msp

import (
	"math/rand"
	"testing"
)

// makeFrame 构造一条合法帧：$ M > len cmd payload checksum
func makeFrame(dir byte, cmd uint8, payload []byte) []byte {
	buf := make([]byte, 0, 6+len(payload))
	buf = append(buf, HeaderStart, HeaderVersion, dir, byte(len(payload)), cmd)
	buf = append(buf, payload...)
	cs := byte(len(payload)) ^ cmd
	for _, b := range payload {
		cs ^= b
	}
	return append(buf, cs)
}

func feedAll(t *testing.T, p *Parser, raw []byte) []*Frame {
	t.Helper()
	var out []*Frame
	for _, b := range raw {
		if f, ok := p.ProcessByte(b); ok {
			out = append(out, f)
		}
	}
	return out
}

func TestProcessByte_ValidFrame(t *testing.T) {
	p := NewParser()
	raw := makeFrame(DirInbound, 108, []byte{0x0A, 0x00, 0xF6, 0xFF, 0x2C, 0x01})
	frames := feedAll(t, p, raw)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	f := frames[0]
	if f.Direction != Inbound || f.Cmd != 108 || f.Size != 6 {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if roll, _ := f.Int16LE(0); roll != 10 {
		t.Fatalf("roll = %d, want 10", roll)
	}
	if heading, _ := f.Int16LE(4); heading != 300 {
		t.Fatalf("heading = %d, want 300", heading)
	}
}

func TestProcessByte_ZeroLengthPayload(t *testing.T) {
	// LEN=0, CMD=102, CHECKSUM=102 必须被接受并交付零长 payload
	p := NewParser()
	raw := []byte{'$', 'M', '<', 0x00, 102, 102}
	frames := feedAll(t, p, raw)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Cmd != 102 || len(frames[0].Payload) != 0 {
		t.Fatalf("unexpected frame: %+v", frames[0])
	}
	if frames[0].Direction != Outbound {
		t.Fatalf("direction = %v, want outbound", frames[0].Direction)
	}
}

func TestProcessByte_ChecksumMismatch(t *testing.T) {
	p := NewParser()
	raw := makeFrame(DirInbound, 101, []byte{1, 2, 3})
	raw[len(raw)-1] ^= 0xFF
	if frames := feedAll(t, p, raw); len(frames) != 0 {
		t.Fatalf("corrupted frame emitted: %d", len(frames))
	}
	if p.Stats().ChecksumErrs != 1 {
		t.Fatalf("checksum errors = %d, want 1", p.Stats().ChecksumErrs)
	}
	// 解析器复位后仍能解出后续好帧
	if frames := feedAll(t, p, makeFrame(DirInbound, 101, []byte{1, 2, 3})); len(frames) != 1 {
		t.Fatalf("parser did not recover after checksum error")
	}
}

func TestProcessByte_SingleBitFlipRejected(t *testing.T) {
	// 翻转除 len 外任意一位，帧必须被拒绝（零帧发出）
	payload := []byte{0x11, 0x22, 0x33, 0x44}
	raw := makeFrame(DirInbound, 105, payload)
	for i := range raw {
		if i == 2 || i == 3 {
			// 方向标志不在校验范围内（0x3C/0x3E 互翻仍是合法帧）；
			// len 字段的翻转改变帧边界语义。两者按线上契约单独豁免。
			continue
		}
		for bit := 0; bit < 8; bit++ {
			mutated := make([]byte, len(raw))
			copy(mutated, raw)
			mutated[i] ^= 1 << bit
			p := NewParser()
			if frames := feedAll(t, p, mutated); len(frames) != 0 {
				t.Fatalf("byte %d bit %d: corrupted frame emitted", i, bit)
			}
		}
	}
}

func TestProcessByte_ResyncAfterGarbage(t *testing.T) {
	// 任意 N 个随机前缀字节 + 一条好帧 => 恰好一帧
	// （随机串里不含起始标志，避免偶然拼出合法帧头）
	rng := rand.New(rand.NewSource(42))
	good := makeFrame(DirInbound, 101, []byte{0, 0, 0, 0, 0, 0, 1})
	for n := 0; n < 64; n++ {
		p := NewParser()
		noise := make([]byte, n)
		for i := range noise {
			b := byte(rng.Intn(256))
			for b == HeaderStart {
				b = byte(rng.Intn(256))
			}
			noise[i] = b
		}
		frames := feedAll(t, p, append(noise, good...))
		if len(frames) != 1 {
			t.Fatalf("n=%d: expected 1 frame, got %d", n, len(frames))
		}
	}
}

func TestProcessByte_InterleavedGarbageBetweenFrames(t *testing.T) {
	p := NewParser()
	var stream []byte
	stream = append(stream, 0xDE, 0xAD)
	stream = append(stream, makeFrame(DirInbound, 101, []byte{0, 0, 0, 0, 0, 0, 1})...)
	stream = append(stream, '$', 'X') // 假帧头：'$' 后非 'M'
	stream = append(stream, makeFrame(DirOutbound, 108, []byte{1, 0, 2, 0, 3, 0})...)
	stream = append(stream, 0xFF)
	frames := feedAll(t, p, stream)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Cmd != 101 || frames[1].Cmd != 108 {
		t.Fatalf("unexpected command order: %d, %d", frames[0].Cmd, frames[1].Cmd)
	}
}

func TestProcessByte_BadVersionByteNotReinterpreted(t *testing.T) {
	// '$' 之后的非法字节直接丢弃，即使它本身是 '$' 也不回退重判
	p := NewParser()
	stream := append([]byte{'$', '$'}, makeFrame(DirInbound, 101, nil)...)
	// 第二个 '$' 在 VERSION 态被丢弃后复位，随后的完整帧应照常解出
	if frames := feedAll(t, p, stream); len(frames) != 1 {
		t.Fatalf("expected 1 frame after reset, got %d", len(frames))
	}
}

func TestProcessByte_BadDirectionResets(t *testing.T) {
	p := NewParser()
	stream := append([]byte{'$', 'M', '?'}, makeFrame(DirInbound, 101, nil)...)
	if frames := feedAll(t, p, stream); len(frames) != 1 {
		t.Fatalf("expected recovery after bad direction byte")
	}
	if p.Stats().Resyncs != 1 {
		t.Fatalf("resyncs = %d, want 1", p.Stats().Resyncs)
	}
}

func TestProcessByte_MaxCapacityPayloadAccepted(t *testing.T) {
	// len 字段单字节最大可表达 255，必须被接受（容量上限 256 不可能在线上超出）
	payload := make([]byte, 255)
	for i := range payload {
		payload[i] = byte(i)
	}
	p := NewParser()
	frames := feedAll(t, p, makeFrame(DirInbound, 200, payload))
	if len(frames) != 1 {
		t.Fatalf("expected max-size frame accepted")
	}
	if int(frames[0].Size) != 255 || len(frames[0].Payload) != 255 {
		t.Fatalf("unexpected size: %d", frames[0].Size)
	}
}

func TestProcessByte_UnknownCommandPreserved(t *testing.T) {
	p := NewParser()
	frames := feedAll(t, p, makeFrame(DirInbound, 250, []byte{9}))
	if len(frames) != 1 {
		t.Fatalf("unknown command frame not emitted")
	}
	if frames[0].Cmd != 250 {
		t.Fatalf("raw cmd not preserved: %d", frames[0].Cmd)
	}
	if frames[0].Command().Known() {
		t.Fatalf("cmd 250 should be unknown")
	}
	if frames[0].Command().String() != "UNKNOWN" {
		t.Fatalf("unexpected command name: %s", frames[0].Command())
	}
}

func TestFeed_ChunkBoundariesIrrelevant(t *testing.T) {
	// 同一字节流按不同块尺寸喂入，解出的帧应一致
	var stream []byte
	stream = append(stream, 0x00, 0x7F)
	stream = append(stream, makeFrame(DirInbound, 101, []byte{0, 0, 0, 0, 0, 0, 1})...)
	stream = append(stream, makeFrame(DirInbound, 108, []byte{1, 0, 2, 0, 3, 0})...)

	for _, chunkSize := range []int{1, 2, 3, 7, len(stream)} {
		p := NewParser()
		var got []*Frame
		for i := 0; i < len(stream); i += chunkSize {
			end := i + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, p.Feed(stream[i:end])...)
		}
		if len(got) != 2 {
			t.Fatalf("chunk=%d: expected 2 frames, got %d", chunkSize, len(got))
		}
	}
}

func TestFrame_PayloadIsCopy(t *testing.T) {
	// 发出的帧不得与解析器内部缓冲共享内存
	p := NewParser()
	first := feedAll(t, p, makeFrame(DirInbound, 105, []byte{0xAA, 0xBB}))
	second := feedAll(t, p, makeFrame(DirInbound, 105, []byte{0x11, 0x22}))
	if first[0].Payload[0] != 0xAA || second[0].Payload[0] != 0x11 {
		t.Fatalf("payload aliasing between frames")
	}
}
