package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// mspfeed 场景回放器：从 YAML 场景构造 MSP 帧并经 UDP 发往网关，
// 用于端到端联调与压测。独立于核心解码路径。

// Scenario 回放场景
type Scenario struct {
	Name     string        `yaml:"name"`
	Interval time.Duration `yaml:"interval"` // 相邻步骤的间隔
	Steps    []Step        `yaml:"steps"`
}

// Step 单个步骤：构造一帧（cmd+payload）、发送原始字节或注入随机噪声
type Step struct {
	Cmd     *uint8 `yaml:"cmd"`
	Payload string `yaml:"payload"` // 十六进制，空白分隔可选
	Raw     string `yaml:"raw"`     // 原始字节（十六进制），绕过帧构造
	Noise   int    `yaml:"noise"`   // 随机噪声字节数
	Repeat  int    `yaml:"repeat"`
}

func parseHex(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, s)
	return hex.DecodeString(s)
}

// buildFrame 构造 '$' 'M' '>' len cmd payload checksum
func buildFrame(cmd uint8, payload []byte) []byte {
	buf := make([]byte, 0, 6+len(payload))
	buf = append(buf, '$', 'M', '>', byte(len(payload)), cmd)
	buf = append(buf, payload...)
	cs := byte(len(payload)) ^ cmd
	for _, b := range payload {
		cs ^= b
	}
	return append(buf, cs)
}

func (s Step) bytes() ([]byte, error) {
	switch {
	case s.Raw != "":
		return parseHex(s.Raw)
	case s.Noise > 0:
		b := make([]byte, s.Noise)
		rand.Read(b)
		return b, nil
	case s.Cmd != nil:
		payload, err := parseHex(s.Payload)
		if err != nil {
			return nil, fmt.Errorf("bad payload hex: %w", err)
		}
		return buildFrame(*s.Cmd, payload), nil
	}
	return nil, fmt.Errorf("step needs cmd, raw or noise")
}

func run() error {
	scenarioPath := flag.String("scenario", "", "scenario yaml path")
	target := flag.String("target", "127.0.0.1:14555", "gateway udp address")
	flag.Parse()

	if *scenarioPath == "" {
		return fmt.Errorf("usage: mspfeed -scenario <file.yaml> [-target host:port]")
	}
	data, err := os.ReadFile(*scenarioPath)
	if err != nil {
		return err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return fmt.Errorf("parse scenario: %w", err)
	}

	conn, err := net.Dial("udp", *target)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("replaying %q to %s (%d steps)\n", sc.Name, *target, len(sc.Steps))
	for i, step := range sc.Steps {
		b, err := step.bytes()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		n := step.Repeat
		if n <= 0 {
			n = 1
		}
		for ; n > 0; n-- {
			if _, err := conn.Write(b); err != nil {
				return fmt.Errorf("step %d send: %w", i, err)
			}
			if sc.Interval > 0 {
				time.Sleep(sc.Interval)
			}
		}
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mspfeed:", err)
		os.Exit(1)
	}
}
