package source

import (
	"fmt"
	"io"
	"os"
)

var errEOF = io.EOF

// FileSource 从二进制抓包文件回放的字节源
type FileSource struct {
	f *os.File
}

// NewFileSource 打开回放文件
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	return &FileSource{f: f}, nil
}

// Receive 顺序读取下一段字节；文件尾返回 io.EOF
func (s *FileSource) Receive(buf []byte) (int, error) {
	return s.f.Read(buf)
}

// Close 关闭文件
func (s *FileSource) Close() error {
	return s.f.Close()
}
