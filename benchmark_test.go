package rvcfg

import (
	"os"
	"path/filepath"
	"testing"
)

func BenchmarkParse(b *testing.B) {
	data, err := os.ReadFile(filepath.Join("testdata", "cfgworlds.cpp"))
	if err != nil {
		b.Fatalf("read: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(data, nil); err != nil {
			b.Fatalf("parse: %v", err)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	n, err := DecodeFile(filepath.Join("testdata", "cfgworlds.cpp"), nil)
	if err != nil {
		b.Fatalf("parse: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Format(n, nil); err != nil {
			b.Fatalf("format: %v", err)
		}
	}
}
