//go:build linux

package i2c

import (
	"os"
	"strings"
	"testing"
)

func openNullBus(t *testing.T) *Bus {
	t.Helper()
	f, err := os.OpenFile("/dev/null", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile /dev/null: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return &Bus{f: f, path: "/dev/null"}
}

func TestTransfer_InvalidAddr(t *testing.T) {
	b := openNullBus(t)

	for _, addr := range []uint16{0, 0x80} {
		d := &Dev{bus: b, addr: addr}
		err := d.Write([]byte{0x00})
		if err == nil || !strings.Contains(err.Error(), "invalid addr") {
			t.Fatalf("addr=0x%X err=%v want invalid addr", addr, err)
		}
	}
}

func TestTransfer_EmptyIsNoop(t *testing.T) {
	b := openNullBus(t)
	d := &Dev{bus: b, addr: 0x6B}

	if err := d.transfer(nil, nil); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestCombineLoHi(t *testing.T) {
	if got := CombineLoHi(0x00, 0x00); got != 0 {
		t.Fatalf("got=%d want 0", got)
	}
	if got := CombineLoHi(0xFF, 0x7F); got != 32767 {
		t.Fatalf("got=%d want 32767", got)
	}
	if got := CombineLoHi(0x00, 0x80); got != -32768 {
		t.Fatalf("got=%d want -32768", got)
	}
	if got := CombineLoHi(0xFF, 0xFF); got != -1 {
		t.Fatalf("got=%d want -1", got)
	}
}
