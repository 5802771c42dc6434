package wol

import (
	"bytes"
	"testing"
)

func TestMagicPacketLayout(t *testing.T) {
	packet, err := magicPacket("AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("magicPacket failed: %v", err)
	}

	if len(packet) != 102 {
		t.Fatalf("expected 102 bytes, got %d", len(packet))
	}

	header := bytes.Repeat([]byte{0xFF}, 6)
	if !bytes.Equal(packet[:6], header) {
		t.Errorf("expected 6x 0xFF header, got % X", packet[:6])
	}

	hw := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	for i := 0; i < 16; i++ {
		start := 6 + i*6
		if !bytes.Equal(packet[start:start+6], hw) {
			t.Fatalf("repetition %d mismatch: % X", i, packet[start:start+6])
		}
	}
}

func TestMagicPacketRejectsGarbage(t *testing.T) {
	for _, mac := range []string{"", "AA:BB", "ZZ:BB:CC:DD:EE:FF"} {
		if _, err := magicPacket(mac); err == nil {
			t.Errorf("magicPacket(%q): expected error", mac)
		}
	}
}
