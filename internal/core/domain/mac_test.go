package domain

import (
	"errors"
	"testing"
)

func TestNormalizeMAC_AcceptedForms(t *testing.T) {
	cases := map[string]string{
		"aa:bb:cc:dd:ee:ff":   "AA:BB:CC:DD:EE:FF",
		"AA:BB:CC:DD:EE:FF":   "AA:BB:CC:DD:EE:FF",
		"aa-bb-cc-dd-ee-ff":   "AA:BB:CC:DD:EE:FF",
		"aabbccddeeff":        "AA:BB:CC:DD:EE:FF",
		"00:1a:2b:3c:4d:5e":   "00:1A:2B:3C:4D:5E",
		" 00:1a:2b:3c:4d:5e ": "00:1A:2B:3C:4D:5E",
	}

	for input, want := range cases {
		got, err := NormalizeMAC(input)
		if err != nil {
			t.Errorf("NormalizeMAC(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeMAC(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeMAC_Rejected(t *testing.T) {
	for _, input := range []string{
		"",
		"aa:bb:cc:dd:ee",       // too short
		"aa:bb:cc:dd:ee:ff:00", // too long
		"gg:bb:cc:dd:ee:ff",    // non-hex
		"aa.bb.cc.dd.ee.ff",    // unsupported separator
		"not a mac",
	} {
		if _, err := NormalizeMAC(input); !errors.Is(err, ErrInvalidMAC) {
			t.Errorf("NormalizeMAC(%q): expected ErrInvalidMAC, got %v", input, err)
		}
	}
}
