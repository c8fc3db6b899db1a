package st7789par

import (
	"math"
	"testing"
)

func TestBacklightDutyCurve(t *testing.T) {
	prev := uint16(0)
	for level := 0; level <= 255; level++ {
		got := backlightDuty(uint8(level))
		want := uint16(math.Pow(float64(level)/255, 2.8)*65535 + 0.5)
		if got != want {
			t.Errorf("level %d: duty %d, want %d", level, got, want)
		}
		if got < prev {
			t.Errorf("level %d: duty %d decreased from %d", level, got, prev)
		}
		prev = got
	}
	if backlightDuty(0) != 0 {
		t.Errorf("duty at 0 = %d, want 0", backlightDuty(0))
	}
	if backlightDuty(255) != 65535 {
		t.Errorf("duty at 255 = %d, want 65535", backlightDuty(255))
	}
}

func TestRGB565Packing(t *testing.T) {
	cases := []struct {
		r, g, b byte
		want    uint16
	}{
		{0xf8, 0xfc, 0xf8, 0xffff},
		{0xff, 0xff, 0xff, 0xffff},
		{0x00, 0x00, 0x00, 0x0000},
		{0xf8, 0x00, 0x00, 0xf800},
		{0x00, 0xfc, 0x00, 0x07e0},
		{0x00, 0x00, 0xf8, 0x001f},
		{0x07, 0x03, 0x07, 0x0000}, // low bits truncate away
	}
	for _, tc := range cases {
		got := rgb565(tc.r, tc.g, tc.b)
		if got != tc.want {
			t.Errorf("rgb565(%#02x, %#02x, %#02x) = %#04x, want %#04x", tc.r, tc.g, tc.b, got, tc.want)
		}
		if want := uint16(tc.r&0xf8)<<8 | uint16(tc.g&0xfc)<<3 | uint16(tc.b)>>3; got != want {
			t.Errorf("rgb565(%#02x, %#02x, %#02x) = %#04x, mask pattern wants %#04x", tc.r, tc.g, tc.b, got, want)
		}
	}
}

func TestBlitFrameDoublesRows(t *testing.T) {
	fb := make([]byte, Width*Height*4)
	var staging [nativeWidth * nativeHeight]uint16

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			i := (y*Width + x) * 4
			fb[i+0] = byte(x)
			fb[i+1] = byte(y)
			fb[i+2] = byte(x ^ y)
			fb[i+3] = 0xaa // padding byte, must never influence output
		}
	}
	blitFrame(&staging, fb)

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			i := (y*Width + x) * 4
			want := rgb565(fb[i], fb[i+1], fb[i+2])
			top := staging[2*y*nativeWidth+x]
			bot := staging[(2*y+1)*nativeWidth+x]
			if top != want {
				t.Fatalf("pixel (%d,%d): staging %#04x, want %#04x", x, y, top, want)
			}
			if bot != top {
				t.Fatalf("pixel (%d,%d): doubled row %#04x differs from %#04x", x, y, bot, top)
			}
		}
	}
}
