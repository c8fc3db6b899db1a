package st7789par

import "math"

// backlightGamma compensates for the perceptual non-linearity of brightness,
// so linear steps in the requested level appear visually even.
const backlightGamma = 2.8

// backlightDuty maps a linear 0-255 brightness level onto the 16-bit PWM
// range through the gamma curve.
func backlightDuty(level uint8) uint16 {
	return uint16(math.Pow(float64(level)/255, backlightGamma)*65535 + 0.5)
}

// rgb565 truncates an 8-8-8 color triplet to the panel's packed 5-6-5
// format.
func rgb565(r, g, b byte) uint16 {
	return uint16(r&0xf8)<<8 | uint16(g&0xfc)<<3 | uint16(b)>>3
}

// blitFrame repacks the RGBA framebuffer into the staging buffer, writing
// each converted row twice so Height logical rows fill the panel's 2*Height
// native rows. src must hold Width*Height*4 bytes; the fourth byte of each
// pixel is padding and never read.
func blitFrame(dst *[nativeWidth * nativeHeight]uint16, src []byte) {
	si, di := 0, 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			px := rgb565(src[si], src[si+1], src[si+2])
			dst[di] = px
			dst[di+nativeWidth] = px
			si += 4
			di++
		}
		di += nativeWidth // skip the doubled row written above
	}
}
