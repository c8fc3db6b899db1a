// Package st7789par drives a pixel-doubled ST7789 TFT panel over an 8-bit
// write-only parallel bus.
//
// The panel is addressed as 320x240 but the driver works from a caller-owned
// 160x120 RGBA framebuffer: converted rows are written twice into the staging
// buffer and the bus serializer doubles columns, so one logical pixel covers a 2x2
// native block. Frames stream out over a dedicated bulk transfer channel
// while the caller prepares the next one; only the next Display (or a
// backlight/power transition) waits for the previous frame to finish.
//
// All methods must be called from a single execution context. Hardware waits
// have no timeout: an unresponsive panel blocks the caller indefinitely.
package st7789par

import (
	"encoding/binary"
	"errors"
	"image/color"
	"time"

	"tinygo.org/x/drivers"
)

// ErrFramebufferSize is returned by Configure when the framebuffer passed to
// New is not exactly Width*Height*4 bytes.
var ErrFramebufferSize = errors.New("st7789par: framebuffer must be Width*Height*4 bytes")

// Logical framebuffer dimensions exposed to the caller.
const (
	Width  = 160
	Height = 120
)

// Staging buffer dimensions: one halfword per transferred pixel. The bulk
// transfer is always the full native area.
const (
	nativeWidth  = Width
	nativeHeight = 2 * Height
)

// Addressable window configured on the panel during init. Larger than the
// transferred area; the serializer's column doubling fills the difference.
const (
	panelWidth  = 320
	panelHeight = 240
)

// maxPixelClock caps the bulk-path serializer clock.
const maxPixelClock = 50_000_000 // Hz

// Pin is a digital output pin, already configured as an output. It is
// implemented by machine.Pin; see OutputPin.
type Pin interface {
	High()
	Low()
}

// Backlight drives the panel backlight with 16-bit duty resolution. On
// RP2040 hardware it is implemented by a PWM slice; see NewPWMBacklight.
type Backlight interface {
	SetDuty(duty uint16)
}

// Bus moves bytes onto the panel's parallel data bus. Implementations pair a
// blocking command path with an independent bulk pixel path so a frame can
// stream out while the caller does other work. A Bus is single-owner: the
// driver never issues concurrent calls and callers must not share it.
type Bus interface {
	// Write sends p over the command path and returns once the transfer
	// engine is idle and the serializer queue has drained.
	Write(p []byte) error

	// StartPixels begins streaming p over the bulk path and returns
	// immediately. p must not be modified until WaitPixels returns.
	StartPixels(p []uint16) error

	// WaitPixels blocks until the bulk path is idle and its serializer
	// queue has drained.
	WaitPixels()

	// SetPixelClockDiv sets the whole-part clock divisor of the bulk-path
	// serializer.
	SetPixelClockDiv(div uint32)

	// BaseClock returns the system clock frequency in Hz.
	BaseClock() uint32
}

// Config holds the display configuration.
type Config struct {
	// Rotation selects the panel orientation. Only Rotation0 (the badge
	// default) and Rotation180 are meaningful on this panel.
	Rotation drivers.Rotation
}

// Device is a driver instance for one panel. Create it with New.
type Device struct {
	bus Bus
	dc  Pin
	cs  Pin
	bl  Backlight

	rotation drivers.Rotation
	powered  bool
	sleeping bool

	cmdBuf  [1]byte
	fb      []byte
	staging [nativeWidth * nativeHeight]uint16
}

// New returns a driver for the panel behind bus. fb is the caller-owned
// Width*Height*4 RGBA source framebuffer; the driver only ever reads it. dc
// and cs must already be configured as outputs and bl must be ready to accept
// duty values. The returned Device owns the staging buffer but only borrows
// the framebuffer and the hardware handles; Close quiesces the hardware
// without releasing anything.
func New(bus Bus, dc, cs Pin, bl Backlight, fb []byte) *Device {
	return &Device{bus: bus, dc: dc, cs: cs, bl: bl, fb: fb}
}

// Configure resets the panel and walks it through the vendor init sequence,
// paints the current framebuffer contents and restores full backlight. The
// command order and settling delays are a hard contract of the panel's power
// circuitry; do not reorder them.
func (d *Device) Configure(cfg Config) error {
	if len(d.fb) != Width*Height*4 {
		return ErrFramebufferSize
	}
	d.rotation = cfg.Rotation

	// Backlight off first so the panel never shows uninitialized RAM.
	d.bl.SetDuty(0)

	if err := d.command(SWRESET, nil); err != nil {
		return err
	}
	// The panel does not respond to commands until reset has settled.
	time.Sleep(150 * time.Millisecond)

	setup := []struct {
		cmd  byte
		data []byte
	}{
		{TEON, nil},                 // enable frame sync signal
		{COLMOD, []byte{0x05}},      // 16 bits per pixel
		{PORCTRL, []byte{0x0c, 0x0c, 0x00, 0x33, 0x33}},
		{LCMCTRL, []byte{0x2c}},
		{VDVVRHEN, []byte{0x01}},
		{VRHS, []byte{0x12}},
		{VDVS, []byte{0x20}},
		{PWCTRL1, []byte{0xa4, 0xa1}},
		{FRCTRL2, []byte{0x0f}},
		// Avoids light grey banding on low-brightness greens. Only visible
		// with custom gamma curves, but keep it regardless.
		// https://github.com/pimoroni/pimoroni-pico/issues/1040
		{RAMCTRL, []byte{0x00, 0xc0}},
		{GCTRL, []byte{0x35}},
		{VCOMS, []byte{0x1f}},
		{GMCTRP1, []byte{0xD0, 0x08, 0x11, 0x08, 0x0C, 0x15, 0x39, 0x33, 0x50, 0x36, 0x13, 0x14, 0x29, 0x2D}},
		{GMCTRN1, []byte{0xD0, 0x08, 0x10, 0x08, 0x06, 0x06, 0x39, 0x44, 0x51, 0x0B, 0x16, 0x14, 0x2F, 0x31}},
		{INVON, nil},
		{SLPOUT, nil},
		{DISPON, nil},
	}
	for _, s := range setup {
		if err := d.command(s.cmd, s.data); err != nil {
			return err
		}
	}
	time.Sleep(100 * time.Millisecond)

	if err := d.setAddressWindow(cfg.Rotation); err != nil {
		return err
	}

	// First frame goes out before the backlight comes back so power-on
	// garbage is never visible.
	if err := d.Display(); err != nil {
		return err
	}
	return d.SetBacklight(255)
}

// setAddressWindow configures the full 320x240 addressable window and the
// orientation byte. The panel expects big-endian address bounds regardless
// of host byte order.
func (d *Device) setAddressWindow(rotation drivers.Rotation) error {
	madctl := SWAP_XY | SCAN_ORDER
	if rotation == drivers.Rotation180 {
		madctl |= COL_ORDER
	} else {
		madctl |= ROW_ORDER
	}

	var win [4]byte
	binary.BigEndian.PutUint16(win[:2], 0)
	binary.BigEndian.PutUint16(win[2:], panelWidth-1)
	if err := d.command(CASET, win[:]); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(win[:2], 0)
	binary.BigEndian.PutUint16(win[2:], panelHeight-1)
	if err := d.command(RASET, win[:]); err != nil {
		return err
	}
	return d.command(MADCTL, []byte{madctl})
}

// command sends one command byte and an optional payload over the command
// path. It returns only after the bus has gone idle, with chip select
// deasserted. Not reentrant.
func (d *Device) command(cmd byte, data []byte) error {
	d.dc.Low()
	d.cs.Low()
	d.cmdBuf[0] = cmd
	err := d.bus.Write(d.cmdBuf[:])
	if err == nil && len(data) > 0 {
		d.dc.High()
		err = d.bus.Write(data)
	}
	d.cs.High()
	return err
}

// Display converts the framebuffer into the staging buffer and starts the
// bulk transfer, returning while pixels are still streaming. Waiting for
// completion is deferred to the next Display, SetBacklight sleep transition
// or Close.
func (d *Device) Display() error {
	if !d.powered {
		if err := d.command(DISPON, nil); err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
		d.powered = true
	}

	// Keep the serializer at or below its rated clock whatever the system
	// clock currently is.
	d.bus.SetPixelClockDiv((d.bus.BaseClock() + maxPixelClock - 1) / maxPixelClock)

	// The staging buffer may still be in flight from the previous frame.
	d.bus.WaitPixels()
	blitFrame(&d.staging, d.fb)

	// RAMWR is inlined rather than routed through command: chip select must
	// stay asserted while the pixel stream follows.
	d.dc.Low()
	d.cs.Low()
	d.cmdBuf[0] = RAMWR
	if err := d.bus.Write(d.cmdBuf[:]); err != nil {
		return err
	}
	d.dc.High()
	return d.bus.StartPixels(d.staging[:])
}

// SetBacklight sets the panel brightness. level is gamma corrected onto the
// 16-bit PWM range so equal steps look equal to the eye. Zero crossings
// drive the panel's sleep state: entering sleep settles for 5ms, leaving it
// for 120ms. Transitions are edge triggered on the sleep flag, so repeats in
// the same state issue no panel commands.
func (d *Device) SetBacklight(level uint8) error {
	d.bl.SetDuty(backlightDuty(level))
	switch {
	case level == 0 && !d.sleeping:
		// A frame may still be streaming on the shared data pins.
		d.bus.WaitPixels()
		// The vendor firmware sends SLPOUT on this branch too, never SLPIN.
		// Kept bit-for-bit until verified against the panel datasheet.
		if err := d.command(SLPOUT, nil); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
		d.sleeping = true
	case d.sleeping:
		d.bus.WaitPixels()
		if err := d.command(SLPOUT, nil); err != nil {
			return err
		}
		time.Sleep(120 * time.Millisecond)
		d.sleeping = false
	}
	return nil
}

// Framebuffer returns the source framebuffer passed to New: Width*Height
// packed RGBA pixels, four bytes each, rows top to bottom. The transfer path
// reads it only during Display; SetPixel is the only writer on the driver
// side.
func (d *Device) Framebuffer() []byte {
	return d.fb
}

// Size returns the logical display size.
func (d *Device) Size() (x, y int16) {
	return Width, Height
}

// SetPixel writes one pixel into the framebuffer. The alpha channel is
// stored but never transmitted. Out-of-bounds coordinates are ignored.
func (d *Device) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return
	}
	i := (int(y)*Width + int(x)) * 4
	d.fb[i+0] = c.R
	d.fb[i+1] = c.G
	d.fb[i+2] = c.B
	d.fb[i+3] = c.A
}

// Close quiesces the hardware: it waits out any in-flight pixel transfer,
// turns the backlight off and powers the panel down. The Device must not be
// used afterwards.
func (d *Device) Close() error {
	d.bus.WaitPixels()
	d.bl.SetDuty(0)
	err := d.command(DISPOFF, nil)
	d.powered = false
	return err
}
