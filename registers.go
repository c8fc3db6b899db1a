package st7789par

// ST7789 command bytes.
const (
	SWRESET  byte = 0x01
	SLPIN    byte = 0x10
	SLPOUT   byte = 0x11
	INVOFF   byte = 0x20
	INVON    byte = 0x21
	GAMSET   byte = 0x26
	DISPOFF  byte = 0x28
	DISPON   byte = 0x29
	CASET    byte = 0x2A
	RASET    byte = 0x2B
	RAMWR    byte = 0x2C
	TEOFF    byte = 0x34
	TEON     byte = 0x35
	MADCTL   byte = 0x36
	COLMOD   byte = 0x3A
	RAMCTRL  byte = 0xB0
	PORCTRL  byte = 0xB2
	GCTRL    byte = 0xB7
	VCOMS    byte = 0xBB
	LCMCTRL  byte = 0xC0
	VDVVRHEN byte = 0xC2
	VRHS     byte = 0xC3
	VDVS     byte = 0xC4
	FRCTRL2  byte = 0xC6
	PWMFRSEL byte = 0xCC
	PWCTRL1  byte = 0xD0
	GMCTRP1  byte = 0xE0
	GMCTRN1  byte = 0xE1
)

// MADCTL orientation bits.
const (
	ROW_ORDER   byte = 0b10000000
	COL_ORDER   byte = 0b01000000
	SWAP_XY     byte = 0b00100000 // AKA "MV"
	SCAN_ORDER  byte = 0b00010000
	RGB_BGR     byte = 0b00001000
	HORIZ_ORDER byte = 0b00000100
)
