//go:build rp2040

package st7789par

import (
	"errors"
	"machine"
	"unsafe"

	pio "github.com/tinygo-org/pio/rp2-pio"
)

var (
	errBadPinRange = errors.New("st7789par: invalid D0..D7 pin range")
	errSplitPIO    = errors.New("st7789par: state machines on different PIO blocks")
	errClaimedSM   = errors.New("st7789par: state machine already claimed")
)

const busWidth = 8

// PIOBus implements Bus over an 8-bit write-only parallel bus driven by two
// PIO state machines sharing one program: one paced by the command DMA
// channel, one by the pixel DMA channel. Splitting the paths keeps register
// writes off the bulk channel, so streaming a frame never delays a command
// longer than one FIFO drain.
type PIOBus struct {
	cmdSM  pio.StateMachine
	pixSM  pio.StateMachine
	cmdDMA dmaChannel
	pixDMA dmaChannel
	offset uint8
}

// PIOBusConfig carries the hardware handles the bus borrows. The DMA channel
// assignment is static and caller-owned; the bus never claims channels
// dynamically.
type PIOBusConfig struct {
	DataBase    machine.Pin // D0 of the consecutive D0..D7 data bus
	WriteStrobe machine.Pin
	CmdChannel  uint8 // DMA channel for the command path
	PixChannel  uint8 // DMA channel for the pixel path
}

// NewPIOBus claims both state machines, loads the shared bus program and
// configures the two DMA channels. cmdSM and pixSM must belong to the same
// PIO block. Pins are reconfigured for PIO output; the initial serializer
// clock is derived from the current CPU frequency and re-derived on every
// frame by the driver.
func NewPIOBus(cmdSM, pixSM pio.StateMachine, cfg PIOBusConfig) (*PIOBus, error) {
	if cfg.DataBase+busWidth > 30 {
		return nil, errBadPinRange
	}
	if !cmdSM.TryClaim() || !pixSM.TryClaim() {
		return nil, errClaimedSM
	}
	Pio := cmdSM.PIO()
	if pixSM.PIO() != Pio {
		return nil, errSplitPIO
	}

	// One byte per two PIO cycles, write strobe rising once per byte:
	//  0: out pins, 8  side 0
	//  1: nop          side 1
	const sidesetBits = 1
	program := []uint16{
		pio.EncodeOut(pio.SrcDestPins, busWidth) | pio.EncodeSideSet(sidesetBits, 0),
		pio.EncodeNOP() | pio.EncodeSideSet(sidesetBits, 1),
	}
	offset, err := Pio.AddProgram(program, -1)
	if err != nil {
		return nil, err
	}

	pinCfg := machine.PinConfig{Mode: Pio.PinMode()}
	for i := cfg.DataBase; i < cfg.DataBase+busWidth; i++ {
		i.Configure(pinCfg)
	}
	cfg.WriteStrobe.Configure(pinCfg)

	smCfg := pio.DefaultStateMachineConfig()
	smCfg.SetWrap(offset, offset+uint8(len(program))-1)
	smCfg.SetSidesetParams(sidesetBits, false, false)
	smCfg.SetOutPins(cfg.DataBase, busWidth)
	smCfg.SetSidesetPins(cfg.WriteStrobe)
	smCfg.SetFIFOJoin(pio.FifoJoinTx)
	smCfg.SetClkDivIntFrac(uint16(clockDiv(machine.CPUFrequency())), 0)

	for _, sm := range []pio.StateMachine{cmdSM, pixSM} {
		sm.SetPindirsConsecutive(cfg.DataBase, busWidth, true)
		sm.SetPindirsConsecutive(cfg.WriteStrobe, 1, true)
	}

	// The command path shifts single bytes, the pixel path whole 565
	// halfwords. Shift direction is right on both so the low OSR byte hits
	// the pins first.
	smCfg.SetOutShift(true, true, busWidth)
	cmdSM.Init(offset, smCfg)
	smCfg.SetOutShift(true, true, 16)
	pixSM.Init(offset, smCfg)
	cmdSM.SetEnabled(true)
	pixSM.SetEnabled(true)

	b := &PIOBus{
		cmdSM:  cmdSM,
		pixSM:  pixSM,
		cmdDMA: getDMAChannel(cfg.CmdChannel),
		pixDMA: getDMAChannel(cfg.PixChannel),
		offset: offset,
	}

	cc := defaultDMAConfig(uint32(cfg.CmdChannel))
	cc.setTransferDataSize(dmaTxSize8)
	cc.setTREQ_SEL(dmaTxDREQ(cmdSM))
	b.cmdDMA.init(cc, cmdSM.TxReg())

	cc = defaultDMAConfig(uint32(cfg.PixChannel))
	cc.setTransferDataSize(dmaTxSize16)
	// The panel wants the high 565 byte first; the halfword byte swap gets
	// that wire order out of the right-shifting OSR.
	cc.setBSwap(true)
	cc.setTREQ_SEL(dmaTxDREQ(pixSM))
	b.pixDMA.init(cc, pixSM.TxReg())

	return b, nil
}

// clockDiv returns the whole clock divisor that keeps the serializer at or
// below its rated clock.
func clockDiv(sysClk uint32) uint32 {
	return (sysClk + maxPixelClock - 1) / maxPixelClock
}

// Write sends data over the command path, returning once the DMA transfer
// has finished and the state machine FIFO has drained onto the bus.
func (b *PIOBus) Write(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	b.cmdDMA.wait()
	b.cmdDMA.start(unsafe.Pointer(&data[0]), uint32(len(data)))
	b.cmdDMA.wait()
	for !b.cmdSM.IsTxFIFOEmpty() {
		gosched()
	}
	return nil
}

// StartPixels begins the bulk transfer of px and returns immediately.
func (b *PIOBus) StartPixels(px []uint16) error {
	if len(px) == 0 {
		return nil
	}
	b.pixDMA.start(unsafe.Pointer(&px[0]), uint32(len(px)))
	return nil
}

// WaitPixels blocks until the bulk path has fully drained onto the bus.
func (b *PIOBus) WaitPixels() {
	b.pixDMA.wait()
	for !b.pixSM.IsTxFIFOEmpty() {
		gosched()
	}
}

// SetPixelClockDiv sets the whole-part clock divisor of the pixel state
// machine. Safe to call while a transfer is in flight; the new divisor takes
// effect on the next clock edge.
func (b *PIOBus) SetPixelClockDiv(div uint32) {
	b.pixSM.SetClkDiv(uint16(div), 0)
}

// BaseClock returns the system clock frequency in Hz.
func (b *PIOBus) BaseClock() uint32 {
	return machine.CPUFrequency()
}
