//go:build rp2040

package st7789par

import (
	"device/rp"
	"runtime"
	"runtime/volatile"
	"unsafe"

	pio "github.com/tinygo-org/pio/rp2-pio"
)

// Single DMA channel register block. See rp.DMA_Type.
type dmaChannelHW struct {
	READ_ADDR   volatile.Register32
	WRITE_ADDR  volatile.Register32
	TRANS_COUNT volatile.Register32
	CTRL_TRIG   volatile.Register32
	_           [12]volatile.Register32 // aliases
}

// DMA channels usable on the RP2040. Channel assignment is static and
// caller-owned: both bus channels arrive as construction parameters.
var dmaChannels = (*[12]dmaChannelHW)(unsafe.Pointer(rp.DMA))

// dmaChannel is one channel plus the CTRL word each transfer restarts with.
type dmaChannel struct {
	hw      *dmaChannelHW
	ctrl    uint32
	channel uint8
}

func getDMAChannel(channel uint8) dmaChannel {
	return dmaChannel{hw: &dmaChannels[channel], channel: channel}
}

// init fixes the channel's write target and control word. The write address
// never changes afterwards; start retriggers with the stored CTRL value.
func (ch *dmaChannel) init(cc dmaChannelConfig, dst *volatile.Register32) {
	ch.ctrl = cc.CTRL
	ch.hw.WRITE_ADDR.Set(uint32(uintptr(unsafe.Pointer(dst))))
	ch.hw.TRANS_COUNT.Set(0)
}

// start begins moving count elements from src to the fixed write target and
// returns immediately.
func (ch *dmaChannel) start(src unsafe.Pointer, count uint32) {
	ch.hw.READ_ADDR.Set(uint32(uintptr(src)))
	ch.hw.TRANS_COUNT.Set(count)
	ch.hw.CTRL_TRIG.Set(ch.ctrl)
}

func (ch *dmaChannel) busy() bool {
	return ch.hw.CTRL_TRIG.Get()&rp.DMA_CH0_CTRL_TRIG_BUSY != 0
}

// wait blocks until the channel goes idle. There is no timeout; a stalled
// peripheral stalls the caller.
func (ch *dmaChannel) wait() {
	for ch.busy() {
		gosched()
	}
}

// dmaTxDREQ returns the DREQ index that paces transfers into the state
// machine's TX FIFO. TX DREQs are numbered blockIndex*8 + smIndex on the
// RP2040 (datasheet table 124).
func dmaTxDREQ(sm pio.StateMachine) uint32 {
	return uint32(sm.PIO().BlockIndex())*8 + uint32(sm.StateMachineIndex())
}

type dmaTxSize uint32

const (
	dmaTxSize8 dmaTxSize = iota
	dmaTxSize16
	dmaTxSize32
)

// dmaChannelConfig builds a CTRL register value the way the pico-sdk
// channel_config helpers do.
type dmaChannelConfig struct {
	CTRL uint32
}

func defaultDMAConfig(channel uint32) (cc dmaChannelConfig) {
	cc.setChainTo(channel) // chain to self: chaining disabled
	cc.setTREQ_SEL(rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_PERMANENT)
	cc.setReadIncrement(true)
	cc.setTransferDataSize(dmaTxSize32)
	cc.setEnable(true)
	return cc
}

// setTREQ_SEL selects the transfer request signal pacing the channel.
// 0x0 to 0x3a selects DREQ n.
func (cc *dmaChannelConfig) setTREQ_SEL(dreq uint32) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Msk)) | (dreq << rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Pos)
}

func (cc *dmaChannelConfig) setChainTo(chainTo uint32) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Msk)) | (chainTo << rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Pos)
}

func (cc *dmaChannelConfig) setTransferDataSize(size dmaTxSize) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Msk)) | (uint32(size) << rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Pos)
}

func (cc *dmaChannelConfig) setReadIncrement(incr bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_INCR_READ_Pos, incr)
}

func (cc *dmaChannelConfig) setBSwap(bswap bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_BSWAP_Pos, bswap)
}

func (cc *dmaChannelConfig) setEnable(enable bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_EN_Pos, enable)
}

func setBitPos(cc *uint32, pos uint32, bit bool) {
	if bit {
		*cc = *cc | (1 << pos)
	} else {
		*cc = *cc & ^(1 << pos) // unset bit.
	}
}

func gosched() {
	runtime.Gosched()
}
