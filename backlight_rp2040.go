//go:build rp2040

package st7789par

import "machine"

// pwmGroup is the subset of the machine PWM peripheral API the backlight
// needs. machine.PWM0 through machine.PWM7 implement it.
type pwmGroup interface {
	Configure(machine.PWMConfig) error
	Channel(machine.Pin) (uint8, error)
	Set(channel uint8, value uint32)
	Top() uint32
}

// PWMBacklight drives the backlight pin from a PWM slice.
type PWMBacklight struct {
	pwm pwmGroup
	ch  uint8
}

// NewPWMBacklight configures the PWM slice that owns pin for duty-cycle
// output. The slice must be the one pin maps to; consult machine.PWMPeripheral
// or the board pinout.
func NewPWMBacklight(pwm pwmGroup, pin machine.Pin) (*PWMBacklight, error) {
	if err := pwm.Configure(machine.PWMConfig{}); err != nil {
		return nil, err
	}
	ch, err := pwm.Channel(pin)
	if err != nil {
		return nil, err
	}
	return &PWMBacklight{pwm: pwm, ch: ch}, nil
}

// SetDuty scales the 16-bit duty onto the slice's counter range.
func (b *PWMBacklight) SetDuty(duty uint16) {
	b.pwm.Set(b.ch, uint32(duty)*b.pwm.Top()/65535)
}

// OutputPin configures p as a digital output and returns it as a driver Pin.
func OutputPin(p machine.Pin) Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return p
}
