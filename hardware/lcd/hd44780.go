// Package lcd drives HD44780 compatible character displays over an 8-bit parallel bus.
package lcd

import (
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/gpio-cdev-go"
	"github.com/temoto/hexpad/log2"
)

type Command byte

const (
	CommandClear     Command = 0x01
	CommandEntryMode Command = 0x04
	CommandControl   Command = 0x08
	CommandFunction  Command = 0x20
	CommandAddress   Command = 0x80
)

type Control byte

const (
	ControlOn         Control = 0x04
	ControlUnderscore Control = 0x02
	ControlBlink      Control = 0x01
)

const (
	EntryIncrement byte = 0x02
	EntryShift     byte = 0x01

	Function8bit  byte = 0x10
	Function2line byte = 0x08
)

// Address is DDRAM address, without CommandAddress bit.
type Address byte

const (
	Line1 Address = 0x00
	Line2 Address = 0x40
	Width         = 16

	ddramLineSize = 40
)

const (
	DefaultSettle = 5 * time.Millisecond
	ClearSettle   = 2 * time.Millisecond
	PowerOnDelay  = 20 * time.Millisecond
)

type SleepFunc func(time.Duration)

type Devicer interface {
	Command(Command)
	Data(byte)
	Clear()
}

type PinMap struct {
	RS string `hcl:"rs"` // command/data, aliases: A0, RS
	E  string `hcl:"e"`  // enable
	D0 string `hcl:"d0"`
	D1 string `hcl:"d1"`
	D2 string `hcl:"d2"`
	D3 string `hcl:"d3"`
	D4 string `hcl:"d4"`
	D5 string `hcl:"d5"`
	D6 string `hcl:"d6"`
	D7 string `hcl:"d7"`
}

func (self PinMap) Offsets() ([]uint32, error) {
	names := []string{self.RS, self.E, self.D0, self.D1, self.D2, self.D3, self.D4, self.D5, self.D6, self.D7}
	result := make([]uint32, len(names))
	for i, s := range names {
		x, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "lcd pinmap index=%d value='%s'", i, s)
		}
		result[i] = uint32(x)
	}
	return result, nil
}

// LCD is RW-less wiring: RW tied to ground, busy flag is never read,
// every transfer waits fixed Settle instead.
type LCD struct {
	Log    *log2.Log
	Settle time.Duration
	Sleep  SleepFunc

	control Control
	pinChip gpio.Chiper
	pins    gpio.Lineser
	pin_rs  gpio.LineSetFunc
	pin_e   gpio.LineSetFunc
	pin_d   [8]gpio.LineSetFunc
}

// compile-time interface compliance test
var _ Devicer = new(LCD)

func (self *LCD) Init(chipName string, pinmap PinMap) error {
	chip, err := gpio.Open(chipName, "lcd")
	if err != nil {
		return errors.Annotatef(err, "lcd open chip=%s", chipName)
	}
	if err = self.attachChip(chip, pinmap); err != nil {
		return err
	}
	self.Initialise()
	return nil
}

// attachChip takes ownership of chip, on error chip and lines are closed.
func (self *LCD) attachChip(chip gpio.Chiper, pinmap PinMap) error {
	offsets, err := pinmap.Offsets()
	if err != nil {
		chip.Close() //nolint:errcheck
		return err
	}
	lines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, "lcd", offsets...)
	if err != nil {
		chip.Close() //nolint:errcheck
		return errors.Annotatef(err, "lcd open lines=%v", offsets)
	}
	if err = self.Attach(lines, pinmap); err != nil {
		lines.Close() //nolint:errcheck
		chip.Close()  //nolint:errcheck
		return err
	}
	self.pinChip = chip
	return nil
}

// Attach binds already opened output lines. Init calls it, tests use it with gpio_mock.
func (self *LCD) Attach(lines gpio.Lineser, pinmap PinMap) error {
	offsets, err := pinmap.Offsets()
	if err != nil {
		return err
	}
	self.pins = lines
	self.pin_rs = lines.SetFunc(offsets[0])
	self.pin_e = lines.SetFunc(offsets[1])
	for i := range self.pin_d {
		self.pin_d[i] = lines.SetFunc(offsets[2+i])
	}
	if self.Settle == 0 {
		self.Settle = DefaultSettle
	}
	if self.Sleep == nil {
		self.Sleep = time.Sleep
	}
	return nil
}

func (self *LCD) Close() error {
	var err error
	if self.pins != nil {
		err = self.pins.Close()
	}
	if self.pinChip != nil {
		if err2 := self.pinChip.Close(); err == nil {
			err = err2
		}
	}
	return err
}

// Initialise: 8-bit bus, 2 lines, auto-increment, cursor off, clear.
func (self *LCD) Initialise() {
	self.Sleep(PowerOnDelay)
	self.SetFunction(true, true)
	self.SetEntryMode(true, false)
	self.SetControl(ControlOn)
	self.Clear()
}

func (self *LCD) Command(c Command) { self.send(0, byte(c)) }
func (self *LCD) Data(b byte)       { self.send(1, b) }

func (self *LCD) Write(bs []byte) {
	for _, b := range bs {
		self.Data(b)
	}
}

func (self *LCD) Clear() {
	self.Command(CommandClear)
	self.Sleep(ClearSettle)
}

func (self *LCD) SetAddress(a Address) {
	self.Command(CommandAddress | Command(a))
}

func (self *LCD) SetEntryMode(increment, shift bool) {
	cmd := CommandEntryMode
	if increment {
		cmd |= Command(EntryIncrement)
	}
	if shift {
		cmd |= Command(EntryShift)
	}
	self.Command(cmd)
}

func (self *LCD) Control() Control {
	return self.control
}
func (self *LCD) SetControl(new Control) Control {
	old := self.control
	self.control = new
	self.Command(CommandControl | Command(new))
	return old
}

func (self *LCD) SetFunction(bits8, lines2 bool) {
	cmd := CommandFunction
	if bits8 {
		cmd |= Command(Function8bit)
	}
	if lines2 {
		cmd |= Command(Function2line)
	}
	self.Command(cmd)
}

// send holds E high for Settle, the display latches on falling edge.
func (self *LCD) send(rs byte, b byte) {
	self.pin_rs(rs)
	for i, set := range self.pin_d {
		set(bb(b, byte(i)))
	}
	self.pin_e(1)
	self.flush()
	self.Sleep(self.Settle)
	self.pin_e(0)
	self.flush()
}

func (self *LCD) flush() {
	if err := self.pins.Flush(); err != nil {
		self.Log.Errorf("lcd flush err=%v", err)
	}
}

func bb(b, bit byte) byte {
	if b&(1<<bit) == 0 {
		return 0
	}
	return 1
}
