package keypad

import (
	"strconv"

	"github.com/juju/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

// RpioMatrix uses /dev/gpiomem register access on Raspberry Pi, BCM numbering.
type RpioMatrix struct {
	columns [Columns]rpio.Pin
	rows    [Rows]rpio.Pin
}

var _ Matrix = new(RpioMatrix)

func OpenRpioMatrix(columns, rows []string) (*RpioMatrix, error) {
	self := &RpioMatrix{}
	if err := parsePins("column", columns, self.columns[:]); err != nil {
		return nil, err
	}
	if err := parsePins("row", rows, self.rows[:]); err != nil {
		return nil, err
	}
	if err := rpio.Open(); err != nil {
		return nil, errors.Annotate(err, "keypad rpio open")
	}
	for _, p := range self.columns {
		p.Output()
		p.High()
	}
	for _, p := range self.rows {
		p.Input()
		p.PullUp()
	}
	return self, nil
}

func (self *RpioMatrix) SetColumn(index int, level Level) {
	if level == Low {
		self.columns[index].Low()
	} else {
		self.columns[index].High()
	}
}

func (self *RpioMatrix) ReadRow(index int) Level {
	if self.rows[index].Read() == rpio.Low {
		return Low
	}
	return High
}

func (self *RpioMatrix) Close() error {
	for _, p := range self.columns {
		p.Input()
	}
	return rpio.Close()
}

func parsePins(tag string, ss []string, dst []rpio.Pin) error {
	if len(ss) != len(dst) {
		return errors.NotValidf("keypad %s count=%d expected=%d", tag, len(ss), len(dst))
	}
	for i, s := range ss {
		x, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return errors.Annotatef(err, "keypad %s index=%d value='%s'", tag, i, s)
		}
		dst[i] = rpio.Pin(x)
	}
	return nil
}
