package keypad

import (
	"github.com/juju/errors"
	"github.com/temoto/hexpad/log2"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// PeriphMatrix uses periph.io pin registry, names like "GPIO17" or "P1_11".
// Rows get internal pull-up where the host supports it.
type PeriphMatrix struct {
	Log     *log2.Log
	columns [Columns]gpio.PinIO
	rows    [Rows]gpio.PinIO
}

var _ Matrix = new(PeriphMatrix)

func OpenPeriphMatrix(log *log2.Log, columns, rows []string) (*PeriphMatrix, error) {
	if len(columns) != Columns || len(rows) != Rows {
		return nil, errors.NotValidf("keypad columns=%d rows=%d", len(columns), len(rows))
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "keypad periph host init")
	}
	self := &PeriphMatrix{Log: log}
	for i, name := range columns {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.NotFoundf("keypad column=%d pin=%s", i, name)
		}
		if err := p.Out(gpio.High); err != nil {
			return nil, errors.Annotatef(err, "keypad column=%d pin=%s out", i, name)
		}
		self.columns[i] = p
	}
	for i, name := range rows {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.NotFoundf("keypad row=%d pin=%s", i, name)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, errors.Annotatef(err, "keypad row=%d pin=%s in", i, name)
		}
		self.rows[i] = p
	}
	return self, nil
}

func (self *PeriphMatrix) SetColumn(index int, level Level) {
	if err := self.columns[index].Out(gpio.Level(level == High)); err != nil {
		self.Log.Errorf("keypad column=%d out err=%v", index, err)
	}
}

func (self *PeriphMatrix) ReadRow(index int) Level {
	if self.rows[index].Read() == gpio.Low {
		return Low
	}
	return High
}

// Close leaves columns high-impedance.
func (self *PeriphMatrix) Close() error {
	for i, p := range self.columns {
		if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
			return errors.Annotatef(err, "keypad column=%d release", i)
		}
	}
	return nil
}
