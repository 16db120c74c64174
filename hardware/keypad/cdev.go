package keypad

import (
	"strconv"

	"github.com/juju/errors"
	"github.com/temoto/gpio-cdev-go"
	"github.com/temoto/hexpad/log2"
)

// CdevMatrix uses Linux GPIO character device.
// Rows need external pull-up resistors, v1 line request can't set bias.
type CdevMatrix struct {
	Log *log2.Log

	chip    gpio.Chiper
	columns gpio.Lineser
	rows    gpio.Lineser
	setcol  [Columns]gpio.LineSetFunc
	dirty   bool
	data    gpio.HandleData
}

var _ Matrix = new(CdevMatrix)

func OpenCdevMatrix(log *log2.Log, chipName string, columns, rows []string) (*CdevMatrix, error) {
	colOffsets, err := parseOffsets("column", columns, Columns)
	if err != nil {
		return nil, err
	}
	rowOffsets, err := parseOffsets("row", rows, Rows)
	if err != nil {
		return nil, err
	}

	chip, err := gpio.Open(chipName, "keypad")
	if err != nil {
		return nil, errors.Annotatef(err, "keypad open chip=%s", chipName)
	}
	colLines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, "keypad-col", colOffsets...)
	if err != nil {
		chip.Close() //nolint:errcheck
		return nil, errors.Annotatef(err, "keypad open columns=%v", colOffsets)
	}
	rowLines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_INPUT, "keypad-row", rowOffsets...)
	if err != nil {
		colLines.Close() //nolint:errcheck
		chip.Close()     //nolint:errcheck
		return nil, errors.Annotatef(err, "keypad open rows=%v", rowOffsets)
	}
	self := NewCdevMatrix(log, colLines, rowLines)
	self.chip = chip
	return self, nil
}

// NewCdevMatrix wraps opened lines; offsets order defines column/row index.
func NewCdevMatrix(log *log2.Log, columns, rows gpio.Lineser) *CdevMatrix {
	self := &CdevMatrix{
		Log:     log,
		columns: columns,
		rows:    rows,
	}
	for i, off := range columns.LineOffsets() {
		if i >= Columns {
			break
		}
		self.setcol[i] = columns.SetFunc(off)
		self.setcol[i](byte(High))
	}
	self.dirty = true
	return self
}

// SetColumn is buffered until next ReadRow, one flush per column pass.
func (self *CdevMatrix) SetColumn(index int, level Level) {
	self.setcol[index](byte(level))
	self.dirty = true
}

// ReadRow reports High (released) when hardware read fails.
func (self *CdevMatrix) ReadRow(index int) Level {
	if self.dirty {
		if err := self.columns.Flush(); err != nil {
			self.Log.Errorf("keypad columns flush err=%v", err)
		}
		self.dirty = false
		data, err := self.rows.Read()
		if err != nil {
			self.Log.Errorf("keypad rows read err=%v", err)
			for i := range data.Values {
				data.Values[i] = byte(High)
			}
		}
		self.data = data
	}
	if self.data.Values[index] == 0 {
		return Low
	}
	return High
}

func (self *CdevMatrix) Close() error {
	err := self.columns.Close()
	if err2 := self.rows.Close(); err == nil {
		err = err2
	}
	if self.chip != nil {
		if err2 := self.chip.Close(); err == nil {
			err = err2
		}
	}
	return err
}

func parseOffsets(tag string, ss []string, expect int) ([]uint32, error) {
	if len(ss) != expect {
		return nil, errors.NotValidf("keypad %s count=%d expected=%d", tag, len(ss), expect)
	}
	result := make([]uint32, len(ss))
	for i, s := range ss {
		x, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "keypad %s index=%d value='%s'", tag, i, s)
		}
		result[i] = uint32(x)
	}
	return result, nil
}
