package lcd

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/temoto/gpio-cdev-go"
	gpio_mock "github.com/temoto/gpio-cdev-go/mock"
	"github.com/temoto/hexpad/log2"
)

var testPinMap = PinMap{
	RS: "24", E: "25",
	D0: "4", D1: "5", D2: "6", D3: "12",
	D4: "13", D5: "16", D6: "19", D7: "20",
}

// frame is bus state captured at Flush
type frame struct {
	rs, e byte
	data  byte
}

type testBus struct {
	lines  *gpio_mock.MockLines
	values map[uint32]byte
	frames []frame
	sleeps []time.Duration
}

func newTestLCD(t testing.TB, flushErr error) (*LCD, *testBus) {
	offsets, err := testPinMap.Offsets()
	require.NoError(t, err)

	bus := &testBus{
		lines:  new(gpio_mock.MockLines),
		values: make(map[uint32]byte),
	}
	for _, off := range offsets {
		off := off
		bus.lines.On("SetFunc", off).Return(gpio.LineSetFunc(func(v byte) { bus.values[off] = v }))
	}
	bus.lines.On("Flush").Run(func(mock.Arguments) {
		f := frame{rs: bus.values[offsets[0]], e: bus.values[offsets[1]]}
		for i := 0; i < 8; i++ {
			f.data |= bus.values[offsets[2+i]] << uint(i)
		}
		bus.frames = append(bus.frames, f)
	}).Return(flushErr)

	d := &LCD{
		Log:   log2.NewTest(t, log2.LDebug),
		Sleep: func(d time.Duration) { bus.sleeps = append(bus.sleeps, d) },
	}
	require.NoError(t, d.Attach(bus.lines, testPinMap))
	return d, bus
}

// latched returns bytes the display took on E falling edge
func (self *testBus) latched() []frame {
	result := make([]frame, 0, len(self.frames)/2)
	for i := 1; i < len(self.frames); i++ {
		if self.frames[i-1].e == 1 && self.frames[i].e == 0 {
			result = append(result, self.frames[i])
		}
	}
	return result
}

func TestTransfer(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		fun    func(*LCD)
		expect []frame
		sleeps []time.Duration
	}
	cases := []Case{
		{"command", func(d *LCD) { d.Command(CommandAddress | 0x45) },
			[]frame{{0, 0, 0xc5}}, []time.Duration{DefaultSettle}},
		{"data", func(d *LCD) { d.Data('F') },
			[]frame{{1, 0, 'F'}}, []time.Duration{DefaultSettle}},
		{"write", func(d *LCD) { d.Write([]byte("1A")) },
			[]frame{{1, 0, '1'}, {1, 0, 'A'}}, []time.Duration{DefaultSettle, DefaultSettle}},
		{"clear", func(d *LCD) { d.Clear() },
			[]frame{{0, 0, 0x01}}, []time.Duration{DefaultSettle, ClearSettle}},
		{"set-address", func(d *LCD) { d.SetAddress(Line2 + 3) },
			[]frame{{0, 0, 0xc3}}, []time.Duration{DefaultSettle}},
		{"initialise", func(d *LCD) { d.Initialise() },
			[]frame{{0, 0, 0x38}, {0, 0, 0x06}, {0, 0, 0x0c}, {0, 0, 0x01}},
			[]time.Duration{PowerOnDelay, DefaultSettle, DefaultSettle, DefaultSettle, DefaultSettle, ClearSettle}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			d, bus := newTestLCD(t, nil)
			c.fun(d)
			assert.Equal(t, c.expect, bus.latched())
			assert.Equal(t, c.sleeps, bus.sleeps)
			assert.Equal(t, 2*len(c.expect), len(bus.frames))
			// E must go high with data already on the bus
			for i := 0; i < len(bus.frames); i += 2 {
				assert.Equal(t, byte(1), bus.frames[i].e, "frame=%d", i)
				assert.Equal(t, bus.frames[i].data, bus.frames[i+1].data, "frame=%d", i)
			}
		})
	}
}

func TestControl(t *testing.T) {
	t.Parallel()

	d, bus := newTestLCD(t, nil)
	old := d.SetControl(ControlOn | ControlBlink)
	assert.Equal(t, Control(0), old)
	assert.Equal(t, ControlOn|ControlBlink, d.Control())
	assert.Equal(t, []frame{{0, 0, 0x0d}}, bus.latched())
}

func TestFlushErrorLogged(t *testing.T) {
	t.Parallel()

	d, _ := newTestLCD(t, fmt.Errorf("EBUSY"))
	d.Log = log2.NewTest(t, log2.LError)
	errs := 0
	d.Log.SetErrorFunc(func(error) { errs++ })
	d.Data('0')
	assert.Equal(t, 2, errs)
}

func TestPinMapInvalid(t *testing.T) {
	t.Parallel()

	pm := testPinMap
	pm.D7 = "d7"
	_, err := pm.Offsets()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index=9")
}

func openLinesArgs(t testing.TB) []interface{} {
	offsets, err := testPinMap.Offsets()
	require.NoError(t, err)
	args := []interface{}{gpio.GPIOHANDLE_REQUEST_OUTPUT, "lcd"}
	for _, off := range offsets {
		args = append(args, off)
	}
	return args
}

func TestAttachChip(t *testing.T) {
	t.Parallel()

	chip := new(gpio_mock.MockChip)
	lines := new(gpio_mock.MockLines)
	lines.On("SetFunc", mock.Anything).Return(gpio.LineSetFunc(func(byte) {}))
	chip.On("OpenLines", openLinesArgs(t)...).Return(lines, nil).Once()
	d := &LCD{Log: log2.NewTest(t, log2.LDebug)}
	require.NoError(t, d.attachChip(chip, testPinMap))

	lines.On("Close").Return(nil).Once()
	chip.On("Close").Return(nil).Once()
	require.NoError(t, d.Close())
	chip.AssertExpectations(t)
	lines.AssertExpectations(t)
}

func TestAttachChipErrorCloses(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		pinmap    PinMap
		openErr   error
		expectErr string
	}
	badPinMap := testPinMap
	badPinMap.E = ""
	cases := []Case{
		{"pinmap", badPinMap, nil, "index=1"},
		{"open-lines", testPinMap, fmt.Errorf("EBUSY"), "lcd open lines"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			chip := new(gpio_mock.MockChip)
			chip.On("Close").Return(nil).Once()
			if c.openErr != nil {
				chip.On("OpenLines", openLinesArgs(t)...).Return((*gpio_mock.MockLines)(nil), c.openErr).Once()
			}
			d := &LCD{Log: log2.NewTest(t, log2.LDebug)}
			err := d.attachChip(chip, c.pinmap)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.expectErr)
			chip.AssertExpectations(t)
			assert.Nil(t, d.pinChip)
			assert.Nil(t, d.pins)
		})
	}
}

func TestMockDevice(t *testing.T) {
	t.Parallel()

	m := NewMockDevice()
	m.Command(CommandAddress | Command(Line1+14))
	m.Data('E')
	m.Data('F')
	assert.Equal(t, Address(16), m.Address())
	m.Command(CommandAddress | Command(Line2))
	m.Data('0')
	assert.Equal(t, "              EF\n0               ", m.String())

	m.Clear()
	assert.Equal(t, 1, m.Clears())
	assert.Equal(t, Line1, m.Address())
	assert.Equal(t, "                ", m.Line(1))
	assert.Len(t, m.Commands(), 3)
}
