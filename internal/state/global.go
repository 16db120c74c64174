package state

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/hexpad/hardware/keypad"
	"github.com/temoto/hexpad/hardware/lcd"
	"github.com/temoto/hexpad/helpers"
	"github.com/temoto/hexpad/log2"
	"github.com/temoto/hexpad/tele"
)

type Global struct {
	Alive    *alive.Alive
	Config   *Config
	Log      *log2.Log
	Hardware struct {
		Display lcd.Devicer
		Matrix  keypad.Matrix
		closers []io.Closer
	}
	Echo tele.Echoer

	lk sync.Mutex

	initDisplayOnce sync.Once
	initMatrixOnce  sync.Once
	initEchoOnce    sync.Once
	errDisplay      error
	errMatrix       error
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &Global{
		Alive: alive.NewAlive(),
		Log:   log,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	if err := g.Config.Validate(); err != nil {
		return errors.Annotate(err, "config")
	}
	if g.Config.LogDebug {
		g.Log.SetLevel(log2.LDebug)
	}
	g.Log.Debugf("config: keypad driver=%s columns=%v rows=%v", cfg.Hardware.Keypad.Driver, cfg.Hardware.Keypad.Columns, cfg.Hardware.Keypad.Rows)
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

func (g *Global) Display() (lcd.Devicer, error) {
	g.initDisplayOnce.Do(func() {
		defer recoverFatal(g.Log) // fix sync.Once silent panic

		// This may only be already set by NewTestContext()
		if g.Hardware.Display != nil {
			return
		}
		cfg := &g.Config.Hardware.HD44780
		switch cfg.Driver {
		case DriverMock:
			g.Hardware.Display = lcd.NewMockDevice()
		case DriverCdev:
			d := &lcd.LCD{
				Log:    g.Log,
				Settle: helpers.IntMillisecondDefault(cfg.SettleMs, lcd.DefaultSettle),
			}
			if err := d.Init(cfg.PinChip, cfg.Pinmap); err != nil {
				g.errDisplay = errors.Annotatef(err, "config: hd44780=%#v", cfg)
				return
			}
			g.addCloser(d)
			g.Hardware.Display = d
		default:
			g.errDisplay = errors.NotValidf("config: hardware.hd44780.driver=%s", cfg.Driver)
		}
	})
	return g.Hardware.Display, g.errDisplay
}

func (g *Global) Matrix() (keypad.Matrix, error) {
	g.initMatrixOnce.Do(func() {
		defer recoverFatal(g.Log) // fix sync.Once silent panic

		if g.Hardware.Matrix != nil {
			return
		}
		cfg := &g.Config.Hardware.Keypad
		var err error
		switch cfg.Driver {
		case DriverMock:
			g.Hardware.Matrix = keypad.NewMockMatrix()
		case DriverCdev:
			var m *keypad.CdevMatrix
			if m, err = keypad.OpenCdevMatrix(g.Log, cfg.PinChip, cfg.Columns, cfg.Rows); err == nil {
				g.addCloser(m)
				g.Hardware.Matrix = m
			}
		case DriverPeriph:
			var m *keypad.PeriphMatrix
			if m, err = keypad.OpenPeriphMatrix(g.Log, cfg.Columns, cfg.Rows); err == nil {
				g.addCloser(m)
				g.Hardware.Matrix = m
			}
		case DriverRpio:
			var m *keypad.RpioMatrix
			if m, err = keypad.OpenRpioMatrix(cfg.Columns, cfg.Rows); err == nil {
				g.addCloser(m)
				g.Hardware.Matrix = m
			}
		default:
			err = errors.NotValidf("config: hardware.keypad.driver=%s", cfg.Driver)
		}
		if err != nil {
			g.errMatrix = errors.Annotatef(err, "keypad driver=%s", cfg.Driver)
		}
	})
	return g.Hardware.Matrix, g.errMatrix
}

// Echoer never fails, broken tele config degrades to Noop with error logged.
func (g *Global) Echoer() tele.Echoer {
	g.initEchoOnce.Do(func() {
		if g.Echo != nil {
			return
		}
		g.Echo = tele.Noop{}
		if !g.Config.Tele.Enabled {
			return
		}
		e, err := tele.NewMqttEcho(g.Log, g.Config.Tele)
		if err != nil {
			g.Error(err, "tele init")
			return
		}
		g.Echo = e
	})
	return g.Echo
}

func (g *Global) Debounce() time.Duration {
	return helpers.IntMillisecondDefault(g.Config.Hardware.Keypad.DebounceMs, keypad.DefaultDebounce)
}

func (g *Global) Idle() time.Duration {
	return time.Duration(g.Config.Hardware.Keypad.IdleMs) * time.Millisecond
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(errors.ErrorStack(err))
	}
}

// Close releases hardware in reverse order of acquire.
func (g *Global) Close() {
	g.lk.Lock()
	defer g.lk.Unlock()
	if g.Echo != nil {
		g.Echo.Close()
		g.Echo = tele.Noop{}
	}
	for i := len(g.Hardware.closers) - 1; i >= 0; i-- {
		if err := g.Hardware.closers[i].Close(); err != nil {
			g.Error(err, "close")
		}
	}
	g.Hardware.closers = nil
}

func (g *Global) addCloser(c io.Closer) {
	g.lk.Lock()
	g.Hardware.closers = append(g.Hardware.closers, c)
	g.lk.Unlock()
}

func recoverFatal(f helpers.Fataler) {
	if x := recover(); x != nil {
		f.Fatal(x)
	}
}
