// Package pipeline is the keypad to display loop:
// scan, debounce, render, wait for release.
// Single goroutine owns keypad, display and cursor; every step blocks.
package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/hexpad/hardware/keypad"
	"github.com/temoto/hexpad/hardware/lcd"
	"github.com/temoto/hexpad/helpers/atomic_clock"
	"github.com/temoto/hexpad/internal/cursor"
	"github.com/temoto/hexpad/log2"
	"github.com/temoto/hexpad/tele"
)

type Stat struct {
	Rendered uint32
	Clears   uint32
	// errors reported through Log, mostly GPIO flush/read failures
	Errors   uint32
	// unix nanoseconds, 0 = no key yet
	LastKey int64
}

type Pipeline struct {
	Log     *log2.Log
	Matrix  keypad.Matrix
	Display lcd.Devicer
	Gate    *keypad.Gate
	Cursor  *cursor.Cursor
	Echo    tele.Echoer
	// Idle pause after empty scan in Run, 0 = poll without pause.
	Idle time.Duration

	rendered uint32
	clears   uint32
	errors   uint32
	lastKey  atomic_clock.Clock
}

// New registers error counter on log, hardware drivers should share it.
func New(log *log2.Log, m keypad.Matrix, d lcd.Devicer, g *keypad.Gate) *Pipeline {
	self := &Pipeline{
		Log:     log,
		Matrix:  m,
		Display: d,
		Gate:    g,
		Cursor:  cursor.New(),
		Echo:    tele.Noop{},
	}
	log.SetErrorFunc(self.countError)
	return self
}

// Step performs one scan. When key is down, it is settled, rendered and
// Step returns only after physical release.
func (self *Pipeline) Step() bool {
	key := keypad.Scan(self.Matrix)
	if key == keypad.KeyNone {
		return false
	}
	self.Gate.Settle()

	pos := self.Cursor.Position()
	switch self.Cursor.Render(self.Display, key) {
	case cursor.Rendered:
		atomic.AddUint32(&self.rendered, 1)
		self.Log.Debugf("key=%s pos=%02x", key, byte(pos))
		self.Echo.Key(key, pos)
	case cursor.Cleared:
		atomic.AddUint32(&self.clears, 1)
		self.Log.Infof("display full, clear, dropped key=%s", key)
		self.Echo.Clear()
	}
	self.lastKey.SetNow()

	sweeps := self.Gate.WaitRelease(self.Matrix)
	self.Log.Debugf("key=%s released sweeps=%d", key, sweeps)
	return true
}

// Run loops until a is stopped. Stop is only checked between scans,
// a held key keeps Run inside Step.
func (self *Pipeline) Run(a *alive.Alive) {
	if !a.Add(1) {
		return
	}
	defer a.Done()
	self.Log.Infof("pipeline run %s", self.Cursor)
	stopch := a.StopChan()
	for {
		select {
		case <-stopch:
			return
		default:
		}
		if !self.Step() && self.Idle > 0 {
			self.Gate.Sleep(self.Idle)
		}
	}
}

func (self *Pipeline) Stat() Stat {
	return Stat{
		Rendered: atomic.LoadUint32(&self.rendered),
		Clears:   atomic.LoadUint32(&self.clears),
		Errors:   atomic.LoadUint32(&self.errors),
		LastKey:  self.lastKey.UnixNano(),
	}
}

func (self *Pipeline) countError(error) { atomic.AddUint32(&self.errors, 1) }
