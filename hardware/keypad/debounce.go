package keypad

import "time"

const DefaultDebounce = 50 * time.Millisecond

// Gate masks contact bounce on press. Release is not debounced,
// it is detected by plain re-scan.
type Gate struct {
	Delay time.Duration
	Sleep SleepFunc
}

func NewGate(delay time.Duration) *Gate {
	if delay == 0 {
		delay = DefaultDebounce
	}
	return &Gate{Delay: delay, Sleep: time.Sleep}
}

func (self *Gate) Settle() {
	self.Sleep(self.Delay)
}

// WaitRelease blocks until no key is down. There is no timeout,
// key stuck down blocks forever. Returns number of sweeps.
func (self *Gate) WaitRelease(m Matrix) int {
	n := 1
	for Scan(m) != KeyNone {
		n++
	}
	return n
}
