package lcd

import (
	"bytes"
	"fmt"
	"sync"
)

// MockDevice emulates HD44780 DDRAM and address counter.
// Entry mode is assumed increment without shift.
type MockDevice struct {
	mu       sync.Mutex
	ddram    [2][ddramLineSize]byte
	ac       Address
	commands []Command
	clears   int
}

var _ Devicer = new(MockDevice)

func NewMockDevice() *MockDevice {
	self := &MockDevice{}
	self.reset()
	return self
}

func (self *MockDevice) Command(c Command) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.commands = append(self.commands, c)
	switch {
	case c&CommandAddress != 0:
		self.ac = Address(c &^ CommandAddress)
	case c == CommandClear:
		self.reset()
		self.clears++
	}
}

func (self *MockDevice) Data(b byte) {
	self.mu.Lock()
	defer self.mu.Unlock()
	line, col := self.locate(self.ac)
	self.ddram[line][col] = b
	self.ac = self.advance(line, col)
}

func (self *MockDevice) Clear() { self.Command(CommandClear) }

// Line returns visible Width characters of line 1 or 2.
func (self *MockDevice) Line(n int) string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return string(self.ddram[n-1][:Width])
}

func (self *MockDevice) Address() Address {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.ac
}

func (self *MockDevice) Commands() []Command {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]Command(nil), self.commands...)
}

func (self *MockDevice) Clears() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.clears
}

func (self *MockDevice) String() string {
	return fmt.Sprintf("%s\n%s", self.Line(1), self.Line(2))
}

func (self *MockDevice) reset() {
	for i := range self.ddram {
		copy(self.ddram[i][:], bytes.Repeat([]byte{' '}, ddramLineSize))
	}
	self.ac = Line1
}

func (self *MockDevice) locate(a Address) (int, int) {
	if a >= Line2 {
		return 1, int(a-Line2) % ddramLineSize
	}
	return 0, int(a) % ddramLineSize
}

// line 1 continues into line 2 after 40 cells and back
func (self *MockDevice) advance(line, col int) Address {
	col++
	if col < ddramLineSize {
		return Address(line)*Line2 + Address(col)
	}
	if line == 0 {
		return Line2
	}
	return Line1
}
