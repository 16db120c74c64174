// Package cursor places typed keys onto 16x2 display, left to right,
// wrapping from line 1 to line 2. When both lines are full the next key
// clears the display and is dropped.
package cursor

import (
	"fmt"

	"github.com/temoto/hexpad/hardware/keypad"
	"github.com/temoto/hexpad/hardware/lcd"
)

// Position is cursor address in command form, i.e. with lcd.CommandAddress bit.
type Position byte

const (
	Home      = Position(lcd.CommandAddress) | Position(lcd.Line1)
	Line1End  = Home + lcd.Width
	Line2Home = Position(lcd.CommandAddress) | Position(lcd.Line2)
	Full      = Line2Home + lcd.Width
)

type State uint8

const (
	Line1Writing State = iota
	Line2Writing
	FullPendingClear
)

func (s State) String() string {
	switch s {
	case Line1Writing:
		return "line1"
	case Line2Writing:
		return "line2"
	case FullPendingClear:
		return "full"
	}
	return fmt.Sprintf("invalid(%d)", uint8(s))
}

type Result uint8

const (
	Rendered Result = iota
	Cleared
)

// Cursor is owned by single caller, zero value is not ready, use New.
type Cursor struct {
	pos Position
}

func New() *Cursor { return &Cursor{pos: Home} }

func (self *Cursor) Position() Position { return self.pos }

// Line is 1 or 2; 0 when full.
func (self *Cursor) Line() int {
	switch self.State() {
	case Line1Writing:
		return 1
	case Line2Writing:
		return 2
	}
	return 0
}

// Column is 0-based within current line, lcd.Width when full.
func (self *Cursor) Column() int {
	switch self.State() {
	case Line1Writing:
		return int(self.pos - Home)
	case Line2Writing:
		return int(self.pos - Line2Home)
	}
	return lcd.Width
}

func (self *Cursor) State() State {
	switch {
	case self.pos == Full:
		return FullPendingClear
	case self.pos >= Line2Home:
		return Line2Writing
	}
	return Line1Writing
}

// Render writes key char at cursor and advances. On full display it only
// clears and rewinds, key is discarded.
func (self *Cursor) Render(d lcd.Devicer, key keypad.Key) Result {
	if self.pos == Full {
		d.Clear()
		self.pos = Home
		return Cleared
	}

	d.Command(lcd.Command(self.pos))
	d.Data(key.Char())

	self.pos++
	if self.pos == Line1End {
		self.pos = Line2Home
	}
	return Rendered
}

func (self *Cursor) String() string {
	return fmt.Sprintf("cursor pos=%02x state=%s", byte(self.pos), self.State())
}
