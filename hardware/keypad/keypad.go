// Package keypad scans 4x4 matrix keypad: columns are driven active-low
// one at a time, rows are sensed active-low on press.
//
// Layout is by wiring, key code is column*4+row:
//
//	      c0  c1  c2  c3
//	r0     0   4   8   C
//	r1     1   5   9   D
//	r2     2   6   A   E
//	r3     3   7   B   F
package keypad

import (
	"fmt"
	"time"
)

const (
	Columns = 4
	Rows    = 4
)

type Key uint8

const KeyNone Key = 0xff

func KeyAt(column, row int) Key { return Key(column*Rows + row) }

func (k Key) Valid() bool { return k < Columns*Rows }
func (k Key) Column() int { return int(k) / Rows }
func (k Key) Row() int    { return int(k) % Rows }

func (k Key) Char() byte {
	switch {
	case k < 10:
		return byte(k) + '0'
	case k.Valid():
		return byte(k) - 10 + 'A'
	}
	return '?'
}

func (k Key) String() string {
	if k == KeyNone {
		return "none"
	}
	if !k.Valid() {
		return fmt.Sprintf("invalid(%d)", uint8(k))
	}
	return string([]byte{k.Char()})
}

// ParseKey is reverse of Key.Char, case insensitive.
func ParseKey(c byte) (Key, bool) {
	switch {
	case c >= '0' && c <= '9':
		return Key(c - '0'), true
	case c >= 'A' && c <= 'F':
		return Key(c-'A') + 10, true
	case c >= 'a' && c <= 'f':
		return Key(c-'a') + 10, true
	}
	return KeyNone, false
}

type Level byte

const (
	Low  Level = 0
	High Level = 1
)

// Matrix is physical keypad wiring. Implementations must not block.
type Matrix interface {
	SetColumn(index int, level Level)
	ReadRow(index int) Level
}

type SleepFunc func(time.Duration)

// Scan performs one complete sweep. Every row read low overwrites result,
// so with several keys down the last row of the last column wins.
func Scan(m Matrix) Key {
	key := KeyNone
	for c := 0; c < Columns; c++ {
		for i := 0; i < Columns; i++ {
			level := High
			if i == c {
				level = Low
			}
			m.SetColumn(i, level)
		}
		for r := 0; r < Rows; r++ {
			if m.ReadRow(r) == Low {
				key = KeyAt(c, r)
			}
		}
	}
	return key
}
