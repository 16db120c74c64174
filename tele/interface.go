// Package tele echoes keystrokes to remote observers.
// Keypad loop must never wait for network, publish errors are only logged.
package tele

import (
	"fmt"

	"github.com/temoto/hexpad/hardware/keypad"
	"github.com/temoto/hexpad/internal/cursor"
)

type Echoer interface {
	Key(key keypad.Key, pos cursor.Position)
	Clear()
	Close()
}

type Noop struct{}

var _ Echoer = Noop{} // compile-time interface test

func (Noop) Key(keypad.Key, cursor.Position) {}
func (Noop) Clear()                          {}
func (Noop) Close()                          {}

func KeyPayload(key keypad.Key, pos cursor.Position) []byte {
	return []byte(fmt.Sprintf("key:%c@%02x", key.Char(), byte(pos)))
}

var ClearPayload = []byte("clear")
