package state

import (
	"context"
	"testing"

	"github.com/temoto/hexpad/hardware/keypad"
	"github.com/temoto/hexpad/hardware/lcd"
	"github.com/temoto/hexpad/log2"
)

// NewTestContext wires mock keypad and mock display regardless of config drivers.
func NewTestContext(t testing.TB, confString string) (context.Context, *Global, *keypad.MockMatrix, *lcd.MockDevice) {
	fs := NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	log := log2.NewTest(t, log2.LDebug)
	// log := log2.NewStderr(log2.LDebug) // useful with panics
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log)
	matrix := keypad.NewMockMatrix()
	display := lcd.NewMockDevice()
	g.Hardware.Matrix = matrix
	g.Hardware.Display = display
	g.MustInit(ctx, MustReadConfig(log, fs, "test-inline"))
	return ctx, g, matrix, display
}
