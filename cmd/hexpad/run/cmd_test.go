package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/hexpad/internal/cursor"
	"github.com/temoto/hexpad/internal/state"
	"github.com/temoto/hexpad/tele"
)

func TestNewPipeline(t *testing.T) {
	t.Parallel()

	_, g, matrix, display := state.NewTestContext(t, `
hardware {
	keypad { driver = "mock" debounce_ms = 10 idle_ms = 3 }
	hd44780 { driver = "mock" }
}`)
	p, err := NewPipeline(g)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, p.Gate.Delay)
	assert.Equal(t, 3*time.Millisecond, p.Idle)
	assert.Equal(t, tele.Noop{}, p.Echo)

	p.Gate.Sleep = func(time.Duration) { matrix.ReleaseAll() }
	matrix.Press(14)
	require.True(t, p.Step())
	assert.Equal(t, "E               ", display.Line(1))
	assert.Equal(t, cursor.Home+1, p.Cursor.Position())
}
