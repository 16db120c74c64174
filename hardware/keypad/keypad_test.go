package keypad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChar(t *testing.T) {
	t.Parallel()

	for k := Key(0); k <= 9; k++ {
		assert.Equal(t, byte('0')+byte(k), k.Char(), "key=%d", k)
	}
	for k := Key(10); k <= 15; k++ {
		assert.Equal(t, byte('A')+byte(k-10), k.Char(), "key=%d", k)
	}
	assert.Equal(t, byte('?'), KeyNone.Char())
	assert.Equal(t, "none", KeyNone.String())
	assert.Equal(t, "C", Key(12).String())
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	for k := Key(0); k < Columns*Rows; k++ {
		got, ok := ParseKey(k.Char())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	got, ok := ParseKey('e')
	assert.True(t, ok)
	assert.Equal(t, Key(14), got)
	_, ok = ParseKey('g')
	assert.False(t, ok)
}

func TestScan(t *testing.T) {
	t.Parallel()

	type Case struct {
		name    string
		pressed []Key
		expect  Key
	}
	cases := []Case{
		{"none", nil, KeyNone},
		{"first", []Key{0}, 0},
		{"last", []Key{15}, 15},
		{"c2r1", []Key{KeyAt(2, 1)}, 9},
		{"c3r0", []Key{KeyAt(3, 0)}, 12},
		{"same-column-last-row-wins", []Key{KeyAt(1, 0), KeyAt(1, 3), KeyAt(1, 2)}, KeyAt(1, 3)},
		{"row3-beats-others", []Key{KeyAt(0, 0), KeyAt(0, 1), KeyAt(0, 2), KeyAt(0, 3)}, 3},
		{"last-column-wins", []Key{KeyAt(0, 3), KeyAt(2, 0)}, KeyAt(2, 0)},
		{"last-column-beats-higher-row", []Key{KeyAt(1, 3), KeyAt(3, 0)}, KeyAt(3, 0)},
		{"all", []Key{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, 15},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			m := NewMockMatrix()
			m.Press(c.pressed...)
			assert.Equal(t, c.expect, Scan(m))
			assert.Equal(t, Columns*Rows, m.Reads())
		})
	}
}

func TestScanDrivesOneColumnLow(t *testing.T) {
	t.Parallel()

	m := NewMockMatrix()
	seen := make([]int, 0, Columns)
	checkDrive := func() {
		lows := 0
		for _, l := range m.Drive() {
			if l == Low {
				lows++
			}
		}
		assert.LessOrEqual(t, lows, 1)
	}
	m.OnColumn = func(mm *MockMatrix, column int) {
		seen = append(seen, column)
		checkDrive()
	}
	Scan(m)
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
	assert.Equal(t, [Columns]Level{High, High, High, Low}, m.Drive())
}

func TestScanIdempotentWithoutPress(t *testing.T) {
	t.Parallel()

	m := NewMockMatrix()
	for i := 0; i < 100; i++ {
		require.Equal(t, KeyNone, Scan(m))
	}
}
