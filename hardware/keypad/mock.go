package keypad

import "sync"

// MockMatrix emulates switch contacts: row reads low when some pressed key
// sits on a column currently driven low.
type MockMatrix struct {
	// OnColumn is called after column is driven low, with lock released.
	// Useful to release keys after N sweeps.
	OnColumn func(m *MockMatrix, column int)

	mu      sync.Mutex
	drive   [Columns]Level
	pressed [Columns][Rows]bool
	reads   int
}

var _ Matrix = new(MockMatrix)

func NewMockMatrix() *MockMatrix {
	self := &MockMatrix{}
	for i := range self.drive {
		self.drive[i] = High
	}
	return self
}

func (self *MockMatrix) SetColumn(index int, level Level) {
	self.mu.Lock()
	self.drive[index] = level
	f := self.OnColumn
	self.mu.Unlock()
	if level == Low && f != nil {
		f(self, index)
	}
}

func (self *MockMatrix) ReadRow(index int) Level {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.reads++
	for c := 0; c < Columns; c++ {
		if self.drive[c] == Low && self.pressed[c][index] {
			return Low
		}
	}
	return High
}

func (self *MockMatrix) Press(keys ...Key) {
	self.set(true, keys)
}

func (self *MockMatrix) Release(keys ...Key) {
	self.set(false, keys)
}

func (self *MockMatrix) ReleaseAll() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.pressed = [Columns][Rows]bool{}
}

// Drive returns current column levels.
func (self *MockMatrix) Drive() [Columns]Level {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.drive
}

func (self *MockMatrix) Reads() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.reads
}

func (self *MockMatrix) set(down bool, keys []Key) {
	self.mu.Lock()
	defer self.mu.Unlock()
	for _, k := range keys {
		if !k.Valid() {
			panic("code error mock keypad invalid key=" + k.String())
		}
		self.pressed[k.Column()][k.Row()] = down
	}
}
