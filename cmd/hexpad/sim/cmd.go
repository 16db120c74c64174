// Keypad and LCD simulator on terminal.
// Type hex digits to tap keys, screen is printed after every line.
package sim

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/temoto/hexpad/cmd/hexpad/run"
	"github.com/temoto/hexpad/cmd/hexpad/subcmd"
	"github.com/temoto/hexpad/hardware/keypad"
	"github.com/temoto/hexpad/hardware/lcd"
	"github.com/temoto/hexpad/helpers/cli"
	"github.com/temoto/hexpad/internal/pipeline"
	"github.com/temoto/hexpad/internal/state"
	"github.com/temoto/hexpad/log2"
)

var Mod = subcmd.Mod{Name: "sim", Main: Main}

var suggestions = []prompt.Suggest{
	{Text: "screen", Description: "print display"},
	{Text: "stat", Description: "rendered and cleared counters"},
	{Text: "quit", Description: "exit"},
}

func Main(ctx context.Context, config *state.Config) error {
	config.Hardware.Keypad.Driver = state.DriverMock
	config.Hardware.HD44780.Driver = state.DriverMock
	log := log2.ContextValueLogger(ctx)
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	defer g.Close()

	s, err := NewSim(g, os.Stdout)
	if err != nil {
		return err
	}
	// go-prompt loop only ends with process
	s.OnQuit = func() {
		log.Infof("bye")
		g.Close()
		os.Exit(0)
	}
	s.Screen()
	cli.MainLoop(log, "hexpad> ", s.Exec, cli.Suggest(suggestions))
	return nil
}

type Sim struct {
	Pipeline *pipeline.Pipeline
	Matrix   *keypad.MockMatrix
	Display  *lcd.MockDevice
	Out      io.Writer
	// OnQuit is called by "quit" command, nil = ignore
	OnQuit   func()
}

// NewSim requires mock keypad and display. Debounce pause releases
// the pressed key, so every typed digit is a complete tap.
func NewSim(g *state.Global, w io.Writer) (*Sim, error) {
	p, err := run.NewPipeline(g)
	if err != nil {
		return nil, err
	}
	matrix, ok := p.Matrix.(*keypad.MockMatrix)
	if !ok {
		return nil, fmt.Errorf("sim requires keypad driver=mock actual=%T", p.Matrix)
	}
	display, ok := p.Display.(*lcd.MockDevice)
	if !ok {
		return nil, fmt.Errorf("sim requires hd44780 driver=mock actual=%T", p.Display)
	}
	p.Gate.Sleep = func(time.Duration) { matrix.ReleaseAll() }
	return &Sim{Pipeline: p, Matrix: matrix, Display: display, Out: w}, nil
}

func (self *Sim) Exec(line string) {
	switch line {
	case "":
		return
	case "screen":
		self.Screen()
		return
	case "stat":
		stat := self.Pipeline.Stat()
		fmt.Fprintf(self.Out, "rendered=%d clears=%d errors=%d %s\n", stat.Rendered, stat.Clears, stat.Errors, self.Pipeline.Cursor)
		return
	case "quit", "exit":
		if self.OnQuit != nil {
			self.OnQuit()
		}
		return
	}

	keys := make([]keypad.Key, 0, len(line))
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == ' ' {
			continue
		}
		k, ok := keypad.ParseKey(c)
		if !ok {
			fmt.Fprintf(self.Out, "unknown key=%q, valid: 0-9 A-F or %s\n", c, commandNames())
			return
		}
		keys = append(keys, k)
	}
	for _, k := range keys {
		self.Matrix.Press(k)
		if !self.Pipeline.Step() {
			self.Pipeline.Log.Errorf("code error key=%s not scanned", k)
		}
	}
	self.Screen()
}

func (self *Sim) Screen() {
	border := "+" + strings.Repeat("-", lcd.Width) + "+"
	fmt.Fprintf(self.Out, "%s\n|%s|\n|%s|\n%s\n", border, self.Display.Line(1), self.Display.Line(2), border)
}

func commandNames() string {
	names := make([]string, len(suggestions))
	for i, s := range suggestions {
		names[i] = s.Text
	}
	return strings.Join(names, ", ")
}
