// Hardware keypad to LCD loop.
package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/hexpad/cmd/hexpad/subcmd"
	"github.com/temoto/hexpad/hardware/keypad"
	"github.com/temoto/hexpad/internal/pipeline"
	"github.com/temoto/hexpad/internal/state"
	"github.com/temoto/hexpad/log2"
)

var Mod = subcmd.Mod{Name: "run", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	log := log2.ContextValueLogger(ctx)
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	defer g.Close()

	p, err := NewPipeline(g)
	if err != nil {
		return err
	}

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		s := <-sigch
		log.Infof("signal=%v stopping, release held key to exit", s)
		g.Alive.Stop()
	}()

	subcmd.SdNotify(daemon.SdNotifyReady)
	log.Infof("ready debounce=%v idle=%v", g.Debounce(), g.Idle())
	p.Run(g.Alive)
	g.Alive.Wait()

	stat := p.Stat()
	log.Infof("stop rendered=%d clears=%d errors=%d", stat.Rendered, stat.Clears, stat.Errors)
	subcmd.SdNotify(daemon.SdNotifyStopping)
	return nil
}

// NewPipeline connects configured keypad, display and echo.
// Display is initialised here, so the screen is blank with cursor at home.
func NewPipeline(g *state.Global) (*pipeline.Pipeline, error) {
	display, err := g.Display()
	if err != nil {
		return nil, errors.Annotate(err, "display init")
	}
	matrix, err := g.Matrix()
	if err != nil {
		return nil, errors.Annotate(err, "keypad init")
	}
	p := pipeline.New(g.Log, matrix, display, keypad.NewGate(g.Debounce()))
	p.Echo = g.Echoer()
	p.Idle = g.Idle()
	return p, nil
}
