package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/hexpad/cmd/hexpad/run"
	"github.com/temoto/hexpad/cmd/hexpad/sim"
	"github.com/temoto/hexpad/cmd/hexpad/subcmd"
	"github.com/temoto/hexpad/internal/state"
	"github.com/temoto/hexpad/log2"
)

var modules = []subcmd.Mod{
	run.Mod,
	sim.Mod,
}

func main() {
	log := log2.NewStderr(log2.LInfo)
	log.SetFlags(log2.LInteractiveFlags)

	flagset := flag.NewFlagSet("hexpad", flag.ExitOnError)
	configPath := flagset.String("config", "hexpad.hcl", "")
	flagset.Usage = func() {
		fmt.Fprintf(flagset.Output(), "Usage: hexpad [-config=hexpad.hcl] {%s}\n", subcmd.Names(modules))
		flagset.PrintDefaults()
	}
	if err := flagset.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	mod, err := subcmd.Parse(flagset.Arg(0), modules)
	if err != nil {
		log.Fatal(err)
	}

	if subcmd.SdNotify("start") {
		// under systemd assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	}
	log.Debugf("hexpad %s config=%s", mod.Name, *configPath)

	ctx, _ := state.NewContext(log)
	config := state.MustReadConfig(log, state.NewOsFullReader(), *configPath)
	if err := mod.Main(ctx, config); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}
