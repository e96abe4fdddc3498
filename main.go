// Command occ boots a Lua firmware image from a tar archive on a small
// component-bus computer.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"

	"github.com/nf/occ/machine"
	"github.com/nf/occ/tarfs"
)

func main() {
	log.SetPrefix("occ: ")
	log.SetFlags(0)

	var (
		textFlag  = flag.Bool("text", false, "run on the terminal instead of in a window")
		labelFlag = flag.String("label", "initrd", "filesystem `label`")
		devFlag   = flag.Bool("dev", false, "enable developer mode (re-pack and reboot a directory when it changes)")
		debugFlag = flag.Bool("debug", false, "enable debug view (implies -dev and disables -text)")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-text] [-label name] <archive.tar | dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [-text] [-label name] <-dev | -debug> <dir>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}

	if *devFlag || *debugFlag {
		gui := !*textFlag || *debugFlag
		if err := devMode(gui, *debugFlag, flag.Arg(0), *labelFlag); err != nil {
			log.Fatal(err)
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	code, err := run(flag.Arg(0), *labelFlag, !*textFlag)

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

func run(path, label string, guiEnabled bool) (int, error) {
	archive, err := tarfs.Load(path)
	if err != nil {
		return 0, err
	}
	r := machine.NewRunner(guiEnabled, false, nil)
	return r.Run(machine.Config{Archive: archive, Label: label}), nil
}
