// Command potatocam extracts flat machining features from triangle meshes
// and derives 2.5D cutter paths around them.
//
// Usage:
//
//	potatocam features [-config job.yaml] [-format text|geojson] [-ground] [-v] part.stl
//	potatocam clearance [-config job.yaml] [-radius r] [-dxf out.dxf] [-geojson out.json] [-v] part.stl
//	potatocam sample [-config job.yaml] [-o out.stl] [-ascii] [-v] script.lisp
//
// features and clearance also accept a part script in place of an STL
// file; each part it defines is rendered and processed in turn.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/thatch/potatocam/internal/logging"
	"github.com/thatch/potatocam/pkg/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "potatocam:", err)
		}
		os.Exit(1)
	}
}

type command struct {
	name  string
	usage string
	run   func(args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"features", "list the flat features of a mesh", runFeatures},
	{"clearance", "offset every feature by the tool radius", runClearance},
	{"sample", "render a part script to STL", runSample},
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errors.New("no command given")
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(args[1:], stdout, stderr)
		}
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "-help" {
		usage(stdout)
		return nil
	}
	usage(stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: potatocam <command> [flags] <file>")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.usage)
	}
}

// common holds the flags every command takes.
type common struct {
	fs      *flag.FlagSet
	config  string
	verbose bool
}

func newFlagSet(name string, stderr io.Writer) *common {
	c := &common{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.fs.SetOutput(stderr)
	c.fs.StringVar(&c.config, "config", "", "YAML job file")
	c.fs.BoolVar(&c.verbose, "v", false, "debug logging")
	return c
}

// parse parses args, loads the job file and installs the logger. It
// returns the single positional argument.
func (c *common) parse(args []string, stderr io.Writer) (config.Config, string, error) {
	if err := c.fs.Parse(args); err != nil {
		return config.Config{}, "", err
	}
	if c.fs.NArg() != 1 {
		c.fs.Usage()
		return config.Config{}, "", fmt.Errorf("%s: expected one input file, got %d", c.fs.Name(), c.fs.NArg())
	}

	cfg := config.Default()
	if c.config != "" {
		var err error
		if cfg, err = config.Load(c.config); err != nil {
			return config.Config{}, "", err
		}
	}
	level, err := cfg.Level()
	if err != nil {
		return config.Config{}, "", err
	}
	if c.verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	return cfg, c.fs.Arg(0), nil
}

// isSet reports whether the named flag was given on the command line.
func (c *common) isSet(name string) bool {
	set := false
	c.fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
