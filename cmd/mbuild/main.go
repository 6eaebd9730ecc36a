// Command mbuild parses one or more build manifests and prints a summary
// of what they declare. It does not build anything: no command in any
// manifest is ever executed.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	mbuild "github.com/c-klapaucius/mbuild"
	"github.com/c-klapaucius/mbuild/internal/mlog"
)

type cli struct {
	Manifests []string `arg:"" name:"manifest" help:"Manifest files to parse." optional:""`
	DupBuild  string   `name:"w-dupbuild" enum:"warn,err" default:"warn" help:"How to treat two build statements producing the same output."`
	Quiet     bool     `name:"quiet" help:"Suppress non-fatal warnings."`
	Verbose   bool     `name:"verbose" help:"Enable debug-level logging."`
}

func main() {
	var c cli
	kong.Parse(&c, kong.Description("Parses build manifests and reports what they declare."))

	mlog.ConfigureConsole(c.Verbose)

	if len(c.Manifests) == 0 {
		c.Manifests = []string{"build.mbuild"}
	}

	action := mbuild.DupeEdgeWarn
	if c.DupBuild == "err" {
		action = mbuild.DupeEdgeError
	}

	state := mbuild.NewState()
	parser := mbuild.NewManifestParser(state, mbuild.RealFileReader{}, mbuild.ManifestParserOptions{
		DupeEdgeAction: action,
		Quiet:          c.Quiet,
	})

	red := color.New(color.FgRed, color.Bold)
	for _, m := range c.Manifests {
		if err := parser.Load(m, nil); err != nil {
			red.Fprintf(os.Stderr, "mbuild: %s\n", err)
			os.Exit(1)
		}
	}

	printSummary(state)
}

func printSummary(state *mbuild.State) {
	green := color.New(color.FgGreen)
	green.Printf("rules: %d  pools: %d  edges: %d\n",
		len(state.Bindings.Rules), len(state.Pools), len(state.Edges))

	defaults := state.DefaultNodes()
	fmt.Printf("default targets (%d):\n", len(defaults))
	for _, n := range defaults {
		fmt.Printf("  %s\n", n.Path)
	}
}
