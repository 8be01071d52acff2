// Command thmaptool inspects, creates, edits and renders thematic maps
// without the GUI.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
)

type command struct {
	name  string
	usage string
	run   func(args []string, stdout io.Writer) error
}

var commands = []command{
	{"info", "info [-config file] map.fits", runInfo},
	{"new", "new -size WxH [-date DATE-OBS] [-config file] -o out.fits", runNew},
	{"template", "template (-dir obsdir | -fits channel.fits) [-config file] -o out.fits", runTemplate},
	{"relabel", "relabel -at x,y -label name [-config file] [-o out.fits] map.fits", runRelabel},
	{"trace", "trace -at x,y [-method greedy|contour] [-simplify eps] [-config file] map.fits", runTrace},
	{"render", "render [-preview obsdir] [-legend] [-at x,y] [-config file] -o out.png map.fits", runRender},
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: thmaptool <command> [flags]")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  thmaptool %s\n", c.usage)
	}
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "thmaptool %s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(2)
}
