// Command skizo embeds a runtime domain and exposes it as a CLI: run a
// program, run one with a restricted permission set, snapshot a live
// object graph, or disassemble a compiled method body.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/KonstantinGeist/skizo-sub000/internal/domain"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// command is one entry in the CLI's command table: a name, a one-line
// usage string, and a Run func taking the remaining arguments.
type command struct {
	Name      string
	UsageLine string
	Short     string
	Run       func(ctx context.Context, args []string) error
}

var commands = []*command{
	runCmd,
	runUntrustedCmd,
	snapshotCmd,
	disasmCmd,
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("skizo: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	for _, c := range commands {
		if c.Name == name {
			if err := c.Run(context.Background(), os.Args[2:]); err != nil {
				log.Fatal(err)
			}
			return
		}
	}

	fmt.Fprintf(os.Stderr, "skizo: unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: skizo <command> [arguments]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "\t%-28s %s\n", c.UsageLine, c.Short)
	}
}

// noFrontEnd is the narrow external-collaborator hook every embedder
// entry point in internal/domain takes in place of an actual lexer/parser
// (explicitly out of scope for this module). The CLI has no front end
// embedded, so it reports that plainly instead of pretending to parse.
func noFrontEnd(string) ([]*metadata.Class, error) {
	return nil, fmt.Errorf("skizo: no source front end is embedded in this build; link one in via a custom main that calls internal/domain directly with a domain.ParseFunc")
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var runCmd = &command{
	Name:      "run",
	UsageLine: "skizo run <path>",
	Short:     "run a program as a trusted domain",
	Run: func(ctx context.Context, args []string) error {
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		fs.Parse(args)
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: skizo run <path>")
		}
		_, err := domain.RunPath(fs.Arg(0), nil, noFrontEnd, nil)
		return err
	},
}

var runUntrustedCmd = &command{
	Name:      "run-untrusted",
	UsageLine: "skizo run-untrusted -permissions=a,b,c -secure-root=dir <path>",
	Short:     "run a program as an untrusted domain with a restricted permission set",
	Run: func(ctx context.Context, args []string) error {
		fs := flag.NewFlagSet("run-untrusted", flag.ExitOnError)
		permissions := fs.String("permissions", "", "comma-separated permission names to grant")
		secureRoot := fs.String("secure-root", os.TempDir(), "directory untrusted sandboxes are created under")
		fs.Parse(args)
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: skizo run-untrusted -permissions=a,b,c -secure-root=dir <path>")
		}
		_, err := domain.RunPathUntrusted(fs.Arg(0), splitCSV(*permissions), *secureRoot, nil, noFrontEnd, nil)
		return err
	},
}

// newTrustedRunningDomain creates a domain, reads and parses path, links,
// codegens, and runs Program.main, but — unlike RunPath — leaves the
// domain alive (not torn down) so its exported-object table can still be
// read afterward. Callers must call Teardown themselves.
func newTrustedRunningDomain(path string) (*domain.Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := domain.CreateDomain(domain.Options{SourceReference: path, Trusted: true}, nil, noFrontEnd, string(data), nil)
	if err != nil {
		return nil, err
	}
	if _, err := d.RunMain(); err != nil {
		d.Teardown()
		return nil, err
	}
	return d, nil
}
