package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/KonstantinGeist/skizo-sub000/internal/gcheap"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
	"github.com/KonstantinGeist/skizo-sub000/internal/snapshot"
)

// heapSource adapts a domain's live heap cells to internal/snapshot's
// Source seam: a cell's address (see gcheap.CellHandle) stands in for the
// object reference emitted code would otherwise pass around.
type heapSource struct{}

func (heapSource) ClassOf(obj uintptr) (*metadata.Class, error) {
	cell := gcheap.CellFromHandle(obj)
	if cell == nil {
		return nil, fmt.Errorf("snapshot: nil object reference")
	}
	cls, ok := cell.Class.(*metadata.Class)
	if !ok {
		return nil, fmt.Errorf("snapshot: cell has no concrete class attached")
	}
	return cls, nil
}

func (heapSource) Properties(obj uintptr) ([]snapshot.Property, error) {
	cell := gcheap.CellFromHandle(obj)
	cls, ok := cell.Class.(*metadata.Class)
	if !ok {
		return nil, fmt.Errorf("snapshot: cell has no concrete class attached")
	}
	props := make([]snapshot.Property, 0, len(cls.InstanceFields))
	for _, f := range cls.InstanceFields {
		if f.IsStatic || f.IsConst {
			continue
		}
		var value uintptr
		if ref, ok := cell.Refs[f.Offset]; ok {
			value = gcheap.CellHandle(ref)
		}
		var valueClass *metadata.Class
		if f.Type != nil {
			valueClass = f.Type.Resolved
		}
		props = append(props, snapshot.Property{
			SetterName: "set" + strings.Title(f.Name), //nolint:staticcheck // matches the emitted setter-name convention, not display text
			ValueClass: valueClass,
			Value:      value,
		})
	}
	return props, nil
}

func (heapSource) BoxedBytes(obj uintptr) ([]byte, error) {
	cell := gcheap.CellFromHandle(obj)
	if cell == nil {
		return nil, fmt.Errorf("snapshot: nil object reference")
	}
	return cell.Bytes, nil
}

var snapshotCmd = &command{
	Name:      "snapshot",
	UsageLine: "skizo snapshot -out=file.bin <path>",
	Short:     "run a program and snapshot the object it exports as \"snapshot-root\"",
	Run: func(ctx context.Context, args []string) error {
		fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
		out := fs.String("out", "snapshot.bin", "output file for the snapshot bytes")
		fs.Parse(args)
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: skizo snapshot -out=file.bin <path>")
		}

		d, err := newTrustedRunningDomain(fs.Arg(0))
		if err != nil {
			return err
		}
		defer d.Teardown()

		root, ok := d.Exported("snapshot-root")
		if !ok {
			return fmt.Errorf("snapshot: the program never exported an object named %q", "snapshot-root")
		}

		data, err := snapshot.Snapshot(root, heapSource{})
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		return os.WriteFile(*out, data, 0o644)
	},
}
