package main

import (
	"context"
	"debug/elf"
	"flag"
	"fmt"
	"os"

	"golang.org/x/arch/x86/x86asm"
)

// findSymbol locates a function symbol's file offset and size within an
// ELF shared object: a symbol-table lookup followed by a section-address
// range check, the standard way to turn a name into raw instruction bytes
// before disassembling them.
func findSymbol(path, name string) (offset int64, size int64, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("disasm: opening %s: %w", path, err)
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil {
		return 0, 0, fmt.Errorf("disasm: reading symbols: %w", err)
	}
	for _, s := range syms {
		if s.Name != name || elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		for _, sect := range f.Sections {
			if sect.Addr == 0 || s.Value < sect.Addr || s.Value >= sect.Addr+sect.Size {
				continue
			}
			return int64(s.Value-sect.Addr) + int64(sect.Offset), int64(s.Size), nil
		}
	}
	return 0, 0, fmt.Errorf("disasm: symbol %q not found in %s", name, path)
}

// disasmBytes walks code with x86asm.Decode in 64-bit mode, formatting
// each instruction with GNUSyntax the way an objdump-style tool would.
func disasmBytes(code []byte, base uint64) []string {
	var lines []string
	for pc := uint64(0); int(pc) < len(code); {
		inst, err := x86asm.Decode(code[pc:], 64)
		size := inst.Len
		var text string
		if err != nil || size == 0 {
			size = 1
			text = "?"
		} else {
			text = x86asm.GNUSyntax(inst, base+pc, nil)
		}
		lines = append(lines, fmt.Sprintf("%8x:\t%-28x\t%s", base+pc, code[pc:pc+uint64(size)], text))
		pc += uint64(size)
	}
	return lines
}

var disasmCmd = &command{
	Name:      "disasm",
	UsageLine: "skizo disasm -symbol=name <shared-object>",
	Short:     "disassemble a compiled method body out of a shared object",
	Run: func(ctx context.Context, args []string) error {
		fs := flag.NewFlagSet("disasm", flag.ExitOnError)
		symbol := fs.String("symbol", "", "mangled method symbol to disassemble, see codegen.MethodSymbol")
		fs.Parse(args)
		if fs.NArg() != 1 || *symbol == "" {
			return fmt.Errorf("usage: skizo disasm -symbol=name <shared-object>")
		}
		path := fs.Arg(0)

		off, size, err := findSymbol(path, *symbol)
		if err != nil {
			return err
		}
		if size == 0 {
			return fmt.Errorf("disasm: symbol %q has zero size, nothing to decode", *symbol)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("disasm: reading %s: %w", path, err)
		}
		if off+size > int64(len(raw)) {
			return fmt.Errorf("disasm: symbol %q runs past end of file", *symbol)
		}

		for _, line := range disasmBytes(raw[off:off+size], uint64(off)) {
			fmt.Println(line)
		}
		return nil
	},
}
