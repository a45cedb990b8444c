// Package codegen is the code generator bridge: it composes a single
// translation unit (prolog, per-class struct/vtable definitions,
// per-method bodies) from a closed set of classes, hands it to an
// embedded C compiler, and receives callable function pointers back for
// every method.
package codegen

import (
	"fmt"
	"strings"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// ClassSource is the subset of a metadata.Class the emitter needs to
// generate C for one class: its struct layout, its vtable-eligible
// methods, and an optional verbatim struct definition for resolver-
// synthesized classes: classes with a structDef get it emitted verbatim.
type ClassSource struct {
	Class       *metadata.Class
	StructDef   string // verbatim struct body, or "" to synthesize
	Methods     []*metadata.Method
	HasVtable   bool
}

// Bridge composes and compiles translation units for a single domain.
type Bridge struct {
	compiler Compiler
	profiler *Profiler
}

func NewBridge(compiler Compiler) *Bridge {
	return &Bridge{compiler: compiler, profiler: NewProfiler()}
}

// Profiler exposes the bridge's per-method tick-count accumulator, wired
// out to a real pprof profile by internal/codegen/profile.go.
func (b *Bridge) Profiler() *Profiler { return b.profiler }

// Emit composes the three-section translation unit: prolog, vtable
// registration, method bodies.
func (b *Bridge) Emit(classes []ClassSource, profilingEnabled bool) string {
	var sb strings.Builder

	sb.WriteString(prolog())
	for _, cs := range classes {
		sb.WriteString(emitStruct(cs))
	}
	for _, cs := range classes {
		for _, m := range cs.Methods {
			sb.WriteString(forwardDecl(cs, m))
		}
	}

	sb.WriteString("\nvoid _soX_register_vtables(void) {\n")
	for _, cs := range classes {
		if cs.HasVtable {
			fmt.Fprintf(&sb, "\t_soX_regvtable(%q, &%s_vtable);\n", cs.Class.FlatName, mangle(cs.Class.FlatName))
		}
	}
	sb.WriteString("\t_soX_patchstrings();\n")
	sb.WriteString("}\n")

	for _, cs := range classes {
		for _, m := range cs.Methods {
			sb.WriteString(emitMethodBody(cs, m, profilingEnabled))
		}
	}

	return sb.String()
}

func prolog() string {
	return `/* generated translation unit */
#include <stdint.h>
#include <stddef.h>

typedef struct SkizoVTable { void* classPtr; void* slots[]; } SkizoVTable;
typedef struct SkizoArray { SkizoVTable* vtable; int64_t length; char firstElement[]; } SkizoArray;

extern void _soX_regvtable(const char* flatName, void* vtable);
extern void _soX_patchstrings(void);
extern void _soX_abort(int code);
extern void _soX_abort_msg(const char* msg);
extern void* _soX_alloc(void* vtable, size_t size);
extern void _soX_frame_push(void);
extern void _soX_frame_pop(void);
extern int _soX_stack_overflow_check(void);
extern uint64_t _soX_rdtsc(void);
extern void _soX_profile_tick(const char* symbol, uint64_t ticks);

`
}

func emitStruct(cs ClassSource) string {
	name := mangle(cs.Class.FlatName)
	if cs.StructDef != "" {
		return fmt.Sprintf("typedef struct %s {\n%s\n} %s;\n\n", name, cs.StructDef, name)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "typedef struct %s {\n\tSkizoVTable* vtable;\n", name)
	for _, f := range cs.Class.InstanceFields {
		fmt.Fprintf(&sb, "\t/* offset %d */ void* %s;\n", f.Offset, f.Name)
	}
	fmt.Fprintf(&sb, "} %s;\n\n", name)
	if cs.HasVtable {
		fmt.Fprintf(&sb, "void* %s_vtable[%d];\n\n", name, len(cs.Methods)+1)
	}
	return sb.String()
}

func forwardDecl(cs ClassSource, m *metadata.Method) string {
	return fmt.Sprintf("void* %s(void* self, void** args);\n", methodSymbol(cs, m))
}

func emitMethodBody(cs ClassSource, m *metadata.Method, profilingEnabled bool) string {
	body := m.Body.LiteralC
	if body == "" {
		body = "/* body compiled from expression tree, elided */ return NULL;"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "void* %s(void* self, void** args) {\n", methodSymbol(cs, m))
	sb.WriteString("\t_soX_frame_push();\n")
	if profilingEnabled {
		sb.WriteString("\tuint64_t _soX_tick0 = _soX_rdtsc();\n")
	}
	sb.WriteString("\tif (_soX_stack_overflow_check()) { _soX_abort(7); }\n")
	sb.WriteString("\t" + strings.ReplaceAll(body, "\n", "\n\t") + "\n")
	if profilingEnabled {
		fmt.Fprintf(&sb, "\t_soX_profile_tick(%q, _soX_rdtsc() - _soX_tick0);\n", methodSymbol(cs, m))
	}
	sb.WriteString("\t_soX_frame_pop();\n")
	sb.WriteString("\treturn NULL;\n}\n\n")
	return sb.String()
}

func methodSymbol(cs ClassSource, m *metadata.Method) string {
	return fmt.Sprintf("_so_%s_%s", mangle(cs.Class.FlatName), mangle(m.Name))
}

// MethodSymbol exposes the emitter's method-name mangling so callers that
// resolve compiled symbols after Emit (internal/domain's codegen step)
// derive the exact same symbol without duplicating the mangling rule.
func MethodSymbol(cs ClassSource, m *metadata.Method) string {
	return methodSymbol(cs, m)
}

func mangle(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
