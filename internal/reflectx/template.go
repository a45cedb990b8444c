package reflectx

import (
	"strconv"
	"strings"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// ObjectModel is the thin seam between template rendering and a running
// domain's live objects: invoking a bound method, materializing an
// argument as a heap value, and converting a result down to a display
// string via its class's toString. internal/domain supplies the real
// implementation; tests supply a fake one.
type ObjectModel interface {
	ClassOf(obj uintptr) (*metadata.Class, error)
	InvokeMethod(method *metadata.Method, self uintptr, args []uintptr) (uintptr, error)
	NewIntArg(v int) uintptr
	NewStringArg(v string) uintptr
	ToDisplayString(class *metadata.Class, obj uintptr) (string, error)
}

// step is one call in a placeholder's property-access chain (e.g. "{a b}"
// is two steps: call a, then call b on its result). Grounded on
// CMethodWithArgument.
type step struct {
	method  *metadata.Method
	hasArg  bool
	intArg  int
	strArg  string
	isIntArg bool
}

// part is one piece of a parsed template: either a literal run of text, or
// a dynamic chain of steps whose final result is rendered via toString.
type part struct {
	literal string
	steps   []step
}

// Template is a parsed "{a b}"-placeholder template bound to one class:
// every dynamic placeholder was resolved against that class's methods at
// parse time, so rendering never needs to re-resolve method names.
type Template struct {
	class *metadata.Class
	parts []part
}

// isRenderableClass is the allow-list: abstract/static classes have no
// instances, and only a few special-class kinds make sense as template
// subjects. Value types are not rejected here; Render matches a boxed
// object against the template's class by its wrapped class.
func isRenderableClass(class *metadata.Class) bool {
	if class.Flags.HasAbstract() || class.Flags.HasStatic() {
		return false
	}
	switch class.Special {
	case metadata.SpecialNone, metadata.SpecialArray, metadata.SpecialFailable, metadata.SpecialMethodClass:
		return true
	default:
		return false
	}
}

// CreateTemplate parses source into a Template bound to class, resolving
// every placeholder's method chain eagerly so a malformed template is
// rejected before any rendering is attempted.
func CreateTemplate(source string, class *metadata.Class) (*Template, error) {
	if !isRenderableClass(class) {
		return nil, metadata.NewAbortMessage("The class is not renderable.")
	}

	var parts []part
	isStatic := true
	lastIndex := 0

	for i := 0; i < len(source); i++ {
		c := source[i]
		switch c {
		case '{':
			if !isStatic {
				return nil, metadata.NewAbortMessage("nested '{' not allowed")
			}
			if i != lastIndex {
				parts = append(parts, part{literal: source[lastIndex:i]})
			}
			isStatic = false
			lastIndex = i + 1
		case '}':
			if isStatic {
				return nil, metadata.NewAbortMessage("Nested '}' not allowed.")
			}
			if i == lastIndex {
				return nil, metadata.NewAbortMessage("Empty placeholder not allowed.")
			}
			literal := source[lastIndex:i]
			isStatic = true
			lastIndex = i + 1

			steps, err := parsePlaceholder(literal, class)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part{steps: steps})
		}
	}

	if !isStatic {
		return nil, metadata.NewAbortMessage("Unclosed placeholder.")
	}
	if lastIndex < len(source) {
		parts = append(parts, part{literal: source[lastIndex:]})
	}

	return &Template{class: class, parts: parts}, nil
}

// splitPlaceholder splits a placeholder body on spaces, treating
// single-quoted runs as one element. Grounded on Template.cpp's split(..):
// a quote must be preceded by a space (or start the string) and followed
// by a space (or end the string).
func splitPlaceholder(src string) ([]string, error) {
	var result []string
	lastIndex := 0
	quote := false

	for i := 0; i < len(src); i++ {
		c := src[i]
		if !quote && c == ' ' {
			if i != lastIndex {
				result = append(result, src[lastIndex:i])
			}
			lastIndex = i + 1
		} else if c == '\'' {
			if !quote && i > 0 && src[i-1] != ' ' {
				return nil, metadata.NewAbortMessage("A space required before a quote.")
			}
			if quote && i < len(src)-1 && src[i+1] != ' ' {
				return nil, metadata.NewAbortMessage("A space is required after a quote.")
			}
			quote = !quote
		}
	}
	if quote {
		return nil, metadata.NewAbortMessage("Unclosed quotation.")
	}
	if len(src) != lastIndex {
		result = append(result, src[lastIndex:])
	}
	return result, nil
}

func tryParseSingleQuoteString(s string) (string, bool) {
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	inner := s[1 : len(s)-1]
	if strings.ContainsRune(inner, '\'') {
		return "", false
	}
	return inner, true
}

// isSuitableGetArgumentType accepts the concrete expected parameter class
// as well as the two hardcoded interfaces any/MapKey, the escape hatch
// that lets one generic-container accessor serve any element type.
func isSuitableGetArgumentType(paramClassName, wantClassName string) bool {
	return paramClassName == wantClassName || paramClassName == "any" || paramClassName == "MapKey"
}

func getMethodForClass(class *metadata.Class, argClassName string) (*metadata.Method, error) {
	m, ok := class.Member("get")
	method, isMethod := m.(*metadata.Method)
	if !ok || !isMethod || method.Kind != metadata.MethodNormal {
		return nil, metadata.NewAbortMessage("No `get` method found.")
	}
	if len(method.Sig.Params) != 1 || method.Sig.Return == nil || method.Sig.Return.Prim == metadata.PrimVoid {
		return nil, metadata.NewAbortMessage("Object has no method `get` with an appropriate signature.")
	}
	paramClassName := ""
	if p := method.Sig.Params[0].Type; p != nil && p.Resolved != nil {
		paramClassName = p.Resolved.FlatName
	}
	if !isSuitableGetArgumentType(paramClassName, argClassName) {
		return nil, metadata.NewAbortMessage("Object has no method `get` with an appropriate signature.")
	}
	return method, nil
}

// parsePlaceholder resolves one "{...}" body into a chain of steps,
// threading the return type of each step as the lookup class for the
// next, mirroring addObjectPart's tmpClass walk.
func parsePlaceholder(literal string, class *metadata.Class) ([]step, error) {
	elems, err := splitPlaceholder(literal)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, metadata.NewAbortMessage("Empty placeholder not allowed.")
	}

	var steps []step
	cur := class

	for _, elem := range elems {
		if n, err := strconv.Atoi(elem); err == nil {
			method, err := getMethodForClass(cur, "int")
			if err != nil {
				return nil, err
			}
			steps = append(steps, step{method: method, hasArg: true, isIntArg: true, intArg: n})
			cur = returnClass(method)
			continue
		}

		if s, ok := tryParseSingleQuoteString(elem); ok {
			method, err := getMethodForClass(cur, "string")
			if err != nil {
				return nil, err
			}
			steps = append(steps, step{method: method, hasArg: true, strArg: s})
			cur = returnClass(method)
			continue
		}

		member, ok := cur.Member(elem)
		method, isMethod := member.(*metadata.Method)
		if !ok || !isMethod {
			return nil, metadata.NewAbortMessage("Unknown method.")
		}
		if len(method.Sig.Params) != 0 || method.Sig.Return == nil || method.Sig.Return.Prim == metadata.PrimVoid {
			return nil, metadata.NewAbortMessage("Placeholder refers to a method which is not property-like.")
		}
		steps = append(steps, step{method: method})
		cur = returnClass(method)
	}

	return steps, nil
}

func returnClass(m *metadata.Method) *metadata.Class {
	if m.Sig.Return == nil {
		return nil
	}
	return m.Sig.Return.Resolved
}

// Render executes every part against obj: literal parts are appended
// verbatim, dynamic parts thread obj through their step chain via om and
// the final result is converted to a string with toDisplayString.
func (t *Template) Render(obj uintptr, om ObjectModel) (string, error) {
	class, err := om.ClassOf(obj)
	if err != nil {
		return "", err
	}
	if class.Special == metadata.SpecialBoxed {
		class = class.WrappedClass
	}
	if class != t.class {
		return "", metadata.NewAbortMessage("The rendered object is of a wrong type.")
	}

	var sb strings.Builder
	for _, p := range t.parts {
		if p.steps == nil {
			sb.WriteString(p.literal)
			continue
		}
		result, err := invokeChain(obj, p.steps, om)
		if err != nil {
			return "", err
		}
		if result == 0 {
			continue
		}
		resultClass, err := om.ClassOf(result)
		if err != nil {
			return "", err
		}
		text, err := om.ToDisplayString(resultClass, result)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func invokeChain(obj uintptr, steps []step, om ObjectModel) (uintptr, error) {
	cur := obj
	for _, s := range steps {
		var args []uintptr
		if s.hasArg {
			if s.isIntArg {
				args = []uintptr{om.NewIntArg(s.intArg)}
			} else {
				args = []uintptr{om.NewStringArg(s.strArg)}
			}
		}
		result, err := om.InvokeMethod(s.method, cur, args)
		if err != nil {
			return 0, err
		}
		cur = result
	}
	return cur, nil
}
