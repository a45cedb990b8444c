package domain

import (
	"golang.org/x/mod/module"

	"github.com/KonstantinGeist/skizo-sub000/internal/codegen"
)

// Options configures a new Domain. It mirrors the parameters every
// embedder entry point accepts: a source reference, a trust level and
// permission set, and where an untrusted domain's sandboxed files live.
type Options struct {
	// SourceReference names where the domain's code came from (a file
	// path, or a synthetic identifier like "<string>" for inline source).
	// When it looks like a module path it is validated with
	// golang.org/x/mod/module.CheckPath; free-form references (plain file
	// paths, "<string>") are accepted without that check.
	SourceReference string

	Trusted     bool
	Permissions []string

	// SecureRoot is the directory untrusted domains' sandboxes are
	// created under. Empty means the OS temp directory.
	SecureRoot string

	// ThreadPriority is an advisory niceness hint applied to the domain's
	// thread via internal/platform.
	ThreadPriority int

	ProfilingEnabled bool

	// Compiler hands the generated translation unit to a C compiler and
	// resolves its symbols. Nil means New installs a
	// codegen.NewExternalCCompiler rooted at a domain-private work
	// directory under os.TempDir.
	Compiler codegen.Compiler
}

// validateSourceReference rejects a source reference that looks like a
// module path (contains a slash) but isn't a well-formed one, catching
// embedder typos early rather than surfacing them as a mysterious read
// failure later. References with no slash (plain filenames, "<string>")
// are left alone.
func validateSourceReference(ref string) error {
	if ref == "" {
		return nil
	}
	hasSlash := false
	for _, r := range ref {
		if r == '/' {
			hasSlash = true
			break
		}
	}
	if !hasSlash {
		return nil
	}
	return module.CheckPath(ref)
}
