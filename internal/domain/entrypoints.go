package domain

import (
	"fmt"
	"os"

	"github.com/KonstantinGeist/skizo-sub000/internal/codegen"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// ParseFunc is the narrow contract the external front end (lexer, parser,
// the line-by-line C emitter's source-level counterpart) satisfies: turn
// source text into a closed-enough set of classes for Link to finalize.
// Neither parsing nor emission of expression bodies lives in this module;
// every embedder entry point below takes one of these instead.
type ParseFunc func(sourceText string) ([]*metadata.Class, error)

// CreateDomain is the common path every other entry point funnels
// through: construct a domain, parse source into classes, link, and
// codegen. It does not run Program.main or tear the domain down — callers
// decide when to do that (RunPath/RunString below do both immediately).
//
// If parent is non-nil and untrusted, the new domain inherits the
// parent's trust level and permission set regardless of opts, mirroring
// the rule that an untrusted domain may not spawn a domain with a
// different permission set. compiler may be nil to let New install the
// default external C compiler; tests pass a fake.
func CreateDomain(opts Options, compiler codegen.Compiler, parse ParseFunc, sourceText string, parent *Domain) (*Domain, error) {
	if parent != nil && !parent.Security.IsTrusted() {
		opts.Trusted = false
		opts.Permissions = parent.Security.Permissions()
	}
	opts.Compiler = compiler

	d, err := New(opts)
	if err != nil {
		return nil, err
	}

	classes, err := parse(sourceText)
	if err != nil {
		d.Teardown()
		return nil, fmt.Errorf("domain: parsing %q: %w", opts.SourceReference, err)
	}
	if err := d.Link(classes); err != nil {
		d.Teardown()
		return nil, err
	}
	if err := d.CodeGen(); err != nil {
		d.Teardown()
		return nil, err
	}
	d.StartListening()
	return d, nil
}

// runAndTeardown runs Program.main to completion and tears the domain
// down regardless of outcome, the way the lifecycle description says a
// domain "runs until main returns or an abort propagates, then tears down
// its heap and unregisters exported objects."
func runAndTeardown(d *Domain) (*Domain, error) {
	_, runErr := d.RunMain()
	d.Teardown()
	if runErr != nil {
		return nil, runErr
	}
	return d, nil
}

// RunPath reads source from path and runs it as a trusted domain to
// completion.
func RunPath(path string, compiler codegen.Compiler, parse ParseFunc, parent *Domain) (*Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("domain: reading %s: %w", path, err)
	}
	d, err := CreateDomain(Options{SourceReference: path, Trusted: true}, compiler, parse, string(data), parent)
	if err != nil {
		return nil, err
	}
	return runAndTeardown(d)
}

// RunString runs source as a trusted domain to completion.
func RunString(source string, compiler codegen.Compiler, parse ParseFunc, parent *Domain) (*Domain, error) {
	d, err := CreateDomain(Options{SourceReference: "<string>", Trusted: true}, compiler, parse, source, parent)
	if err != nil {
		return nil, err
	}
	return runAndTeardown(d)
}

// RunStringUntrusted runs source as an untrusted domain, granted exactly
// permissions, to completion.
func RunStringUntrusted(source string, permissions []string, secureRoot string, compiler codegen.Compiler, parse ParseFunc, parent *Domain) (*Domain, error) {
	d, err := CreateDomain(Options{
		SourceReference: "<string>",
		Trusted:         false,
		Permissions:     permissions,
		SecureRoot:      secureRoot,
	}, compiler, parse, source, parent)
	if err != nil {
		return nil, err
	}
	return runAndTeardown(d)
}

// RunPathUntrusted reads source from path and runs it as an untrusted
// domain, granted exactly permissions, to completion.
func RunPathUntrusted(path string, permissions []string, secureRoot string, compiler codegen.Compiler, parse ParseFunc, parent *Domain) (*Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("domain: reading %s: %w", path, err)
	}
	d, err := CreateDomain(Options{
		SourceReference: path,
		Trusted:         false,
		Permissions:     permissions,
		SecureRoot:      secureRoot,
	}, compiler, parse, string(data), parent)
	if err != nil {
		return nil, err
	}
	return runAndTeardown(d)
}
