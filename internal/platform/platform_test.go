package platform

import "testing"

func TestLineEndingIsNonEmpty(t *testing.T) {
	if LineEnding() == "" {
		t.Fatal("expected a non-empty line ending")
	}
}

func TestFileSeparatorIsSingleRune(t *testing.T) {
	if len([]rune(FileSeparator())) != 1 {
		t.Fatal("expected the file separator to be exactly one rune")
	}
}

func TestSetThreadPriorityDoesNotPanic(t *testing.T) {
	SetThreadPriority(0)
}

func TestInitDeinitRefCounting(t *testing.T) {
	Init()
	Init()
	Deinit()
	if IsTornDown() {
		t.Fatal("singleton should still be held by one reference")
	}
	Deinit()
	if !IsTornDown() {
		t.Fatal("singleton should be torn down once every reference is released")
	}
}
