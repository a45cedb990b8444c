package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

func TestTrustedByDefault(t *testing.T) {
	m := New()
	if !m.IsTrusted() {
		t.Fatal("new manager should start trusted")
	}
}

func TestSetTrustedIsOneWay(t *testing.T) {
	m := New()
	m.SetTrusted(false)
	if m.IsTrusted() {
		t.Fatal("manager should be untrusted after SetTrusted(false)")
	}
	m.SetTrusted(true)
	if m.IsTrusted() {
		t.Fatal("elevating back to trusted must be ignored")
	}
}

func TestDemandPermissionPassesWhenTrusted(t *testing.T) {
	m := New()
	if err := m.DemandPermission("FileIOPermission"); err != nil {
		t.Fatalf("trusted domain should never need a permission: %v", err)
	}
}

func TestDemandPermissionDeniedWhenUntrustedAndUngranted(t *testing.T) {
	m := New()
	m.SetTrusted(false)
	err := m.DemandPermission("FileIOPermission")
	if err == nil {
		t.Fatal("expected demand to fail without the permission granted")
	}
	ae, ok := err.(*metadata.AbortError)
	if !ok || ae.Code != metadata.ErrDisallowedCall {
		t.Fatalf("err = %v, want ErrDisallowedCall", err)
	}
}

func TestDemandPermissionGrantedPasses(t *testing.T) {
	m := New()
	m.SetTrusted(false)
	m.AddPermission("FileIOPermission")
	if err := m.DemandPermission("FileIOPermission"); err != nil {
		t.Fatalf("granted permission should pass: %v", err)
	}
}

func TestValidatePathIsSecureRejectsBackslash(t *testing.T) {
	if err := validatePathIsSecure(`a\b`); err == nil {
		t.Fatal("expected backslash to be rejected")
	}
}

func TestValidatePathIsSecureRejectsParent(t *testing.T) {
	if err := validatePathIsSecure("a/../b"); err == nil {
		t.Fatal("expected .. to be rejected")
	}
}

func TestValidatePathIsSecureRejectsNul(t *testing.T) {
	if err := validatePathIsSecure("a\x00b"); err == nil {
		t.Fatal("expected embedded NUL to be rejected")
	}
}

func TestValidatePathIsSecureAcceptsPlain(t *testing.T) {
	if err := validatePathIsSecure("a/b/c.txt"); err != nil {
		t.Fatalf("plain relative path should be accepted: %v", err)
	}
}

func TestSecureIOTrustedUsesProcessCurrentDirectory(t *testing.T) {
	m := New()
	sio := NewSecureIO(m)
	dir, err := sio.CurrentDirectory()
	if err != nil {
		t.Fatalf("CurrentDirectory: %v", err)
	}
	if dir == "" {
		t.Fatal("expected a non-empty current directory")
	}
}

func TestSecureIOUntrustedWithoutPermissionNeverInitializes(t *testing.T) {
	m := New()
	m.SetTrusted(false)
	sio := NewSecureIO(m)

	root := t.TempDir()
	if err := sio.InitSecureIO(root); err != nil {
		t.Fatalf("InitSecureIO: %v", err)
	}
	if _, err := sio.CurrentDirectory(); err == nil {
		t.Fatal("expected CurrentDirectory to fail: no secure directory without FileIOPermission")
	}
}

func TestSecureIOUntrustedWithPermissionCreatesSandbox(t *testing.T) {
	m := New()
	m.SetTrusted(false)
	m.AddPermission("FileIOPermission")
	sio := NewSecureIO(m)

	root := t.TempDir()
	if err := sio.InitSecureIO(root); err != nil {
		t.Fatalf("InitSecureIO: %v", err)
	}
	dir, err := sio.CurrentDirectory()
	if err != nil {
		t.Fatalf("CurrentDirectory: %v", err)
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		t.Fatalf("expected secure directory to exist at %q", dir)
	}
	if filepath.Dir(dir) != root && filepath.Clean(filepath.Dir(dir)) != filepath.Clean(root) {
		t.Fatalf("secure directory %q should live under %q", dir, root)
	}

	sio.DeinitSecureIO()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("expected secure directory to be removed after teardown")
	}
}

func TestDemandFileIOPermissionInsideSandboxPasses(t *testing.T) {
	m := New()
	m.SetTrusted(false)
	m.AddPermission("FileIOPermission")
	sio := NewSecureIO(m)

	root := t.TempDir()
	if err := sio.InitSecureIO(root); err != nil {
		t.Fatalf("InitSecureIO: %v", err)
	}
	if err := sio.DemandFileIOPermission("data.txt"); err != nil {
		t.Fatalf("expected a relative path inside the sandbox to pass: %v", err)
	}
}

func TestDemandFileIOPermissionOutsideSandboxDenied(t *testing.T) {
	m := New()
	m.SetTrusted(false)
	m.AddPermission("FileIOPermission")
	sio := NewSecureIO(m)

	root := t.TempDir()
	if err := sio.InitSecureIO(root); err != nil {
		t.Fatalf("InitSecureIO: %v", err)
	}
	if err := sio.DemandFileIOPermission("/etc/passwd"); err == nil {
		t.Fatal("expected a path outside the sandbox to be denied")
	}
}

func TestDemandFileIOPermissionRejectsTraversal(t *testing.T) {
	m := New()
	m.SetTrusted(false)
	m.AddPermission("FileIOPermission")
	sio := NewSecureIO(m)

	root := t.TempDir()
	if err := sio.InitSecureIO(root); err != nil {
		t.Fatalf("InitSecureIO: %v", err)
	}
	if err := sio.DemandFileIOPermission("../../etc/passwd"); err == nil {
		t.Fatal("expected .. traversal to be rejected")
	}
}
