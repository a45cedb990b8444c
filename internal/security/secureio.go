package security

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// currentDirManager remembers the process's current directory once, at
// first use. Native code called from a domain may change the process
// current directory; every domain's path resolution stays pinned to
// whatever it was at that first use.
type currentDirManager struct {
	currentDirectory string
	baseModuleDir    string
}

var curDirMgr *currentDirManager

// baseModulePath is the subdirectory holding bundled modules, resolved
// relative to the pinned current directory.
const baseModulePath = "modules"

func initCurrentDirManager() (*currentDirManager, error) {
	if curDirMgr != nil {
		return curDirMgr, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	curDirMgr = &currentDirManager{
		currentDirectory: wd,
		baseModuleDir:    filepath.Join(wd, baseModulePath),
	}
	return curDirMgr, nil
}

// SecureIO holds one untrusted domain's sandboxed filesystem state: the
// directory all of its file access is confined to, created by InitSecureIO
// when the domain is untrusted and holds FileIOPermission.
type SecureIO struct {
	mgr        *Manager
	securePath string
}

func NewSecureIO(mgr *Manager) *SecureIO {
	return &SecureIO{mgr: mgr}
}

// CurrentDirectory reports the directory a domain's relative paths resolve
// against: the domain's secure directory if untrusted, the process-pinned
// current directory otherwise.
func (s *SecureIO) CurrentDirectory() (string, error) {
	if s.mgr.IsTrusted() {
		d, err := initCurrentDirManager()
		if err != nil {
			return "", err
		}
		return d.currentDirectory, nil
	}
	if s.securePath == "" {
		return "", &metadata.HostError{Kind: "invalid-state", Message: "Secure directory not initialized."}
	}
	return s.securePath, nil
}

func (s *SecureIO) BaseModuleFullPath() (string, error) {
	d, err := initCurrentDirManager()
	if err != nil {
		return "", err
	}
	return d.baseModuleDir, nil
}

// pathNotSecure is the abort message every rejected path raises, kept as
// a single literal so host tooling can match on message text reliably.
const pathNotSecure = "Path can't be proven to be secure."

// validatePathIsSecure rejects backslashes (no platform-specific
// separators let code escape the sandbox root), ".." parent segments, and
// embedded NUL bytes (which could truncate the path when it reaches native
// filesystem calls).
func validatePathIsSecure(path string) error {
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == 0 || c == '\\' {
			return metadata.NewAbortMessage(pathNotSecure)
		}
		if c == '.' && i+1 < len(path) && path[i+1] == '.' {
			return metadata.NewAbortMessage(pathNotSecure)
		}
	}
	return nil
}

// InitSecureIO creates this domain's secure directory under secureRoot if
// the domain is untrusted and has been granted FileIOPermission. Trusted
// domains and domains without the permission never get one: trusted
// domains pass DemandFileIOPermission without any path check, and
// untrusted domains without the permission fail its permission demand.
func (s *SecureIO) InitSecureIO(secureRoot string) error {
	if s.mgr.IsTrusted() || !s.mgr.IsPermissionGranted("FileIOPermission") {
		return nil
	}

	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return err
	}
	name := hex.EncodeToString(buf[:])

	full, err := filepath.Abs(filepath.Join(secureRoot, name))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o700); err != nil {
		return err
	}
	s.securePath = full
	return nil
}

// DeinitSecureIO removes this domain's secure directory, ignoring any
// error since the domain is already tearing down.
func (s *SecureIO) DeinitSecureIO() {
	if !s.mgr.IsTrusted() && s.securePath != "" {
		_ = os.RemoveAll(s.securePath)
		s.securePath = ""
	}
}

// DemandFileIOPermission aborts unless the domain may read/write path:
// trusted domains always may; untrusted domains need FileIOPermission and
// the resolved path must fall inside the domain's secure directory.
func (s *SecureIO) DemandFileIOPermission(path string) error {
	if path == "" {
		panic(&metadata.AbortError{Code: metadata.ErrNullDereference, Message: "Null dereference."})
	}
	if s.mgr.IsTrusted() {
		return nil
	}
	if err := s.mgr.DemandPermission("FileIOPermission"); err != nil {
		return err
	}

	full, err := s.GetFullPath(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(full, s.securePath) {
		return metadata.NewAbortMessage("File access outside of the allowed directory denied.")
	}
	return nil
}

// GetFullPath implements the domain-aware equivalent of an absolute-path
// resolution: it validates path is sandbox-safe, then returns it unchanged
// if already absolute, or joins it against the domain's current directory
// otherwise. Native code in any domain may rewrite the process current
// directory; resolving against the pinned directory keeps every domain's
// paths stable regardless.
func (s *SecureIO) GetFullPath(path string) (string, error) {
	if err := validatePathIsSecure(path); err != nil {
		return "", err
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	base, err := s.CurrentDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, path), nil
}
