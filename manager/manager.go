// Package manager schedules loaded scripts cooperatively: every frame
// each active script runs one block, then inactive scripts are swept.
package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/marbeck/cleovm/vm"
)

var log = commonlog.GetLogger("cleovm.manager")

// Manager owns the loaded scripts and the engine driving them. It is
// single-threaded by contract, like the interpreter underneath it.
type Manager struct {
	engine  *vm.Engine
	names   *vm.NameCounter
	scripts []*vm.Script
	frame   uint32
}

// New creates a manager over a host capability. overrides may be nil.
func New(host vm.Host, overrides *vm.Overrides) *Manager {
	return &Manager{
		engine: vm.NewEngine(host, overrides),
		names:  &vm.NameCounter{},
	}
}

// Names returns the counter used for placeholder script names, so
// embedders loading scripts themselves share the same sequence.
func (m *Manager) Names() *vm.NameCounter {
	return m.names
}

// Engine returns the engine driving this manager's scripts.
func (m *Manager) Engine() *vm.Engine {
	return m.engine
}

// Add takes ownership of a script.
func (m *Manager) Add(s *vm.Script) {
	m.scripts = append(m.scripts, s)
}

// Load reads one script file and adds it.
func (m *Manager) Load(path string) (*vm.Script, error) {
	s, err := vm.LoadFile(path, m.names)
	if err != nil {
		log.Errorf("failed to load script %s (unable to open file)", path)
		return nil, err
	}
	log.Infof("loaded %s as %s (%d bytes)", path, s.Name(), s.Len())
	m.Add(s)
	return s, nil
}

// LoadDir loads every script in dir whose extension is listed in exts
// (case-insensitive, e.g. ".csa"). Files that fail to load are logged
// and skipped; the directory itself failing to read is an error.
// Returns the number of scripts loaded.
func (m *Manager) LoadDir(dir string, exts []string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read script directory %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !matchesExt(entry.Name(), exts) {
			continue
		}
		if _, err := m.Load(filepath.Join(dir, entry.Name())); err == nil {
			loaded++
		}
	}
	return loaded, nil
}

func matchesExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// Advance runs one frame: every active script executes one block, then
// the inactive ones are reclaimed. Returns the number of scripts still
// active.
func (m *Manager) Advance() int {
	m.frame++
	for _, s := range m.scripts {
		if !s.Active() {
			continue
		}
		if s.ActivationTime() > m.frame {
			continue
		}
		m.engine.RunNextBlock(s)
	}
	m.Reclaim()
	return m.ActiveCount()
}

// Frame returns the number of frames advanced so far.
func (m *Manager) Frame() uint32 {
	return m.frame
}

// Reclaim unloads and drops every inactive script. This is the only
// place scripts are destroyed; the engine merely marks them inactive.
// Returns the number reclaimed.
func (m *Manager) Reclaim() int {
	kept := m.scripts[:0]
	reclaimed := 0
	for _, s := range m.scripts {
		if s.Active() {
			kept = append(kept, s)
			continue
		}
		log.Infof("reclaiming %s", s.Name())
		s.Unload()
		reclaimed++
	}
	// Drop dangling tail references so reclaimed scripts can be freed.
	for i := len(kept); i < len(m.scripts); i++ {
		m.scripts[i] = nil
	}
	m.scripts = kept
	return reclaimed
}

// Len returns the number of scripts the manager holds.
func (m *Manager) Len() int {
	return len(m.scripts)
}

// ActiveCount returns the number of scripts still active.
func (m *Manager) ActiveCount() int {
	active := 0
	for _, s := range m.scripts {
		if s.Active() {
			active++
		}
	}
	return active
}

// Scripts returns the managed scripts in scheduling order.
func (m *Manager) Scripts() []*vm.Script {
	return m.scripts
}
