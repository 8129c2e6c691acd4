package uci

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and by the CLI when no
// uci binary is available.
type MemoryStore struct {
	mu       sync.Mutex
	packages map[string]Package
	commits  int
	// SaveErr, when set, is returned from SaveSection.
	SaveErr error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{packages: make(map[string]Package)}
}

func (m *MemoryStore) Load(_ context.Context, pkg string) (Package, error) {
	if err := validName(pkg); err != nil {
		return Package{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[pkg]
	if !ok {
		return Package{Name: pkg, Sections: map[string]Section{}}, nil
	}
	return clonePackage(p), nil
}

func (m *MemoryStore) SaveSection(_ context.Context, pkg string, sec Section) error {
	if err := validName(pkg); err != nil {
		return err
	}
	if err := validName(sec.Name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	p, ok := m.packages[pkg]
	if !ok {
		p = Package{Name: pkg, Sections: make(map[string]Section)}
	}
	current, ok := p.Sections[sec.Name]
	if !ok {
		current = Section{Name: sec.Name, Options: make(map[string]Option)}
	}
	if sec.Type != "" {
		current.Type = sec.Type
	}
	for name, opt := range sec.Options {
		if len(opt.Values) == 0 {
			delete(current.Options, name)
			continue
		}
		current.Options[name] = Option{Values: append([]string(nil), opt.Values...), List: opt.List}
	}
	p.Sections[sec.Name] = current
	m.packages[pkg] = p
	m.commits++
	return nil
}

// Commits reports how many sections have been saved.
func (m *MemoryStore) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

func clonePackage(p Package) Package {
	out := Package{Name: p.Name, Sections: make(map[string]Section, len(p.Sections))}
	for name, sec := range p.Sections {
		opts := make(map[string]Option, len(sec.Options))
		for k, v := range sec.Options {
			opts[k] = Option{Values: append([]string(nil), v.Values...), List: v.List}
		}
		out.Sections[name] = Section{Name: sec.Name, Type: sec.Type, Options: opts}
	}
	return out
}
