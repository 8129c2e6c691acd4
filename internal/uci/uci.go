// Package uci reads and writes OpenWrt UCI configuration packages.
package uci

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"tailscale-webui/internal/runner"
)

var linePattern = regexp.MustCompile(`^([A-Za-z0-9_-]+)\.([A-Za-z0-9_@\[\]-]+)(?:\.([A-Za-z0-9_-]+))?=(.*)$`)

// Option is a single UCI option or list.
type Option struct {
	Values []string
	List   bool
}

// Value returns the first value or "" when unset.
func (o Option) Value() string {
	if len(o.Values) == 0 {
		return ""
	}
	return o.Values[0]
}

// Section is a named UCI section.
type Section struct {
	Name    string
	Type    string
	Options map[string]Option
}

// Get looks up an option.
func (s Section) Get(name string) (Option, bool) {
	opt, ok := s.Options[name]
	return opt, ok
}

// Package is a parsed UCI package.
type Package struct {
	Name     string
	Sections map[string]Section
}

// Section returns the named section.
func (p Package) Section(name string) (Section, bool) {
	sec, ok := p.Sections[name]
	return sec, ok
}

// Store is the configuration storage subsystem.
type Store interface {
	Load(ctx context.Context, pkg string) (Package, error)
	// SaveSection writes every option in sec. Options with no values are
	// deleted. Options not present in sec are left untouched.
	SaveSection(ctx context.Context, pkg string, sec Section) error
}

// CLIStore drives the uci command line tool.
type CLIStore struct {
	bin    string
	runner runner.Runner
}

// NewCLIStore creates a store using the uci binary at bin.
func NewCLIStore(bin string, r runner.Runner) *CLIStore {
	if strings.TrimSpace(bin) == "" {
		bin = "uci"
	}
	return &CLIStore{bin: bin, runner: r}
}

// Load runs `uci -q show <pkg>`. A missing package yields an empty Package.
func (s *CLIStore) Load(ctx context.Context, pkg string) (Package, error) {
	if err := validName(pkg); err != nil {
		return Package{}, err
	}
	res, err := s.runner.Run(ctx, s.bin, "-q", "show", pkg)
	if err != nil {
		return Package{}, fmt.Errorf("uci show %s: %w", pkg, err)
	}
	if !res.OK() {
		out := res.Combined()
		if out == "" || strings.Contains(out, "Entry not found") {
			return Package{Name: pkg, Sections: map[string]Section{}}, nil
		}
		return Package{}, fmt.Errorf("uci show %s: exit %d: %s", pkg, res.Code, out)
	}
	return ParseShow(pkg, res.Stdout)
}

// SaveSection stages the section with uci set/delete/add_list and commits.
// A failure before the commit reverts the package so no partial changes
// stay staged.
func (s *CLIStore) SaveSection(ctx context.Context, pkg string, sec Section) error {
	if err := validName(pkg); err != nil {
		return err
	}
	if err := validName(sec.Name); err != nil {
		return err
	}
	names := make([]string, 0, len(sec.Options))
	for name := range sec.Options {
		if err := validName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if err := s.stage(ctx, pkg, sec, names); err != nil {
		if rerr := s.mustRun(context.WithoutCancel(ctx), "revert", pkg); rerr != nil {
			return fmt.Errorf("%w (revert failed: %v)", err, rerr)
		}
		return err
	}
	return s.mustRun(ctx, "commit", pkg)
}

func (s *CLIStore) stage(ctx context.Context, pkg string, sec Section, names []string) error {
	base := pkg + "." + sec.Name
	if sec.Type != "" {
		if err := s.mustRun(ctx, "set", base+"="+sec.Type); err != nil {
			return err
		}
	}
	for _, name := range names {
		opt := sec.Options[name]
		key := base + "." + name
		if len(opt.Values) == 0 || opt.List {
			// delete fails when the option is already absent
			if _, err := s.runner.Run(ctx, s.bin, "-q", "delete", key); err != nil {
				return fmt.Errorf("uci delete %s: %w", key, err)
			}
		}
		if len(opt.Values) == 0 {
			continue
		}
		if !opt.List {
			if err := s.mustRun(ctx, "set", key+"="+opt.Values[0]); err != nil {
				return err
			}
			continue
		}
		for _, v := range opt.Values {
			if err := s.mustRun(ctx, "add_list", key+"="+v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *CLIStore) mustRun(ctx context.Context, args ...string) error {
	res, err := s.runner.Run(ctx, s.bin, args...)
	if err != nil {
		return fmt.Errorf("uci %s: %w", strings.Join(args, " "), err)
	}
	if !res.OK() {
		return fmt.Errorf("uci %s: exit %d: %s", strings.Join(args, " "), res.Code, res.Combined())
	}
	return nil
}

// ParseShow parses the output of `uci show <pkg>`.
func ParseShow(pkg, output string) (Package, error) {
	out := Package{Name: pkg, Sections: make(map[string]Section)}
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := linePattern.FindStringSubmatch(line)
		if m == nil || m[1] != pkg {
			continue
		}
		sectionName, optionName := m[2], m[3]
		values, err := splitValues(m[4])
		if err != nil {
			return Package{}, fmt.Errorf("parse %q: %w", line, err)
		}
		sec, ok := out.Sections[sectionName]
		if !ok {
			sec = Section{Name: sectionName, Options: make(map[string]Option)}
		}
		if optionName == "" {
			if len(values) > 0 {
				sec.Type = values[0]
			}
		} else {
			sec.Options[optionName] = Option{Values: values, List: len(values) > 1}
		}
		out.Sections[sectionName] = sec
	}
	return out, nil
}

// splitValues tokenizes a uci value such as `'a' 'b'` or `'it'\''s'`.
func splitValues(raw string) ([]string, error) {
	var (
		values  []string
		current strings.Builder
		inToken bool
	)
	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '\'':
			end := strings.IndexByte(raw[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("unterminated quote")
			}
			current.WriteString(raw[i+1 : i+1+end])
			inToken = true
			i += end + 2
		case c == '\\' && i+1 < len(raw) && raw[i+1] == '\'':
			current.WriteByte('\'')
			inToken = true
			i += 2
		case c == ' ' || c == '\t':
			if inToken {
				values = append(values, current.String())
				current.Reset()
				inToken = false
			}
			i++
		default:
			current.WriteByte(c)
			inToken = true
			i++
		}
	}
	if inToken {
		values = append(values, current.String())
	}
	return values, nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, ".=' \t\n") {
		return fmt.Errorf("invalid uci name %q", name)
	}
	return nil
}
