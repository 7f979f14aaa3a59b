package fsnode

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/sharptree/pkg/debug"
)

// rule is one line of an ignore list. Patterns are matched against entry
// names with filepath.Match.
type rule struct {
	pattern string
	dirOnly bool // trailing slash: only matches directories
	negate  bool // leading '!': re-includes a previously ignored name
	local   bool // leading '/': only applies in the folder that declared it
}

// rules is an ordered ignore list. The last matching rule wins.
type rules []rule

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	// Skip empty lines and comments
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}
	var r rule
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	}
	if strings.HasPrefix(line, "/") {
		r.local = true
		line = strings.TrimPrefix(line, "/")
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	// Everything under a directory goes with the directory.
	line = strings.TrimSuffix(line, "/**")
	if line == "" || strings.Contains(line, "/") {
		debug.LogIf(line != "", "fsnode: unsupported ignore pattern %q", line)
		return rule{}, false
	}
	if _, err := filepath.Match(line, ""); err != nil {
		debug.Log("fsnode: bad ignore pattern %q: %v", line, err)
		return rule{}, false
	}
	r.pattern = line
	return r, true
}

// parseRules builds rules from configured names and globs.
func parseRules(lines []string) rules {
	var out rules
	for _, l := range lines {
		if r, ok := parseRule(l); ok {
			out = append(out, r)
		}
	}
	return out
}

// readIgnoreFile reads a .gitignore file. A missing file yields no rules.
func readIgnoreFile(path string) (rules, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var out rules
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if r, ok := parseRule(scanner.Text()); ok {
			out = append(out, r)
		}
	}
	return out, scanner.Err()
}

// match reports whether the entry is ignored.
func (rs rules) match(name string, dir bool) bool {
	ignored := false
	for _, r := range rs {
		if r.dirOnly && !dir {
			continue
		}
		if ok, _ := filepath.Match(r.pattern, name); ok {
			ignored = !r.negate
		}
	}
	return ignored
}

// inherited returns the rules that still apply one folder down.
func (rs rules) inherited() rules {
	out := make(rules, 0, len(rs))
	for _, r := range rs {
		if !r.local {
			out = append(out, r)
		}
	}
	return out
}
