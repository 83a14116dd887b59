// Package inventory parses the flat hosts listing: bracketed group headers
// followed by member host lines. Duplicate entries are preserved so the
// analyzer can report them.
package inventory

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ParseError reports a structurally malformed listing line. It is fatal:
// a listing that cannot be parsed coherently yields no model at all.
type ParseError struct {
	Line   int
	Reason string
	Text   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("listing line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Host is a single host line. Inline key=value pairs after the name are
// kept so a rewrite can carry them through, but they take no part in
// overlay analysis.
type Host struct {
	Name string
	Vars map[string]string
}

// Group owns its member host lines in file order, duplicates included.
type Group struct {
	Name  string
	Hosts []Host
}

// Listing is the parsed membership model. Group order matches the file.
type Listing struct {
	Groups []Group
}

// Group returns the named group, or nil.
func (l *Listing) Group(name string) *Group {
	for i := range l.Groups {
		if l.Groups[i].Name == name {
			return &l.Groups[i]
		}
	}
	return nil
}

// HasHost reports whether any group lists the named host.
func (l *Listing) HasHost(name string) bool {
	for _, g := range l.Groups {
		for _, h := range g.Hosts {
			if h.Name == name {
				return true
			}
		}
	}
	return false
}

// HostNames returns every distinct host name in listing order.
func (l *Listing) HostNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, g := range l.Groups {
		for _, h := range g.Hosts {
			if !seen[h.Name] {
				seen[h.Name] = true
				names = append(names, h.Name)
			}
		}
	}
	return names
}

// Load parses the listing file at path.
func Load(path string) (*Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a listing from r. Comment lines (# or ;) and blank lines are
// skipped. Host lines before the first group header are ignored, as are
// the bodies of [group:vars] and [group:children] sections.
func Parse(r io.Reader) (*Listing, error) {
	listing := &Listing{}
	scanner := bufio.NewScanner(r)

	var current *Group
	inSubSection := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if skippable(line) {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, &ParseError{Line: lineNo, Reason: "unterminated group header", Text: line}
			}
			inner := strings.TrimSpace(line[1 : len(line)-1])
			if inner == "" {
				return nil, &ParseError{Line: lineNo, Reason: "empty group header", Text: line}
			}
			if strings.HasSuffix(inner, ":vars") || strings.HasSuffix(inner, ":children") {
				inSubSection = true
				current = nil
				continue
			}
			inSubSection = false
			listing.Groups = append(listing.Groups, Group{Name: inner})
			current = &listing.Groups[len(listing.Groups)-1]
			continue
		}
		if inSubSection || current == nil {
			continue
		}
		current.Hosts = append(current.Hosts, parseHostLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return listing, nil
}

// parseHostLine parses a host entry such as:
//
//	web1.example.com ssh_port=2222 ansible_user=admin
func parseHostLine(line string) Host {
	parts := strings.Fields(line)
	host := Host{Name: parts[0]}
	for _, part := range parts[1:] {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if host.Vars == nil {
			host.Vars = make(map[string]string)
		}
		host.Vars[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return host
}

func skippable(line string) bool {
	return line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";")
}

// Render serializes the membership model back to listing text. Comments
// from the source are not reproduced; re-parsing the result yields an
// identical model.
func (l *Listing) Render() string {
	var b strings.Builder
	for i, g := range l.Groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", g.Name)
		for _, h := range g.Hosts {
			b.WriteString(h.Name)
			keys := make([]string, 0, len(h.Vars))
			for k := range h.Vars {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%s", k, h.Vars[k])
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// KeepFunc decides whether a host line survives a rewrite. occurrence is
// 1-based within the current group.
type KeepFunc func(group, host string, occurrence int) bool

// Filter copies a listing from r to w, dropping host lines rejected by
// keep. Headers, comments, blank lines and sub-section bodies pass through
// unchanged, so a rewrite disturbs nothing it was not asked to.
func Filter(r io.Reader, w io.Writer, keep KeepFunc) error {
	scanner := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)

	var group string
	inSubSection := false
	counts := make(map[string]int)

	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		isHostLine := false
		if !skippable(line) {
			if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
				inner := strings.TrimSpace(line[1 : len(line)-1])
				inSubSection = strings.HasSuffix(inner, ":vars") || strings.HasSuffix(inner, ":children")
				if !inSubSection {
					group = inner
					counts = make(map[string]int)
				}
			} else if !inSubSection && group != "" {
				isHostLine = true
			}
		}

		if isHostLine {
			name := strings.Fields(line)[0]
			counts[name]++
			if !keep(group, name, counts[name]) {
				continue
			}
		}
		if _, err := bw.WriteString(raw); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return bw.Flush()
}
