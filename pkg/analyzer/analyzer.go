// Package analyzer cross-references the hosts listing with the group and
// host variable overlays and classifies every inconsistency it finds.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"invtidy/pkg/inventory"
	"invtidy/pkg/vars"
)

// Kind classifies a finding. The declaration order is the report order.
type Kind int

const (
	// DuplicateHostInGroup: a host listed two or more times in one group.
	DuplicateHostInGroup Kind = iota
	// HostWithoutOverlay: a listed host with no host_vars document.
	HostWithoutOverlay
	// OrphanedOverlay: a host_vars document with no listed host.
	OrphanedOverlay
	// DuplicateVariable: same variable, same value, in both a group
	// overlay and a member host's overlay. Informational.
	DuplicateVariable
	// ConflictingVariable: same variable, differing values, across group
	// and host overlay. Requires manual resolution, never auto-cleaned.
	ConflictingVariable
)

func (k Kind) String() string {
	switch k {
	case DuplicateHostInGroup:
		return "duplicate_host_in_group"
	case HostWithoutOverlay:
		return "host_without_overlay"
	case OrphanedOverlay:
		return "orphaned_overlay"
	case DuplicateVariable:
		return "duplicate_variable"
	case ConflictingVariable:
		return "conflicting_variable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Finding is one detected inconsistency. Findings are immutable and carry
// only the names and values needed to identify what was found.
type Finding struct {
	Kind       Kind
	Group      string
	Host       string
	Variable   string
	GroupValue string
	HostValue  string
	// Count is the number of listing occurrences for DuplicateHostInGroup.
	Count int
}

func (f Finding) Describe() string {
	switch f.Kind {
	case DuplicateHostInGroup:
		return fmt.Sprintf("host %s listed %d times in group %s", f.Host, f.Count, f.Group)
	case HostWithoutOverlay:
		return fmt.Sprintf("host %s (group %s) has no host_vars document", f.Host, f.Group)
	case OrphanedOverlay:
		return fmt.Sprintf("host_vars document %s matches no listed host", f.Host)
	case DuplicateVariable:
		return fmt.Sprintf("variable %s duplicated for host %s: group %s and host overlay both set %s",
			f.Variable, f.Host, f.Group, f.GroupValue)
	case ConflictingVariable:
		return fmt.Sprintf("variable %s conflicts for host %s: group %s sets %s, host overlay sets %s",
			f.Variable, f.Host, f.Group, f.GroupValue, f.HostValue)
	default:
		return f.Kind.String()
	}
}

// Model is the in-memory inventory an analysis pass runs against. It is
// built fresh per invocation and read-only thereafter.
type Model struct {
	Listing   *inventory.Listing
	GroupVars map[string]vars.Overlay
	HostVars  map[string]vars.Overlay
}

// Run computes the ordered findings for a model. Ordering is
// deterministic: groups in listing order, hosts in first-appearance order
// within each group, kinds in declaration order, variables by name, and
// orphaned overlays last, sorted by host name.
func Run(m *Model) []Finding {
	var findings []Finding
	missingReported := make(map[string]bool)

	for _, g := range m.Listing.Groups {
		counts := make(map[string]int)
		var order []string
		for _, h := range g.Hosts {
			if counts[h.Name] == 0 {
				order = append(order, h.Name)
			}
			counts[h.Name]++
		}

		for _, host := range order {
			if counts[host] > 1 {
				findings = append(findings, Finding{
					Kind:  DuplicateHostInGroup,
					Group: g.Name,
					Host:  host,
					Count: counts[host],
				})
			}

			hostOverlay, present := m.HostVars[host]
			if !present {
				if !missingReported[host] {
					missingReported[host] = true
					findings = append(findings, Finding{
						Kind:  HostWithoutOverlay,
						Group: g.Name,
						Host:  host,
					})
				}
				continue
			}

			groupOverlay, ok := m.GroupVars[g.Name]
			if !ok {
				continue
			}
			findings = append(findings, compareOverlays(g.Name, host, groupOverlay, hostOverlay)...)
		}
	}

	orphans := make([]string, 0)
	for key := range m.HostVars {
		if !m.Listing.HasHost(key) {
			orphans = append(orphans, key)
		}
	}
	sort.Strings(orphans)
	for _, key := range orphans {
		findings = append(findings, Finding{Kind: OrphanedOverlay, Host: key})
	}

	return findings
}

// compareOverlays emits duplicate findings before conflict findings, each
// group sorted by variable name, matching the fixed kind order.
func compareOverlays(group, host string, groupOverlay, hostOverlay vars.Overlay) []Finding {
	names := make([]string, 0, len(groupOverlay))
	for name := range groupOverlay {
		if _, ok := hostOverlay[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var dups, conflicts []Finding
	for _, name := range names {
		gv, hv := groupOverlay[name], hostOverlay[name]
		f := Finding{
			Group:      group,
			Host:       host,
			Variable:   name,
			GroupValue: gv.String(),
			HostValue:  hv.String(),
		}
		if gv.Equal(hv) {
			f.Kind = DuplicateVariable
			dups = append(dups, f)
		} else {
			f.Kind = ConflictingVariable
			conflicts = append(conflicts, f)
		}
	}
	return append(dups, conflicts...)
}

// MissingPathError reports an absent inventory root, listing file, or
// overlay directory. It is fatal: analysis aborts before building a model.
type MissingPathError struct {
	Path string
	Err  error
}

func (e *MissingPathError) Error() string {
	return fmt.Sprintf("inventory path missing: %s", e.Path)
}

func (e *MissingPathError) Unwrap() error { return e.Err }

// Layout names the inventory files under the root. Zero values fall back
// to the conventional names.
type Layout struct {
	ListingFile  string
	GroupVarsDir string
	HostVarsDir  string
}

// WithDefaults fills unset fields with the conventional names.
func (l Layout) WithDefaults() Layout {
	if l.ListingFile == "" {
		l.ListingFile = "hosts"
	}
	if l.GroupVarsDir == "" {
		l.GroupVarsDir = "group_vars"
	}
	if l.HostVarsDir == "" {
		l.HostVarsDir = "host_vars"
	}
	return l
}

// Options configures an analysis invocation.
type Options struct {
	Layout        Layout
	VaultPassword string
}

// Result is a completed analysis: the findings, the per-file overlay
// errors collected along the way, and the model they were derived from.
// An empty LoadErrors means full success; non-empty means degraded
// success over the documents that did load.
type Result struct {
	Findings   []Finding
	LoadErrors []*vars.OverlayParseError
	Model      *Model
}

// Analyze builds a fresh model from the inventory root and runs the
// cross-reference pass. Structural failures (missing paths, malformed
// listing) return an error and no result.
func Analyze(root string, opts Options) (*Result, error) {
	layout := opts.Layout.WithDefaults()

	listingPath := filepath.Join(root, layout.ListingFile)
	groupVarsDir := filepath.Join(root, layout.GroupVarsDir)
	hostVarsDir := filepath.Join(root, layout.HostVarsDir)

	for _, p := range []string{root, listingPath, groupVarsDir, hostVarsDir} {
		if _, err := os.Stat(p); err != nil {
			return nil, &MissingPathError{Path: p, Err: err}
		}
	}

	listing, err := inventory.Load(listingPath)
	if err != nil {
		return nil, err
	}

	loadOpts := vars.Options{VaultPassword: opts.VaultPassword}
	groupVars, groupErrs, err := vars.LoadDir(groupVarsDir, loadOpts)
	if err != nil {
		return nil, err
	}
	hostVars, hostErrs, err := vars.LoadDir(hostVarsDir, loadOpts)
	if err != nil {
		return nil, err
	}

	m := &Model{Listing: listing, GroupVars: groupVars, HostVars: hostVars}
	return &Result{
		Findings:   Run(m),
		LoadErrors: append(groupErrs, hostErrs...),
		Model:      m,
	}, nil
}
