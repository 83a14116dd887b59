// Package cleanup turns analysis findings into a pure, inspectable plan of
// removals and applies it to the inventory. Variable findings are
// report-only and are never touched.
package cleanup

import (
	"fmt"
	"os"
	"path/filepath"

	"invtidy/pkg/analyzer"
	"invtidy/pkg/inventory"
	"invtidy/pkg/vars"
)

// ActionKind identifies what an action removes.
type ActionKind int

const (
	// TrimDuplicates drops all but the first occurrence of a host line
	// within one group block.
	TrimDuplicates ActionKind = iota
	// RemoveHost drops every line of a host from every group block.
	RemoveHost
	// DeleteOverlay removes an orphaned host_vars document.
	DeleteOverlay
)

func (k ActionKind) String() string {
	switch k {
	case TrimDuplicates:
		return "trim duplicates"
	case RemoveHost:
		return "remove host"
	case DeleteOverlay:
		return "delete overlay"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is one planned removal.
type Action struct {
	Kind  ActionKind
	Group string
	Host  string
}

func (a Action) Describe() string {
	switch a.Kind {
	case TrimDuplicates:
		return fmt.Sprintf("keep first occurrence of host %s in group %s, drop the rest", a.Host, a.Group)
	case RemoveHost:
		return fmt.Sprintf("remove host %s from the listing", a.Host)
	case DeleteOverlay:
		return fmt.Sprintf("delete host_vars document for %s", a.Host)
	default:
		return a.Kind.String()
	}
}

// Plan computes the removals implied by findings. The plan is pure: no
// paths are touched, so it can be printed for a dry run or fed to Execute.
// Variable findings produce no actions and come back as the second return
// value so a summary can surface them unchanged.
func Plan(findings []analyzer.Finding) ([]Action, []analyzer.Finding) {
	var actions []Action
	var skipped []analyzer.Finding
	removed := make(map[string]bool)

	for _, f := range findings {
		switch f.Kind {
		case analyzer.DuplicateHostInGroup:
			// A host that is also missing its overlay gets removed
			// outright; trimming its duplicates would be redundant work.
			if !removed[f.Host] {
				actions = append(actions, Action{Kind: TrimDuplicates, Group: f.Group, Host: f.Host})
			}
		case analyzer.HostWithoutOverlay:
			removed[f.Host] = true
			actions = append(actions, Action{Kind: RemoveHost, Host: f.Host})
		case analyzer.OrphanedOverlay:
			actions = append(actions, Action{Kind: DeleteOverlay, Host: f.Host})
		case analyzer.DuplicateVariable, analyzer.ConflictingVariable:
			skipped = append(skipped, f)
		}
	}

	// A RemoveHost later in the plan supersedes earlier trims for the
	// same host (the host appeared without overlay in a later group).
	if len(removed) > 0 {
		kept := actions[:0]
		for _, a := range actions {
			if a.Kind == TrimDuplicates && removed[a.Host] {
				continue
			}
			kept = append(kept, a)
		}
		actions = kept
	}
	return actions, skipped
}

// IOError reports one file whose removal or rewrite failed. Collected;
// remaining actions are still attempted.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cleanup %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Summary reports what one cleanup invocation did.
type Summary struct {
	LinesRemoved int
	FilesDeleted []string
	// Skipped holds the report-only variable findings, unchanged.
	Skipped []analyzer.Finding
	Errors  []*IOError
}

// Options configures cleanup execution.
type Options struct {
	Layout analyzer.Layout
}

// Execute applies a plan to the inventory under root. The listing is
// rewritten once, write-to-temp-then-rename; orphaned overlay documents
// are deleted individually. Per-file failures are collected and the rest
// of the plan still runs.
func Execute(root string, actions []Action, skipped []analyzer.Finding, opts Options) *Summary {
	layout := opts.Layout.WithDefaults()
	summary := &Summary{Skipped: skipped}

	trims := make(map[string]map[string]bool)
	removals := make(map[string]bool)
	var orphans []string
	for _, a := range actions {
		switch a.Kind {
		case TrimDuplicates:
			if trims[a.Group] == nil {
				trims[a.Group] = make(map[string]bool)
			}
			trims[a.Group][a.Host] = true
		case RemoveHost:
			removals[a.Host] = true
		case DeleteOverlay:
			orphans = append(orphans, a.Host)
		}
	}

	if len(trims) > 0 || len(removals) > 0 {
		listingPath := filepath.Join(root, layout.ListingFile)
		keep := func(group, host string, occurrence int) bool {
			if removals[host] {
				return false
			}
			if trims[group][host] {
				return occurrence == 1
			}
			return true
		}
		n, err := rewriteListing(listingPath, keep)
		if err != nil {
			summary.Errors = append(summary.Errors, &IOError{Path: listingPath, Err: err})
		} else {
			summary.LinesRemoved = n
		}
	}

	hostVarsDir := filepath.Join(root, layout.HostVarsDir)
	for _, host := range orphans {
		path := vars.FindDocument(hostVarsDir, host)
		if path == "" {
			// Already gone; nothing left to delete.
			continue
		}
		if err := os.Remove(path); err != nil {
			summary.Errors = append(summary.Errors, &IOError{Path: path, Err: err})
			continue
		}
		summary.FilesDeleted = append(summary.FilesDeleted, path)
	}

	return summary
}

// Run plans and executes cleanup for a findings sequence in one call.
func Run(root string, findings []analyzer.Finding, opts Options) *Summary {
	actions, skipped := Plan(findings)
	return Execute(root, actions, skipped, opts)
}

// rewriteListing filters the listing file in place with atomic replace
// semantics and returns the number of host lines dropped.
func rewriteListing(path string, keep inventory.KeepFunc) (int, error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()

	dropped := 0
	counting := func(group, host string, occurrence int) bool {
		ok := keep(group, host, occurrence)
		if !ok {
			dropped++
		}
		return ok
	}

	if err := inventory.Filter(src, tmp, counting); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	return dropped, nil
}
