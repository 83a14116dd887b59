package analyzer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"invtidy/pkg/inventory"
)

func TestRun_CleanInventoryHasNoFindings(t *testing.T) {
	m := model(t, `
[webservers]
web1
web2
`, map[string]string{"webservers": "env: production\n"},
		map[string]string{"web1": "role: frontend\n", "web2": "role: frontend\n"})

	findings := Run(m)
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d: %v", len(findings), findings)
	}
}

func TestRun_DuplicateHostInGroup(t *testing.T) {
	m := model(t, `
[web]
web1
web1
web1
`, nil, map[string]string{"web1": ""})

	findings := Run(m)
	if len(findings) != 1 {
		t.Fatalf("expected exactly 1 finding, got %d: %v", len(findings), findings)
	}
	f := findings[0]
	if f.Kind != DuplicateHostInGroup {
		t.Errorf("expected DuplicateHostInGroup, got %s", f.Kind)
	}
	if f.Count != 3 {
		t.Errorf("expected count=3, got %d", f.Count)
	}
	if f.Group != "web" || f.Host != "web1" {
		t.Errorf("wrong context: group=%s host=%s", f.Group, f.Host)
	}
}

func TestRun_DuplicateAndMissingOverlayTogether(t *testing.T) {
	// One host, three times in one group, no host_vars document: exactly
	// one duplicate finding and one missing-overlay finding.
	m := model(t, `
[web]
stale1
stale1
stale1
`, nil, nil)

	findings := Run(m)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %v", len(findings), findings)
	}
	if findings[0].Kind != DuplicateHostInGroup || findings[0].Count != 3 {
		t.Errorf("expected DuplicateHostInGroup count=3 first, got %v", findings[0])
	}
	if findings[1].Kind != HostWithoutOverlay {
		t.Errorf("expected HostWithoutOverlay second, got %v", findings[1])
	}
}

func TestRun_HostWithoutOverlay_OncePerHost(t *testing.T) {
	m := model(t, `
[a]
h1
[b]
h1
`, nil, nil)

	findings := Run(m)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding for a host in two groups, got %d", len(findings))
	}
	if findings[0].Group != "a" {
		t.Errorf("finding should carry the first group, got %s", findings[0].Group)
	}
}

func TestRun_EmptyOverlayIsPresent(t *testing.T) {
	m := model(t, `
[web]
web1
`, nil, map[string]string{"web1": ""})

	if findings := Run(m); len(findings) != 0 {
		t.Errorf("empty overlay document must count as present, got %v", findings)
	}
}

func TestRun_OrphanedOverlay(t *testing.T) {
	m := model(t, `
[web]
web1
`, nil, map[string]string{"web1": "", "orphan1": "x: 1\n"})

	findings := Run(m)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(findings), findings)
	}
	if findings[0].Kind != OrphanedOverlay || findings[0].Host != "orphan1" {
		t.Errorf("expected OrphanedOverlay for orphan1, got %v", findings[0])
	}
}

func TestRun_ConflictingVariable(t *testing.T) {
	m := model(t, `
[web]
web1
`, map[string]string{"web": "region: us-east\n"},
		map[string]string{"web1": "region: us-west\n"})

	findings := Run(m)
	if len(findings) != 1 {
		t.Fatalf("expected exactly 1 finding, got %d: %v", len(findings), findings)
	}
	f := findings[0]
	if f.Kind != ConflictingVariable {
		t.Errorf("expected ConflictingVariable, got %s", f.Kind)
	}
	if f.Variable != "region" || f.GroupValue != "us-east" || f.HostValue != "us-west" {
		t.Errorf("conflict context wrong: %+v", f)
	}
}

func TestRun_DuplicateVariable(t *testing.T) {
	m := model(t, `
[web]
web1
`, map[string]string{"web": "region: us-east\n"},
		map[string]string{"web1": "region: us-east\n"})

	findings := Run(m)
	if len(findings) != 1 {
		t.Fatalf("expected exactly 1 finding, got %d", len(findings))
	}
	if findings[0].Kind != DuplicateVariable {
		t.Errorf("expected DuplicateVariable, got %s", findings[0].Kind)
	}
}

func TestRun_TypedComparison(t *testing.T) {
	// The integer 1 and the string "1" are different values.
	m := model(t, `
[web]
web1
`, map[string]string{"web": "retries: 1\n"},
		map[string]string{"web1": "retries: \"1\"\n"})

	findings := Run(m)
	if len(findings) != 1 || findings[0].Kind != ConflictingVariable {
		t.Fatalf("expected a conflict between int 1 and string \"1\", got %v", findings)
	}
}

func TestRun_NoGroupOverlayNoVariableFindings(t *testing.T) {
	m := model(t, `
[web]
web1
`, nil, map[string]string{"web1": "region: us-west\n"})

	if findings := Run(m); len(findings) != 0 {
		t.Errorf("absent group overlay must contribute no findings, got %v", findings)
	}
}

func TestRun_MemberOfOtherGroupNotCompared(t *testing.T) {
	// db1 is not a member of web, so web's overlay does not apply to it.
	m := model(t, `
[web]
web1
[db]
db1
`, map[string]string{"web": "region: us-east\n"},
		map[string]string{"web1": "", "db1": "region: us-west\n"})

	if findings := Run(m); len(findings) != 0 {
		t.Errorf("group overlay must only apply to members, got %v", findings)
	}
}

func TestRun_Ordering(t *testing.T) {
	m := model(t, `
[beta]
b1
b1
[alpha]
a1
`, map[string]string{"beta": "x: 1\ny: 2\n"},
		map[string]string{
			"b1":      "y: 2\nx: 9\n",
			"zorphan": "", "aorphan": "",
		})

	findings := Run(m)
	want := []struct {
		kind Kind
		host string
		vari string
	}{
		{DuplicateHostInGroup, "b1", ""},
		{DuplicateVariable, "b1", "y"},
		{ConflictingVariable, "b1", "x"},
		{HostWithoutOverlay, "a1", ""},
		{OrphanedOverlay, "aorphan", ""},
		{OrphanedOverlay, "zorphan", ""},
	}
	if len(findings) != len(want) {
		t.Fatalf("expected %d findings, got %d: %v", len(want), len(findings), findings)
	}
	for i, w := range want {
		if findings[i].Kind != w.kind || findings[i].Host != w.host || findings[i].Variable != w.vari {
			t.Errorf("position %d: expected %s/%s/%s, got %s/%s/%s",
				i, w.kind, w.host, w.vari, findings[i].Kind, findings[i].Host, findings[i].Variable)
		}
	}
}

func TestAnalyze_FullPass(t *testing.T) {
	root := writeInventory(t, `
[web]
web1
web1
stale1
`, map[string]string{"web": "region: us-east\n"},
		map[string]string{"web1": "region: us-west\n", "orphan1": "x: 1\n"})

	result, err := Analyze(root, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.LoadErrors) != 0 {
		t.Fatalf("unexpected load errors: %v", result.LoadErrors)
	}
	kinds := make([]Kind, 0, len(result.Findings))
	for _, f := range result.Findings {
		kinds = append(kinds, f.Kind)
	}
	want := []Kind{DuplicateHostInGroup, ConflictingVariable, HostWithoutOverlay, OrphanedOverlay}
	if len(kinds) != len(want) {
		t.Fatalf("expected kinds %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected kinds %v, got %v", want, kinds)
		}
	}
}

func TestAnalyze_DegradedSuccess(t *testing.T) {
	root := writeInventory(t, `
[web]
web1
`, nil, map[string]string{"web1": ""})
	// Break one host_vars document after the fact.
	badPath := filepath.Join(root, "host_vars", "broken.yaml")
	if err := os.WriteFile(badPath, []byte("key: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("writing broken overlay: %v", err)
	}

	result, err := Analyze(root, Options{})
	if err != nil {
		t.Fatalf("per-file errors must not be fatal: %v", err)
	}
	if len(result.LoadErrors) != 1 {
		t.Fatalf("expected 1 load error, got %d", len(result.LoadErrors))
	}
	if len(result.Findings) != 0 {
		t.Errorf("valid part of the inventory is clean, got %v", result.Findings)
	}
}

func TestAnalyze_MissingRoot(t *testing.T) {
	_, err := Analyze(filepath.Join(t.TempDir(), "absent"), Options{})
	var merr *MissingPathError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MissingPathError, got %v", err)
	}
}

func TestAnalyze_MissingVarsDir(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hosts"), []byte("[web]\nweb1\n"), 0o644); err != nil {
		t.Fatalf("writing hosts: %v", err)
	}
	_, err := Analyze(root, Options{})
	var merr *MissingPathError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MissingPathError for missing vars dirs, got %v", err)
	}
}

func TestAnalyze_MalformedListingIsFatal(t *testing.T) {
	root := writeInventory(t, "[web\nweb1\n", nil, nil)
	_, err := Analyze(root, Options{})
	var perr *inventory.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

// model builds an in-memory Model from listing text and raw YAML overlay
// documents keyed by group and host name.
func model(t *testing.T, listing string, groupDocs, hostDocs map[string]string) *Model {
	t.Helper()
	root := writeInventory(t, listing, groupDocs, hostDocs)
	result, err := Analyze(root, Options{})
	if err != nil {
		t.Fatalf("building model: %v", err)
	}
	if len(result.LoadErrors) != 0 {
		t.Fatalf("unexpected load errors building model: %v", result.LoadErrors)
	}
	return result.Model
}

// writeInventory lays out a full inventory tree in a temp dir.
func writeInventory(t *testing.T, listing string, groupDocs, hostDocs map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hosts"), []byte(strings.TrimLeft(listing, "\n")), 0o644); err != nil {
		t.Fatalf("writing hosts: %v", err)
	}
	for dir, docs := range map[string]map[string]string{"group_vars": groupDocs, "host_vars": hostDocs} {
		path := filepath.Join(root, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			t.Fatalf("creating %s: %v", dir, err)
		}
		for name, content := range docs {
			if err := os.WriteFile(filepath.Join(path, name+".yaml"), []byte(content), 0o644); err != nil {
				t.Fatalf("writing %s/%s: %v", dir, name, err)
			}
		}
	}
	return root
}
