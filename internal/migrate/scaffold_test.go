package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNextVersion(t *testing.T) {
	cases := []struct {
		name     string
		versions []string
		want     string
	}{
		{name: "empty registry", versions: nil, want: "001"},
		{name: "sequential history", versions: []string{"001", "002"}, want: "003"},
		{name: "gap is preserved not filled", versions: []string{"001", "002", "004"}, want: "005"},
		{name: "unordered input", versions: []string{"005", "001", "003"}, want: "006"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defs := make([]Definition, 0, len(tc.versions))
			for _, v := range tc.versions {
				defs = append(defs, scriptDef(v, "d", Script{}, Script{}))
			}
			if got := NextVersion(defs); got != tc.want {
				t.Fatalf("NextVersion(%v) = %s, want %s", tc.versions, got, tc.want)
			}
		})
	}
}

func TestScaffold_WritesStub(t *testing.T) {
	dir := t.TempDir()
	defs := []Definition{scriptDef("001", "d", Script{}, Script{}), scriptDef("002", "d", Script{}, Script{})}

	path, err := Scaffold(dir, "Add engagement counters!", defs)
	if err != nil {
		t.Fatalf("Scaffold failed: %v", err)
	}

	if filepath.Base(path) != "003_add_engagement_counters.go" {
		t.Fatalf("unexpected stub file name: %s", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read stub: %v", err)
	}
	stub := string(content)
	for _, fragment := range []string{
		"package schema",
		"func migration003(dialect string) migrate.Definition",
		`Version:     "003"`,
		`Description: "add engagement counters"`,
	} {
		if !strings.Contains(stub, fragment) {
			t.Errorf("stub missing %q:\n%s", fragment, stub)
		}
	}
}

func TestScaffold_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()

	if _, err := Scaffold(dir, "add foo", nil); err != nil {
		t.Fatalf("first Scaffold failed: %v", err)
	}
	// The registry still reports no definitions, so the same version is
	// computed again and collides with the existing file.
	if _, err := Scaffold(dir, "add foo", nil); err == nil {
		t.Fatal("expected an error when the stub file already exists")
	}
}

func TestScaffold_RejectsUnusableName(t *testing.T) {
	if _, err := Scaffold(t.TempDir(), "!!!", nil); err == nil {
		t.Fatal("expected an error for a name with no usable characters")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"add foo", "add_foo"},
		{"  Add  Foo-Bar  ", "add_foo_bar"},
		{"Widen api_requests.response_body", "widen_api_requests_response_body"},
		{"ALLCAPS", "allcaps"},
		{"v2 rollout", "v2_rollout"},
		{"---", ""},
	}

	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
