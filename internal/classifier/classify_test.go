package classifier

import (
	"strings"
	"testing"

	"github.com/projlens/projlens/internal/listing"
)

// fakeListing builds a Listing from shallow file names and optional
// manifest contents. Classification is pure over the listing, so no
// filesystem is needed.
func fakeListing(files []string, manifests map[string]string) *listing.Listing {
	l := &listing.Listing{
		Path:      "/fake/project",
		ExtCounts: map[string]int{},
		Manifests: map[string][]byte{},
	}
	for _, f := range files {
		l.Entries = append(l.Entries, listing.Entry{Name: f})
	}
	for name, content := range manifests {
		l.Manifests[name] = []byte(content)
	}
	return l
}

// ---------------------------------------------------------------------------
// Rule table
// ---------------------------------------------------------------------------

func TestClassify_NoSignatureReturnsNil(t *testing.T) {
	c := New()
	l := fakeListing([]string{"notes.txt", "photo.jpg"}, nil)
	if got := c.Classify(l); got != nil {
		t.Fatalf("expected nil for a non-project directory, got %+v", got)
	}
}

func TestClassify_SingleMarker(t *testing.T) {
	tests := []struct {
		marker   string
		wantKind Kind
		wantLang string
	}{
		{"go.mod", KindBackend, "go"},
		{"Cargo.toml", KindBackend, "rust"},
		{"package.json", KindWeb, "javascript"},
		{"pubspec.yaml", KindMobile, "dart"},
		{"mkdocs.yml", KindDocs, "markdown"},
		{"main.tf", KindDevOps, "hcl"},
		{"CMakeLists.txt", KindDesktop, "cpp"},
	}

	c := New()
	for _, tc := range tests {
		got := c.Classify(fakeListing([]string{tc.marker}, nil))
		if got == nil {
			t.Errorf("%s: expected a classification, got nil", tc.marker)
			continue
		}
		if got.Kind != tc.wantKind {
			t.Errorf("%s: kind = %q, want %q", tc.marker, got.Kind, tc.wantKind)
		}
		if len(got.Languages) == 0 || got.Languages[0] != tc.wantLang {
			t.Errorf("%s: languages = %v, want primary %q", tc.marker, got.Languages, tc.wantLang)
		}
	}
}

func TestClassify_HigherPriorityMarkerWinsKind(t *testing.T) {
	c := New()
	// pyproject.toml (75) outranks Dockerfile (48); both contribute.
	got := c.Classify(fakeListing([]string{"pyproject.toml", "Dockerfile"}, nil))
	if got == nil {
		t.Fatal("expected a classification")
	}
	if got.Kind != KindBackend {
		t.Errorf("kind = %q, want %q", got.Kind, KindBackend)
	}
	if got.Languages[0] != "python" {
		t.Errorf("primary language = %q, want python", got.Languages[0])
	}
	if !hasString(got.Frameworks, "docker") {
		t.Errorf("frameworks = %v, should include docker", got.Frameworks)
	}
}

func TestClassify_EqualPriorityBrokenByTableOrder(t *testing.T) {
	c := New()
	// pyproject.toml and Cargo.toml are both priority 75; pyproject.toml
	// is listed first, so a run never flips between the two.
	got := c.Classify(fakeListing([]string{"Cargo.toml", "pyproject.toml"}, nil))
	if got == nil {
		t.Fatal("expected a classification")
	}
	if got.Languages[0] != "python" {
		t.Errorf("primary language = %q, want python (table order tie-break)", got.Languages[0])
	}
	if !hasString(got.Languages, "rust") {
		t.Errorf("languages = %v, should still include rust", got.Languages)
	}
}

func TestClassify_ToolingFragmentAloneIsWeak(t *testing.T) {
	c := New()
	// tsconfig.json carries no kind of its own.
	got := c.Classify(fakeListing([]string{"tsconfig.json"}, nil))
	if got == nil {
		t.Fatal("expected a classification")
	}
	if got.Kind != KindUnknown {
		t.Errorf("kind = %q, want %q", got.Kind, KindUnknown)
	}
	if !hasString(got.Languages, "typescript") {
		t.Errorf("languages = %v, should include typescript", got.Languages)
	}
}

// ---------------------------------------------------------------------------
// Manifest refinement
// ---------------------------------------------------------------------------

func TestClassify_PackageJSONRefinesFramework(t *testing.T) {
	tests := []struct {
		name     string
		deps     string
		wantKind Kind
		wantFW   string
	}{
		{"react app", `{"dependencies":{"react":"^18.0.0"}}`, KindWeb, "react"},
		{"express api", `{"dependencies":{"express":"^4.18.0"}}`, KindBackend, "express"},
		{"electron app", `{"dependencies":{"electron":"^28.0.0"}}`, KindDesktop, "electron"},
		{"react-native app", `{"dependencies":{"react-native":"0.73.0","react":"18.2.0"}}`, KindMobile, "react-native"},
		{"next app", `{"dependencies":{"next":"14.0.0","react":"18.2.0"}}`, KindWeb, "nextjs"},
	}

	c := New()
	for _, tc := range tests {
		l := fakeListing([]string{"package.json"}, map[string]string{"package.json": tc.deps})
		got := c.Classify(l)
		if got == nil {
			t.Errorf("%s: expected a classification", tc.name)
			continue
		}
		if got.Kind != tc.wantKind {
			t.Errorf("%s: kind = %q, want %q", tc.name, got.Kind, tc.wantKind)
		}
		if !hasString(got.Frameworks, tc.wantFW) {
			t.Errorf("%s: frameworks = %v, should include %q", tc.name, got.Frameworks, tc.wantFW)
		}
	}
}

func TestClassify_PackageJSONTypescriptDep(t *testing.T) {
	c := New()
	l := fakeListing([]string{"package.json"}, map[string]string{
		"package.json": `{"devDependencies":{"typescript":"^5.0.0"}}`,
	})
	got := c.Classify(l)
	if got == nil {
		t.Fatal("expected a classification")
	}
	if !hasString(got.Languages, "typescript") {
		t.Errorf("languages = %v, should include typescript", got.Languages)
	}
}

func TestClassify_PyprojectRefinement(t *testing.T) {
	tests := []struct {
		name     string
		toml     string
		wantKind Kind
		wantFW   string
	}{
		{
			"django site",
			"[project]\ndependencies = [\"django>=4.2\"]\n",
			KindWeb, "django",
		},
		{
			"fastapi service",
			"[project]\ndependencies = [\"fastapi\", \"uvicorn[standard]\"]\n",
			KindBackend, "fastapi",
		},
		{
			"notebook stack",
			"[tool.poetry.dependencies]\npandas = \"^2.0\"\nnumpy = \"^1.26\"\n",
			KindDataScience, "jupyter",
		},
	}

	c := New()
	for _, tc := range tests {
		l := fakeListing([]string{"pyproject.toml"}, map[string]string{"pyproject.toml": tc.toml})
		got := c.Classify(l)
		if got == nil {
			t.Errorf("%s: expected a classification", tc.name)
			continue
		}
		if got.Kind != tc.wantKind {
			t.Errorf("%s: kind = %q, want %q", tc.name, got.Kind, tc.wantKind)
		}
		if !hasString(got.Frameworks, tc.wantFW) {
			t.Errorf("%s: frameworks = %v, should include %q", tc.name, got.Frameworks, tc.wantFW)
		}
	}
}

func TestClassify_CargoTauriIsDesktop(t *testing.T) {
	c := New()
	l := fakeListing([]string{"Cargo.toml"}, map[string]string{
		"Cargo.toml": "[dependencies]\ntauri = \"2.0\"\n",
	})
	got := c.Classify(l)
	if got == nil {
		t.Fatal("expected a classification")
	}
	if got.Kind != KindDesktop {
		t.Errorf("kind = %q, want %q", got.Kind, KindDesktop)
	}
	if !hasString(got.Frameworks, "tauri") {
		t.Errorf("frameworks = %v, should include tauri", got.Frameworks)
	}
}

func TestClassify_MalformedManifestDegradesGracefully(t *testing.T) {
	c := New()
	l := fakeListing([]string{"package.json"}, map[string]string{
		"package.json": `{"dependencies": [broken`,
	})
	got := c.Classify(l)
	if got == nil {
		t.Fatal("filename signature should still classify")
	}
	// The filename-only result stands.
	if got.Kind != KindWeb {
		t.Errorf("kind = %q, want %q", got.Kind, KindWeb)
	}
	if len(got.ParseIssues) != 1 {
		t.Fatalf("expected 1 parse issue, got %d", len(got.ParseIssues))
	}
	if !strings.Contains(got.ParseIssues[0], "package.json") {
		t.Errorf("parse issue should name the manifest: %q", got.ParseIssues[0])
	}
}

// ---------------------------------------------------------------------------
// Extension fallback
// ---------------------------------------------------------------------------

func TestClassify_FallbackByExtensionHistogram(t *testing.T) {
	c := New()
	l := fakeListing([]string{"a.py", "b.py", "util.sh"}, nil)
	l.ExtCounts = map[string]int{".py": 6, ".sh": 1}

	got := c.Classify(l)
	if got == nil {
		t.Fatal("expected a fallback classification")
	}
	if got.Kind != KindBackend {
		t.Errorf("kind = %q, want %q", got.Kind, KindBackend)
	}
	if got.Languages[0] != "python" {
		t.Errorf("primary language = %q, want python", got.Languages[0])
	}
	if !hasString(got.Languages, "bash") {
		t.Errorf("languages = %v, should include bash", got.Languages)
	}
}

func TestClassify_FallbackTieBrokenByName(t *testing.T) {
	c := New()
	l := fakeListing([]string{"main.go", "tool.py"}, nil)
	l.ExtCounts = map[string]int{".go": 3, ".py": 3}

	got := c.Classify(l)
	if got == nil {
		t.Fatal("expected a fallback classification")
	}
	// Equal counts fall back to lexical language order, keeping reruns
	// deterministic.
	if got.Languages[0] != "go" {
		t.Errorf("primary language = %q, want go", got.Languages[0])
	}
}

func TestClassify_GroupingFolderWithNestedCodeIsNotAProject(t *testing.T) {
	c := New()
	l := fakeListing(nil, nil)
	l.Entries = []listing.Entry{
		{Name: "svc-a", IsDir: true},
		{Name: "svc-b", IsDir: true},
	}
	// Subtree code belongs to the subdirectories, not this folder.
	l.ExtCounts = map[string]int{".go": 12}

	if got := c.Classify(l); got != nil {
		t.Fatalf("folder with only subdirectories should not classify, got %+v", got)
	}
}

func TestClassify_DeterministicAcrossRuns(t *testing.T) {
	c := New()
	build := func() *listing.Listing {
		l := fakeListing([]string{"package.json", "tsconfig.json", "Dockerfile"}, map[string]string{
			"package.json": `{"dependencies":{"react":"18.2.0","express":"4.18.0"}}`,
		})
		l.ExtCounts = map[string]int{".ts": 10, ".js": 2}
		return l
	}

	first := c.Classify(build())
	for i := 0; i < 10; i++ {
		again := c.Classify(build())
		if again.Kind != first.Kind {
			t.Fatalf("run %d: kind flipped from %q to %q", i, first.Kind, again.Kind)
		}
		if strings.Join(again.Languages, ",") != strings.Join(first.Languages, ",") {
			t.Fatalf("run %d: languages flipped from %v to %v", i, first.Languages, again.Languages)
		}
		if strings.Join(again.Frameworks, ",") != strings.Join(first.Frameworks, ",") {
			t.Fatalf("run %d: frameworks flipped from %v to %v", i, first.Frameworks, again.Frameworks)
		}
	}
}

func hasString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
