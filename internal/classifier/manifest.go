package classifier

import (
	"encoding/json"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/projlens/projlens/internal/listing"
)

// refineFromManifests sharpens the rule-table result by reading the
// manifests the listing already gathered. A manifest that fails to parse
// leaves the filename-only classification intact and records a ParseIssue.
func refineFromManifests(l *listing.Listing, result *Classification, addLang, addFramework func(string)) {
	if data, ok := l.Manifests["package.json"]; ok {
		refinePackageJSON(data, result, addLang, addFramework)
	}
	if data, ok := l.Manifests["pyproject.toml"]; ok {
		refinePyproject(data, result, addFramework)
	}
	if data, ok := l.Manifests["Cargo.toml"]; ok {
		refineCargo(data, result, addFramework)
	}
	if data, ok := l.Manifests["pubspec.yaml"]; ok {
		refinePubspec(data, result, addFramework)
	}
}

// packageJSON is the subset of a package.json we look at.
type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// jsFrameworkKinds maps package.json dependencies to a framework and the
// kind they imply. Earlier entries outrank later ones.
var jsFrameworkKinds = []struct {
	dep       string
	framework string
	kind      Kind
}{
	{"react-native", "react-native", KindMobile},
	{"@ionic/core", "ionic", KindMobile},
	{"electron", "electron", KindDesktop},
	{"next", "nextjs", KindWeb},
	{"nuxt", "nuxt", KindWeb},
	{"gatsby", "gatsby", KindWeb},
	{"@angular/core", "angular", KindWeb},
	{"svelte", "svelte", KindWeb},
	{"vue", "vue", KindWeb},
	{"react", "react", KindWeb},
	{"express", "express", KindBackend},
	{"fastify", "fastify", KindBackend},
	{"koa", "koa", KindBackend},
	{"@nestjs/core", "nestjs", KindBackend},
}

func refinePackageJSON(data []byte, result *Classification, addLang, addFramework func(string)) {
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		parseIssue(result, "package.json", err)
		return
	}
	deps := make(map[string]bool, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for d := range pkg.Dependencies {
		deps[d] = true
	}
	for d := range pkg.DevDependencies {
		deps[d] = true
	}

	if deps["typescript"] {
		addLang("typescript")
	}
	kindSet := false
	for _, fk := range jsFrameworkKinds {
		if !deps[fk.dep] {
			continue
		}
		addFramework(fk.framework)
		if !kindSet {
			result.Kind = fk.kind
			kindSet = true
		}
	}
}

// pyprojectTOML is the subset of a pyproject.toml we look at.
type pyprojectTOML struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func refinePyproject(data []byte, result *Classification, addFramework func(string)) {
	var py pyprojectTOML
	if err := toml.Unmarshal(data, &py); err != nil {
		parseIssue(result, "pyproject.toml", err)
		return
	}
	deps := map[string]bool{}
	for _, d := range py.Project.Dependencies {
		// PEP 508 strings like "django>=4.2"; take the leading name.
		fields := strings.FieldsFunc(d, func(r rune) bool {
			return r == '=' || r == '>' || r == '<' || r == '~' || r == '!' || r == '[' || r == ' ' || r == ';'
		})
		if len(fields) == 0 {
			continue
		}
		deps[strings.ToLower(fields[0])] = true
	}
	for d := range py.Tool.Poetry.Dependencies {
		deps[strings.ToLower(d)] = true
	}

	switch {
	case deps["django"]:
		addFramework("django")
		result.Kind = KindWeb
	case deps["flask"]:
		addFramework("flask")
		result.Kind = KindBackend
	case deps["fastapi"]:
		addFramework("fastapi")
		result.Kind = KindBackend
	}
	if deps["jupyter"] || deps["pandas"] || deps["numpy"] || deps["scikit-learn"] {
		addFramework("jupyter")
		result.Kind = KindDataScience
	}
}

// cargoTOML is the subset of a Cargo.toml we look at.
type cargoTOML struct {
	Dependencies map[string]any `toml:"dependencies"`
}

func refineCargo(data []byte, result *Classification, addFramework func(string)) {
	var cargo cargoTOML
	if err := toml.Unmarshal(data, &cargo); err != nil {
		parseIssue(result, "Cargo.toml", err)
		return
	}
	has := func(name string) bool {
		_, ok := cargo.Dependencies[name]
		return ok
	}
	switch {
	case has("tauri"):
		addFramework("tauri")
		result.Kind = KindDesktop
	case has("axum"):
		addFramework("axum")
		result.Kind = KindBackend
	case has("actix-web"):
		addFramework("actix")
		result.Kind = KindBackend
	case has("rocket"):
		addFramework("rocket")
		result.Kind = KindBackend
	}
}

// pubspecYAML is the subset of a pubspec.yaml we look at.
type pubspecYAML struct {
	Dependencies map[string]any `yaml:"dependencies"`
}

func refinePubspec(data []byte, result *Classification, addFramework func(string)) {
	var pub pubspecYAML
	if err := yaml.Unmarshal(data, &pub); err != nil {
		parseIssue(result, "pubspec.yaml", err)
		return
	}
	if _, ok := pub.Dependencies["flutter"]; ok {
		addFramework("flutter")
		result.Kind = KindMobile
	}
}
