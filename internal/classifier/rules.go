package classifier

// Kind buckets a project by what it ships.
type Kind string

const (
	KindWeb         Kind = "web"
	KindBackend     Kind = "backend"
	KindMobile      Kind = "mobile"
	KindDesktop     Kind = "desktop"
	KindDataScience Kind = "data-science"
	KindDevOps      Kind = "devops"
	KindDocs        Kind = "docs"
	KindLibrary     Kind = "library"
	KindUnknown     Kind = "unknown"
)

// Rule maps a marker file to a classification. All matching rules
// contribute languages and frameworks; the highest-priority match decides
// the kind. Equal priorities are broken by table order, with root-manifest
// rules listed before weaker config fragments.
type Rule struct {
	Marker    string
	Kind      Kind
	Language  string
	Framework string
	Priority  int
}

// DefaultRules is the built-in signature table, ordered root manifests
// first. Tests may swap in their own table via Classifier.Rules.
var DefaultRules = []Rule{
	// Dependency manifests: the strongest signal a directory is a
	// project root.
	{Marker: "pubspec.yaml", Kind: KindMobile, Language: "dart", Framework: "flutter", Priority: 80},
	{Marker: "environment.yml", Kind: KindDataScience, Language: "python", Framework: "conda", Priority: 78},
	{Marker: "pyproject.toml", Kind: KindBackend, Language: "python", Priority: 75},
	{Marker: "Cargo.toml", Kind: KindBackend, Language: "rust", Framework: "cargo", Priority: 75},
	{Marker: "go.mod", Kind: KindBackend, Language: "go", Priority: 75},
	{Marker: "package.json", Kind: KindWeb, Language: "javascript", Framework: "node", Priority: 70},
	{Marker: "pom.xml", Kind: KindBackend, Language: "java", Framework: "maven", Priority: 70},
	{Marker: "build.gradle", Kind: KindBackend, Language: "java", Framework: "gradle", Priority: 70},
	{Marker: "composer.json", Kind: KindWeb, Language: "php", Framework: "composer", Priority: 68},
	{Marker: "Gemfile", Kind: KindBackend, Language: "ruby", Framework: "bundler", Priority: 68},
	{Marker: "requirements.txt", Kind: KindBackend, Language: "python", Priority: 65},
	{Marker: "setup.py", Kind: KindLibrary, Language: "python", Priority: 62},

	// Documentation site generators.
	{Marker: "mkdocs.yml", Kind: KindDocs, Language: "markdown", Framework: "mkdocs", Priority: 60},
	{Marker: "docusaurus.config.js", Kind: KindDocs, Language: "javascript", Framework: "docusaurus", Priority: 60},
	{Marker: "conf.py", Kind: KindDocs, Language: "python", Framework: "sphinx", Priority: 55},

	// Build descriptors and infra config: weaker than a manifest.
	{Marker: "CMakeLists.txt", Kind: KindDesktop, Language: "cpp", Framework: "cmake", Priority: 55},
	{Marker: "main.tf", Kind: KindDevOps, Language: "hcl", Framework: "terraform", Priority: 55},
	{Marker: "playbook.yml", Kind: KindDevOps, Language: "yaml", Framework: "ansible", Priority: 52},
	{Marker: "docker-compose.yml", Kind: KindDevOps, Language: "yaml", Framework: "docker-compose", Priority: 50},
	{Marker: "Dockerfile", Kind: KindDevOps, Framework: "docker", Priority: 48},
	{Marker: "Makefile", Kind: KindLibrary, Language: "c", Framework: "make", Priority: 40},

	// Tooling fragments: contribute a language, never decide the kind on
	// their own.
	{Marker: "tsconfig.json", Language: "typescript", Priority: 20},
	{Marker: "angular.json", Kind: KindWeb, Language: "typescript", Framework: "angular", Priority: 66},
	{Marker: "next.config.js", Kind: KindWeb, Language: "javascript", Framework: "nextjs", Priority: 66},
	{Marker: "nuxt.config.js", Kind: KindWeb, Language: "javascript", Framework: "nuxt", Priority: 66},
	{Marker: "svelte.config.js", Kind: KindWeb, Language: "javascript", Framework: "svelte", Priority: 66},
	{Marker: "gatsby-config.js", Kind: KindWeb, Language: "javascript", Framework: "gatsby", Priority: 66},
	{Marker: "vite.config.js", Language: "javascript", Framework: "vite", Priority: 20},
	{Marker: "webpack.config.js", Language: "javascript", Framework: "webpack", Priority: 20},
}

// extLanguages maps source extensions to languages for the histogram
// fallback when no manifest rule matches.
var extLanguages = map[string]string{
	".py": "python", ".js": "javascript", ".jsx": "javascript",
	".mjs": "javascript", ".ts": "typescript", ".tsx": "typescript",
	".go": "go", ".rs": "rust", ".java": "java", ".kt": "kotlin",
	".scala": "scala", ".c": "c", ".h": "c", ".cpp": "cpp", ".cc": "cpp",
	".hpp": "cpp", ".cs": "csharp", ".php": "php", ".rb": "ruby",
	".swift": "swift", ".m": "objective-c", ".dart": "dart",
	".sh": "bash", ".bash": "bash", ".ps1": "powershell", ".lua": "lua",
	".pl": "perl", ".r": "r", ".jl": "julia", ".ex": "elixir",
	".exs": "elixir", ".hs": "haskell", ".clj": "clojure",
	".vue": "javascript", ".svelte": "javascript", ".tf": "hcl",
	".sql": "sql", ".ipynb": "python",
}

// kindForLanguage gives the histogram fallback a kind when only file
// extensions identified the project.
var kindForLanguage = map[string]Kind{
	"python":     KindBackend,
	"javascript": KindWeb,
	"typescript": KindWeb,
	"go":         KindBackend,
	"rust":       KindBackend,
	"java":       KindBackend,
	"kotlin":     KindMobile,
	"swift":      KindMobile,
	"dart":       KindMobile,
	"c":          KindLibrary,
	"cpp":        KindLibrary,
	"csharp":     KindDesktop,
	"php":        KindWeb,
	"ruby":       KindBackend,
	"bash":       KindDevOps,
	"hcl":        KindDevOps,
	"r":          KindDataScience,
	"julia":      KindDataScience,
}
