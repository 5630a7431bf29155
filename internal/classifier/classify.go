// Package classifier decides whether a directory is a project root and, if
// so, its kind, languages, and frameworks. Detection is driven by a
// prioritized rule table over marker filenames, refined by small reads of
// the manifests themselves, with an extension-histogram fallback.
package classifier

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/projlens/projlens/internal/listing"
)

// Classification is the result of classifying one directory.
type Classification struct {
	// Kind is the winning project kind.
	Kind Kind

	// Languages are all detected languages, primary first.
	Languages []string

	// Frameworks are all detected framework identifiers.
	Frameworks []string

	// ParseIssues records manifests that could not be parsed. Detection
	// degraded to filename-only signatures for those; the scorer surfaces
	// them as health issues.
	ParseIssues []string
}

// Classifier evaluates the rule table against directory listings.
// The zero value is not usable; call New.
type Classifier struct {
	Rules []Rule
}

// New returns a Classifier with the built-in rule table.
func New() *Classifier {
	return &Classifier{Rules: DefaultRules}
}

// Classify inspects a shallow listing and returns nil when the directory
// exhibits no recognized project signature. It never returns an error:
// malformed manifest content degrades detection and is recorded in
// ParseIssues instead.
func (c *Classifier) Classify(l *listing.Listing) *Classification {
	present := make(map[string]bool, len(l.Entries))
	for _, e := range l.Entries {
		if !e.IsDir {
			present[e.Name] = true
		}
	}

	var (
		matched    []Rule
		best       Rule
		haveBest   bool
		langs      []string
		langSeen   = map[string]bool{}
		frameworks []string
		fwSeen     = map[string]bool{}
	)
	addLang := func(lang string) {
		if lang != "" && !langSeen[lang] {
			langSeen[lang] = true
			langs = append(langs, lang)
		}
	}
	addFramework := func(fw string) {
		if fw != "" && !fwSeen[fw] {
			fwSeen[fw] = true
			frameworks = append(frameworks, fw)
		}
	}

	for _, r := range c.Rules {
		if !present[r.Marker] {
			continue
		}
		matched = append(matched, r)
		// First match at the highest priority wins the kind; table order
		// is the tie-break.
		if r.Kind != "" && (!haveBest || r.Priority > best.Priority) {
			best = r
			haveBest = true
		}
	}

	if len(matched) == 0 {
		return c.fallbackByExtension(l)
	}

	// The winning rule's language leads; the rest accumulate in table
	// order so a project can be genuinely multi-language.
	if haveBest {
		addLang(best.Language)
		addFramework(best.Framework)
	}
	for _, r := range matched {
		addLang(r.Language)
		addFramework(r.Framework)
	}

	result := &Classification{
		Kind:       KindUnknown,
		Languages:  langs,
		Frameworks: frameworks,
	}
	if haveBest {
		result.Kind = best.Kind
	}

	refineFromManifests(l, result, addLang, addFramework)
	result.Languages = langs
	result.Frameworks = frameworks
	return result
}

// fallbackByExtension classifies by the source-extension histogram when no
// manifest rule matched. The directory must contain source files directly;
// otherwise it is a grouping folder and its subdirectories stand on their
// own. The language ranking still uses the subtree histogram so code under
// src/ counts.
func (c *Classifier) fallbackByExtension(l *listing.Listing) *Classification {
	shallow := 0
	for _, e := range l.Entries {
		if e.IsDir {
			continue
		}
		if _, ok := extLanguages[strings.ToLower(filepath.Ext(e.Name))]; ok {
			shallow++
		}
	}
	if shallow == 0 || len(l.ExtCounts) == 0 {
		return nil
	}

	type langCount struct {
		lang  string
		count int
	}
	totals := map[string]int{}
	for ext, n := range l.ExtCounts {
		if lang, ok := extLanguages[ext]; ok {
			totals[lang] += n
		}
	}
	if len(totals) == 0 {
		return nil
	}

	ranked := make([]langCount, 0, len(totals))
	for lang, n := range totals {
		ranked = append(ranked, langCount{lang, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].lang < ranked[j].lang
	})

	langs := make([]string, 0, len(ranked))
	for _, lc := range ranked {
		langs = append(langs, lc.lang)
	}

	kind := KindUnknown
	if k, ok := kindForLanguage[ranked[0].lang]; ok {
		kind = k
	}
	return &Classification{Kind: kind, Languages: langs}
}

// parseIssue appends a uniform parse-failure note.
func parseIssue(result *Classification, manifest string, err error) {
	result.ParseIssues = append(result.ParseIssues,
		fmt.Sprintf("%s could not be parsed: %v", manifest, err))
}
