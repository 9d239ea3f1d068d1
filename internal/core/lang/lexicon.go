// Package lang maps free-form trilingual text (English, Urdu script, Roman
// Urdu, possibly mixed) onto canonical domain concepts. The keyword tables
// live in embedded YAML so new languages or spelling variants are data edits,
// not control-flow edits.
package lang

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
)

//go:embed lexicons/*.yaml
var lexiconFS embed.FS

// Verb is the canonical command a message expresses.
type Verb string

const (
	VerbCreate    Verb = "create"
	VerbList      Verb = "list"
	VerbUpdate    Verb = "update"
	VerbComplete  Verb = "complete"
	VerbDelete    Verb = "delete"
	VerbAnalytics Verb = "analytics"
)

// Span is a byte range inside the folded message.
type Span struct {
	Start, End int
}

// table mirrors one lexicon YAML file.
type table struct {
	Language   string              `yaml:"language"`
	Verbs      map[string][]string `yaml:"verbs"`
	Priorities map[string][]string `yaml:"priorities"`
	Recurrence map[string][]string `yaml:"recurrence"`
	Urgency    []string            `yaml:"urgency"`
	Calm       []string            `yaml:"calm"`
	Anaphora   []string            `yaml:"anaphora"`
	TagMarkers []string            `yaml:"tag_markers"`
	Markers    []string            `yaml:"markers"`
}

type entry struct {
	phrase    string // folded surface form
	canonical string
	lang      domain.Language
}

// Lexicon holds the merged per-language tables. Lookups are pure and never
// fail: absence of a match means the text is literal content.
type Lexicon struct {
	verbs      []entry
	priorities []entry
	recurrence []entry
	urgency    []entry
	calm       []entry
	anaphora   []entry
	tagMarkers []entry

	markers map[domain.Language][]string
}

// Load parses the embedded lexicon files.
func Load() (*Lexicon, error) {
	files, err := lexiconFS.ReadDir("lexicons")
	if err != nil {
		return nil, fmt.Errorf("read lexicons: %w", err)
	}

	lex := &Lexicon{markers: make(map[domain.Language][]string)}
	for _, f := range files {
		raw, err := lexiconFS.ReadFile("lexicons/" + f.Name())
		if err != nil {
			return nil, fmt.Errorf("read lexicon %s: %w", f.Name(), err)
		}
		var t table
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("parse lexicon %s: %w", f.Name(), err)
		}
		lang := domain.Language(t.Language)
		if !domain.ValidLanguage(lang) {
			return nil, fmt.Errorf("lexicon %s: unknown language %q", f.Name(), t.Language)
		}
		lex.merge(lang, t)
	}

	// Longer phrases first so a tie on position prefers the longest match.
	for _, group := range [][]entry{lex.verbs, lex.priorities, lex.recurrence, lex.urgency, lex.calm, lex.anaphora, lex.tagMarkers} {
		sort.SliceStable(group, func(i, j int) bool {
			return len(group[i].phrase) > len(group[j].phrase)
		})
	}
	return lex, nil
}

// MustLoad panics on a malformed embedded lexicon. Only for wiring paths
// where the tables are compile-time data.
func MustLoad() *Lexicon {
	lex, err := Load()
	if err != nil {
		panic(err)
	}
	return lex
}

func (l *Lexicon) merge(lang domain.Language, t table) {
	addMap := func(dst *[]entry, src map[string][]string) {
		for canonical, variants := range src {
			for _, v := range variants {
				*dst = append(*dst, entry{phrase: Fold(v), canonical: canonical, lang: lang})
			}
		}
	}
	addList := func(dst *[]entry, src []string, canonical string) {
		for _, v := range src {
			*dst = append(*dst, entry{phrase: Fold(v), canonical: canonical, lang: lang})
		}
	}

	addMap(&l.verbs, t.Verbs)
	addMap(&l.priorities, t.Priorities)
	addMap(&l.recurrence, t.Recurrence)
	addList(&l.urgency, t.Urgency, "high")
	addList(&l.calm, t.Calm, "low")
	addList(&l.anaphora, t.Anaphora, "")
	addList(&l.tagMarkers, t.TagMarkers, "")

	for _, m := range t.Markers {
		l.markers[lang] = append(l.markers[lang], Fold(m))
	}
}

// lookup scans for the entry with the earliest word-boundary occurrence in
// folded; ties go to the longest phrase. hint restricts entries to one
// language; empty hint searches every table (mixed-script input is normal).
func lookup(entries []entry, folded string, hint domain.Language) (entry, Span, bool) {
	best := Span{Start: -1}
	var bestEntry entry
	for _, e := range entries {
		if hint != "" && e.lang != hint {
			continue
		}
		s, end, ok := FindWord(folded, e.phrase)
		if !ok {
			continue
		}
		if best.Start == -1 || s < best.Start || (s == best.Start && end > best.End) {
			best = Span{Start: s, End: end}
			bestEntry = e
		}
	}
	return bestEntry, best, best.Start >= 0
}

// Verb finds the canonical command verb in a folded message.
func (l *Lexicon) Verb(folded string, hint domain.Language) (Verb, Span, bool) {
	e, span, ok := lookup(l.verbs, folded, hint)
	if !ok {
		return "", Span{}, false
	}
	return Verb(e.canonical), span, true
}

// Priority finds an explicit priority statement ("high priority", "kam
// zaroori"). Urgency words are advisory and reported separately.
func (l *Lexicon) Priority(folded string, hint domain.Language) (domain.Priority, Span, bool) {
	e, span, ok := lookup(l.priorities, folded, hint)
	if !ok {
		return "", Span{}, false
	}
	return domain.Priority(e.canonical), span, true
}

// Recurrence finds a recurrence keyword ("every week", "har roz").
func (l *Lexicon) Recurrence(folded string, hint domain.Language) (domain.Recurrence, Span, bool) {
	e, span, ok := lookup(l.recurrence, folded, hint)
	if !ok {
		return "", Span{}, false
	}
	return domain.Recurrence(e.canonical), span, true
}

// Urgency reports an urgency keyword (urgent/asap/zaroori/fori). Advisory:
// suggests high priority when the user stated none.
func (l *Lexicon) Urgency(folded string, hint domain.Language) (Span, bool) {
	_, span, ok := lookup(l.urgency, folded, hint)
	return span, ok
}

// Calm reports a no-rush keyword, the low-priority mirror of Urgency.
func (l *Lexicon) Calm(folded string, hint domain.Language) (Span, bool) {
	_, span, ok := lookup(l.calm, folded, hint)
	return span, ok
}

// Anaphora reports a demonstrative task reference ("that one", "wo wala").
func (l *Lexicon) Anaphora(folded string, hint domain.Language) (Span, bool) {
	_, span, ok := lookup(l.anaphora, folded, hint)
	return span, ok
}

// TagMarker reports a tag-introduction keyword.
func (l *Lexicon) TagMarker(folded string, hint domain.Language) (Span, bool) {
	_, span, ok := lookup(l.tagMarkers, folded, hint)
	return span, ok
}
