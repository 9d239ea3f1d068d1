// Package parser turns one raw chat message into a canonical ActionRequest.
// It composes the lexical and temporal resolvers with the conversation
// context; ambiguity always becomes a Clarify action, never a guess.
package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
	"github.com/Tafzeel99/todo-agent/internal/core/lang"
	"github.com/Tafzeel99/todo-agent/internal/core/temporal"
)

// Context is the slice of conversation state the parser consults: the most
// recently referenced task ids (newest first) and the last detected language.
type Context struct {
	RecentTasks  []domain.TaskID
	LastLanguage domain.Language
}

// Parser is stateless; one instance serves all conversations.
type Parser struct {
	lex *lang.Lexicon
}

func New(lex *lang.Lexicon) *Parser {
	return &Parser{lex: lex}
}

var ordinalRe = regexp.MustCompile(`\btask\s+(\d+)\b`)

// Words meaning "the most recent one"; these select a single candidate even
// when the context holds several.
var lastRefWords = []string{"last", "previous", "pichla", "پچھلا", "mentioned"}

// Parse resolves message against the reference instant and conversation
// context. It never errors: unparseable input becomes a Clarify action.
func (p *Parser) Parse(message string, ref time.Time, ctx Context) domain.ActionRequest {
	language := p.resolveLanguage(message, ctx)
	folded := lang.Fold(message)

	when := temporal.Resolve(folded, ref)
	if when.Kind == temporal.KindAmbiguous {
		return clarify(language, domain.ClarifyAmbiguousDate, when.Expr)
	}

	verb, verbSpan, hasVerb := p.lex.Verb(folded, "")
	if !hasVerb {
		return clarify(language, domain.ClarifyUnknownIntent, "")
	}

	switch verb {
	case lang.VerbCreate:
		return p.parseCreate(folded, ref, when, verbSpan, language)
	case lang.VerbList:
		return p.parseList(folded, when, verbSpan, language)
	case lang.VerbComplete:
		return p.parseTargeted(domain.ActionCompleteTask, folded, ref, when, verbSpan, language, ctx)
	case lang.VerbDelete:
		return p.parseTargeted(domain.ActionDeleteTask, folded, ref, when, verbSpan, language, ctx)
	case lang.VerbUpdate:
		return p.parseTargeted(domain.ActionUpdateTask, folded, ref, when, verbSpan, language, ctx)
	case lang.VerbAnalytics:
		return domain.ActionRequest{Type: domain.ActionGetAnalytics, Language: language, Analytics: &domain.GetAnalytics{}}
	}
	return clarify(language, domain.ClarifyUnknownIntent, "")
}

// resolveLanguage prefers the current message when detection is confident,
// then the conversation's last language, then English.
func (p *Parser) resolveLanguage(message string, ctx Context) domain.Language {
	detected, confident := p.lex.Detect(message)
	if confident {
		return detected
	}
	if domain.ValidLanguage(ctx.LastLanguage) {
		return ctx.LastLanguage
	}
	return domain.LangEnglish
}

func (p *Parser) parseCreate(folded string, ref time.Time, when temporal.Result, verbSpan lang.Span, language domain.Language) domain.ActionRequest {
	create := &domain.CreateTask{Priority: domain.PriorityMedium}
	cut := []lang.Span{verbSpan}
	cut = appendDateSpans(cut, when)

	if pr, span, ok := p.lex.Priority(folded, ""); ok {
		create.Priority = pr
		cut = append(cut, span)
	} else if span, ok := p.lex.Urgency(folded, ""); ok {
		create.Priority = domain.PriorityHigh
		create.Suggested = true
		cut = append(cut, span)
	} else if span, ok := p.lex.Calm(folded, ""); ok {
		create.Priority = domain.PriorityLow
		create.Suggested = true
		cut = append(cut, span)
	}

	if rec, span, ok := p.lex.Recurrence(folded, ""); ok {
		create.Recurrence = rec
		cut = append(cut, span)
	}

	if span, ok := p.lex.TagMarker(folded, ""); ok {
		tags, segEnd := parseTags(folded, span.End)
		if len(tags) > 0 {
			create.Tags = tags
			cut = append(cut, lang.Span{Start: span.Start, End: segEnd})
		}
	}

	if when.Kind == temporal.KindDate {
		due := when.Time
		create.DueDate = &due
		create.DueInPast = due.Before(midnight(ref))
	}

	create.Title = cleanTitle(cutSpans(folded, cut))
	if create.Title == "" {
		return clarify(language, domain.ClarifyUnknownIntent, "")
	}
	return domain.ActionRequest{Type: domain.ActionCreateTask, Language: language, Create: create}
}

func (p *Parser) parseList(folded string, when temporal.Result, verbSpan lang.Span, language domain.Language) domain.ActionRequest {
	list := &domain.ListTasks{}
	cut := []lang.Span{verbSpan}
	cut = appendDateSpans(cut, when)

	switch {
	case containsAny(folded, "pending", "incomplete", "باقی", "adhura"):
		list.Filter.Status = domain.StatusPending
	case containsAny(folded, "completed", "finished", "done", "مکمل", "ho chuke", "ho gaye"):
		list.Filter.Status = domain.StatusCompleted
	default:
		list.Filter.Status = domain.StatusAll
	}

	if containsAny(folded, "overdue", "late") {
		list.Filter.OverdueOnly = true
	}

	if pr, span, ok := p.lex.Priority(folded, ""); ok {
		list.Filter.Priority = pr
		cut = append(cut, span)
	}

	// A resolved date narrows the listing to that calendar day.
	if when.Kind == temporal.KindDate {
		from := midnight(when.Time)
		to := from.AddDate(0, 0, 1)
		list.Filter.DueAfter = &from
		list.Filter.DueBefore = &to
	}

	leftover := cleanTitle(cutSpans(folded, cut))
	leftover = dropWords(leftover, listNoise)
	if leftover != "" {
		list.Filter.Search = leftover
	}
	return domain.ActionRequest{Type: domain.ActionListTasks, Language: language, List: list}
}

// parseTargeted builds update/complete/delete requests; all three share the
// task-reference resolution rules.
func (p *Parser) parseTargeted(kind domain.ActionType, folded string, ref time.Time, when temporal.Result, verbSpan lang.Span, language domain.Language, ctx Context) domain.ActionRequest {
	cut := []lang.Span{verbSpan}
	cut = appendDateSpans(cut, when)

	var patch domain.TaskPatch
	if kind == domain.ActionUpdateTask {
		if when.Kind == temporal.KindDate {
			due := when.Time
			patch.DueDate = &due
		}
		if pr, span, ok := p.lex.Priority(folded, ""); ok {
			patch.Priority = &pr
			cut = append(cut, span)
		}
		if rec, span, ok := p.lex.Recurrence(folded, ""); ok {
			patch.Recurrence = &rec
			cut = append(cut, span)
		}
	}

	target, clar := p.resolveTarget(folded, &cut, ctx)
	if clar != nil {
		return domain.ActionRequest{Type: domain.ActionClarify, Language: language, Clarify: clar}
	}

	req := domain.ActionRequest{Type: kind, Language: language}
	switch kind {
	case domain.ActionCompleteTask:
		req.Complete = &domain.CompleteTask{Target: target}
	case domain.ActionDeleteTask:
		req.Delete = &domain.DeleteTask{Target: target}
	case domain.ActionUpdateTask:
		dueInPast := patch.DueDate != nil && patch.DueDate.Before(midnight(ref))
		req.Update = &domain.UpdateTask{Target: target, Patch: patch, DueInPast: dueInPast}
	}
	return req
}

// resolveTarget binds the task a targeted action refers to. Resolution order:
// ordinal ("task 3") against the context list, demonstratives against the
// context list (exactly-one rule, except "last/previous" which always means
// the newest entry), then leftover text as a title query for the dispatcher.
func (p *Parser) resolveTarget(folded string, cut *[]lang.Span, ctx Context) (domain.TaskTarget, *domain.Clarify) {
	if m := ordinalRe.FindStringSubmatchIndex(folded); m != nil {
		n, _ := strconv.Atoi(folded[m[2]:m[3]])
		if n < 1 || n > len(ctx.RecentTasks) {
			return domain.TaskTarget{}, &domain.Clarify{Reason: domain.ClarifyNoReference, Detail: folded[m[0]:m[1]]}
		}
		*cut = append(*cut, lang.Span{Start: m[0], End: m[1]})
		return domain.TaskTarget{ID: ctx.RecentTasks[n-1], FromContext: true}, nil
	}

	if span, ok := p.lex.Anaphora(folded, ""); ok {
		*cut = append(*cut, span)
		if len(ctx.RecentTasks) == 0 {
			return domain.TaskTarget{}, &domain.Clarify{Reason: domain.ClarifyNoReference, Detail: folded[span.Start:span.End]}
		}
		if len(ctx.RecentTasks) == 1 || wantsMostRecent(folded) {
			return domain.TaskTarget{ID: ctx.RecentTasks[0], FromContext: true}, nil
		}
		return domain.TaskTarget{}, &domain.Clarify{Reason: domain.ClarifyAmbiguousReference, Detail: folded[span.Start:span.End]}
	}

	leftover := cleanTitle(cutSpans(folded, *cut))
	leftover = dropWords(leftover, targetNoise)
	if leftover != "" {
		return domain.TaskTarget{TitleQuery: leftover}, nil
	}

	// No reference at all: the bare verb still binds when exactly one task
	// is in play.
	switch len(ctx.RecentTasks) {
	case 0:
		return domain.TaskTarget{}, &domain.Clarify{Reason: domain.ClarifyNoReference}
	case 1:
		return domain.TaskTarget{ID: ctx.RecentTasks[0], FromContext: true}, nil
	default:
		return domain.TaskTarget{}, &domain.Clarify{Reason: domain.ClarifyAmbiguousReference}
	}
}

func containsAny(folded string, phrases ...string) bool {
	for _, p := range phrases {
		if _, _, ok := lang.FindWord(folded, p); ok {
			return true
		}
	}
	return false
}

func wantsMostRecent(folded string) bool {
	for _, w := range lastRefWords {
		if _, _, ok := lang.FindWord(folded, w); ok {
			return true
		}
	}
	return false
}

func clarify(language domain.Language, reason domain.ClarifyReason, detail string) domain.ActionRequest {
	return domain.ActionRequest{
		Type:     domain.ActionClarify,
		Language: language,
		Clarify:  &domain.Clarify{Reason: reason, Detail: detail},
	}
}

func appendDateSpans(cut []lang.Span, when temporal.Result) []lang.Span {
	if when.Kind == temporal.KindDate {
		cut = append(cut, when.Span)
		if when.Clock != nil {
			cut = append(cut, *when.Clock)
		}
	}
	return cut
}

// cutSpans removes the matched byte ranges from folded text.
func cutSpans(folded string, spans []lang.Span) string {
	sorted := make([]lang.Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	pos := 0
	for _, s := range sorted {
		if s.Start > pos {
			b.WriteString(folded[pos:s.Start])
		}
		if s.End > pos {
			pos = s.End
		}
	}
	if pos < len(folded) {
		b.WriteString(folded[pos:])
	}
	return b.String()
}

// Leading and trailing filler trimmed off extracted titles. Interior words
// are never touched: unmatched text is content, not keywords.
var (
	leadFiller  = wordSet("task", "tasks", "a", "an", "to", "my", "the", "me", "please", "ek", "naya", "nayi", "mujhe", "maine", "mera", "meri", "ٹاسک", "مجھے", "میرا")
	tailFiller  = wordSet("due", "by", "on", "at", "to", "my", "list", "please", "task", "tasks", "hai", "hain", "he", "ko", "tak", "se", "ka", "ki", "ke", "کو", "تک", "ہے")
	targetNoise = wordSet("done", "complete", "completed", "finish", "finished", "as", "off", "kaam", "کام")
	listNoise   = wordSet("tasks", "task", "all", "me", "sab", "sare", "saare", "what", "are", "do", "i", "have", "mere", "kya", "pending", "completed", "incomplete", "finished", "done", "overdue", "late")
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// cleanTitle trims punctuation and filler from both ends of leftover text.
func cleanTitle(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 {
		w := strings.Trim(words[0], ".,!?:;\"'")
		if w == "" || leadFiller[w] {
			words = words[1:]
			continue
		}
		words[0] = w
		break
	}
	for len(words) > 0 {
		w := strings.Trim(words[len(words)-1], ".,!?:;\"'")
		if w == "" || tailFiller[w] {
			words = words[:len(words)-1]
			continue
		}
		words[len(words)-1] = w
		break
	}
	return strings.Join(words, " ")
}

// dropWords removes noise words anywhere in an already-cleaned fragment.
// Only used for search queries and target references, never for titles.
func dropWords(s string, noise map[string]bool) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !noise[strings.Trim(w, ".,!?:;\"'")] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// parseTags reads a comma/"and"-separated tag list that follows a tag marker.
// The segment runs to the end of the message.
func parseTags(folded string, from int) ([]string, int) {
	seg := folded[from:]
	parts := strings.FieldsFunc(seg, func(r rune) bool { return r == ',' })
	var tags []string
	for _, p := range parts {
		for _, piece := range strings.Split(p, " and ") {
			piece = strings.TrimSpace(strings.Trim(strings.TrimSpace(piece), ".,!?"))
			if piece != "" {
				tags = append(tags, piece)
			}
		}
	}
	return tags, len(folded)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
