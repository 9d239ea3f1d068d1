// Package temporal resolves relative date expressions in English, Urdu
// script and Roman Urdu to absolute timestamps. Resolution is deterministic:
// the same phrase and reference instant always produce the same date.
package temporal

import (
	"regexp"
	"strconv"
	"time"

	"github.com/Tafzeel99/todo-agent/internal/core/lang"
)

// Kind classifies a resolution outcome.
type Kind int

const (
	// KindNone means no date expression was found; the text is content.
	KindNone Kind = iota
	// KindDate means an absolute date was resolved.
	KindDate
	// KindAmbiguous means a date was clearly intended but could not be
	// parsed; the caller must ask, never guess.
	KindAmbiguous
)

// Result of resolving a message against a reference instant.
type Result struct {
	Kind    Kind
	Time    time.Time
	HasTime bool       // a time-of-day expression refined the date
	Span    lang.Span  // matched date phrase within the folded input
	Clock   *lang.Span // matched time-of-day phrase, when present
	Expr    string     // the matched phrase itself
}

// Relative day offsets. "kal" doubles as yesterday in Urdu; it resolves to
// tomorrow here, matching how people phrase future work.
var relativeDays = []struct {
	phrase string
	days   int
}{
	{"day after tomorrow", 2},
	{"tomorrow", 1}, {"tmrw", 1}, {"tmr", 1}, {"tom", 1},
	{"today", 0}, {"tod", 0},
	{"yesterday", -1},
	{"parson", 2}, {"parso", 2},
	{"aaj", 0}, {"aj", 0},
	{"kal", 1},
	{"آج", 0}, {"کل", 1}, {"پرسوں", 2},
}

// Week-level expressions. "next week" resolves to the upcoming Monday, never
// "+7 days"; that is a fixed default, not a guess.
var nextWeekPhrases = []string{
	"next week", "aglay hafta", "aglay hafte", "agle hafte", "agli week",
	"اگلے ہفتے", "اگلے ہفتہ",
}

var thisWeekPhrases = []string{
	"this week", "is hafta", "is hafte", "اس ہفتے",
}

var nextMonthPhrases = []string{
	"next month", "aglay mahina", "aglay mahine", "agle mahine", "اگلے مہینے", "اگلے مہینہ",
}

var endOfWeekPhrases = []string{"end of week", "end of the week", "hafte ke akhir"}
var endOfMonthPhrases = []string{"end of month", "end of the month", "mahine ke akhir"}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
	// Roman Urdu
	"peer": time.Monday, "pir": time.Monday, "somwar": time.Monday,
	"mangal": time.Tuesday,
	"budh": time.Wednesday,
	"jumerat": time.Thursday, "jumeraat": time.Thursday,
	"juma": time.Friday, "jumma": time.Friday,
	"hafta": time.Saturday, "saneechar": time.Saturday, "sanichar": time.Saturday,
	"itwar": time.Sunday, "itwaar": time.Sunday,
	// Urdu script
	"پیر": time.Monday, "منگل": time.Tuesday, "بدھ": time.Wednesday,
	"جمعرات": time.Thursday, "جمعہ": time.Friday, "ہفتہ": time.Saturday,
	"اتوار": time.Sunday,
}

var timeOfDay = []struct {
	phrase string
	hour   int
}{
	{"morning", 9}, {"subah", 9},
	{"noon", 12},
	{"afternoon", 14}, {"dopehar", 14},
	{"evening", 18}, {"shaam", 18}, {"sham", 18},
	{"night", 21}, {"raat", 21},
	{"midnight", 0},
}

var (
	inDaysRe   = regexp.MustCompile(`\b(?:in\s+)?(\d+)\s*(?:days?|din|دن)(?:\s*(?:mein|baad|later|from now|میں|بعد))?\b`)
	nextDayRe  = regexp.MustCompile(`\b(?:next|agla|agle|agli)\s+(\p{L}+)`)
	thisDayRe  = regexp.MustCompile(`\b(?:this|is|ye)\s+(\p{L}+)`)
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	slashRe    = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})(?:[/.](\d{2,4}))?\b`)
	clockRe    = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Re  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	weekdayRes = buildWeekdayPattern()
)

func buildWeekdayPattern() *regexp.Regexp {
	pat := `\b(`
	first := true
	for name := range weekdays {
		if !first {
			pat += "|"
		}
		pat += regexp.QuoteMeta(name)
		first = false
	}
	pat += `)\b`
	return regexp.MustCompile(pat)
}

// Resolve scans a folded message for a date expression and resolves it
// against the reference instant. Dates resolve to midnight in ref's location
// unless a time-of-day expression refines them. A nil match is KindNone;
// ambiguity is decided by the caller, which knows whether a date was
// required.
func Resolve(folded string, ref time.Time) Result {
	day := midnight(ref)

	if r, ok := matchPhrases(folded, endOfWeekPhrases); ok {
		// End of week is Sunday.
		days := int(time.Sunday - day.Weekday())
		if days < 0 {
			days += 7
		}
		return withTime(folded, Result{Kind: KindDate, Time: day.AddDate(0, 0, days), Span: r.Span, Expr: r.Expr})
	}
	if r, ok := matchPhrases(folded, endOfMonthPhrases); ok {
		last := time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, day.Location())
		return withTime(folded, Result{Kind: KindDate, Time: last, Span: r.Span, Expr: r.Expr})
	}
	if r, ok := matchPhrases(folded, nextWeekPhrases); ok {
		return withTime(folded, Result{Kind: KindDate, Time: nextWeekday(day, time.Monday), Span: r.Span, Expr: r.Expr})
	}
	if r, ok := matchPhrases(folded, thisWeekPhrases); ok {
		return withTime(folded, Result{Kind: KindDate, Time: day, Span: r.Span, Expr: r.Expr})
	}
	if r, ok := matchPhrases(folded, nextMonthPhrases); ok {
		y, m, d := day.Date()
		last := time.Date(y, m+2, 0, 0, 0, 0, 0, day.Location()).Day()
		if d > last {
			d = last
		}
		next := time.Date(y, m+1, d, 0, 0, 0, 0, day.Location())
		return withTime(folded, Result{Kind: KindDate, Time: next, Span: r.Span, Expr: r.Expr})
	}

	// Relative day words before weekday names: "kal" beats "hafta".
	for _, rd := range relativeDays {
		if s, e, ok := lang.FindWord(folded, rd.phrase); ok {
			return withTime(folded, Result{
				Kind: KindDate,
				Time: day.AddDate(0, 0, rd.days),
				Span: lang.Span{Start: s, End: e},
				Expr: rd.phrase,
			})
		}
	}

	if m := nextDayRe.FindStringSubmatchIndex(folded); m != nil {
		name := folded[m[2]:m[3]]
		if wd, ok := weekdays[name]; ok {
			return withTime(folded, Result{
				Kind: KindDate,
				Time: nextWeekday(day, wd),
				Span: lang.Span{Start: m[0], End: m[1]},
				Expr: folded[m[0]:m[1]],
			})
		}
	}

	if m := thisDayRe.FindStringSubmatchIndex(folded); m != nil {
		name := folded[m[2]:m[3]]
		if wd, ok := weekdays[name]; ok {
			days := int(wd - day.Weekday())
			if days < 0 {
				days = 0 // already passed this week: today
			}
			return withTime(folded, Result{
				Kind: KindDate,
				Time: day.AddDate(0, 0, days),
				Span: lang.Span{Start: m[0], End: m[1]},
				Expr: folded[m[0]:m[1]],
			})
		}
	}

	if m := inDaysRe.FindStringSubmatchIndex(folded); m != nil {
		n, err := strconv.Atoi(folded[m[2]:m[3]])
		if err == nil {
			return withTime(folded, Result{
				Kind: KindDate,
				Time: day.AddDate(0, 0, n),
				Span: lang.Span{Start: m[0], End: m[1]},
				Expr: folded[m[0]:m[1]],
			})
		}
	}

	if m := isoDateRe.FindStringSubmatchIndex(folded); m != nil {
		y, _ := strconv.Atoi(folded[m[2]:m[3]])
		mo, _ := strconv.Atoi(folded[m[4]:m[5]])
		d, _ := strconv.Atoi(folded[m[6]:m[7]])
		if validYMD(y, mo, d) {
			return withTime(folded, Result{
				Kind: KindDate,
				Time: time.Date(y, time.Month(mo), d, 0, 0, 0, 0, day.Location()),
				Span: lang.Span{Start: m[0], End: m[1]},
				Expr: folded[m[0]:m[1]],
			})
		}
		return Result{Kind: KindAmbiguous, Span: lang.Span{Start: m[0], End: m[1]}, Expr: folded[m[0]:m[1]]}
	}

	if m := slashRe.FindStringSubmatchIndex(folded); m != nil {
		a, _ := strconv.Atoi(folded[m[2]:m[3]])
		b, _ := strconv.Atoi(folded[m[4]:m[5]])
		y := day.Year()
		if m[6] >= 0 {
			y, _ = strconv.Atoi(folded[m[6]:m[7]])
			if y < 100 {
				y += 2000
			}
		}
		// MM/DD when the first number can be a month, else DD/MM.
		mo, d := a, b
		if a > 12 {
			mo, d = b, a
		}
		if validYMD(y, mo, d) {
			return withTime(folded, Result{
				Kind: KindDate,
				Time: time.Date(y, time.Month(mo), d, 0, 0, 0, 0, day.Location()),
				Span: lang.Span{Start: m[0], End: m[1]},
				Expr: folded[m[0]:m[1]],
			})
		}
		return Result{Kind: KindAmbiguous, Span: lang.Span{Start: m[0], End: m[1]}, Expr: folded[m[0]:m[1]]}
	}

	// Standalone weekday name: the next occurrence of that day.
	if m := weekdayRes.FindStringSubmatchIndex(folded); m != nil {
		name := folded[m[2]:m[3]]
		if wd, ok := weekdays[name]; ok {
			return withTime(folded, Result{
				Kind: KindDate,
				Time: nextWeekday(day, wd),
				Span: lang.Span{Start: m[0], End: m[1]},
				Expr: folded[m[0]:m[1]],
			})
		}
	}

	return Result{Kind: KindNone}
}

// ResolveClock extracts a time-of-day from the folded message: named periods
// ("morning"/"subah") or explicit clock times ("3pm", "14:30").
func ResolveClock(folded string) (hour, minute int, span lang.Span, ok bool) {
	for _, tod := range timeOfDay {
		if s, e, found := lang.FindWord(folded, tod.phrase); found {
			return tod.hour, 0, lang.Span{Start: s, End: e}, true
		}
	}
	if m := clockRe.FindStringSubmatchIndex(folded); m != nil {
		h, _ := strconv.Atoi(folded[m[2]:m[3]])
		min := 0
		if m[4] >= 0 {
			min, _ = strconv.Atoi(folded[m[4]:m[5]])
		}
		if folded[m[6]:m[7]] == "pm" && h != 12 {
			h += 12
		} else if folded[m[6]:m[7]] == "am" && h == 12 {
			h = 0
		}
		if h < 24 && min < 60 {
			return h, min, lang.Span{Start: m[0], End: m[1]}, true
		}
	}
	if m := clock24Re.FindStringSubmatchIndex(folded); m != nil {
		h, _ := strconv.Atoi(folded[m[2]:m[3]])
		min, _ := strconv.Atoi(folded[m[4]:m[5]])
		if h < 24 && min < 60 {
			return h, min, lang.Span{Start: m[0], End: m[1]}, true
		}
	}
	return 0, 0, lang.Span{}, false
}

func withTime(folded string, r Result) Result {
	if h, min, span, ok := ResolveClock(folded); ok {
		r.Time = time.Date(r.Time.Year(), r.Time.Month(), r.Time.Day(), h, min, 0, 0, r.Time.Location())
		r.HasTime = true
		r.Clock = &span
	}
	return r
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// nextWeekday is strictly in the future: asking for Monday on a Monday gives
// the following Monday.
func nextWeekday(day time.Time, wd time.Weekday) time.Time {
	days := int(wd - day.Weekday())
	if days <= 0 {
		days += 7
	}
	return day.AddDate(0, 0, days)
}

func validYMD(y, mo, d int) bool {
	if mo < 1 || mo > 12 || d < 1 {
		return false
	}
	last := time.Date(y, time.Month(mo)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return d <= last
}

type phraseMatch struct {
	Span lang.Span
	Expr string
}

func matchPhrases(folded string, phrases []string) (phraseMatch, bool) {
	for _, p := range phrases {
		if s, e, ok := lang.FindWord(folded, p); ok {
			return phraseMatch{Span: lang.Span{Start: s, End: e}, Expr: p}, true
		}
	}
	return phraseMatch{}, false
}
