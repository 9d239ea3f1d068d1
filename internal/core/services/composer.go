package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
)

// Composer renders one natural-language reply per outcome. Language only
// changes the phrasing, never what is reported; a Clarify outcome is a pure
// re-ask and reaches this code after zero store writes.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// phrases is one language's template set.
type phrases struct {
	created          string // title
	createdRecurring string // title, recurrence adjective
	dueNote          string // date
	pastDueNote      string
	suggestedHigh    string
	suggestedLow     string

	listEmpty string
	listHead  string // count
	listMore  string // remaining count
	pending   string
	completed string

	done        string // title
	doneSpawned string // title, date
	doneAlready string // title
	updated     string // title
	deleted     string // title

	analytics     string // total, completed, pending, overdue, percent
	analyticsSoon string // due today, due this week
	overdueHead   string

	clarifyNoRef     string
	clarifyAmbiguous string // detail
	clarifyDate      string // detail
	help             string

	invalid     string // reason
	notFound    string
	unavailable string
	failed      string

	recurrence map[domain.Recurrence]string
}

var phrasebook = map[domain.Language]phrases{
	domain.LangEnglish: {
		created:          "Done! I've added '%s' to your list.",
		createdRecurring: "Done! I've added '%s' as a %s recurring task.",
		dueNote:          " It's due %s.",
		pastDueNote:      " Heads up: that due date is already in the past.",
		suggestedHigh:    " I set the priority to high since it sounds urgent.",
		suggestedLow:     " I set the priority to low since there's no rush.",

		listEmpty: "You don't have any tasks right now.",
		listHead:  "You have %d task(s):",
		listMore:  "...and %d more.",
		pending:   "pending",
		completed: "completed",

		done:        "Marked '%s' as complete!",
		doneSpawned: " Created the next occurrence: '%s', due %s.",
		doneAlready: "'%s' was already completed.",
		updated:     "Updated '%s'.",
		deleted:     "Deleted '%s' from your list.",

		analytics:     "You have %d task(s): %d completed, %d pending, %d overdue. Completion rate: %d%%.",
		analyticsSoon: " Due today: %d. Due this week: %d.",
		overdueHead:   " Overdue: %s.",

		clarifyNoRef:     "Which task do you mean? I don't have one in mind from this conversation.",
		clarifyAmbiguous: "More than one task could match '%s'. Which one do you mean?",
		clarifyDate:      "I couldn't make sense of the date '%s'. When exactly?",
		help:             "I can add, list, update, complete and delete tasks. Try 'Add task call mom tomorrow' or 'show my tasks'.",

		invalid:     "Sorry, that didn't work: %s.",
		notFound:    "I couldn't find that task.",
		unavailable: "The task store isn't responding right now. Please try again in a moment.",
		failed:      "Sorry, something went wrong with that.",

		recurrence: map[domain.Recurrence]string{
			domain.RecurrenceDaily:   "daily",
			domain.RecurrenceWeekly:  "weekly",
			domain.RecurrenceMonthly: "monthly",
		},
	},
	domain.LangRomanUrdu: {
		created:          "Theek hai! '%s' aap ki list mein add kar diya.",
		createdRecurring: "Theek hai! '%s' add kar diya, ye %s repeat hoga.",
		dueNote:          " Due date: %s.",
		pastDueNote:      " Dhyan rahe, ye date guzar chuki hai.",
		suggestedHigh:    " Zaroori lag raha tha is liye priority high rakhi hai.",
		suggestedLow:     " Koi jaldi nahi thi is liye priority low rakhi hai.",

		listEmpty: "Abhi koi task nahi hai.",
		listHead:  "Aap ke %d task hain:",
		listMore:  "...aur %d mazeed.",
		pending:   "baqi",
		completed: "mukammal",

		done:        "'%s' mukammal ho gaya!",
		doneSpawned: " Agla task bana diya: '%s', due %s.",
		doneAlready: "'%s' pehle se mukammal tha.",
		updated:     "'%s' update kar diya.",
		deleted:     "'%s' list se hata diya.",

		analytics:     "Kul %d task: %d mukammal, %d baqi, %d overdue. Completion rate: %d%%.",
		analyticsSoon: " Aaj due: %d. Is hafte due: %d.",
		overdueHead:   " Overdue: %s.",

		clarifyNoRef:     "Kaun sa task? Is baat cheet mein abhi koi task zikr nahi hua.",
		clarifyAmbiguous: "'%s' se ek se zyada task milte hain. Kaun sa wala?",
		clarifyDate:      "Date '%s' samajh nahi aayi. Kab ka matlab hai?",
		help:             "Main task add, dikha, update, mukammal aur delete kar sakta hoon. Maslan 'task add karo kal grocery' ya 'mere tasks dikhao'.",

		invalid:     "Maazrat, ye nahi ho saka: %s.",
		notFound:    "Ye task nahi mila.",
		unavailable: "Store abhi jawab nahi de raha. Thori dair baad dobara koshish karein.",
		failed:      "Maazrat, kuch ghalat ho gaya.",

		recurrence: map[domain.Recurrence]string{
			domain.RecurrenceDaily:   "har roz",
			domain.RecurrenceWeekly:  "har hafte",
			domain.RecurrenceMonthly: "har mahine",
		},
	},
	domain.LangUrdu: {
		created:          "ٹھیک ہے! '%s' آپ کی فہرست میں شامل کر دیا۔",
		createdRecurring: "ٹھیک ہے! '%s' شامل کر دیا، یہ %s دہرایا جائے گا۔",
		dueNote:          " آخری تاریخ: %s۔",
		pastDueNote:      " خیال رہے، یہ تاریخ گزر چکی ہے۔",
		suggestedHigh:    " ضروری لگ رہا تھا اس لیے ترجیح زیادہ رکھی ہے۔",
		suggestedLow:     " کوئی جلدی نہیں تھی اس لیے ترجیح کم رکھی ہے۔",

		listEmpty: "ابھی کوئی ٹاسک نہیں ہے۔",
		listHead:  "آپ کے %d ٹاسک ہیں:",
		listMore:  "...اور %d مزید۔",
		pending:   "باقی",
		completed: "مکمل",

		done:        "'%s' مکمل ہو گیا!",
		doneSpawned: " اگلا ٹاسک بنا دیا: '%s'، آخری تاریخ %s۔",
		doneAlready: "'%s' پہلے سے مکمل تھا۔",
		updated:     "'%s' تبدیل کر دیا۔",
		deleted:     "'%s' فہرست سے ہٹا دیا۔",

		analytics:     "کل %d ٹاسک: %d مکمل، %d باقی، %d تاخیر شدہ۔ تکمیل کی شرح: %d%%۔",
		analyticsSoon: " آج کے: %d۔ اس ہفتے کے: %d۔",
		overdueHead:   " تاخیر شدہ: %s۔",

		clarifyNoRef:     "کون سا ٹاسک؟ اس گفتگو میں ابھی کوئی ٹاسک زیر بحث نہیں۔",
		clarifyAmbiguous: "'%s' سے ایک سے زیادہ ٹاسک ملتے ہیں۔ کون سا والا؟",
		clarifyDate:      "تاریخ '%s' سمجھ نہیں آئی۔ کب کا مطلب ہے؟",
		help:             "میں ٹاسک شامل، فہرست، تبدیل، مکمل اور حذف کر سکتا ہوں۔ مثلاً 'گروسری شامل کرو کل' یا 'میرے ٹاسک دکھاؤ'۔",

		invalid:     "معذرت، یہ نہیں ہو سکا: %s۔",
		notFound:    "یہ ٹاسک نہیں ملا۔",
		unavailable: "سٹور ابھی جواب نہیں دے رہا۔ تھوڑی دیر بعد دوبارہ کوشش کریں۔",
		failed:      "معذرت، کچھ غلط ہو گیا۔",

		recurrence: map[domain.Recurrence]string{
			domain.RecurrenceDaily:   "روزانہ",
			domain.RecurrenceWeekly:  "ہر ہفتے",
			domain.RecurrenceMonthly: "ہر مہینے",
		},
	},
}

// Compose renders the reply for one outcome in its resolved language.
func (c *Composer) Compose(out Outcome) string {
	p, ok := phrasebook[out.Language]
	if !ok {
		p = phrasebook[domain.LangEnglish]
	}

	if out.Err != nil {
		return composeError(p, out.Err)
	}
	if out.Clarify != nil {
		return composeClarify(p, out.Clarify)
	}

	switch out.Action {
	case domain.ActionCreateTask:
		return composeCreated(p, out)
	case domain.ActionListTasks:
		return composeList(p, out.Tasks)
	case domain.ActionCompleteTask:
		return composeCompleted(p, out)
	case domain.ActionUpdateTask:
		msg := fmt.Sprintf(p.updated, out.Task.Title)
		if out.DueInPast {
			msg += p.pastDueNote
		}
		return msg
	case domain.ActionDeleteTask:
		return fmt.Sprintf(p.deleted, out.Task.Title)
	case domain.ActionGetAnalytics:
		return composeAnalytics(p, out.Analytics)
	}
	return p.help
}

func composeCreated(p phrases, out Outcome) string {
	t := out.Task
	var msg string
	if t.Recurrence != domain.RecurrenceNone && t.Recurrence != "" {
		msg = fmt.Sprintf(p.createdRecurring, t.Title, p.recurrence[t.Recurrence])
	} else {
		msg = fmt.Sprintf(p.created, t.Title)
	}
	if t.DueDate != nil {
		msg += fmt.Sprintf(p.dueNote, formatDue(*t.DueDate))
	}
	if out.DueInPast {
		msg += p.pastDueNote
	}
	if out.SuggestedPriority {
		if t.Priority == domain.PriorityLow {
			msg += p.suggestedLow
		} else {
			msg += p.suggestedHigh
		}
	}
	return msg
}

func composeList(p phrases, tasks []domain.Task) string {
	if len(tasks) == 0 {
		return p.listEmpty
	}

	var b strings.Builder
	fmt.Fprintf(&b, p.listHead, len(tasks))
	shown := tasks
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for i, t := range shown {
		status := p.pending
		if t.Completed {
			status = p.completed
		}
		fmt.Fprintf(&b, "\n%d. %s (%s, %s)", i+1, t.Title, t.Priority, status)
		if t.DueDate != nil {
			fmt.Fprintf(&b, " [%s]", formatDue(*t.DueDate))
		}
	}
	if len(tasks) > len(shown) {
		b.WriteString("\n")
		fmt.Fprintf(&b, p.listMore, len(tasks)-len(shown))
	}
	return b.String()
}

func composeCompleted(p phrases, out Outcome) string {
	if out.AlreadyCompleted {
		return fmt.Sprintf(p.doneAlready, out.Task.Title)
	}
	msg := fmt.Sprintf(p.done, out.Task.Title)
	if out.Spawned != nil && out.Spawned.DueDate != nil {
		msg += fmt.Sprintf(p.doneSpawned, out.Spawned.Title, formatDue(*out.Spawned.DueDate))
	}
	return msg
}

func composeAnalytics(p phrases, s *domain.AnalyticsSnapshot) string {
	percent := int(math.Round(s.CompletionRate * 100))
	msg := fmt.Sprintf(p.analytics, s.TotalTasks, s.CompletedCount, s.PendingCount, s.OverdueCount, percent)
	msg += fmt.Sprintf(p.analyticsSoon, s.DueTodayCount, s.DueThisWeekCount)
	if len(s.OverdueTasks) > 0 {
		titles := make([]string, len(s.OverdueTasks))
		for i, d := range s.OverdueTasks {
			titles[i] = "'" + d.Title + "'"
		}
		msg += fmt.Sprintf(p.overdueHead, strings.Join(titles, ", "))
	}
	return msg
}

func composeClarify(p phrases, c *domain.Clarify) string {
	switch c.Reason {
	case domain.ClarifyNoReference:
		return p.clarifyNoRef
	case domain.ClarifyAmbiguousReference:
		if c.Detail != "" {
			return fmt.Sprintf(p.clarifyAmbiguous, c.Detail)
		}
		return p.clarifyNoRef
	case domain.ClarifyAmbiguousDate:
		return fmt.Sprintf(p.clarifyDate, c.Detail)
	default:
		return p.help
	}
}

func composeError(p phrases, err error) string {
	if ve, ok := domain.AsValidation(err); ok {
		return fmt.Sprintf(p.invalid, ve.Error())
	}
	if errors.Is(err, domain.ErrTaskNotFound) {
		return p.notFound
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return p.unavailable
	}
	return p.failed
}

// formatDue prints a due date, with the clock only when one was set.
func formatDue(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}
