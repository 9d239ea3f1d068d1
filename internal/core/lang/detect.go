package lang

import "github.com/Tafzeel99/todo-agent/internal/core/domain"

// Detect guesses the language of one message. The second return value says
// whether the guess is confident; callers fall back to conversation history
// and then English when it is not. Policy, in order:
//
//  1. any Arabic-block rune -> Urdu script, confident
//  2. any Roman-Urdu marker word -> Roman Urdu, confident
//  3. any English marker word -> English, confident
//  4. otherwise English, not confident
func (l *Lexicon) Detect(msg string) (domain.Language, bool) {
	for _, r := range msg {
		if isArabicScript(r) {
			return domain.LangUrdu, true
		}
	}

	folded := Fold(msg)
	for _, m := range l.markers[domain.LangRomanUrdu] {
		if _, _, ok := FindWord(folded, m); ok {
			return domain.LangRomanUrdu, true
		}
	}
	for _, m := range l.markers[domain.LangEnglish] {
		if _, _, ok := FindWord(folded, m); ok {
			return domain.LangEnglish, true
		}
	}
	return domain.LangEnglish, false
}

func isArabicScript(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x06FF: // Arabic
		return true
	case r >= 0x0750 && r <= 0x077F: // Arabic Supplement
		return true
	case r >= 0xFB50 && r <= 0xFDFF: // Arabic Presentation Forms-A
		return true
	case r >= 0xFE70 && r <= 0xFEFF: // Arabic Presentation Forms-B
		return true
	}
	return false
}
