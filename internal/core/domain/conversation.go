package domain

import (
	"crypto/rand"
	"encoding/hex"
)

// ConversationID uniquely identifies a conversation
type ConversationID string

// Language is a BCP-47-ish tag for the three supported response languages.
type Language string

const (
	LangEnglish   Language = "en"
	LangRomanUrdu Language = "ur-Latn"
	LangUrdu      Language = "ur"
)

// ValidLanguage reports whether l is one of the supported tags.
func ValidLanguage(l Language) bool {
	return l == LangEnglish || l == LangRomanUrdu || l == LangUrdu
}

// NewConversationID generates a compact random conversation ID (conv-<12 hex>)
func NewConversationID() ConversationID {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return ConversationID("conv-" + hex.EncodeToString(b))
}
