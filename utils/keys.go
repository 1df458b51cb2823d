package utils

import (
	"fmt"
	"strings"
)

// SanitizeSession normalizes a human-entered academic session such as
// "2025/2026" into a form that is safe to embed in a document key.
// It is deterministic and does not collide for distinct valid sessions.
func SanitizeSession(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.Join(strings.Fields(s), "-")
	return s
}

// FeeStructureKey builds the document key for a class fee structure.
// Term names like "First Term" go through the same sanitizer as sessions.
func FeeStructureKey(classID, term, session string) string {
	return fmt.Sprintf("%s-%s-%s", classID, SanitizeSession(term), SanitizeSession(session))
}

// StudentFeeStatusKey builds the document key for a student's ledger row.
func StudentFeeStatusKey(studentID, term, session string) string {
	return fmt.Sprintf("%s-%s-%s", studentID, SanitizeSession(term), SanitizeSession(session))
}
