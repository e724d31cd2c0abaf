package services

import "strings"

// Decision is the gate's reading of a message while a confirmation is
// pending. Anything that is not clearly yes or clearly no is Undecided, and
// an undecided message never resolves the confirmation.
type Decision int

const (
	DecisionUndecided Decision = iota
	DecisionAffirmative
	DecisionNegative
)

// Fixed word lists, not probabilistic intent. Keeping the lists literal and
// tested is what makes the gate auditable.
var affirmativeWords = map[string]struct{}{
	"yes":         {},
	"y":           {},
	"yeah":        {},
	"yep":         {},
	"yup":         {},
	"sure":        {},
	"ok":          {},
	"okay":        {},
	"confirm":     {},
	"approve":     {},
	"approved":    {},
	"go ahead":    {},
	"do it":       {},
	"affirmative": {},
}

var negativeWords = map[string]struct{}{
	"no":         {},
	"n":          {},
	"nope":       {},
	"nah":        {},
	"cancel":     {},
	"stop":       {},
	"skip":       {},
	"deny":       {},
	"denied":     {},
	"negative":   {},
	"never mind": {},
	"nevermind":  {},
	"don't":      {},
	"dont":       {},
	"do not":     {},
}

// ClassifyDecision reads a free-form message as yes/no/undecided. Matching
// is exact on the trimmed, lower-cased message with trailing punctuation
// stripped; a longer sentence containing "yes" somewhere does not count.
func ClassifyDecision(message string) Decision {
	s := strings.ToLower(strings.TrimSpace(message))
	s = strings.TrimRight(s, ".!,")
	s = strings.TrimSpace(s)
	if s == "" {
		return DecisionUndecided
	}
	if _, ok := affirmativeWords[s]; ok {
		return DecisionAffirmative
	}
	if _, ok := negativeWords[s]; ok {
		return DecisionNegative
	}
	return DecisionUndecided
}
