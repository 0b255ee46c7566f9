package generator

import "strings"

// Keywords lists the diagram-type prefixes accepted from the model, in match order.
// Both the generate and the improve paths use this one set.
var Keywords = []string{
	"graph",
	"flowchart",
	"sequenceDiagram",
	"classDiagram",
	"stateDiagram",
	"erDiagram",
	"timeline",
}

// Validate reports whether text starts with a recognized diagram keyword.
// The check is exact and case-sensitive; callers trim first.
func Validate(text string) bool {
	return MatchKeyword(text) != ""
}

// MatchKeyword returns the keyword text starts with, or "".
func MatchKeyword(text string) string {
	for _, kw := range Keywords {
		if strings.HasPrefix(text, kw) {
			return kw
		}
	}
	return ""
}

// CheckDiagram returns ErrInvalidModelOutput when text fails Validate.
func CheckDiagram(text string) error {
	if Validate(text) {
		return nil
	}
	return &Error{
		Kind:   KindInvalidModelOutput,
		Detail: "model returned invalid Mermaid syntax: output does not start with a known diagram type",
	}
}
