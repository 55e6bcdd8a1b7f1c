package model

// SuggestionStatus tracks the review state of a proposed identity merge.
type SuggestionStatus string

// Suggestion review states.
const (
	StatusPending  SuggestionStatus = "pending"
	StatusAccepted SuggestionStatus = "accepted"
	StatusDeclined SuggestionStatus = "declined"
)

// Suggestion is a proposed merge of one symbol into another, produced by
// the mapping-plan builder and decided during review. Confidence is in
// [0,1]; HasConfidence is false for suggestions that were not derived
// from fuzzy matching (e.g. loaded from a previous run).
type Suggestion struct {
	SourceSymbol  string
	TargetSymbol  string
	SourceISIN    string
	TargetISIN    string
	Confidence    float64
	HasConfidence bool
	Rationale     string
	Status        SuggestionStatus
}

// CrossISIN reports whether the suggestion merges two distinct ISINs,
// which indicates a possible corporate action rather than a mere
// labeling difference.
func (s Suggestion) CrossISIN() bool {
	return s.SourceISIN != "" && s.TargetISIN != "" && s.SourceISIN != s.TargetISIN
}
