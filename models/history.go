package models

// The two labels the classifier can assign to a requirement.
const (
	LabelFunctional    = "functional"
	LabelNonFunctional = "non-functional"
)

// HistoryEntry is one classified requirement in the history log.
type HistoryEntry struct {
	Requirement string `json:"requirement"`
	Prediction  string `json:"prediction"`
}
