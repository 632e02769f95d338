// Package models contains data structures for table tennis match reports
package models

// Credentials holds the login used for the registry website
type Credentials struct {
	Login    string
	Password string
}

// TeamRecord holds one row of the Teams table
type TeamRecord struct {
	Name        string
	ID          string // numeric registry id
	Room        string
	Start       string // HH:MM, empty when unknown
	End         string // HH:MM, empty when unknown
	HomeCaptain string
	AwayCaptain string
}

// DoublesEntry holds a doubles pairing and its set scores
type DoublesEntry struct {
	Index int // 0 or 1, also the event index on the page
	Home1 string
	Home2 string
	Away1 string
	Away2 string
	Sets  []string
}

// SinglesEntry holds a singles match and its set scores
type SinglesEntry struct {
	Index int // 2..17, as numbered in the workbook
	Home  string
	Away  string
	Sets  []string
}

// SelectOption is one <option> of a select element
type SelectOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Lineup holds everything entered in the online editor for one match
type Lineup struct {
	Doubles []DoublesEntry
	Singles []SinglesEntry
}

// FirstSinglesIndex and LastSinglesIndex bound the singles numbering
const (
	FirstSinglesIndex = 2
	LastSinglesIndex  = 17
	SinglesCount      = LastSinglesIndex - FirstSinglesIndex + 1
	MaxSets           = 5
)

// DOMIndex converts a singles index to the row number used by the online editor
func DOMIndex(excelIdx int) int {
	return excelIdx - FirstSinglesIndex
}

// ExcelIndex converts an online editor row number back to the singles index
func ExcelIndex(domIdx int) int {
	return domIdx + FirstSinglesIndex
}

// ValidSinglesIndex reports whether idx is a singles index the editor has a row for
func ValidSinglesIndex(idx int) bool {
	return idx >= FirstSinglesIndex && idx <= LastSinglesIndex
}

// EventIndex returns the position of the singles match among the editor's events.
// Doubles take events 0 and 1, so singles keep their workbook index.
func (s SinglesEntry) EventIndex() int {
	return s.Index
}

// Empty reports whether the doubles entry has no players and no sets
func (d DoublesEntry) Empty() bool {
	return d.Home1 == "" && d.Home2 == "" && d.Away1 == "" && d.Away2 == "" && len(d.Sets) == 0
}

// Empty reports whether the singles entry has no players and no sets
func (s SinglesEntry) Empty() bool {
	return s.Home == "" && s.Away == "" && len(s.Sets) == 0
}
