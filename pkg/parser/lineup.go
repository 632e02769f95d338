package parser

import (
	"log"

	"github.com/myusername/stis-uploader/pkg/models"
)

// Layout of the "zdroj" sheet, 1-based as in Excel
const (
	SourceSheet     = "zdroj"
	FirstSinglesRow = 7
	HomeCol         = 4 // D
	AwayCol         = 5 // E
	FirstSetCol     = 9 // I
)

// doublesRows are the first rows of each doubles block; a block spans two rows
// and its sets sit on the second one.
var doublesRows = []int{2, 4}

// Lineup reads the doubles and singles from the source sheet
func (w *Workbook) Lineup() (models.Lineup, error) {
	var lineup models.Lineup
	sheet, ok := w.FindSheet(SourceSheet)
	if !ok {
		return lineup, configErrorf("sheet %q is missing in workbook %s", SourceSheet, w.Path)
	}

	for i, row := range doublesRows {
		d := models.DoublesEntry{
			Index: i,
			Home1: w.Cell(sheet, row, HomeCol),
			Home2: w.Cell(sheet, row+1, HomeCol),
			Away1: w.Cell(sheet, row, AwayCol),
			Away2: w.Cell(sheet, row+1, AwayCol),
			Sets:  w.sets(sheet, row+1),
		}
		if d.Empty() {
			continue
		}
		lineup.Doubles = append(lineup.Doubles, d)
	}

	row := FirstSinglesRow
	for idx := models.FirstSinglesIndex; idx <= models.LastSinglesIndex; idx++ {
		s := models.SinglesEntry{
			Index: idx,
			Home:  w.Cell(sheet, row, HomeCol),
			Away:  w.Cell(sheet, row, AwayCol),
			Sets:  w.sets(sheet, row),
		}
		row++
		if s.Empty() {
			continue
		}
		lineup.Singles = append(lineup.Singles, s)
	}

	log.Printf("Read lineup from sheet %q: %d doubles, %d singles", sheet, len(lineup.Doubles), len(lineup.Singles))
	return lineup, nil
}

// sets reads up to five set scores, mapping walkovers and dropping trailing blanks
func (w *Workbook) sets(sheet string, row int) []string {
	sets := make([]string, models.MaxSets)
	last := -1
	for i := range sets {
		sets[i] = MapWO(w.Cell(sheet, row, FirstSetCol+i))
		if sets[i] != "" {
			last = i
		}
	}
	if last < 0 {
		return nil
	}
	return sets[:last+1]
}

// ReadLineup opens the workbook at path and reads its lineup
func ReadLineup(path string) (models.Lineup, error) {
	w, err := Open(path)
	if err != nil {
		return models.Lineup{}, err
	}
	defer w.Close()
	return w.Lineup()
}
