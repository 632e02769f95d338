package parser

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/myusername/stis-uploader/pkg/models"
)

// Limits of the area searched for the Teams header and the credentials
const (
	HeaderScanRows = 60
	HeaderScanCols = 80
	CredsScanRows  = 30
	CredsScanCols  = 30
)

var idMarkerRegex = regexp.MustCompile(`^(id|druzstvoid|druzstvaid|iddruzstva|iddruzstvo)$`)

var (
	loginLabels    = []string{"login", "uzivatel", "uzivatelskejmeno", "username", "prihlasovacijmeno"}
	passwordLabels = []string{"heslo", "password"}
)

// teamColumns holds the 0-based column of each Teams field, -1 when absent
type teamColumns struct {
	Name, ID, HomeCaptain, AwayCaptain, Room, Start, End int
}

// HeaderLocation is where the Teams header was found
type HeaderLocation struct {
	Sheet string
	Row   int // 0-based
	cols  teamColumns
}

func isNameLabel(c string) bool {
	return strings.Contains(c, "druzstvo") && !strings.Contains(c, "id") && !strings.Contains(c, "vedouci")
}

func isLeaderLabel(c string) bool {
	return strings.Contains(c, "vedouci") || strings.Contains(c, "kapitan")
}

// IsTeamsHeader reports whether a row of normalized cells is the Teams header:
// it needs a team name label and an id label.
func IsTeamsHeader(cells []string) bool {
	hasName, hasID := false, false
	for _, c := range cells {
		if isNameLabel(c) {
			hasName = true
		}
		if idMarkerRegex.MatchString(c) {
			hasID = true
		}
	}
	return hasName && hasID
}

// mapColumns assigns header cells to Teams fields.
// Leader columns are tested first so that "Vedoucí družstva" is never read as the name or id.
func mapColumns(cells []string) teamColumns {
	cols := teamColumns{-1, -1, -1, -1, -1, -1, -1}
	set := func(dst *int, j int) {
		if *dst < 0 {
			*dst = j
		}
	}
	for j, c := range cells {
		switch {
		case c == "":
		case isLeaderLabel(c):
			if strings.Contains(c, "dom") {
				set(&cols.HomeCaptain, j)
			} else if strings.Contains(c, "host") {
				set(&cols.AwayCaptain, j)
			}
		case idMarkerRegex.MatchString(c):
			set(&cols.ID, j)
		case isNameLabel(c):
			set(&cols.Name, j)
		case strings.Contains(c, "herna"):
			set(&cols.Room, j)
		case strings.Contains(c, "zacatek") || c == "start":
			set(&cols.Start, j)
		case strings.Contains(c, "konec") || c == "end":
			set(&cols.End, j)
		}
	}
	return cols
}

func normalizedRow(row []string, maxCols int) []string {
	n := len(row)
	if n > maxCols {
		n = maxCols
	}
	cells := make([]string, n)
	for j := 0; j < n; j++ {
		cells[j] = Normalize(row[j])
	}
	return cells
}

// FindTeamsHeader scans every sheet for the Teams header row.
// The returned error carries a dump of the normalized top rows when nothing is found.
func (w *Workbook) FindTeamsHeader() (HeaderLocation, error) {
	var dump strings.Builder
	for _, sheet := range w.Sheets() {
		rows, err := w.Rows(sheet)
		if err != nil {
			return HeaderLocation{}, err
		}
		for i := 0; i < len(rows) && i < HeaderScanRows; i++ {
			cells := normalizedRow(rows[i], HeaderScanCols)
			if IsTeamsHeader(cells) {
				log.Printf("Found Teams header on sheet %q row %d", sheet, i+1)
				return HeaderLocation{Sheet: sheet, Row: i, cols: mapColumns(cells)}, nil
			}
		}
		dumpRows(&dump, sheet, rows)
	}
	return HeaderLocation{}, &ConfigError{
		Msg:    "Teams header (Družstvo / DružstvoID) not found in any sheet",
		Detail: dump.String(),
	}
}

func dumpRows(b *strings.Builder, sheet string, rows [][]string) {
	fmt.Fprintf(b, "--- sheet %q ---\n", sheet)
	for i := 0; i < len(rows) && i < 10; i++ {
		var cells []string
		for _, c := range normalizedRow(rows[i], 12) {
			if c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) > 0 {
			fmt.Fprintf(b, "%3d: %s\n", i+1, strings.Join(cells, " | "))
		}
	}
}

// FindTeam reads the Teams table and returns the row whose name matches team
func (w *Workbook) FindTeam(team string) (models.TeamRecord, HeaderLocation, error) {
	loc, err := w.FindTeamsHeader()
	if err != nil {
		return models.TeamRecord{}, loc, err
	}
	if loc.cols.Name < 0 || loc.cols.ID < 0 {
		return models.TeamRecord{}, loc, configErrorf("Teams header on sheet %q lacks the name or id column", loc.Sheet)
	}
	rows, err := w.Rows(loc.Sheet)
	if err != nil {
		return models.TeamRecord{}, loc, err
	}

	want := Normalize(team)
	var seen []string
	for r := loc.Row + 1; r < len(rows); r++ {
		name := cellAt(rows, r, loc.cols.Name)
		if name == "" {
			break
		}
		seen = append(seen, name)
		if !strings.EqualFold(name, strings.TrimSpace(team)) && Normalize(name) != want {
			continue
		}

		rec := models.TeamRecord{
			Name:        name,
			ID:          LeadingDigits(cellAt(rows, r, loc.cols.ID)),
			Room:        optionalCell(rows, r, loc.cols.Room),
			HomeCaptain: optionalCell(rows, r, loc.cols.HomeCaptain),
			AwayCaptain: optionalCell(rows, r, loc.cols.AwayCaptain),
		}
		if s, ok := AsTimeText(optionalCell(rows, r, loc.cols.Start)); ok {
			rec.Start = s
		}
		if s, ok := AsTimeText(optionalCell(rows, r, loc.cols.End)); ok {
			rec.End = s
		}
		if rec.ID == "" {
			return rec, loc, configErrorf("team %q has no numeric id in sheet %q row %d", name, loc.Sheet, r+1)
		}
		return rec, loc, nil
	}
	return models.TeamRecord{}, loc, configErrorf("team %q not found in Teams table (sheet %q); teams: %s",
		team, loc.Sheet, strings.Join(seen, ", "))
}

func optionalCell(rows [][]string, r, c int) string {
	if c < 0 {
		return ""
	}
	return cellAt(rows, r, c)
}

// FindCredentials looks for login and password labels near the top of the
// preferred sheet first and then of every other sheet.
func (w *Workbook) FindCredentials(preferred string) (models.Credentials, error) {
	sheets := []string{}
	if preferred != "" {
		sheets = append(sheets, preferred)
	}
	for _, s := range w.Sheets() {
		if s != preferred {
			sheets = append(sheets, s)
		}
	}

	var creds models.Credentials
	for _, sheet := range sheets {
		rows, err := w.Rows(sheet)
		if err != nil {
			return creds, err
		}
		if creds.Login == "" {
			creds.Login = labelledValue(rows, loginLabels)
		}
		if creds.Password == "" {
			creds.Password = labelledValue(rows, passwordLabels)
		}
		if creds.Login != "" && creds.Password != "" {
			return creds, nil
		}
	}
	return creds, nil
}

// labelledValue returns the value next to (or else below) the first cell matching a label
func labelledValue(rows [][]string, labels []string) string {
	for r := 0; r < len(rows) && r < CredsScanRows; r++ {
		for c := 0; c < len(rows[r]) && c < CredsScanCols; c++ {
			if !containsString(labels, Normalize(rows[r][c])) {
				continue
			}
			for k := c + 1; k <= c+3; k++ {
				if v := cellAt(rows, r, k); v != "" {
					return v
				}
			}
			if v := cellAt(rows, r+1, c); v != "" {
				return v
			}
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Config reads credentials and the team record for team.
// Credentials missing from the workbook are taken from fallback.
func (w *Workbook) Config(team string, fallback models.Credentials) (models.Credentials, models.TeamRecord, error) {
	rec, loc, err := w.FindTeam(team)
	if err != nil {
		return models.Credentials{}, rec, err
	}
	creds, err := w.FindCredentials(loc.Sheet)
	if err != nil {
		return creds, rec, err
	}
	if creds.Login == "" {
		creds.Login = fallback.Login
	}
	if creds.Password == "" {
		creds.Password = fallback.Password
	}
	if creds.Login == "" {
		return creds, rec, configErrorf("login not found in workbook %s", w.Path)
	}
	if creds.Password == "" {
		return creds, rec, configErrorf("password not found in workbook %s", w.Path)
	}
	return creds, rec, nil
}

// ReadConfig opens the workbook at path and reads credentials and the team record
func ReadConfig(path, team string) (models.Credentials, models.TeamRecord, error) {
	w, err := Open(path)
	if err != nil {
		return models.Credentials{}, models.TeamRecord{}, err
	}
	defer w.Close()
	return w.Config(team, models.Credentials{})
}
