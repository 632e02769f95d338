// Package utils provides console and file output for the stis-uploader
package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/myusername/stis-uploader/pkg/models"
)

const lineupRow = "%-10s | %-26s | %-26s | %s\n"

// DisplayLineup prints the team header and the lineup read from the workbook
func DisplayLineup(w io.Writer, team models.TeamRecord, lineup models.Lineup) {
	fmt.Fprintf(w, "\n=========== %s (id %s) ===========\n", team.Name, team.ID)
	fmt.Fprintf(w, "Room: %s\n", orDash(team.Room))
	fmt.Fprintf(w, "Start: %s  End: %s\n", orDash(team.Start), orDash(team.End))
	fmt.Fprintf(w, "Captains: %s / %s\n\n", orDash(team.HomeCaptain), orDash(team.AwayCaptain))

	fmt.Fprintf(w, lineupRow, "Match", "Home", "Away", "Sets")
	fmt.Fprintf(w, lineupRow, strings.Repeat("-", 10), strings.Repeat("-", 26), strings.Repeat("-", 26), strings.Repeat("-", 10))

	for _, d := range lineup.Doubles {
		fmt.Fprintf(w, lineupRow,
			fmt.Sprintf("doubles %d", d.Index+1),
			pair(d.Home1, d.Home2), pair(d.Away1, d.Away2), strings.Join(d.Sets, " "))
	}
	for _, s := range lineup.Singles {
		fmt.Fprintf(w, lineupRow,
			fmt.Sprintf("singles %d", s.Index),
			s.Home, s.Away, strings.Join(s.Sets, " "))
	}

	fmt.Fprintln(w, strings.Repeat("=", 78))
}

// DisplayReport prints the outcome of a run with its warnings
func DisplayReport(w io.Writer, report *models.Report) {
	fmt.Fprintf(w, "\nRun %s, team %s\n", report.RunID, report.Team)
	fmt.Fprintf(w, "Players filled: %d\n", report.PlayersFilled)
	fmt.Fprintf(w, "Sets filled: %d\n", report.SetsFilled)
	fmt.Fprintf(w, "Saved: %s\n", yesNo(report.Saved))
	if len(report.Warnings) == 0 {
		fmt.Fprintln(w, "No warnings")
		return
	}
	fmt.Fprintf(w, "Warnings (%d), check these fields in the browser:\n", len(report.Warnings))
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "  %s\n", warning)
	}
}

// SaveReportToCSV saves the run summary and one row per warning to a CSV file
func SaveReportToCSV(report *models.Report, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := WriteReportCSV(f, report); err != nil {
		return err
	}
	return f.Close()
}

// WriteReportCSV writes the CSV form of a report
func WriteReportCSV(w io.Writer, report *models.Report) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"RunID", "Team", "PlayersFilled", "SetsFilled", "Saved", "Step", "Field", "Message"},
	}
	summary := []string{
		report.RunID, report.Team,
		strconv.Itoa(report.PlayersFilled), strconv.Itoa(report.SetsFilled),
		strconv.FormatBool(report.Saved),
	}
	if len(report.Warnings) == 0 {
		rows = append(rows, append(summary, "", "", ""))
	}
	for _, warning := range report.Warnings {
		row := append(append([]string{}, summary...), warning.Step, warning.Field, warning.Message)
		rows = append(rows, row)
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func pair(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " + " + b
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
