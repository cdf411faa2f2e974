// Package upload ingests requirement spreadsheets (csv or xlsx) and
// writes the categorized csv artifact offered for download.
package upload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

var ErrMissingRequirementColumn = errors.New("column 'requirement' not found")

var allowedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// AllowedFile reports whether the filename carries an accepted
// spreadsheet extension.
func AllowedFile(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// SanitizeFilename reduces an uploaded filename to a safe basename:
// path components are stripped and anything outside ASCII letters,
// digits, dot, dash and underscore is replaced. An empty result means
// the name was unusable.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// Parse extracts the requirement texts from a spreadsheet, in file
// order. The header row must contain a "requirement" column (case
// insensitive); blank cells are skipped.
func Parse(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(path)
	case ".xlsx":
		return parseXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func parseCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return extractRequirements(rows)
}

func parseXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return extractRequirements(rows)
}

func extractRequirements(rows [][]string) ([]string, error) {
	if len(rows) == 0 {
		return nil, ErrMissingRequirementColumn
	}
	column := -1
	for i, name := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(name), "requirement") {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, ErrMissingRequirementColumn
	}

	var requirements []string
	for _, row := range rows[1:] {
		if column >= len(row) {
			continue
		}
		text := strings.TrimSpace(row[column])
		if text == "" {
			continue
		}
		requirements = append(requirements, text)
	}
	return requirements, nil
}

// WriteCategorized writes the categorized table artifact as csv with a
// requirement,prediction header. The two slices are parallel.
func WriteCategorized(path string, requirements, predictions []string) error {
	if len(requirements) != len(predictions) {
		return fmt.Errorf("mismatched rows: %d requirements, %d predictions", len(requirements), len(predictions))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"requirement", "prediction"}); err != nil {
		return err
	}
	for i, requirement := range requirements {
		if err := writer.Write([]string{requirement, predictions[i]}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
