// Package spreadsheet turns uploaded CSV and Excel files into contact rows.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/taskdist/distribution-service/internal/domain"
)

var (
	// ErrMissingRequiredColumn is returned when the header lacks a first name or phone column.
	ErrMissingRequiredColumn = errors.New("required columns (FirstName, Phone) not found in file")
	// ErrEmptyFile is returned when the sheet holds no data rows.
	ErrEmptyFile = errors.New("file is empty")
	// ErrNoValidRows is returned when every data row was skipped.
	ErrNoValidRows = errors.New("no valid data rows found in file")
	// ErrUnsupportedFormat is returned for extensions other than csv, xls and xlsx.
	ErrUnsupportedFormat = errors.New("invalid file type, upload CSV, XLS, or XLSX files only")
	// ErrUnreadableFile wraps decoder failures for a supported extension.
	ErrUnreadableFile = errors.New("file could not be read as a spreadsheet")
)

// xlsMaxRows is the BIFF8 row limit.
const xlsMaxRows = 65536

var zipMagic = []byte("PK\x03\x04")

var (
	firstNameHeaders = []string{"firstname", "first name"}
	phoneHeaders     = []string{"phone", "mobile"}
	notesHeaders     = []string{"notes", "note"}
)

var allowedMIMETypes = map[string]struct{}{
	"text/csv":                 {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

// IsAllowed reports whether an upload with the given name or MIME type is
// one of the accepted spreadsheet kinds.
func IsAllowed(filename, mimeType string) bool {
	if _, ok := allowedMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))]; ok {
		return true
	}
	switch extension(filename) {
	case ".csv", ".xls", ".xlsx":
		return true
	}
	return false
}

// Parse reads the first sheet of data (CSV or Excel, chosen by extension)
// and extracts contact rows.
func Parse(filename string, data []byte) ([]domain.ContactRow, error) {
	var (
		records [][]string
		err     error
	)
	switch extension(filename) {
	case ".csv":
		records, err = readCSV(bytes.NewReader(data))
	case ".xlsx":
		records, err = readExcel(bytes.NewReader(data))
	case ".xls":
		// Some exporters write OOXML under the legacy extension.
		if bytes.HasPrefix(data, zipMagic) {
			records, err = readExcel(bytes.NewReader(data))
		} else {
			records, err = readXLS(bytes.NewReader(data))
		}
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return ExtractRows(records)
}

// ExtractRows matches the header row and converts the remaining records.
func ExtractRows(records [][]string) ([]domain.ContactRow, error) {
	records = dropBlank(records)
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	header := records[0]
	firstNameIdx := findColumn(header, firstNameHeaders)
	phoneIdx := findColumn(header, phoneHeaders)
	notesIdx := findColumn(header, notesHeaders)
	if firstNameIdx < 0 || phoneIdx < 0 {
		return nil, ErrMissingRequiredColumn
	}

	data := records[1:]
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	rows := make([]domain.ContactRow, 0, len(data))
	for _, record := range data {
		firstName := cell(record, firstNameIdx)
		phone := cell(record, phoneIdx)
		if firstName == "" || phone == "" {
			continue
		}
		rows = append(rows, domain.ContactRow{
			FirstName: firstName,
			Phone:     phone,
			Notes:     cell(record, notesIdx),
		})
	}
	if len(rows) == 0 {
		return nil, ErrNoValidRows
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return rows, nil
}

// readXLS reads the first sheet of a legacy BIFF workbook. The decoder
// panics on some malformed inputs, so those are reported as unreadable.
func readXLS(r io.ReadSeeker) (records [][]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			records, err = nil, fmt.Errorf("%w: %v", ErrUnreadableFile, rec)
		}
	}()

	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ErrUnreadableFile)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptyFile
	}

	all := wb.ReadAllCells(xlsMaxRows)
	first := wb.GetSheet(0)
	if first == nil || first.MaxRow == 0 {
		return nil, ErrEmptyFile
	}
	n := int(first.MaxRow) + 1
	if n > len(all) {
		n = len(all)
	}
	return all[:n], nil
}

func findColumn(header []string, synonyms []string) int {
	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		for _, syn := range synonyms {
			if strings.Contains(normalized, syn) {
				return i
			}
		}
	}
	return -1
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func dropBlank(records [][]string) [][]string {
	out := records[:0:0]
	for _, record := range records {
		for _, v := range record {
			if strings.TrimSpace(v) != "" {
				out = append(out, record)
				break
			}
		}
	}
	return out
}

func extension(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}
