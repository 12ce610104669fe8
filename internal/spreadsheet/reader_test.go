package spreadsheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/taskdist/distribution-service/internal/domain"
)

func TestParse_CSV(t *testing.T) {
	data := []byte("First Name,Mobile,Note\n  Ann , 555-0101 , call later \nBob,555-0102,\n,555-0103,no name\nCid,,no phone\n")

	rows, err := Parse("contacts.CSV", data)
	require.NoError(t, err)
	assert.Equal(t, []domain.ContactRow{
		{FirstName: "Ann", Phone: "555-0101", Notes: "call later"},
		{FirstName: "Bob", Phone: "555-0102", Notes: ""},
	}, rows)
}

func TestParse_CSVWithoutNotesColumn(t *testing.T) {
	rows, err := Parse("a.csv", []byte("\ufeffFirstName,Phone\nAnn,1\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Notes)
}

func TestParse_MissingPhoneColumn(t *testing.T) {
	_, err := Parse("a.csv", []byte("FirstName,Notes\nAnn,hello\n"))
	assert.ErrorIs(t, err, ErrMissingRequiredColumn)
}

func TestParse_HeaderOnly(t *testing.T) {
	_, err := Parse("a.csv", []byte("FirstName,Phone,Notes\n"))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParse_EmptyFile(t *testing.T) {
	_, err := Parse("a.csv", []byte(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParse_NoValidRows(t *testing.T) {
	_, err := Parse("a.csv", []byte("FirstName,Phone\n,123\nAnn,\n"))
	assert.ErrorIs(t, err, ErrNoValidRows)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := Parse("contacts.txt", []byte("FirstName,Phone\nAnn,1\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	values := [][]any{
		{"firstname", "phone", "notes"},
		{"Ann", "9876543210", "vip"},
		{"Bob", "9876543211", nil},
		{nil, "9876543212", "skipped"},
	}
	for i, row := range values {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Parse("upload.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []domain.ContactRow{
		{FirstName: "Ann", Phone: "9876543210", Notes: "vip"},
		{FirstName: "Bob", Phone: "9876543211", Notes: ""},
	}, rows)
}

func TestParse_XLS(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "contacts.xls"))
	require.NoError(t, err)

	rows, err := Parse("contacts.xls", data)
	require.NoError(t, err)
	assert.Equal(t, []domain.ContactRow{
		{FirstName: "Ada", Phone: "9876500001", Notes: "call after 5pm"},
		{FirstName: "Grace", Phone: "9876500002", Notes: ""},
		{FirstName: "Linus", Phone: "9876500004", Notes: "prefers email"},
	}, rows)
}

func TestParse_XLSHoldingOOXML(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"FirstName", "Phone"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Ann", "9876543210"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Parse("export.xls", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []domain.ContactRow{{FirstName: "Ann", Phone: "9876543210"}}, rows)
}

func TestParse_CorruptExcel(t *testing.T) {
	_, err := Parse("legacy.xls", []byte("not a compound document"))
	assert.ErrorIs(t, err, ErrUnreadableFile)

	_, err = Parse("broken.xlsx", []byte("not a zip archive"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

func TestIsAllowed(t *testing.T) {
	assert.True(t, IsAllowed("a.csv", ""))
	assert.True(t, IsAllowed("a.XLSX", "application/octet-stream"))
	assert.True(t, IsAllowed("a.xls", ""))
	assert.True(t, IsAllowed("blob", "text/csv"))
	assert.False(t, IsAllowed("a.pdf", "application/pdf"))
}
