package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("grades.csv"))
	assert.True(t, Allowed("GRADES.XLSX"))
	assert.False(t, Allowed("grades.xls"))
	assert.False(t, Allowed("grades"))
	assert.False(t, Allowed("csv"))
}

func TestParseCSV(t *testing.T) {
	in := "\ufeffName,Score\n Ann , 91\n\nBob\n"

	tbl, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Score"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2, "blank lines are skipped")
	assert.Equal(t, []any{"Ann", "91"}, tbl.Rows[0])
	assert.Equal(t, []any{"Bob", ""}, tbl.Rows[1])
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Attendance (%)", "Final_Score"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{95, 81.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Parse("grades.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	clean := Clean(tbl)
	assert.Equal(t, []string{"attendance_percent", "final_score"}, clean.Columns)
	assert.Equal(t, []any{95.0, 81.5}, clean.Rows[0])
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("grades.txt", strings.NewReader("a"))
	assert.Error(t, err)
}
