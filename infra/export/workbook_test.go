package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/caresched/core/model"
)

func sample() *model.Schedule {
	return model.NewSchedule(
		model.Assignment{Day: model.Monday, Hour: 8, Caretaker: "Alice (nurse)", Patient: "P001"},
		model.Assignment{Day: model.Friday, Hour: 17, Caretaker: "Bob (doctor)", Patient: "P002"},
		model.Assignment{Day: model.Sunday, Hour: 12, Caretaker: "Alice (nurse)", Patient: "P002"},
	)
}

func TestCaretakerWorkbookRoundTrip(t *testing.T) {
	s := sample()
	var buf bytes.Buffer
	require.NoError(t, WriteCaretakerWorkbook(&buf, s.CaretakerView()))

	bare, err := ReadCaretakerWorkbook(&buf)
	require.NoError(t, err)
	require.Len(t, bare, 2)
	assert.Equal(t, "P001", bare["Alice (nurse)"]["Monday"]["8"])
	assert.Equal(t, "P002", bare["Alice (nurse)"]["Sunday"]["12"])
	assert.Equal(t, "P002", bare["Bob (doctor)"]["Friday"]["17"])

	back, err := bare.Schedule()
	require.NoError(t, err)
	assert.ElementsMatch(t, s.Assignments(), back.Assignments())
}

func TestPatientWorkbookCells(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePatientWorkbook(&buf, sample().PatientView()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"P001", "P002"}, f.GetSheetList())

	// Friday is the 7th column, hour 17 the 11th row.
	v, err := f.GetCellValue("P002", "G11")
	require.NoError(t, err)
	assert.Equal(t, "doctor (Bob)", v)
	v, err = f.GetCellValue("P002", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Hour", v)
}

func TestEmptyWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCaretakerWorkbook(&buf, model.CaretakerView{}))
	bare, err := ReadCaretakerWorkbook(&buf)
	require.NoError(t, err)
	assert.Empty(t, bare)
}

func TestSheetNames(t *testing.T) {
	long := strings.Repeat("x", 40)
	names := sheetNames([]string{long, long + "y", "short"})
	assert.Equal(t, strings.Repeat("x", 31), names[0])
	assert.Equal(t, strings.Repeat("x", 29)+"~2", names[1])
	assert.Equal(t, "short", names[2])
}

func TestReadRejectsBadHeader(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Day"))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err := ReadCaretakerWorkbook(&buf)
	assert.ErrorIs(t, err, ErrMalformedWorkbook)
}

func TestReadGarbage(t *testing.T) {
	_, err := ReadCaretakerWorkbook(strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, ErrMalformedWorkbook)
}
