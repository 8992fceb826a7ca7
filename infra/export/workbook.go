// Package export writes schedules as xlsx workbooks and reads caretaker
// workbooks back. Each sheet is a weekly grid: an Hour column followed by
// one column per day, one row per hour.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/caresched/core/model"
	"github.com/kilianp07/caresched/core/optimizer"
)

const (
	hourHeader   = "Hour"
	defaultSheet = "Sheet1"
	maxSheetName = 31
)

// ErrMalformedWorkbook is returned when a sheet does not have the grid
// layout.
var ErrMalformedWorkbook = errors.New("export: malformed workbook")

// WriteCaretakerWorkbook writes one sheet per caretaker with patient ids in
// the cells. Sheets are in name order.
func WriteCaretakerWorkbook(w io.Writer, v model.CaretakerView) error {
	return writeGrids(w, v, func(_ string, other string) string { return other })
}

// WritePatientWorkbook writes one sheet per patient. Cells read
// "<profession> (<given name>)" for caretaker names carrying a profession,
// the bare caretaker name otherwise.
func WritePatientWorkbook(w io.Writer, v model.PatientView) error {
	return writeGrids(w, v, func(_ string, caretaker string) string {
		given, prof, ok := model.ParseCaretakerName(caretaker)
		if !ok {
			return caretaker
		}
		first, _, _ := strings.Cut(given, " ")
		return fmt.Sprintf("%s (%s)", prof, first)
	})
}

func writeGrids(w io.Writer, v map[string]map[model.Day]map[model.Hour]string, cell func(owner, value string) string) error {
	f := excelize.NewFile()
	defer f.Close()

	owners := make([]string, 0, len(v))
	for k := range v {
		owners = append(owners, k)
	}
	sort.Strings(owners)

	names := sheetNames(owners)
	keepDefault := len(owners) == 0
	for i, owner := range owners {
		sheet := names[i]
		if sheet == defaultSheet {
			keepDefault = true
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("export: sheet %q: %w", sheet, err)
		}
		if err := writeGrid(f, sheet, owner, v[owner], cell); err != nil {
			return err
		}
	}
	if !keepDefault {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func writeGrid(f *excelize.File, sheet, owner string, days map[model.Day]map[model.Hour]string, cell func(string, string) string) error {
	header := []any{hourHeader}
	for _, d := range model.Days {
		header = append(header, d.String())
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: sheet %q: %w", sheet, err)
	}
	for i, h := range model.Hours() {
		row := []any{int(h)}
		for _, d := range model.Days {
			val := ""
			if s := days[d][h]; s != "" {
				val = cell(owner, s)
			}
			row = append(row, val)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("export: sheet %q: %w", sheet, err)
		}
	}
	return nil
}

// sheetNames truncates owners to the sheet name limit and suffixes
// collisions with ~2, ~3 and so on.
func sheetNames(owners []string) []string {
	used := make(map[string]bool, len(owners))
	out := make([]string, len(owners))
	for i, o := range owners {
		name := truncate(o, maxSheetName)
		for n := 2; used[name]; n++ {
			suffix := "~" + strconv.Itoa(n)
			name = truncate(o, maxSheetName-len(suffix)) + suffix
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ReadCaretakerWorkbook reads every non-empty sheet as one caretaker named
// after the sheet. Empty cells are skipped; day and hour labels are taken
// verbatim and validated later by the optimizer.
func ReadCaretakerWorkbook(r io.Reader) (optimizer.Bare, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}
	defer f.Close()

	out := optimizer.Bare{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("export: read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		slots, err := readGrid(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrMalformedWorkbook, sheet, err)
		}
		out[strings.TrimSpace(sheet)] = slots
	}
	return out, nil
}

func readGrid(rows [][]string) (optimizer.Slots, error) {
	header := rows[0]
	if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(header[0]), hourHeader) {
		return nil, fmt.Errorf("first header cell must be %q", hourHeader)
	}
	days := make([]string, len(header))
	slots := optimizer.Slots{}
	for c := 1; c < len(header); c++ {
		days[c] = strings.TrimSpace(header[c])
		if days[c] != "" {
			slots[days[c]] = map[string]string{}
		}
	}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		hour := strings.TrimSpace(row[0])
		if hour == "" {
			continue
		}
		for c := 1; c < len(row) && c < len(days); c++ {
			p := strings.TrimSpace(row[c])
			if p == "" || days[c] == "" {
				continue
			}
			slots[days[c]][hour] = p
		}
	}
	return slots, nil
}
