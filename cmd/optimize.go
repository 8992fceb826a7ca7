package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/caresched/app"
	"github.com/kilianp07/caresched/core/model"
	"github.com/kilianp07/caresched/core/optimizer"
	"github.com/kilianp07/caresched/infra/export"
	"github.com/kilianp07/caresched/infra/schedulejson"
)

var optOpts struct {
	in     string
	out    string
	mode   string
	budget time.Duration
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Remove conflicts from a schedule",
	Long: "Reads a caretaker schedule (bare or enriched JSON, or a caretaker workbook) " +
		"and writes the optimized schedule in the same shape.",
	RunE: runOptimize,
}

func init() {
	f := optimizeCmd.Flags()
	f.StringVarP(&optOpts.in, "in", "i", "-", "input schedule (.json or .xlsx), - for stdin")
	f.StringVarP(&optOpts.out, "out", "o", "-", "output schedule (.json or .xlsx), - for stdout")
	f.StringVarP(&optOpts.mode, "mode", "m", "", "objective: minimal or coverage-max (default from config)")
	f.DurationVar(&optOpts.budget, "budget", 0, "solver time budget (default from config)")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	snap, err := readSnapshot(cmd, optOpts.in)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg, app.Deps{})
	if err != nil {
		return err
	}
	defer svc.Close()
	svc.Start(cmd.Context())

	mode, err := svc.Mode(optOpts.mode)
	if err != nil {
		return err
	}
	res, err := svc.Optimize(cmd.Context(), snap, mode, optOpts.budget)
	if err != nil {
		return err
	}
	if isWorkbook(optOpts.out) {
		err = writeCaretakerWorkbook(optOpts.out, res.Snapshot)
	} else {
		err = writeOutput(cmd, optOpts.out, append(res.Body, '\n'))
	}
	if err != nil {
		return err
	}
	rep := res.Report
	if res.Cached {
		_, err = fmt.Fprintln(cmd.ErrOrStderr(), "served from cache")
		return err
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %s %s, %d -> %d assignments in %s\n",
		rep.RunID, rep.Mode, rep.StatusLabel(), rep.InputAssignments, rep.OutputAssignments, rep.Duration.Round(time.Millisecond))
	return err
}

func isWorkbook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

func readSnapshot(cmd *cobra.Command, path string) (optimizer.Snapshot, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if isWorkbook(path) {
		return export.ReadCaretakerWorkbook(bytes.NewReader(data))
	}
	return schedulejson.Decode(data)
}

func writeCaretakerWorkbook(path string, snap optimizer.Snapshot) error {
	s, err := snap.Schedule()
	if err != nil {
		return err
	}
	view := s.CaretakerView()
	if bare, ok := snap.(optimizer.Bare); ok {
		for name := range bare {
			if _, ok := view[name]; !ok {
				view[name] = map[model.Day]map[model.Hour]string{}
			}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteCaretakerWorkbook(f, view)
}
