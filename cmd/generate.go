package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/caresched/app"
	"github.com/kilianp07/caresched/core/generator"
	"github.com/kilianp07/caresched/infra/export"
)

var genOpts struct {
	out        string
	xlsxDir    string
	seed       int64
	caretakers int
	patients   int
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random normalized schedule",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genOpts.out, "out", "o", "-", "caretaker schedule JSON output, - for stdout")
	f.StringVar(&genOpts.xlsxDir, "xlsx", "", "directory receiving caretakers.xlsx and patients.xlsx")
	f.Int64Var(&genOpts.seed, "seed", 0, "random seed, 0 for a time-based seed")
	f.IntVar(&genOpts.caretakers, "caretakers", 0, "number of caretakers (default from config)")
	f.IntVar(&genOpts.patients, "patients", 0, "number of patients (default from config)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg, app.Deps{})
	if err != nil {
		return err
	}
	defer svc.Close()
	svc.Start(cmd.Context())

	res, err := svc.Generate(cmd.Context(), generator.Config{
		Caretakers: genOpts.caretakers,
		Patients:   genOpts.patients,
		Seed:       genOpts.seed,
	})
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(res.CaretakerView(), "", "  ")
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, genOpts.out, append(body, '\n')); err != nil {
		return err
	}
	if genOpts.xlsxDir != "" {
		if err := writeWorkbooks(genOpts.xlsxDir, res); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "generated %d caretakers, %d patients: %d slots filled, %d unfilled, %d substitutions\n",
		len(res.Caretakers), len(res.Patients), res.Stats.Filled, res.Stats.Unfilled, res.Substitutions)
	return err
}

func writeWorkbooks(dir string, res *generator.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ct, err := os.Create(filepath.Join(dir, "caretakers.xlsx"))
	if err != nil {
		return err
	}
	defer ct.Close()
	if err := export.WriteCaretakerWorkbook(ct, res.CaretakerView()); err != nil {
		return fmt.Errorf("caretaker workbook: %w", err)
	}
	pt, err := os.Create(filepath.Join(dir, "patients.xlsx"))
	if err != nil {
		return err
	}
	defer pt.Close()
	if err := export.WritePatientWorkbook(pt, res.PatientView()); err != nil {
		return fmt.Errorf("patient workbook: %w", err)
	}
	return nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
