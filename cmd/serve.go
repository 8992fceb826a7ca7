package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/caresched/api/schedule"
	"github.com/kilianp07/caresched/app"
	"github.com/kilianp07/caresched/infra/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schedule API over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg, app.Deps{})
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	svc.Start(ctx)

	h := schedule.NewHandler(svc, schedule.Options{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Metrics:      schedule.PromHandler(),
		Logger:       logger.New("http"),
	})
	return svc.Serve(ctx, h)
}
