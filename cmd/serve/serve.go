package serve

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipewatch/pipewatch-go/internal/api"
	"github.com/pipewatch/pipewatch-go/internal/classifier"
	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/importer"
	"github.com/pipewatch/pipewatch-go/internal/logging"
	"github.com/pipewatch/pipewatch-go/internal/workflow"
)

// Command creates the serve command which runs the HTTP API server.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  "Start the inspection and repair work API, serving until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

func runServer(settings *conf.Settings) error {
	if settings.Main.Log.Enabled {
		closeLog, err := logging.InitFile(&logging.FileConfig{
			Path:       settings.Main.Log.Path,
			MaxSizeMB:  settings.Main.Log.MaxSize,
			MaxBackups: settings.Main.Log.MaxBackups,
			MaxAgeDays: settings.Main.Log.MaxAge,
		})
		if err != nil {
			slog.Warn("Log file unavailable, continuing with stdout only", "error", err)
		} else {
			defer func() { _ = closeLog() }()
		}
	}

	log := logging.ForService("serve")
	if log == nil {
		log = slog.Default()
	}

	ds := datastore.New(settings)
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			log.Error("Closing datastore failed", "error", err)
		}
	}()

	classifierService := classifier.NewService(settings, ds)
	log.Info("Classifier ready", "predictor", classifierService.PredictorName())

	workflowService := workflow.NewService(ds)
	importService := importer.New(ds, classifierService)

	controller := api.New(settings, ds, workflowService, classifierService, importService)

	errCh := make(chan error, 1)
	go func() {
		errCh <- controller.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("Shutting down", "signal", sig.String())
		return nil
	}
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port for the API server")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
	}
}
