package classify

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipewatch/pipewatch-go/internal/classifier"
	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
)

// Command creates the classify command which re-runs risk classification
// over every stored defect-bearing inspection.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Reclassify stored inspections",
		Long:  "Re-run risk classification for all stored defect-bearing inspections, typically after deploying a new model.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, settings)
		},
	}

	return cmd
}

func runClassify(cmd *cobra.Command, settings *conf.Settings) error {
	ds := datastore.New(settings)
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = ds.Close() }()

	service := classifier.NewService(settings, ds)
	fmt.Printf("Reclassifying with predictor %s\n", service.PredictorName())

	result, err := service.ReclassifyAll(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Classified %d of %d inspections\n", result.Classified, result.Total)
	if len(result.Skipped) > 0 {
		fmt.Printf("Skipped %d inspections with incomplete defect geometry: %v\n", len(result.Skipped), result.Skipped)
	}
	return nil
}
