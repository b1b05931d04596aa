package ingest

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pipewatch/pipewatch-go/internal/classifier"
	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/importer"
)

// Command creates the ingest command for importing CSV batches.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [input.csv]",
		Short: "Import a CSV batch",
		Long:  "Import pipeline objects or diagnostic records from a CSV file, classifying defects on the way in.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(settings, args[0])
		},
	}

	return cmd
}

func runIngest(settings *conf.Settings, path string) error {
	ds := datastore.New(settings)
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = ds.Close() }()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	classifierService := classifier.NewService(settings, ds)
	result, err := importer.New(ds, classifierService).Import(file)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d of %d rows\n", result.ImportedRows, result.TotalRows)
	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	for _, rowErr := range result.Errors {
		fmt.Printf("error: %s\n", rowErr)
	}
	if !result.Success {
		return fmt.Errorf("import finished with %d row errors", len(result.Errors))
	}

	if total, err := ds.CountObjects(); err == nil {
		fmt.Printf("Datastore now holds %d objects\n", total)
	}
	return nil
}
