// service.go: risk classification orchestration
package classifier

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
	"github.com/pipewatch/pipewatch-go/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Service orchestrates feature extraction, prediction and persistence of the
// result. The predictor is resolved exactly once at construction and never
// re-evaluated mid-process, so every inspection in a run is scored by the
// same classifier.
type Service struct {
	extractor *Extractor
	predictor Predictor
	ds        datastore.Interface
	log       *slog.Logger
}

// NewService resolves the classifier variant and wires the service. When the
// configured model artifact is absent or fails to load, the failure is logged
// once and the service falls back permanently to the rule-based classifier
// for the process lifetime.
func NewService(settings *conf.Settings, ds datastore.Interface) *Service {
	log := logging.ForService("classifier")
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		extractor: NewExtractor(&settings.Classifier),
		ds:        ds,
		log:       log,
	}

	if settings.Classifier.ModelPath != "" {
		learned, err := LoadLearned(settings.Classifier.ModelPath, &settings.Classifier.Normalization)
		if err != nil {
			log.Warn("Learned model unavailable, falling back to rule-based classification",
				"model_path", settings.Classifier.ModelPath,
				"error", err)
		} else {
			s.predictor = learned
		}
	}
	if s.predictor == nil {
		s.predictor = NewRuleBased(settings.Classifier.Rules)
	}

	log.Info("Risk classifier resolved", "predictor", s.predictor.Name())
	return s
}

// PredictorName reports which classifier variant was resolved at startup.
func (s *Service) PredictorName() string {
	return s.predictor.Name()
}

// Classify derives and writes the risk label and confidence onto the
// in-memory record. Inspections without a found defect are left unlabeled,
// absence of defect implies absence of risk and is not an error.
//
// *InvalidInputError propagates unchanged so batch callers can continue with
// a warning.
func (s *Service) Classify(inspection *datastore.Inspection) error {
	if !inspection.DefectFound {
		return nil
	}

	features, err := s.extractor.Extract(inspection)
	if err != nil {
		return err
	}

	prediction, err := s.predictor.Predict(features)
	if err != nil {
		return errors.Wrap(err).
			Component("classifier").
			Category(errors.CategoryClassification).
			Context("diag_id", inspection.DiagID).
			Build()
	}

	label := prediction.Label
	inspection.RiskLabel = &label
	inspection.RiskConfidence = prediction.Confidence
	return nil
}

// ClassifyStored re-classifies one persisted inspection and writes the risk
// fields back. Called whenever defect geometry or quality grade change.
func (s *Service) ClassifyStored(inspectionID uint) error {
	inspection, err := s.ds.GetInspection(inspectionID)
	if err != nil {
		return err
	}

	if !inspection.DefectFound {
		return nil
	}

	if err := s.Classify(inspection); err != nil {
		return err
	}

	return s.ds.UpdateRiskFields(inspection.ID, *inspection.RiskLabel, inspection.RiskConfidence)
}

// ReclassifyResult summarizes a bulk re-classification pass.
type ReclassifyResult struct {
	Total      int
	Classified int
	Skipped    []uint // diag ids skipped for missing geometry
}

// ReclassifyAll re-runs classification over every defect-bearing inspection.
// Records are independent, so classification fans out across workers. Writes
// stay serialized per record because each record is handled by exactly one
// worker.
func (s *Service) ReclassifyAll(ctx context.Context) (*ReclassifyResult, error) {
	start := time.Now()
	defectFound := true
	inspections, err := s.ds.SearchInspections(&datastore.InspectionFilter{DefectFound: &defectFound})
	if err != nil {
		return nil, err
	}

	result := &ReclassifyResult{Total: len(inspections)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	type outcome struct {
		diagID  uint
		skipped bool
	}
	outcomes := make(chan outcome, len(inspections))

	for i := range inspections {
		inspection := &inspections[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := s.Classify(inspection); err != nil {
				var invalid *InvalidInputError
				if errors.As(err, &invalid) {
					s.log.Warn("Skipping inspection with incomplete defect geometry",
						"diag_id", inspection.DiagID,
						"error", err)
					outcomes <- outcome{diagID: inspection.DiagID, skipped: true}
					return nil
				}
				return err
			}

			if err := s.ds.UpdateRiskFields(inspection.ID, *inspection.RiskLabel, inspection.RiskConfidence); err != nil {
				return err
			}
			outcomes <- outcome{diagID: inspection.DiagID}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err).
			Component("classifier").
			Category(errors.CategoryClassification).
			Timing("reclassify_all", time.Since(start)).
			Build()
	}
	close(outcomes)

	for o := range outcomes {
		if o.skipped {
			result.Skipped = append(result.Skipped, o.diagID)
		} else {
			result.Classified++
		}
	}

	return result, nil
}
