// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/errors"
	"gorm.io/gorm"
)

// ErrStatusConflict is returned when a compare-and-swap status update finds
// the row no longer in the expected source status. Exactly one of any set of
// concurrent transition attempts from the same source status can succeed.
var ErrStatusConflict = errors.NewStd("repair work status changed concurrently")

// InspectionFilter narrows inspection listings.
type InspectionFilter struct {
	Method      InspectionMethod
	DateFrom    *time.Time
	DateTo      *time.Time
	DefectFound *bool
	RiskLabel   RiskLabel
	ObjectID    uint
	Limit       int
	Offset      int
}

// RepairWorkFilter narrows repair work listings.
type RepairWorkFilter struct {
	Status     WorkStatus
	Priority   WorkPriority
	AssignedTo *uint
	Limit      int
	Offset     int
}

// Interface abstracts the underlying database implementation and defines the
// interface for database operations.
type Interface interface {
	Open() error
	Close() error

	// Pipelines and objects
	GetPipeline(pipelineID string) (*Pipeline, error)
	SavePipeline(pipeline *Pipeline) error
	GetObject(objectID uint) (*PipelineObject, error)
	SaveObject(object *PipelineObject) error
	CountObjects() (int64, error)

	// Inspections
	SaveInspection(inspection *Inspection) error
	GetInspection(id uint) (*Inspection, error)
	GetInspectionByDiagID(diagID uint) (*Inspection, error)
	SearchInspections(filter *InspectionFilter) ([]Inspection, error)
	UpdateInspection(inspection *Inspection) error
	UpdateRiskFields(inspectionID uint, label RiskLabel, confidence *float64) error

	// Repair works
	SaveRepairWork(work *RepairWork) error
	GetRepairWork(id uint) (*RepairWork, error)
	RepairWorksForInspection(inspectionID uint) ([]RepairWork, error)
	SearchRepairWorks(filter *RepairWorkFilter) ([]RepairWork, error)
	UpdateRepairWork(work *RepairWork) error
	DeleteRepairWork(id uint) error
	TransitionRepairWorkStatus(id uint, from, to WorkStatus, completedDate *time.Time) (*RepairWork, error)

	// Evidence media
	SaveMediaItem(item *MediaItem) error
	GetMediaItem(id uint) (*MediaItem, error)
	MediaForInspection(inspectionID uint) ([]MediaItem, error)
	DeleteMediaItem(id uint) error
	HasAfterEvidence(inspectionID uint) (bool, error)

	// Dashboard aggregates
	DashboardStats() (*DashboardStats, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// notFound converts gorm.ErrRecordNotFound into an enhanced not-found error,
// passing other errors through with database categorization.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Newf("%s not found", entity).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("entity", entity).
			Context("id", id).
			Build()
	}
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("entity", entity).
		Context("id", id).
		Build()
}
