// model.go this code defines the data model for the application
package datastore

import (
	"slices"
	"time"
)

// InspectionMethod is the code of the non-destructive testing method used
// for an inspection.
type InspectionMethod string

const (
	MethodVIK   InspectionMethod = "VIK"
	MethodPVK   InspectionMethod = "PVK"
	MethodMPK   InspectionMethod = "MPK"
	MethodUZK   InspectionMethod = "UZK"
	MethodRGK   InspectionMethod = "RGK"
	MethodTVK   InspectionMethod = "TVK"
	MethodVIBRO InspectionMethod = "VIBRO"
	MethodMFL   InspectionMethod = "MFL"
	MethodTFI   InspectionMethod = "TFI"
	MethodGEO   InspectionMethod = "GEO"
	MethodUTWM  InspectionMethod = "UTWM"
)

// AllInspectionMethods lists every recognized method code.
var AllInspectionMethods = []InspectionMethod{
	MethodVIK, MethodPVK, MethodMPK, MethodUZK, MethodRGK, MethodTVK,
	MethodVIBRO, MethodMFL, MethodTFI, MethodGEO, MethodUTWM,
}

// Valid reports whether the method is a recognized code.
func (m InspectionMethod) Valid() bool {
	return slices.Contains(AllInspectionMethods, m)
}

// QualityGrade is the ordinal condition grade assigned by the inspector.
type QualityGrade string

const (
	GradeSatisfactory   QualityGrade = "satisfactory"
	GradeAcceptable     QualityGrade = "acceptable"
	GradeRequiresAction QualityGrade = "requires_action"
	GradeUnacceptable   QualityGrade = "unacceptable"
)

// Ordinal maps the grade to 1 (best) through 4 (worst). Unknown grades map to 0.
func (g QualityGrade) Ordinal() int {
	switch g {
	case GradeSatisfactory:
		return 1
	case GradeAcceptable:
		return 2
	case GradeRequiresAction:
		return 3
	case GradeUnacceptable:
		return 4
	default:
		return 0
	}
}

// Valid reports whether the grade is a recognized value.
func (g QualityGrade) Valid() bool {
	return g.Ordinal() != 0
}

// RiskLabel is the categorical severity assigned to an inspection.
type RiskLabel string

const (
	RiskNormal RiskLabel = "normal"
	RiskMedium RiskLabel = "medium"
	RiskHigh   RiskLabel = "high"
)

// Severity maps the label to 0 (normal) through 2 (high) for worse-wins
// comparisons.
func (r RiskLabel) Severity() int {
	switch r {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of two labels.
func MaxSeverity(a, b RiskLabel) RiskLabel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// WorkStatus is the lifecycle status of a repair work order.
type WorkStatus string

const (
	StatusPlanned         WorkStatus = "planned"
	StatusInProgress      WorkStatus = "in_progress"
	StatusPendingApproval WorkStatus = "pending_approval"
	StatusCompleted       WorkStatus = "completed"
	StatusCancelled       WorkStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible from the status.
func (s WorkStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// WorkPriority is the ordinal priority of a repair work order.
type WorkPriority string

const (
	PriorityLow      WorkPriority = "low"
	PriorityMedium   WorkPriority = "medium"
	PriorityHigh     WorkPriority = "high"
	PriorityCritical WorkPriority = "critical"
)

// Rank maps the priority to 1 (low) through 4 (critical). Unknown values map to 0.
func (p WorkPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// Valid reports whether the priority is a recognized value.
func (p WorkPriority) Valid() bool {
	return p.Rank() != 0
}

// ActorRole identifies the role of the actor performing an operation.
// Role resolution itself belongs to the authentication collaborator.
type ActorRole string

const (
	RoleAdmin     ActorRole = "admin"
	RoleInspector ActorRole = "inspector"
	RoleAnalyst   ActorRole = "analyst"
	RoleGuest     ActorRole = "guest"
)

// MediaType distinguishes photographs from videos.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// Pipeline represents one monitored pipeline.
type Pipeline struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PipelineID  string    `gorm:"uniqueIndex;not null;type:varchar(50)" json:"pipeline_id"`
	Name        string    `gorm:"type:varchar(255)" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	TotalLength float64   `json:"total_length,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PipelineObject represents one monitored object on a pipeline, such as a
// crane, compressor or pipeline section.
type PipelineObject struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ObjectID   uint      `gorm:"uniqueIndex;not null" json:"object_id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"object_name"`
	Type       string    `gorm:"type:varchar(50);not null" json:"object_type"` // crane, compressor, pipeline_section
	PipelineID string    `gorm:"index;type:varchar(50)" json:"pipeline_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Year       int       `json:"year,omitempty"`
	Material   string    `gorm:"type:varchar(100)" json:"material,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	Inspections []Inspection `gorm:"foreignKey:ObjectID;references:ObjectID" json:"-"`
}

// Inspection represents a single field measurement event against an object.
//
// RiskLabel and RiskConfidence are assigned by the classification service.
// RiskConfidence stays nil when the rule-based path produced the label, the
// rule path is deterministic and defines no statistical score.
type Inspection struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	DiagID            uint             `gorm:"uniqueIndex;not null" json:"diag_id"`
	ObjectID          uint             `gorm:"index;not null" json:"object_id"`
	Method            InspectionMethod `gorm:"type:varchar(10);index;not null" json:"method"`
	Date              time.Time        `gorm:"index" json:"date"`
	Temperature       *float64         `json:"temperature,omitempty"`
	Humidity          *float64         `json:"humidity,omitempty"`
	Illumination      *float64         `json:"illumination,omitempty"`
	DefectFound       bool             `gorm:"index" json:"defect_found"`
	DefectDescription string           `gorm:"type:text" json:"defect_description,omitempty"`
	QualityGrade      *QualityGrade    `gorm:"type:varchar(20)" json:"quality_grade,omitempty"`
	DefectDepth       *float64         `json:"defect_depth,omitempty"` // mm
	DefectLength      *float64         `json:"defect_length,omitempty"` // mm
	DefectWidth       *float64         `json:"defect_width,omitempty"` // mm
	RiskLabel         *RiskLabel       `gorm:"type:varchar(10);index" json:"risk_label"`
	RiskConfidence    *float64         `json:"risk_confidence"`
	CreatedAt         time.Time        `json:"created_at"`

	Media       []MediaItem  `gorm:"foreignKey:InspectionID;constraint:OnDelete:CASCADE" json:"-"`
	RepairWorks []RepairWork `gorm:"foreignKey:InspectionID;constraint:OnDelete:CASCADE" json:"-"`
}

// RepairWork represents one remediation task against a defect-bearing
// inspection. CompletedDate is non-nil exactly when Status is completed.
type RepairWork struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	InspectionID  uint         `gorm:"index;not null" json:"inspection_id"`
	Title         string       `gorm:"type:varchar(255);not null" json:"title"`
	Description   string       `gorm:"type:text" json:"description,omitempty"`
	Priority      WorkPriority `gorm:"type:varchar(10);index" json:"priority"`
	Status        WorkStatus   `gorm:"type:varchar(20);index" json:"status"`
	PlannedDate   *time.Time   `json:"planned_date,omitempty"`
	CompletedDate *time.Time   `json:"completed_date,omitempty"`
	AssignedTo    *uint        `gorm:"index" json:"assigned_to,omitempty"`
	Notes         string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// MediaItem represents one photograph or video tied to an inspection,
// partitioned by the before/after remediation tag. File storage mechanics
// live in the upload collaborator, only metadata is kept here.
type MediaItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	InspectionID uint      `gorm:"index;not null" json:"inspection_id"`
	MediaType    MediaType `gorm:"type:varchar(10)" json:"media_type"`
	Filename     string    `gorm:"type:varchar(255);not null" json:"filename"`
	OriginalName string    `gorm:"type:varchar(255)" json:"original_name,omitempty"`
	FilePath     string    `gorm:"type:varchar(512)" json:"file_path,omitempty"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	IsBefore     bool      `gorm:"index" json:"is_before"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
