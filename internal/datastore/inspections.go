// inspections.go: inspection persistence and risk field updates
package datastore

import (
	"gorm.io/gorm"

	"github.com/pipewatch/pipewatch-go/internal/errors"
)

// SaveInspection inserts or updates one inspection record. A unique index
// violation on diag_id surfaces as a conflict, so concurrent inserts of the
// same external id race safely past any check-then-insert in the caller.
func (ds *DataStore) SaveInspection(inspection *Inspection) error {
	if inspection == nil {
		return errors.Newf("inspection is nil").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := ds.DB.Save(inspection).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Newf("inspection with diag_id %d already exists", inspection.DiagID).
				Component("datastore").
				Category(errors.CategoryConflict).
				Context("diag_id", inspection.DiagID).
				Build()
		}
		return err
	}
	return nil
}

func (ds *DataStore) GetInspection(id uint) (*Inspection, error) {
	var inspection Inspection
	if err := ds.DB.First(&inspection, id).Error; err != nil {
		return nil, notFound(err, "inspection", id)
	}
	return &inspection, nil
}

// GetInspectionByDiagID looks an inspection up by its external diagnostics id,
// used for duplicate detection during import.
func (ds *DataStore) GetInspectionByDiagID(diagID uint) (*Inspection, error) {
	var inspection Inspection
	if err := ds.DB.Where("diag_id = ?", diagID).First(&inspection).Error; err != nil {
		return nil, notFound(err, "inspection", diagID)
	}
	return &inspection, nil
}

// SearchInspections lists inspections matching the filter, newest first.
func (ds *DataStore) SearchInspections(filter *InspectionFilter) ([]Inspection, error) {
	query := ds.DB.Model(&Inspection{})

	if filter != nil {
		if filter.Method != "" {
			query = query.Where("method = ?", filter.Method)
		}
		if filter.DateFrom != nil {
			query = query.Where("date >= ?", *filter.DateFrom)
		}
		if filter.DateTo != nil {
			query = query.Where("date <= ?", *filter.DateTo)
		}
		if filter.DefectFound != nil {
			query = query.Where("defect_found = ?", *filter.DefectFound)
		}
		if filter.RiskLabel != "" {
			query = query.Where("risk_label = ?", filter.RiskLabel)
		}
		if filter.ObjectID != 0 {
			query = query.Where("object_id = ?", filter.ObjectID)
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
	}

	var inspections []Inspection
	if err := query.Order("date DESC, id DESC").Find(&inspections).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "search_inspections").
			Build()
	}
	return inspections, nil
}

// UpdateInspection persists operator corrections to an existing inspection.
func (ds *DataStore) UpdateInspection(inspection *Inspection) error {
	if inspection == nil || inspection.ID == 0 {
		return errors.Newf("inspection must exist before update").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return ds.DB.Save(inspection).Error
}

// UpdateRiskFields writes the classification result onto one inspection.
// A nil confidence is stored as NULL, it means the rule-based path produced
// the label.
func (ds *DataStore) UpdateRiskFields(inspectionID uint, label RiskLabel, confidence *float64) error {
	result := ds.DB.Model(&Inspection{}).
		Where("id = ?", inspectionID).
		Updates(map[string]any{
			"risk_label":      label,
			"risk_confidence": confidence,
		})
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("inspection_id", inspectionID).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("inspection not found").
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("inspection_id", inspectionID).
			Build()
	}
	return nil
}
