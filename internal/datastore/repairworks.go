// repairworks.go: repair work persistence and atomic status transitions
package datastore

import (
	"time"

	"github.com/pipewatch/pipewatch-go/internal/errors"
)

// SaveRepairWork inserts or updates one repair work order.
func (ds *DataStore) SaveRepairWork(work *RepairWork) error {
	if work == nil {
		return errors.Newf("repair work is nil").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return ds.DB.Save(work).Error
}

func (ds *DataStore) GetRepairWork(id uint) (*RepairWork, error) {
	var work RepairWork
	if err := ds.DB.First(&work, id).Error; err != nil {
		return nil, notFound(err, "repair work", id)
	}
	return &work, nil
}

// RepairWorksForInspection lists all repair works for one inspection, newest first.
func (ds *DataStore) RepairWorksForInspection(inspectionID uint) ([]RepairWork, error) {
	var works []RepairWork
	err := ds.DB.Where("inspection_id = ?", inspectionID).
		Order("created_at DESC").
		Find(&works).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("inspection_id", inspectionID).
			Build()
	}
	return works, nil
}

// SearchRepairWorks lists repair works matching the filter, newest first.
func (ds *DataStore) SearchRepairWorks(filter *RepairWorkFilter) ([]RepairWork, error) {
	query := ds.DB.Model(&RepairWork{})

	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Priority != "" {
			query = query.Where("priority = ?", filter.Priority)
		}
		if filter.AssignedTo != nil {
			query = query.Where("assigned_to = ?", *filter.AssignedTo)
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
	}

	var works []RepairWork
	if err := query.Order("created_at DESC").Find(&works).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "search_repair_works").
			Build()
	}
	return works, nil
}

// UpdateRepairWork persists non-status edits to an existing repair work.
// Status moves only through TransitionRepairWorkStatus.
func (ds *DataStore) UpdateRepairWork(work *RepairWork) error {
	if work == nil || work.ID == 0 {
		return errors.Newf("repair work must exist before update").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return ds.DB.Save(work).Error
}

// DeleteRepairWork removes one repair work. The parent inspection is never
// touched.
func (ds *DataStore) DeleteRepairWork(id uint) error {
	result := ds.DB.Delete(&RepairWork{}, id)
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("repair_work_id", id).
			Build()
	}
	if result.RowsAffected == 0 {
		return notFound(errRecordMissing, "repair work", id)
	}
	return nil
}

var errRecordMissing = errors.NewStd("record not found")

// TransitionRepairWorkStatus applies a status transition as a compare-and-swap:
// the UPDATE is filtered on the expected source status, so of any concurrent
// attempts from the same source status exactly one takes effect. Zero rows
// affected with an existing row means the row left the source status in the
// meantime and ErrStatusConflict is returned.
//
// completedDate must be non-nil exactly when to is the completed status, the
// caller (the workflow state machine) owns that invariant.
func (ds *DataStore) TransitionRepairWorkStatus(id uint, from, to WorkStatus, completedDate *time.Time) (*RepairWork, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}
	if to == StatusCompleted {
		updates["completed_date"] = completedDate
	}

	result := ds.DB.Model(&RepairWork{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return nil, errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("repair_work_id", id).
			Context("from", string(from)).
			Context("to", string(to)).
			Build()
	}

	if result.RowsAffected == 0 {
		// Distinguish a missing row from a concurrent status change.
		var work RepairWork
		if err := ds.DB.First(&work, id).Error; err != nil {
			return nil, notFound(err, "repair work", id)
		}
		return &work, ErrStatusConflict
	}

	var work RepairWork
	if err := ds.DB.First(&work, id).Error; err != nil {
		return nil, notFound(err, "repair work", id)
	}
	return &work, nil
}
