// media.go: evidence media metadata operations
package datastore

import (
	"github.com/pipewatch/pipewatch-go/internal/errors"
)

// SaveMediaItem registers one media item against an inspection.
func (ds *DataStore) SaveMediaItem(item *MediaItem) error {
	if item == nil {
		return errors.Newf("media item is nil").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return ds.DB.Save(item).Error
}

func (ds *DataStore) GetMediaItem(id uint) (*MediaItem, error) {
	var item MediaItem
	if err := ds.DB.First(&item, id).Error; err != nil {
		return nil, notFound(err, "media item", id)
	}
	return &item, nil
}

// MediaForInspection lists all media items for one inspection, newest first.
func (ds *DataStore) MediaForInspection(inspectionID uint) ([]MediaItem, error) {
	var items []MediaItem
	err := ds.DB.Where("inspection_id = ?", inspectionID).
		Order("uploaded_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("inspection_id", inspectionID).
			Build()
	}
	return items, nil
}

// DeleteMediaItem removes one media item record. Removing the last
// after-tagged item re-blocks completion submission on the next attempt, it
// never reverts a repair work already past the evidence gate.
func (ds *DataStore) DeleteMediaItem(id uint) error {
	result := ds.DB.Delete(&MediaItem{}, id)
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("media_item_id", id).
			Build()
	}
	if result.RowsAffected == 0 {
		return notFound(errRecordMissing, "media item", id)
	}
	return nil
}

// HasAfterEvidence reports whether at least one after-tagged media item
// exists for the inspection. Evaluated fresh on every call, evidence can be
// added or deleted between attempts.
func (ds *DataStore) HasAfterEvidence(inspectionID uint) (bool, error) {
	var count int64
	err := ds.DB.Model(&MediaItem{}).
		Where("inspection_id = ? AND is_before = ?", inspectionID, false).
		Count(&count).Error
	if err != nil {
		return false, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("inspection_id", inspectionID).
			Build()
	}
	return count > 0, nil
}
