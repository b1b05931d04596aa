// objects.go: pipeline and object persistence operations
package datastore

func (ds *DataStore) GetPipeline(pipelineID string) (*Pipeline, error) {
	var pipeline Pipeline
	if err := ds.DB.Where("pipeline_id = ?", pipelineID).First(&pipeline).Error; err != nil {
		return nil, notFound(err, "pipeline", pipelineID)
	}
	return &pipeline, nil
}

func (ds *DataStore) SavePipeline(pipeline *Pipeline) error {
	return ds.DB.Save(pipeline).Error
}

func (ds *DataStore) GetObject(objectID uint) (*PipelineObject, error) {
	var object PipelineObject
	if err := ds.DB.Where("object_id = ?", objectID).First(&object).Error; err != nil {
		return nil, notFound(err, "object", objectID)
	}
	return &object, nil
}

func (ds *DataStore) SaveObject(object *PipelineObject) error {
	return ds.DB.Save(object).Error
}

func (ds *DataStore) CountObjects() (int64, error) {
	var count int64
	err := ds.DB.Model(&PipelineObject{}).Count(&count).Error
	return count, err
}
