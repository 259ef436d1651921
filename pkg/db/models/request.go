package models

import "time"

// DataRequest groups every file sharing one
// (project, institute, model, experiment, variable, variant) identity.
type DataRequest struct {
	ID uint `gorm:"primaryKey"`

	ProjectID         uint   `gorm:"not null;index:idx_dreq_identity"`
	InstituteID       uint   `gorm:"not null;index:idx_dreq_identity"`
	ClimateModelID    uint   `gorm:"not null;index:idx_dreq_identity"`
	ExperimentID      uint   `gorm:"not null;index:idx_dreq_identity"`
	VariableRequestID uint   `gorm:"not null;index:idx_dreq_identity"`
	RipCode           string `gorm:"type:text;not null;index:idx_dreq_identity"`

	RequestStartTime *float64
	RequestEndTime   *float64
	TimeUnits        string `gorm:"type:text"`
	Calendar         string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Project         Project         `gorm:"foreignKey:ProjectID"`
	Institute       Institute       `gorm:"foreignKey:InstituteID"`
	ClimateModel    ClimateModel    `gorm:"foreignKey:ClimateModelID"`
	Experiment      Experiment      `gorm:"foreignKey:ExperimentID"`
	VariableRequest VariableRequest `gorm:"foreignKey:VariableRequestID"`
	DataFiles       []DataFile      `gorm:"foreignKey:DataRequestID"`
}

// RetrievalRequest asks for the offline files of a set of DataRequests to
// be restored to disk for a bounded year window. Immutable once created.
type RetrievalRequest struct {
	ID uint `gorm:"primaryKey"`

	Requester string `gorm:"type:text"`
	StartYear int    `gorm:"not null"`
	EndYear   int    `gorm:"not null"`

	DateCreated  time.Time `gorm:"autoCreateTime"`
	DateComplete *time.Time
	DateDeleted  *time.Time

	// Relationships
	DataRequests []DataRequest `gorm:"many2many:retrieval_request_data_requests"`
}
