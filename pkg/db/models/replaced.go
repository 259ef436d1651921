package models

import "time"

// ReplacedFile is the append-only ledger entry for a file removed from
// live tracking. It duplicates DataFile's descriptive fields plus the
// checksum captured at replacement time, and is never consulted for
// "current" queries.
type ReplacedFile struct {
	ID uint `gorm:"primaryKey"`

	Name string `gorm:"type:text;not null;uniqueIndex:idx_replaced_name_incoming"`

	// IncomingDirectory may gain an ordinal suffix (_1 .. _N) to keep
	// repeat replacements of the same file distinguishable.
	IncomingDirectory string `gorm:"type:text;not null;uniqueIndex:idx_replaced_name_incoming"`

	IncomingName string  `gorm:"type:text"`
	Size         int64   `gorm:"not null"`
	Version      string  `gorm:"type:text"`
	TapeURL      *string `gorm:"type:text"`
	Grid         string  `gorm:"type:text"`
	RipCode      string  `gorm:"type:text;not null"`
	Frequency    string  `gorm:"type:text;not null"`

	StartTime *float64
	EndTime   *float64
	TimeUnits string `gorm:"type:text"`
	Calendar  string `gorm:"type:text"`

	ChecksumValue string `gorm:"type:text"`
	ChecksumType  string `gorm:"type:text"`

	ProjectID         uint `gorm:"not null"`
	InstituteID       uint `gorm:"not null"`
	ClimateModelID    uint `gorm:"not null"`
	ExperimentID      uint `gorm:"not null"`
	ActivityIDID      uint `gorm:"not null"`
	VariableRequestID uint `gorm:"not null"`
	DataRequestID     uint `gorm:"not null;index"`
	DataSubmissionID  *string

	CreatedAt time.Time

	// Relationships
	Project         Project         `gorm:"foreignKey:ProjectID"`
	Institute       Institute       `gorm:"foreignKey:InstituteID"`
	ClimateModel    ClimateModel    `gorm:"foreignKey:ClimateModelID"`
	Experiment      Experiment      `gorm:"foreignKey:ExperimentID"`
	ActivityID      ActivityID      `gorm:"foreignKey:ActivityIDID"`
	VariableRequest VariableRequest `gorm:"foreignKey:VariableRequestID"`
	DataRequest     DataRequest     `gorm:"foreignKey:DataRequestID"`
}
