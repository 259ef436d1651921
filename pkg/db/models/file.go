package models

import "time"

// DataFile is the unit of truth for where one data file is right now.
// Online files carry their current directory; offline files have a null
// directory and, usually, a tape URL. (Name, Directory) is unique among
// online files.
type DataFile struct {
	ID uint `gorm:"primaryKey"`

	Name              string  `gorm:"type:text;not null;uniqueIndex:idx_name_directory"`
	IncomingName      string  `gorm:"type:text"`
	IncomingDirectory string  `gorm:"type:text;not null"`
	Directory         *string `gorm:"type:text;uniqueIndex:idx_name_directory"`
	Size              int64   `gorm:"not null"`
	TapeSize          *int64
	Online            bool    `gorm:"not null;default:false;index"`
	Version           string  `gorm:"type:text"`
	TapeURL           *string `gorm:"type:text"`
	Grid              string  `gorm:"type:text"`
	RipCode           string  `gorm:"type:text;not null"`
	Frequency         string  `gorm:"type:text;not null"`

	// Temporal extent in the file's own reference unit and calendar.
	// Nil for time-invariant (fx) fields.
	StartTime *float64
	EndTime   *float64
	TimeUnits string `gorm:"type:text"`
	Calendar  string `gorm:"type:text"`

	ProjectID         uint `gorm:"not null"`
	InstituteID       uint `gorm:"not null"`
	ClimateModelID    uint `gorm:"not null"`
	ExperimentID      uint `gorm:"not null"`
	ActivityIDID      uint `gorm:"not null"`
	VariableRequestID uint `gorm:"not null"`
	DataRequestID     uint `gorm:"not null;index"`
	DataSubmissionID  *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Project         Project         `gorm:"foreignKey:ProjectID"`
	Institute       Institute       `gorm:"foreignKey:InstituteID"`
	ClimateModel    ClimateModel    `gorm:"foreignKey:ClimateModelID"`
	Experiment      Experiment      `gorm:"foreignKey:ExperimentID"`
	ActivityID      ActivityID      `gorm:"foreignKey:ActivityIDID"`
	VariableRequest VariableRequest `gorm:"foreignKey:VariableRequestID"`
	DataRequest     DataRequest     `gorm:"foreignKey:DataRequestID"`
	Checksums       []Checksum      `gorm:"foreignKey:DataFileID;constraint:OnDelete:CASCADE"`
	TapeChecksums   []TapeChecksum  `gorm:"foreignKey:DataFileID;constraint:OnDelete:CASCADE"`
}

// Checksum is the content checksum of the live on-disk copy.
type Checksum struct {
	ID            uint   `gorm:"primaryKey"`
	DataFileID    uint   `gorm:"not null;index"`
	ChecksumValue string `gorm:"type:text;not null"`
	ChecksumType  string `gorm:"type:text;not null"`

	CreatedAt time.Time
}

// TapeChecksum records the checksum of the copy written to tape. The tape
// copy is never rewritten, so this history survives in-place edits to the
// online file.
type TapeChecksum struct {
	ID            uint   `gorm:"primaryKey"`
	DataFileID    uint   `gorm:"not null;index"`
	ChecksumValue string `gorm:"type:text;not null"`
	ChecksumType  string `gorm:"type:text;not null"`

	CreatedAt time.Time
}
