package models

import "time"

// Submission statuses.
const (
	SubmissionArrived   = "ARRIVED"
	SubmissionValidated = "VALIDATED"
	SubmissionArchived  = "ARCHIVED"
)

// DataSubmission records one delivery of validated files into the
// incoming directory. Validation itself happens upstream; by the time a
// submission reaches this tool its metadata is trusted.
type DataSubmission struct {
	ID                string `gorm:"primaryKey;type:text"`
	Status            string `gorm:"type:text;not null"`
	IncomingDirectory string `gorm:"type:text;not null"`
	Directory         string `gorm:"type:text"`
	User              string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	DataFiles []DataFile `gorm:"foreignKey:DataSubmissionID"`
}
