package models

import "time"

// Frequency values accepted for a data file's time axis.
const (
	FreqAnn     = "ann"
	FreqMon     = "mon"
	FreqDay     = "day"
	Freq6Hr     = "6hr"
	Freq3Hr     = "3hr"
	Freq1Hr     = "1hr"
	FreqFx      = "fx"
	FreqSubHr   = "subhr"
	FreqMonClim = "monClim"
)

// Checksum types form a small closed set.
const (
	ChecksumAdler32 = "ADLER32"
	ChecksumMD5     = "MD5"
	ChecksumSHA256  = "SHA256"
)

// RipCodeSentinel marks a DataRequest that has been emptied by an
// attribute update but cannot be deleted because other records still
// reference it.
const RipCodeSentinel = "r9i9p9f9"

// Project is the MIP era a file is classified under, e.g. CMIP6.
type Project struct {
	ID        uint   `gorm:"primaryKey"`
	ShortName string `gorm:"type:text;not null;uniqueIndex"`
	FullName  string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Institute is the modelling centre that produced a file.
type Institute struct {
	ID        uint   `gorm:"primaryKey"`
	ShortName string `gorm:"type:text;not null;uniqueIndex"`
	FullName  string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClimateModel is a source id, e.g. HadGEM3-GC31-LM.
type ClimateModel struct {
	ID        uint   `gorm:"primaryKey"`
	ShortName string `gorm:"type:text;not null;uniqueIndex"`
	FullName  string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Experiment is the forcing scenario a run belongs to.
type Experiment struct {
	ID        uint   `gorm:"primaryKey"`
	ShortName string `gorm:"type:text;not null;uniqueIndex"`
	FullName  string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActivityID is the MIP activity, e.g. HighResMIP.
type ActivityID struct {
	ID        uint   `gorm:"primaryKey"`
	ShortName string `gorm:"type:text;not null;uniqueIndex"`
	FullName  string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
