package models

import "time"

// VariableRequest describes one variable from the data request: which MIP
// table it lives in and how it is named. OutName, when set, overrides
// CmorName in filenames and DRS paths.
type VariableRequest struct {
	ID            uint   `gorm:"primaryKey"`
	TableName     string `gorm:"type:text;not null;index:idx_table_cmor"`
	CmorName      string `gorm:"type:text;not null;index:idx_table_cmor"`
	VarName       string `gorm:"type:text;not null"`
	OutName       string `gorm:"type:text"`
	LongName      string `gorm:"type:text"`
	StandardName  string `gorm:"type:text"`
	Units         string `gorm:"type:text"`
	CellMethods   string `gorm:"type:text"`
	CellMeasures  string `gorm:"type:text"`
	Positive      string `gorm:"type:text"`
	VariableType  string `gorm:"type:text"`
	Dimensions    string `gorm:"type:text"`
	ModelingRealm string `gorm:"type:text"`
	Frequency     string `gorm:"type:text"`
	UID           string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DRSVariableName returns the name used in filenames and DRS paths.
func (vr *VariableRequest) DRSVariableName() string {
	if vr.OutName != "" {
		return vr.OutName
	}
	return vr.CmorName
}
