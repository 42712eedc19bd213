package models

import "gorm.io/datatypes"

// CompanySettings holds per-company linkage and access configuration.
type CompanySettings struct {
	DmcID      string `json:"dmcId,omitempty"`
	AccessType string `json:"accessType,omitempty"` // FULL or RESTRICTED
}

// Company is a tenant: the owning organization of documents.
// PlanningCompanyID links a DMC or SUB_DMC to the PLANNING company that may
// see its documents; it is a real column so the visibility expansion can
// query it directly.
type Company struct {
	Document
	Name              string                               `gorm:"size:255;not null" json:"name"`
	Type              CompanyType                          `gorm:"size:16;not null" json:"type"`
	PlanningCompanyID string                               `gorm:"type:char(36);index" json:"planningCompanyId,omitempty"`
	Settings          datatypes.JSONType[CompanySettings] `gorm:"type:json" json:"companySettings"`
}

// TableName overrides the table name for Company
func (Company) TableName() string {
	return "companies"
}
