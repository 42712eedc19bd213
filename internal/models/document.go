package models

import "time"

// DocumentStatus is the advisory lifecycle status of a document. It is set
// to ACTIVE at creation and never transitions automatically.
type DocumentStatus string

const (
	StatusActive   DocumentStatus = "ACTIVE"
	StatusInactive DocumentStatus = "INACTIVE"
	StatusArchived DocumentStatus = "ARCHIVED"
)

// CompanyType drives tenant visibility: a PLANNING company sees its own
// documents plus those of every company that declares it as planning parent.
type CompanyType string

const (
	CompanyPlanning CompanyType = "PLANNING"
	CompanyDMC      CompanyType = "DMC"
	CompanySubDMC   CompanyType = "SUB_DMC"
)

// Document is the audit and tenant metadata embedded in every persisted
// record. All fields are stamped by the repository; caller-supplied values
// are overwritten on write.
type Document struct {
	ID             string         `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	CreatedBy      string         `gorm:"type:char(36)" json:"createdBy"`
	CreatedByName  string         `gorm:"size:255" json:"createdByName"`
	UpdatedBy      string         `gorm:"type:char(36)" json:"updatedBy"`
	UpdatedByName  string         `gorm:"size:255" json:"updatedByName"`
	DocumentStatus DocumentStatus `gorm:"size:16;index" json:"documentStatus"`
	CompanyID      string         `gorm:"type:char(36);index" json:"companyId"`
	CompanyName    string         `gorm:"size:255" json:"companyName"`
	CompanyType    CompanyType    `gorm:"size:16" json:"companyType"`
}

// Doc returns the embedded document metadata. Entities embed Document, so
// every *Entity satisfies the repository's Entity constraint through this.
func (d *Document) Doc() *Document {
	return d
}
