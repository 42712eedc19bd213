package models

import "time"

// SalesOrderStatus is the lifecycle status of a sales order.
type SalesOrderStatus string

const (
	OrderDraft     SalesOrderStatus = "DRAFT"
	OrderFinalized SalesOrderStatus = "FINALIZED"
	OrderCancelled SalesOrderStatus = "CANCELLED"
)

// SalesOrderCategory groups orders for reporting.
type SalesOrderCategory string

const (
	OrderCategoryTransfer  SalesOrderCategory = "TRANSFER"
	OrderCategoryExcursion SalesOrderCategory = "EXCURSION"
	OrderCategoryPackage   SalesOrderCategory = "PACKAGE"
	OrderCategoryOther     SalesOrderCategory = "OTHER"
)

// SalesOrder is a confirmed or draft order for a partner, optionally tied to
// a guest file. OrderNumber is assigned from the order sequence at creation;
// zero means the number is still being generated.
type SalesOrder struct {
	Document
	OrderNumber           uint64             `gorm:"index" json:"orderNumber"`
	Status                SalesOrderStatus   `gorm:"size:16;index" json:"status"`
	Category              SalesOrderCategory `gorm:"size:16;index" json:"category"`
	PartnerID             string             `gorm:"type:char(36);index" json:"partnerId"`
	PartnerName           string             `gorm:"size:255" json:"partnerName"`
	GuestID               string             `gorm:"type:char(36)" json:"guestId,omitempty"`
	GuestName             string             `gorm:"size:255" json:"guestName,omitempty"`
	FileRef               string             `gorm:"size:64" json:"fileRef,omitempty"`
	TourOperatorID        string             `gorm:"type:char(36)" json:"tourOperatorId,omitempty"`
	TourOperatorName      string             `gorm:"size:255" json:"tourOperatorName,omitempty"`
	GuestArrivalDate      *time.Time         `json:"guestArrivalDate,omitempty"`
	GuestDepartureDate    *time.Time         `json:"guestDepartureDate,omitempty"`
	GuestArrivalLocation  string             `gorm:"size:128" json:"guestArrivalLocation,omitempty"`
	GuestDepartureLocation string            `gorm:"size:128" json:"guestDepartureLocation,omitempty"`
	CurrencyName          string             `gorm:"size:8" json:"currencyName"`
	TotalPrice            float64            `json:"totalPrice"`
	Remarks               string             `gorm:"type:text" json:"remarks,omitempty"`
}

// TableName overrides the table name for SalesOrder
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// OrderSequence backs the monotonic order-number counter. A single row per
// sequence name, incremented under a row lock.
type OrderSequence struct {
	Name      string `gorm:"size:64;primaryKey"`
	NextValue uint64 `gorm:"not null;default:1"`
}

// TableName overrides the table name for OrderSequence
func (OrderSequence) TableName() string {
	return "order_sequences"
}
