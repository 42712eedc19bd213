package models

import (
	"time"

	"gorm.io/datatypes"
)

// ItemCategory classifies a bookable service item.
type ItemCategory string

const (
	ItemAirportTransfer    ItemCategory = "AIRPORT TRANSFER"
	ItemInterHotelTransfer ItemCategory = "INTER HOTEL TRANSFER"
	ItemExcursionTransfer  ItemCategory = "EXCURSION TRANSFER"
	ItemExcursion          ItemCategory = "EXCURSION"
	ItemCarRental          ItemCategory = "CAR RENTAL"
	ItemRodrigues          ItemCategory = "RODRIGUES"
	ItemShuttle            ItemCategory = "SHUTTLE"
	ItemWedding            ItemCategory = "WEDDING"
	ItemTravelingStaff     ItemCategory = "TRAVELING_STAFF"
	ItemElse               ItemCategory = "ELSE"
)

// UnitType is the pricing unit of an item.
type UnitType string

const (
	UnitAdult  UnitType = "ADULT"
	UnitChild  UnitType = "CHILD"
	UnitInfant UnitType = "INFANT"
	UnitUnit   UnitType = "UNIT"
)

// ItemValidity is a dated cost window for an item.
type ItemValidity struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Cost float64   `json:"cost"`
}

// Item is a bookable service (transfer, excursion, rental...) supplied by a
// partner. Validity windows are kept as a JSON list since they are only ever
// read and written as a whole.
type Item struct {
	Document
	Name                string                            `gorm:"size:255;not null" json:"name"`
	ItemCategory        ItemCategory                      `gorm:"size:32;index" json:"itemCategory"`
	UnitType            UnitType                          `gorm:"size:16" json:"unitType"`
	PartnerID           string                            `gorm:"type:char(36);index" json:"partnerId"`
	PartnerName         string                            `gorm:"size:255" json:"partnerName"`
	Validities          datatypes.JSONSlice[ItemValidity] `gorm:"type:json" json:"validities,omitempty"`
	VehicleCategoryID   string                            `gorm:"type:char(36)" json:"vehicleCategoryId,omitempty"`
	VehicleCategoryName string                            `gorm:"size:255" json:"vehicleCategoryName,omitempty"`
	Virtual             bool                              `json:"virtual"`
}

// TableName overrides the table name for Item
func (Item) TableName() string {
	return "items"
}
