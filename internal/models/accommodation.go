package models

import (
	"time"

	"gorm.io/datatypes"
)

// AccommodationStatus is the booking status of an accommodation record.
type AccommodationStatus string

const (
	AccommodationQuotation AccommodationStatus = "QUOTATION"
	AccommodationConfirmed AccommodationStatus = "CONFIRMED"
	AccommodationCancelled AccommodationStatus = "CANCELLED"
)

// ValuationRequest captures the hotel valuation query parameters so the
// form can be reloaded later.
type ValuationRequest struct {
	StartDate         string             `json:"startDate"`
	EndDate           string             `json:"endDate"`
	AvailDestinations []AvailDestination `json:"availDestinations"`
	RoomCandidates    []RoomCandidate    `json:"roomCandidates"`
}

// AvailDestination is a destination selector in a valuation request.
type AvailDestination struct {
	Type string `json:"type"`
	Code int    `json:"code"`
}

// RoomCandidate is a room request with its passengers.
type RoomCandidate struct {
	ID    int   `json:"id"`
	Paxes []PaxAge `json:"paxes"`
}

// PaxAge is a passenger with age, as the valuation API expects it.
type PaxAge struct {
	ID  int `json:"id"`
	Age int `json:"age"`
}

// Accommodation is a hotel stay quotation or booking. The valuation result
// is an opaque payload from the pricing side, stored as raw JSON.
type Accommodation struct {
	Document
	GuestName        string                               `gorm:"size:255" json:"guestName"`
	HotelName        string                               `gorm:"size:255" json:"hotelName"`
	HotelMarketID    int                                  `json:"hotelMarketId"`
	StartDate        time.Time                            `json:"startDate"`
	EndDate          time.Time                            `json:"endDate"`
	Status           AccommodationStatus                  `gorm:"size:16;index" json:"status"`
	TotalPrice       float64                              `json:"totalPrice"`
	CurrencyName     string                               `gorm:"size:8" json:"currency"`
	ValuationRequest datatypes.JSONType[ValuationRequest] `gorm:"type:json" json:"valuationRequest"`
	ValuationResult  JSON                                 `gorm:"type:json" json:"valuationResult"`
}

// TableName overrides the table name for Accommodation
func (Accommodation) TableName() string {
	return "accommodations"
}
