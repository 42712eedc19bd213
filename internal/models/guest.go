package models

// Pax is a passenger headcount breakdown.
type Pax struct {
	Adult  int `json:"adult,omitempty"`
	Child  int `json:"child,omitempty"`
	Infant int `json:"infant,omitempty"`
	Total  int `json:"total,omitempty"`
}

// Guest is an arriving guest or guest party, linked to the tour operator
// that booked them. Arrival and departure are kept as ISO date strings, the
// way the booking files carry them.
type Guest struct {
	Document
	Name             string `gorm:"size:255;not null" json:"name"`
	Email            string `gorm:"size:255" json:"email,omitempty"`
	Tel              string `gorm:"size:64" json:"tel,omitempty"`
	FileRef          string `gorm:"size:64;index" json:"fileRef,omitempty"`
	Remarks          string `gorm:"type:text" json:"remarks,omitempty"`
	TourOperatorID   string `gorm:"type:char(36);index" json:"tourOperatorId"`
	TourOperatorName string `gorm:"size:255" json:"tourOperatorName"`
	ArrivalDate      string `gorm:"size:10" json:"arrivalDate,omitempty"`
	DepartureDate    string `gorm:"size:10" json:"departureDate,omitempty"`
	Pax              Pax    `gorm:"embedded;embeddedPrefix:pax_" json:"pax"`
}

// TableName overrides the table name for Guest
func (Guest) TableName() string {
	return "guests"
}
