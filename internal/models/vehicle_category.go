package models

// VehicleCategory is a transfer vehicle class with its passenger capacity.
type VehicleCategory struct {
	Document
	Name     string `gorm:"size:255;not null" json:"name"`
	Capacity int    `json:"capacity"`
}

// TableName overrides the table name for VehicleCategory
func (VehicleCategory) TableName() string {
	return "vehicle_categories"
}
