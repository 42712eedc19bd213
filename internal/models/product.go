package models

// Product is a simple sellable product with a code, category and pricing.
type Product struct {
	Document
	Name        string  `gorm:"size:255;not null" json:"name"`
	ProductCode string  `gorm:"size:64;index" json:"productCode"`
	Category    string  `gorm:"size:128;index" json:"category"`
	Price       float64 `json:"price"`
	Cost        float64 `json:"cost"`
}

// TableName overrides the table name for Product
func (Product) TableName() string {
	return "products"
}
