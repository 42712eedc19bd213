package models

// Currency is a supported trading currency with its exchange rate to the
// base currency (MUR).
type Currency struct {
	Document
	Name         string  `gorm:"size:8;index;not null" json:"name"`
	ExchangeRate float64 `json:"exchangeRate"`
	IsActive     bool    `json:"isActive"`
}

// TableName overrides the table name for Currency
func (Currency) TableName() string {
	return "currencies"
}
