package models

// PartnerType classifies a business partner.
type PartnerType string

const (
	PartnerHotel        PartnerType = "HOTEL"
	PartnerTourOperator PartnerType = "TOUR_OPERATOR"
	PartnerSupplier     PartnerType = "SUPPLIER"
	PartnerSalesRep     PartnerType = "SALES_REP"
)

// ContactInfo is a partner's contact block. Stored flattened with a column
// prefix; addressed by pages through the dot-path "contactInfo.<field>".
type ContactInfo struct {
	Email   string `gorm:"size:255" json:"email"`
	Tel     string `gorm:"size:64" json:"tel"`
	Tel2    string `gorm:"size:64" json:"tel2"`
	Address string `gorm:"size:255" json:"address"`
	Zip     string `gorm:"size:32" json:"zip"`
	Town    string `gorm:"size:128" json:"town"`
	Country string `gorm:"size:128" json:"country"`
}

// TaxInfo is a partner's tax registration block.
type TaxInfo struct {
	BRN             string `gorm:"size:64" json:"brn"`
	IsVatRegistered bool   `json:"isVatRegistered"`
	VatNumber       string `gorm:"size:64" json:"vatNumber,omitempty"`
}

// HotelInfo is present for HOTEL partners.
type HotelInfo struct {
	StarRating int    `json:"starRating,omitempty"`
	Region     string `gorm:"size:64" json:"region,omitempty"`
}

// Partner is a hotel, tour operator, supplier or sales rep the operation
// does business with.
type Partner struct {
	Document
	Name         string      `gorm:"size:255;not null" json:"name"`
	Type         PartnerType `gorm:"size:32;not null" json:"type"`
	ContactInfo  ContactInfo `gorm:"embedded;embeddedPrefix:contact_info_" json:"contactInfo"`
	TaxInfo      TaxInfo     `gorm:"embedded;embeddedPrefix:tax_info_" json:"taxInfo"`
	HotelInfo    HotelInfo   `gorm:"embedded;embeddedPrefix:hotel_info_" json:"hotelInfo"`
	CurrencyName string      `gorm:"size:8" json:"currencyName"`
	Remarks      string      `gorm:"type:text" json:"remarks,omitempty"`
	IsActive     bool        `json:"isActive"`
	SubDmc       string      `gorm:"type:char(36)" json:"subDmc,omitempty"`
}

// TableName overrides the table name for Partner
func (Partner) TableName() string {
	return "partners"
}
