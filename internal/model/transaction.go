package model

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a sale header. Its line items live in Products.
type Transaction struct {
	BaseModel
	InvoiceNo string               `gorm:"type:varchar(255);not null;index" json:"invoiceNo"`
	Date      time.Time            `gorm:"type:date;not null" json:"date"`
	Customer  string               `gorm:"type:varchar(255);not null" json:"customer"`
	UserID    uuid.UUID            `gorm:"type:uuid;not null;index" json:"userId"`
	User      *User                `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Products  []TransactionProduct `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"products"`
}

// TransactionProduct is one line item: a product, a quantity and the unit
// price charged in this sale.
type TransactionProduct struct {
	BaseModel
	Quantity      int       `gorm:"not null" json:"quantity"`
	Price         int       `gorm:"not null" json:"price"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"productId"`
	Product       *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"transactionId"`
}
