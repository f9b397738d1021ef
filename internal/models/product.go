package models

import "encoding/json"

// Product represents a product in the catalog.
type Product struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	Name         string  `json:"name" gorm:"type:varchar(100);not null"`
	Price        float64 `json:"price" gorm:"type:numeric;not null"`
	Availability bool    `json:"availability" gorm:"not null;default:true"`
}

// TableName pins the table name regardless of naming strategy.
func (Product) TableName() string {
	return "products"
}

// ProductInput is the request body for create and full update.
// Price is a json.Number so numeric strings such as "300" are accepted too.
type ProductInput struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

// ErrorResponse is the body of 404 and 500 responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
