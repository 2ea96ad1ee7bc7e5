package models

import "gorm.io/gorm"

type Address struct {
	gorm.Model
	UserID    int    `json:"userId"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	ZipCode   string `json:"zipCode"`
	IsDefault bool   `json:"isDefault"`
}

// AddressSnapshot is the copy embedded on an order at creation time.
// Later edits to the address row never reach historical orders.
type AddressSnapshot struct {
	AddressID int    `json:"addressId"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	ZipCode   string `json:"zipCode"`
}

func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		AddressID: int(a.ID),
		Address:   a.Address,
		City:      a.City,
		State:     a.State,
		Country:   a.Country,
		ZipCode:   a.ZipCode,
	}
}
