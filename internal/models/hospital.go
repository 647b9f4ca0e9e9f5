package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BedInventory tracks a finite reservable capacity. Available is only ever
// moved through the reservation service's conditional decrement/increment,
// so it can never go negative or exceed Total.
type BedInventory struct {
	Total     int `json:"total" bson:"total"`
	Available int `json:"available" bson:"available"`
}

type HospitalInventory struct {
	Beds       BedInventory   `json:"beds" bson:"beds"`
	BloodStock map[string]int `json:"blood_stock" bson:"blood_stock"`
}

type Hospital struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name" validate:"required"`
	Phone     string             `json:"phone" bson:"phone"`
	Address   string             `json:"address" bson:"address"`
	Location  GeoPoint           `json:"location" bson:"location"`
	Inventory HospitalInventory  `json:"inventory" bson:"inventory"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// BloodStockKey maps a display blood group ("A+", "O-") to the field name
// used inside inventory.blood_stock ("a_positive", "o_negative").
func BloodStockKey(bloodGroup string) string {
	key := strings.ToLower(strings.TrimSpace(bloodGroup))
	key = strings.ReplaceAll(key, "+", "_positive")
	key = strings.ReplaceAll(key, "-", "_negative")
	return key
}
