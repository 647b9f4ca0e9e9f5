package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AmbulanceStatus string

const (
	AmbulanceStatusReady   AmbulanceStatus = "ready"
	AmbulanceStatusOnTrip  AmbulanceStatus = "on-trip"
	AmbulanceStatusOffline AmbulanceStatus = "offline"
)

type Ambulance struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverName    string             `json:"driver_name" bson:"driver_name" validate:"required"`
	DriverPhone   string             `json:"driver_phone" bson:"driver_phone" validate:"required"`
	VehicleNumber string             `json:"vehicle_number" bson:"vehicle_number" validate:"required"`
	Status        AmbulanceStatus    `json:"status" bson:"status"`
	Location      GeoPoint           `json:"location" bson:"location"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
