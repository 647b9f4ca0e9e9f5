package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Patient struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name" validate:"required"`
	Phone          string             `json:"phone" bson:"phone"`
	BloodGroup     string             `json:"blood_group" bson:"blood_group"`
	MedicalHistory string             `json:"medical_history" bson:"medical_history"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

func (p *Patient) Summary() PatientSummary {
	return PatientSummary{
		Name:           p.Name,
		Phone:          p.Phone,
		BloodGroup:     p.BloodGroup,
		MedicalHistory: p.MedicalHistory,
	}
}
