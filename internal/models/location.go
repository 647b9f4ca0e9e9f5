package models

// GeoPoint is a GeoJSON Point stored as [longitude, latitude], the order
// MongoDB's 2dsphere index expects.
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2"`
}

func NewGeoPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{
		Type:        "Point",
		Coordinates: []float64{longitude, latitude},
	}
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) >= 1 {
		return p.Coordinates[0]
	}
	return 0
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) >= 2 {
		return p.Coordinates[1]
	}
	return 0
}

func (p GeoPoint) IsValid() bool {
	if p.Type != "Point" || len(p.Coordinates) != 2 {
		return false
	}
	lng, lat := p.Coordinates[0], p.Coordinates[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}
