package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//Location is the database model to store geolocated deployment sites.
//Coordinates are stored as latitude/longitude in SRID 4326.
type Location struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Name        string
	Responsible string
	Latitude    float64
	Longitude   float64
	Elevation   *int
}

//BeforeCreate assigns a fresh UUID primary key unless one was supplied
func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

//Device is the database model to store devices in our database
type Device struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	SerialNumber string
	DeviceType   string
	Notes        string
}

//BeforeCreate assigns a fresh UUID primary key unless one was supplied
func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

//Sensor stores one measurement channel of a device. The check constraint
//rejects measurement types outside the provisioning vocabulary.
type Sensor struct {
	ID                string `gorm:"type:uuid;primaryKey"`
	DeviceID          string `gorm:"type:uuid;index:sensors_from_device"`
	Device            *Device
	Position          int
	Label             string
	TypeOfMeasurement string `gorm:"check:type_of_measurement IN ('text','temperature','voltage')"`
	UnitOfMeasurement string
}

//BeforeCreate assigns a fresh UUID primary key unless one was supplied
func (s *Sensor) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

//DeviceLocation stores one entry of the append-only deployment history. The
//foreign keys make the insert itself fail if a referenced device or location
//disappears between validation and insert.
type DeviceLocation struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	Timestamp  time.Time
	DeviceID   string `gorm:"type:uuid;index:deployments_from_device"`
	Device     *Device
	LocationID string `gorm:"type:uuid"`
	Location   *Location
	Notes      string
}

//BeforeCreate assigns a fresh UUID primary key unless one was supplied
func (dl *DeviceLocation) BeforeCreate(tx *gorm.DB) error {
	if dl.ID == "" {
		dl.ID = uuid.NewString()
	}
	return nil
}
