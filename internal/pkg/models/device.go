package models

import (
	"time"
)

//DeviceType describes the provisioning template for one type of monitoring
//device: which fixed text channels it carries and how many temperature and
//voltage channels it exposes.
type DeviceType struct {
	Name                string
	IncludesFirmware    bool
	IncludesNotes       bool
	TempChannelCount    int
	VoltageChannelCount int
}

//Device is a physical monitoring device tracked by the registry
type Device struct {
	ID           string
	SerialNumber string
	DeviceType   string
	Notes        string
}

//SensorSpec describes one sensor channel to be provisioned for a device.
//It carries no identity; identity is assigned when the channel is persisted.
type SensorSpec struct {
	Label             string
	TypeOfMeasurement string
	Unit              string
}

//Sensor is one measurement channel of a persisted device. The sensor set of
//a device is fixed at provisioning time and never mutated afterwards.
type Sensor struct {
	ID                string
	DeviceID          string
	Label             string
	TypeOfMeasurement string
	UnitOfMeasurement string
}

//Location is a geolocated site where devices can be deployed
type Location struct {
	ID          string
	Name        string
	Responsible string
	Latitude    float64
	Longitude   float64
	Elevation   *int
}

//DeviceLocation records that a device was placed at a location as of a point
//in time. Records are append only and form the deployment history of a device.
type DeviceLocation struct {
	ID         string
	Timestamp  time.Time
	DeviceID   string
	LocationID string
	Notes      string
}
