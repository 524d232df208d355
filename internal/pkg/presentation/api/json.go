package api

import (
	"time"

	"github.com/fieldmon/sensordb-registry/internal/pkg/importreport"
	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
)

//The types in this package fix the JSON field names of the public contract.
//Entities are shaped here, at the boundary, so the core stays free of
//serialization concerns.

//LocationJSON is the wire representation of a location
type LocationJSON struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Responsible string `json:"responsible"`
	Coordinates string `json:"coordinates"`
	Elevation   *int   `json:"elevation"`
}

//NewLocationJSON shapes a location record for the wire. Coordinates are
//reported as a Well-Known-Text point.
func NewLocationJSON(location *models.Location) LocationJSON {
	return LocationJSON{
		Type:        "location",
		ID:          location.ID,
		Name:        location.Name,
		Responsible: location.Responsible,
		Coordinates: location.WKTPoint(),
		Elevation:   location.Elevation,
	}
}

//DeviceTypeJSON is the wire representation of a device type
type DeviceTypeJSON struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

//NewDeviceTypeJSON shapes a device type for the wire
func NewDeviceTypeJSON(deviceType models.DeviceType) DeviceTypeJSON {
	return DeviceTypeJSON{
		Type: "deviceType",
		Name: deviceType.Name,
	}
}

//DeviceJSON is the wire representation of a device
type DeviceJSON struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	SerialNumber string `json:"serialNumber"`
	DeviceType   string `json:"device_type"`
	Notes        string `json:"notes"`
}

//NewDeviceJSON shapes a device record for the wire
func NewDeviceJSON(device *models.Device) DeviceJSON {
	return DeviceJSON{
		Type:         "device",
		ID:           device.ID,
		SerialNumber: device.SerialNumber,
		DeviceType:   device.DeviceType,
		Notes:        device.Notes,
	}
}

//ProvisionedDeviceJSON is the device creation response: the device with its
//sensors nested in provisioning order
type ProvisionedDeviceJSON struct {
	DeviceJSON
	Sensors []SensorJSON `json:"sensors"`
}

//NewProvisionedDeviceJSON shapes a freshly provisioned device for the wire
func NewProvisionedDeviceJSON(device *models.Device, sensors []models.Sensor) ProvisionedDeviceJSON {
	sensorArr := make([]SensorJSON, 0, len(sensors))
	for idx := range sensors {
		sensorArr = append(sensorArr, NewSensorJSON(&sensors[idx]))
	}

	return ProvisionedDeviceJSON{
		DeviceJSON: NewDeviceJSON(device),
		Sensors:    sensorArr,
	}
}

//SensorJSON is the wire representation of a sensor channel
type SensorJSON struct {
	Type              string `json:"type"`
	ID                string `json:"id"`
	Label             string `json:"label"`
	TypeOfMeasurement string `json:"type_of_measurement"`
	UnitOfMeasurement string `json:"unit_of_measurement"`
}

//NewSensorJSON shapes a sensor record for the wire
func NewSensorJSON(sensor *models.Sensor) SensorJSON {
	return SensorJSON{
		Type:              "sensor",
		ID:                sensor.ID,
		Label:             sensor.Label,
		TypeOfMeasurement: sensor.TypeOfMeasurement,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
	}
}

//DeviceLocationJSON is the wire representation of one deployment history
//entry. The timestamp is reported both as epoch milliseconds and as text.
type DeviceLocationJSON struct {
	Type          string `json:"type"`
	ID            string `json:"id"`
	Timestamp     int64  `json:"timestamp"`
	TimestampText string `json:"timestamp_text"`
	DeviceID      string `json:"device_id"`
	LocationID    string `json:"location_id"`
	Notes         string `json:"notes"`
}

//NewDeviceLocationJSON shapes a deployment history entry for the wire
func NewDeviceLocationJSON(deviceLocation *models.DeviceLocation) DeviceLocationJSON {
	return DeviceLocationJSON{
		Type:          "deviceLocation",
		ID:            deviceLocation.ID,
		Timestamp:     deviceLocation.Timestamp.UnixNano() / int64(time.Millisecond),
		TimestampText: deviceLocation.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"),
		DeviceID:      deviceLocation.DeviceID,
		LocationID:    deviceLocation.LocationID,
		Notes:         deviceLocation.Notes,
	}
}

//ErrorJSON carries one link of a diagnostic cause chain
type ErrorJSON struct {
	Error string     `json:"error"`
	Cause *ErrorJSON `json:"cause,omitempty"`
}

//ImportReportJSON is the wire representation of an import run report.
//problemCount and problems are present only when at least one text value
//was observed.
type ImportReportJSON struct {
	Type          string         `json:"type"`
	ImportID      string         `json:"importId"`
	InsertedCount int            `json:"insertedCount"`
	SkippedCount  int            `json:"skippedCount"`
	ProblemCount  int            `json:"problemCount,omitempty"`
	Problems      map[string]int `json:"problems,omitempty"`
	Error         *ErrorJSON     `json:"error,omitempty"`
}

//NewImportReportJSON shapes an import report snapshot for the wire
func NewImportReportJSON(report importreport.Report) ImportReportJSON {
	result := ImportReportJSON{
		Type:          "import",
		ImportID:      report.ImportID,
		InsertedCount: report.InsertedCount,
		SkippedCount:  report.SkippedCount,
		Error:         nestErrorChain(report.ErrorChain),
	}

	if report.ProblemCount() > 0 {
		result.ProblemCount = report.ProblemCount()
		result.Problems = report.Problems
	}

	return result
}

//nestErrorChain folds a flattened cause chain back into the nested
//error/cause shape of the contract
func nestErrorChain(chain []string) *ErrorJSON {
	var nested *ErrorJSON
	for idx := len(chain) - 1; idx >= 0; idx-- {
		nested = &ErrorJSON{Error: chain[idx], Cause: nested}
	}

	return nested
}
