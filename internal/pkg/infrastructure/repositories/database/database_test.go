package database

import (
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/logging"
	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

func TestCreateLocationRoundTripsCoordinates(t *testing.T) {
	if db, ok := newDatabaseForTest(t); ok {
		elevation := 87
		location, err := db.CreateLocation("site-45", "gcrc", 45.0, -75.5, &elevation)
		if err != nil {
			t.Error("CreateLocation failed:", err.Error())
			return
		}

		fetched, err := db.GetLocationFromID(location.ID)
		if err != nil {
			t.Error("GetLocationFromID failed:", err.Error())
			return
		}

		if math.Abs(fetched.Latitude-45.0) > 1e-9 || math.Abs(fetched.Longitude+75.5) > 1e-9 {
			t.Errorf("Coordinates did not round trip: %f %f", fetched.Latitude, fetched.Longitude)
		}

		if fetched.Elevation == nil || *fetched.Elevation != 87 {
			t.Error("Elevation did not round trip")
		}
	}
}

func TestGetLocationFromIDFailsOnMalformedIdentifier(t *testing.T) {
	if db, ok := newDatabaseForTest(t); ok {
		_, err := db.GetLocationFromID("not-a-uuid")

		malformed := &models.MalformedIdentifierError{}
		if !errors.As(err, &malformed) {
			t.Error("Expected a MalformedIdentifierError, got:", err)
		}
	}
}

func TestGetLocationFromIDFailsWhenMissing(t *testing.T) {
	if db, ok := newDatabaseForTest(t); ok {
		_, err := db.GetLocationFromID(uuid.NewString())

		notFound := &models.NotFoundError{}
		if !errors.As(err, &notFound) {
			t.Error("Expected a NotFoundError, got:", err)
		}

		if notFound.Entity != "location" {
			t.Error("Wrong entity in NotFoundError:", notFound.Entity)
		}
	}
}

func TestCreateDeviceWithSensorsPersistsPlanOrder(t *testing.T) {
	if db, ok := newDatabaseForTest(t); ok {
		specs := []models.SensorSpec{
			{Label: "firmware", TypeOfMeasurement: "text", Unit: ""},
			{Label: "1", TypeOfMeasurement: "temperature", Unit: "oC"},
			{Label: "HK-Bat", TypeOfMeasurement: "voltage", Unit: "V"},
		}

		device, sensors, err := db.CreateDeviceWithSensors("SN-100", "GP5W-Shaft-1", "", specs)
		if err != nil {
			t.Error("CreateDeviceWithSensors failed:", err.Error())
			return
		}

		if len(sensors) != 3 {
			t.Error("Wrong sensor count:", len(sensors))
		}

		stored, err := db.GetSensorsFromDeviceID(device.ID)
		if err != nil {
			t.Error("GetSensorsFromDeviceID failed:", err.Error())
			return
		}

		for idx := range specs {
			if stored[idx].Label != specs[idx].Label {
				t.Errorf("Sensor %d out of order: %s != %s", idx, stored[idx].Label, specs[idx].Label)
			}
			if stored[idx].DeviceID != device.ID {
				t.Error("Sensor is not associated with its device")
			}
		}
	}
}

func TestFailedSensorInsertRollsBackTheDevice(t *testing.T) {
	if db, ok := newDatabaseForTest(t); ok {
		specs := []models.SensorSpec{
			{Label: "1", TypeOfMeasurement: "temperature", Unit: "oC"},
			{Label: "2", TypeOfMeasurement: "humidity", Unit: "%"},
		}

		_, _, err := db.CreateDeviceWithSensors("SN-ROLLBACK", "GP5W-Shaft-1", "", specs)
		if err == nil {
			t.Error("Expected the check constraint to reject the second sensor")
			return
		}

		persistence := &models.PersistenceError{}
		if !errors.As(err, &persistence) {
			t.Error("Expected a PersistenceError, got:", err)
		}

		devices, err := db.GetDevices()
		if err != nil {
			t.Error("GetDevices failed:", err.Error())
			return
		}

		for _, device := range devices {
			if device.SerialNumber == "SN-ROLLBACK" {
				t.Error("Device row survived a failed sensor insert")
			}
		}
	}
}

func TestAddDeviceLocationFailsWhenDeviceIsMissing(t *testing.T) {
	if db, ok := newDatabaseForTest(t); ok {
		location, err := db.CreateLocation("site-orphan", "", 68.3, -133.7, nil)
		if err != nil {
			t.Error("CreateLocation failed:", err.Error())
			return
		}

		_, err = db.AddDeviceLocation(time.Now(), uuid.NewString(), location.ID, "")

		notFound := &models.NotFoundError{}
		if !errors.As(err, &notFound) {
			t.Error("Expected a NotFoundError, got:", err)
			return
		}

		if notFound.Entity != "device" {
			t.Error("Wrong entity in NotFoundError:", notFound.Entity)
		}
	}
}

func TestAddDeviceLocationFailsWhenLocationIsMissing(t *testing.T) {
	if db, ok := newDatabaseForTest(t); ok {
		device, _, err := db.CreateDeviceWithSensors("SN-101", "T-Probe", "", nil)
		if err != nil {
			t.Error("CreateDeviceWithSensors failed:", err.Error())
			return
		}

		_, err = db.AddDeviceLocation(time.Now(), device.ID, uuid.NewString(), "")

		notFound := &models.NotFoundError{}
		if !errors.As(err, &notFound) {
			t.Error("Expected a NotFoundError, got:", err)
			return
		}

		if notFound.Entity != "location" {
			t.Error("Wrong entity in NotFoundError:", notFound.Entity)
		}
	}
}

func TestAddDeviceLocationFailsOnMalformedIdentifier(t *testing.T) {
	if db, ok := newDatabaseForTest(t); ok {
		_, err := db.AddDeviceLocation(time.Now(), "not-a-uuid", uuid.NewString(), "")

		malformed := &models.MalformedIdentifierError{}
		if !errors.As(err, &malformed) {
			t.Error("Expected a MalformedIdentifierError, got:", err)
		}
	}
}

func TestAddDeviceLocationStoresTheSuppliedTimestamp(t *testing.T) {
	if db, ok := newDatabaseForTest(t); ok {
		device, _, err := db.CreateDeviceWithSensors("SN-102", "T-Probe", "", nil)
		if err != nil {
			t.Error("CreateDeviceWithSensors failed:", err.Error())
			return
		}

		location, err := db.CreateLocation("site-102", "", 61.1, -94.1, nil)
		if err != nil {
			t.Error("CreateLocation failed:", err.Error())
			return
		}

		timestamp := time.Date(2016, time.August, 21, 13, 37, 42, 123456000, time.UTC)
		deviceLocation, err := db.AddDeviceLocation(timestamp, device.ID, location.ID, "installed on ridge")
		if err != nil {
			t.Error("AddDeviceLocation failed:", err.Error())
			return
		}

		if !deviceLocation.Timestamp.Equal(timestamp) {
			t.Error("Timestamp was not stored as supplied:", deviceLocation.Timestamp)
		}
		if deviceLocation.DeviceID != device.ID || deviceLocation.LocationID != location.ID {
			t.Error("Assignment does not reference the supplied device and location")
		}
		if deviceLocation.Notes != "installed on ridge" {
			t.Error("Notes did not round trip:", deviceLocation.Notes)
		}
	}
}

func newDatabaseForTest(t *testing.T) (Datastore, bool) {
	log := logging.NewLogger()
	db, err := NewDatabaseConnection(NewSQLiteConnector(), log)

	if err != nil {
		t.Error(err.Error())
		return nil, false
	}

	return db, true
}
