package deployment

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/logging"
	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/repositories/database"
	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

func TestAssignRecordsDeploymentHistory(t *testing.T) {
	if svc, db, ok := newServiceForTest(t); ok {
		device, _, err := db.CreateDeviceWithSensors("SN-200", "T-Probe", "", nil)
		if err != nil {
			t.Error("CreateDeviceWithSensors failed:", err.Error())
			return
		}

		location, err := db.CreateLocation("ridge-200", "", 68.3, -133.7, nil)
		if err != nil {
			t.Error("CreateLocation failed:", err.Error())
			return
		}

		first := time.Date(2016, time.June, 1, 9, 0, 0, 0, time.UTC)
		second := time.Date(2017, time.June, 1, 9, 0, 0, 0, time.UTC)

		_, err = svc.Assign(first, device.ID, location.ID, "initial deployment")
		if err != nil {
			t.Error("Assign failed:", err.Error())
			return
		}

		assignment, err := svc.Assign(second, device.ID, location.ID, "redeployed after service")
		if err != nil {
			t.Error("Assign failed:", err.Error())
			return
		}

		if !assignment.Timestamp.Equal(second) {
			t.Error("Assignment does not carry the supplied timestamp:", assignment.Timestamp)
		}
		if assignment.DeviceID != device.ID || assignment.LocationID != location.ID {
			t.Error("Assignment does not reference the supplied device and location")
		}
		if assignment.Notes != "redeployed after service" {
			t.Error("Notes did not round trip:", assignment.Notes)
		}
	}
}

func TestAssignFailsOnMalformedDeviceIdentifier(t *testing.T) {
	if svc, _, ok := newServiceForTest(t); ok {
		_, err := svc.Assign(time.Now(), "not-a-uuid", uuid.NewString(), "")

		malformed := &models.MalformedIdentifierError{}
		if !errors.As(err, &malformed) {
			t.Error("Expected a MalformedIdentifierError, got:", err)
		}
	}
}

func TestAssignFailsWhenDeviceDoesNotExist(t *testing.T) {
	if svc, db, ok := newServiceForTest(t); ok {
		location, err := db.CreateLocation("ridge-201", "", 68.3, -133.7, nil)
		if err != nil {
			t.Error("CreateLocation failed:", err.Error())
			return
		}

		_, err = svc.Assign(time.Now(), uuid.NewString(), location.ID, "")

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

func TestAssignFailsWhenLocationDoesNotExist(t *testing.T) {
	if svc, db, ok := newServiceForTest(t); ok {
		device, _, err := db.CreateDeviceWithSensors("SN-201", "T-Probe", "", nil)
		if err != nil {
			t.Error("CreateDeviceWithSensors failed:", err.Error())
			return
		}

		_, err = svc.Assign(time.Now(), device.ID, uuid.NewString(), "")

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

func newServiceForTest(t *testing.T) (*Service, database.Datastore, bool) {
	log := logging.NewLogger()
	db, err := database.NewDatabaseConnection(database.NewSQLiteConnector(), log)

	if err != nil {
		t.Error(err.Error())
		return nil, nil, false
	}

	return NewService(db, log), db, true
}
