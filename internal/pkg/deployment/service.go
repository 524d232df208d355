package deployment

import (
	"time"

	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/logging"
	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/repositories/database"
	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
	"github.com/google/uuid"
)

//Service records timestamped device to location assignments. Assignments
//are append only and form the deployment history of a device.
type Service struct {
	db  database.Datastore
	log logging.Logger
}

//NewService returns an assignment service backed by the given datastore
func NewService(db database.Datastore, log logging.Logger) *Service {
	return &Service{db: db, log: log}
}

//Assign validates the referenced identifiers and records that the device
//was placed at the location as of the supplied timestamp. Both references
//must resolve to exactly one stored record; the datastore re-validates this
//on the same snapshot as the insert.
func (s *Service) Assign(timestamp time.Time, deviceID, locationID, notes string) (*models.DeviceLocation, error) {
	if _, err := uuid.Parse(deviceID); err != nil {
		return nil, &models.MalformedIdentifierError{ID: deviceID}
	}
	if _, err := uuid.Parse(locationID); err != nil {
		return nil, &models.MalformedIdentifierError{ID: locationID}
	}

	deviceLocation, err := s.db.AddDeviceLocation(timestamp, deviceID, locationID, notes)
	if err != nil {
		s.log.Errorf("Failed to assign device %s to location %s: %s", deviceID, locationID, err.Error())
		return nil, err
	}

	s.log.Infof("Assigned device %s to location %s as of %s", deviceID, locationID, timestamp.UTC().Format(time.RFC3339))

	return deviceLocation, nil
}
