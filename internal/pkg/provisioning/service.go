package provisioning

import (
	"github.com/fieldmon/sensordb-registry/internal/pkg/devicetypes"
	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/logging"
	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/repositories/database"
	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
)

//ProvisionedDevice is the complete result of a device creation: the device
//record together with its sensors in provisioning order. It is never
//partially populated; creation either yields all of it or fails.
type ProvisionedDevice struct {
	Device  models.Device
	Sensors []models.Sensor
}

//Service orchestrates device creation and sensor provisioning as one
//logical unit
type Service struct {
	db  database.Datastore
	log logging.Logger
}

//NewService returns a provisioning service backed by the given datastore
func NewService(db database.Datastore, log logging.Logger) *Service {
	return &Service{db: db, log: log}
}

//CreateDevice resolves the device type, persists the device and provisions
//its sensor channels inside a single unit of work. An unknown type name
//fails before any write is performed.
func (s *Service) CreateDevice(serialNumber, typeName, notes string) (*ProvisionedDevice, error) {
	deviceType, err := devicetypes.Lookup(typeName)
	if err != nil {
		s.log.Errorf("Cannot provision device %s: %s", serialNumber, err.Error())
		return nil, err
	}

	specs := Plan(deviceType)

	device, sensors, err := s.db.CreateDeviceWithSensors(serialNumber, deviceType.Name, notes, specs)
	if err != nil {
		s.log.Errorf("Failed to provision device %s: %s", serialNumber, err.Error())
		return nil, err
	}

	s.log.Infof("Provisioned device %s of type %s with %d sensors", device.ID, deviceType.Name, len(sensors))

	return &ProvisionedDevice{
		Device:  *device,
		Sensors: sensors,
	}, nil
}
