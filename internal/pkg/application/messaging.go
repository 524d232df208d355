package application

import (
	"time"

	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/logging"
	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
)

//deviceRegisteredMessage is published after a device and its sensor set
//have been provisioned
type deviceRegisteredMessage struct {
	DeviceID     string `json:"device_id"`
	SerialNumber string `json:"serialNumber"`
	DeviceType   string `json:"device_type"`
}

func (m *deviceRegisteredMessage) ContentType() string {
	return "application/json"
}

func (m *deviceRegisteredMessage) TopicName() string {
	return "device.registered"
}

//deviceDeployedMessage is published after a deployment history entry has
//been recorded
type deviceDeployedMessage struct {
	DeviceID   string `json:"device_id"`
	LocationID string `json:"location_id"`
	Timestamp  string `json:"timestamp"`
}

func (m *deviceDeployedMessage) ContentType() string {
	return "application/json"
}

func (m *deviceDeployedMessage) TopicName() string {
	return "device.deployed"
}

//A nil messenger disables publication; registry operations never fail
//because the message broker is unavailable.
func publishDeviceRegistered(log logging.Logger, messenger MessagingContext, device *models.Device) {
	if messenger == nil {
		return
	}

	err := messenger.PublishOnTopic(&deviceRegisteredMessage{
		DeviceID:     device.ID,
		SerialNumber: device.SerialNumber,
		DeviceType:   device.DeviceType,
	})
	if err != nil {
		log.Errorf("Failed to publish device.registered for %s: %s", device.ID, err.Error())
	}
}

func publishDeviceDeployed(log logging.Logger, messenger MessagingContext, deviceLocation *models.DeviceLocation) {
	if messenger == nil {
		return
	}

	err := messenger.PublishOnTopic(&deviceDeployedMessage{
		DeviceID:   deviceLocation.DeviceID,
		LocationID: deviceLocation.LocationID,
		Timestamp:  deviceLocation.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Errorf("Failed to publish device.deployed for %s: %s", deviceLocation.DeviceID, err.Error())
	}
}
