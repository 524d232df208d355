package provisioning

import (
	"strconv"

	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
)

//Plan computes the sensor channels a device of the given type receives, in
//provisioning order: firmware channel first when present, then the notes
//channel, then temperature channels labeled "1".."N", then voltage channels
//labeled "HK-Bat", "HK-Bat1", and so on. Plan is a pure function of the
//device type and performs no persistence.
func Plan(deviceType models.DeviceType) []models.SensorSpec {
	specs := []models.SensorSpec{}

	if deviceType.IncludesFirmware {
		specs = append(specs, models.SensorSpec{
			Label:             "firmware",
			TypeOfMeasurement: "text",
			Unit:              "",
		})
	}

	if deviceType.IncludesNotes {
		specs = append(specs, models.SensorSpec{
			Label:             "notes",
			TypeOfMeasurement: "text",
			Unit:              "",
		})
	}

	for index := 0; index < deviceType.TempChannelCount; index++ {
		specs = append(specs, models.SensorSpec{
			Label:             strconv.Itoa(index + 1),
			TypeOfMeasurement: "temperature",
			Unit:              "oC",
		})
	}

	for index := 0; index < deviceType.VoltageChannelCount; index++ {
		label := "HK-Bat"
		if index > 0 {
			label += strconv.Itoa(index)
		}

		specs = append(specs, models.SensorSpec{
			Label:             label,
			TypeOfMeasurement: "voltage",
			Unit:              "V",
		})
	}

	return specs
}
