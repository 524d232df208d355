package devicetypes

import (
	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
)

//The device type catalog is a fixed data table loaded once at startup.
//Each entry describes which sensor channels a device of that type exposes.
var catalog = []models.DeviceType{
	{Name: "GP5W-Shaft-1", IncludesFirmware: true, IncludesNotes: true, TempChannelCount: 1, VoltageChannelCount: 1},
	{Name: "GP5W-Shaft-3", IncludesFirmware: true, IncludesNotes: true, TempChannelCount: 3, VoltageChannelCount: 1},
	{Name: "GP5W-Shaft-6", IncludesFirmware: true, IncludesNotes: true, TempChannelCount: 6, VoltageChannelCount: 1},
	{Name: "M-Log5W-Rock", IncludesFirmware: true, IncludesNotes: true, TempChannelCount: 1, VoltageChannelCount: 1},
	{Name: "M-Log5W-Cable", IncludesFirmware: true, IncludesNotes: true, TempChannelCount: 2, VoltageChannelCount: 1},
	{Name: "LogBox-AA", IncludesFirmware: false, IncludesNotes: true, TempChannelCount: 4, VoltageChannelCount: 2},
	{Name: "T-Probe", IncludesFirmware: false, IncludesNotes: false, TempChannelCount: 1, VoltageChannelCount: 0},
}

//Lookup resolves a device type by exact name match
func Lookup(name string) (models.DeviceType, error) {
	for _, deviceType := range catalog {
		if deviceType.Name == name {
			return deviceType, nil
		}
	}

	return models.DeviceType{}, &models.UnknownDeviceTypeError{Name: name}
}

//List returns all known device types in a stable, deterministic order
func List() []models.DeviceType {
	types := make([]models.DeviceType, len(catalog))
	copy(types, catalog)
	return types
}
