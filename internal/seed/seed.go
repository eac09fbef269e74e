// Package seed materializes realistic demo data into a fresh station:
// faker-driven identity variables and connector types, the same role
// the teacher's bootNotification/charging_scenario fakery played for
// OCPP 1.6 BootNotification fields.
package seed

import (
	"strconv"

	"github.com/go-faker/faker/v4"

	"github.com/ahoi-energy/devicemodelsim/internal/devicemodel"
)

var connectorTypes = []string{"cCCS1", "cCCS2", "cType2", "cG105"}

// Identity materializes Model/VendorName/SerialNumber/FirmwareVersion
// into the station's ConfigurationKey Store ahead of the self-check
// (§4.5.3), so a demo station reports plausible identity data instead
// of the registry's generic fallback defaults.
func Identity(station devicemodel.StationContext) error {
	store := station.Store()

	entries := map[string]string{
		"VendorName":      "vendor_" + faker.CCNumber(),
		"Model":           faker.FirstName() + "-" + faker.LastName(),
		"SerialNumber":    faker.CCNumber(),
		"FirmwareVersion": "v1.0.0",
	}

	for key, value := range entries {
		err := store.Add(station, key, value, devicemodel.ConfigurationKeyEntry{
			ReadOnly: true,
			Visible:  true,
		}, false)
		if err != nil {
			return err
		}
	}
	return nil
}

// ConnectorTypes assigns a random plug type to every Connector of
// every EVSE, via the Manager's ordinary setVariable path (ConnectorType
// is Volatile, see registry.go).
func ConnectorTypes(manager *devicemodel.Manager, station devicemodel.StationContext) {
	for _, evseID := range station.EVSEIDs() {
		for _, connID := range station.ConnectorIDs(evseID) {
			idx, err := faker.RandomInt(0, len(connectorTypes)-1, 1)
			if err != nil || len(idx) == 0 {
				continue
			}
			manager.SetVariable(station, devicemodel.SetVariableData{
				Component:      devicemodel.Component{Name: devicemodel.ComponentConnector, Instance: strconv.Itoa(connID)},
				Variable:       devicemodel.Variable{Name: "ConnectorType"},
				AttributeType:  devicemodel.AttributeActual,
				AttributeValue: connectorTypes[idx[0]],
			})
		}
	}
}
