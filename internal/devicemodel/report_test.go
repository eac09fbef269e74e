package devicemodel

import "testing"

func TestBuildBaseReportConfigurationInventoryContainsHeartbeatInterval(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	report := m.BuildBaseReport(st, ReportConfigurationInventory)
	if report.ReportID == "" {
		t.Fatalf("expected a non-empty ReportID")
	}

	found := false
	for _, e := range report.Entries {
		if e.Component.Name == ComponentOCPPCommCtrlr && e.Variable.Name == "HeartbeatInterval" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ConfigurationInventory missing OCPPCommCtrlr/HeartbeatInterval entry")
	}
}

func TestBuildBaseReportUnknownReportBaseIsEmpty(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	report := m.BuildBaseReport(st, ReportBase("UnsupportedReportBase"))
	if len(report.Entries) != 0 {
		t.Fatalf("len(Entries) = %d, want 0 for unknown reportBase", len(report.Entries))
	}
}

func TestBuildBaseReportConfigurationInventoryEmptyWithNoKeysOrEVSEs(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	// Deliberately skip ValidatePersistentMappings so nothing is
	// materialized into the store (§8 scenario 3).

	report := m.BuildBaseReport(st, ReportConfigurationInventory)
	if len(report.Entries) != 0 {
		t.Fatalf("len(Entries) = %d, want 0 with an empty store and no EVSEs", len(report.Entries))
	}
}

func TestBuildBaseReportValueTruncatedByReportingValueSize(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentDeviceDataCtrlr},
		Variable:       Variable{Name: VarReportingValueSize},
		AttributeType:  AttributeActual,
		AttributeValue: "10",
	})

	stored := "Heartbeat,NTP,GPS,RealTimeClock,MobileNetwork,RadioTimeTransmitter"
	setResult := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentClockCtrlr},
		Variable:       Variable{Name: "TimeSource"},
		AttributeType:  AttributeActual,
		AttributeValue: stored,
	})
	if setResult.Status != StatusAccepted {
		t.Fatalf("SetVariable(TimeSource) = %+v, want Accepted", setResult)
	}

	report := m.BuildBaseReport(st, ReportFullInventory)
	var value string
	found := false
	for _, e := range report.Entries {
		if e.Component.Name == ComponentClockCtrlr && e.Variable.Name == "TimeSource" {
			for _, attr := range e.Attributes {
				if attr.Type == AttributeActual {
					value = attr.Value
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("FullInventory missing ClockCtrlr/TimeSource entry")
	}
	if len(value) != 10 {
		t.Fatalf("len(value) = %d, want 10; value = %q", len(value), value)
	}
	if stored[:10] != value {
		t.Fatalf("value = %q, want prefix %q", value, stored[:10])
	}
}

func TestBuildBaseReportTopologyEntriesWhenEVSEsExist(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	st.evseIDs = []int{1}
	st.connectorsByEVSE[1] = []int{1, 2}
	st.availability["evse/1"] = "Operative"
	st.availability["connector/1"] = "Operative"
	st.availability["connector/2"] = "Inoperative"
	m.ValidatePersistentMappings(st)

	report := m.BuildBaseReport(st, ReportFullInventory)

	evseFound, connFound := false, false
	for _, e := range report.Entries {
		if e.Component.Name == ComponentEVSE && e.Component.Instance == "1" {
			evseFound = true
		}
		if e.Component.Name == ComponentConnector && e.Component.Instance == "2" {
			connFound = true
		}
	}
	if !evseFound || !connFound {
		t.Fatalf("FullInventory missing topology entries: %+v", report.Entries)
	}
}

func TestBuildBaseReportAlwaysActualOnlyForBooleanAndSizeVariables(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	report := m.BuildBaseReport(st, ReportFullInventory)
	for _, e := range report.Entries {
		if e.Variable.Name == "AuthorizeRemoteStart" || e.Variable.Name == VarReportingValueSize {
			if len(e.Attributes) != 1 || e.Attributes[0].Type != AttributeActual {
				t.Fatalf("%s attributes = %+v, want exactly [Actual]", e.Variable.Name, e.Attributes)
			}
		}
	}
}
