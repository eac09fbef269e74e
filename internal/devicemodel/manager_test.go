package devicemodel

import "testing"

func minimalRegistry(entries ...VariableMetadata) *Registry {
	return NewRegistry(entries)
}

func TestValidatePersistentMappingsMaterializesDefault(t *testing.T) {
	reg := minimalRegistry(VariableMetadata{
		Component:           ComponentAuthCtrlr,
		Variable:            "AuthorizeRemoteStart",
		DataType:            DataTypeBoolean,
		Mutability:          MutabilityReadWrite,
		Persistence:         PersistencePersistent,
		SupportedAttributes: []AttributeKind{AttributeActual},
		HasDefault:          true,
		DefaultValue:        "true",
	})
	m := NewManager(reg)
	st := newMockStation(newMockStore())

	m.ValidatePersistentMappings(st)

	entry, ok := st.store.Get(st, "AuthorizeRemoteStart")
	if !ok || entry.Value != "true" {
		t.Fatalf("Get(AuthorizeRemoteStart) = %+v, %v; want materialized default %q", entry, ok, "true")
	}
	if len(m.invalidVariables) != 0 {
		t.Fatalf("invalidVariables = %v, want empty", m.invalidVariables)
	}
}

func TestValidatePersistentMappingsMarksInvalidWithoutDefault(t *testing.T) {
	reg := minimalRegistry(VariableMetadata{
		Component:           ComponentSecurityCtrlr,
		Variable:            "NoDefaultThing",
		DataType:            DataTypeString,
		Mutability:          MutabilityReadWrite,
		Persistence:         PersistencePersistent,
		SupportedAttributes: []AttributeKind{AttributeActual},
	})
	m := NewManager(reg)
	st := newMockStation(newMockStore())

	m.ValidatePersistentMappings(st)

	key := BuildCompositeKey(Component{Name: ComponentSecurityCtrlr}, Variable{Name: "NoDefaultThing"})
	if _, invalid := m.invalidVariables[key]; !invalid {
		t.Fatalf("expected %q to be marked invalid", key)
	}

	result := m.GetVariable(st, GetVariableData{
		Component: Component{Name: ComponentSecurityCtrlr},
		Variable:  Variable{Name: "NoDefaultThing"},
	})
	if result.Status != StatusRejected || result.ReasonCode != ReasonInternalError {
		t.Fatalf("GetVariable on invalid variable = %+v, want Rejected/InternalError", result)
	}
}

func TestValidatePersistentMappingsAllowsSizeControlAbsence(t *testing.T) {
	reg := minimalRegistry(VariableMetadata{
		Component:           ComponentDeviceDataCtrlr,
		Variable:            VarValueSize,
		DataType:            DataTypeInteger,
		Mutability:          MutabilityReadWrite,
		Persistence:         PersistencePersistent,
		SupportedAttributes: []AttributeKind{AttributeActual},
	})
	m := NewManager(reg)
	st := newMockStation(newMockStore())

	m.ValidatePersistentMappings(st)

	if len(m.invalidVariables) != 0 {
		t.Fatalf("size-control variable missing default should not be invalid, got %v", m.invalidVariables)
	}
}

func TestValidatePersistentMappingsAllowsInstanceScopedAbsence(t *testing.T) {
	reg := minimalRegistry(VariableMetadata{
		Component:           ComponentOCPPCommCtrlr,
		Variable:            "MessageAttemptInterval",
		VarInstance:         "TransactionEvent",
		DataType:            DataTypeInteger,
		Mutability:          MutabilityReadWrite,
		Persistence:         PersistencePersistent,
		SupportedAttributes: []AttributeKind{AttributeActual},
	})
	m := NewManager(reg)
	st := newMockStation(newMockStore())

	m.ValidatePersistentMappings(st)

	if len(m.invalidVariables) != 0 {
		t.Fatalf("instance-scoped variable missing default should not be invalid, got %v", m.invalidVariables)
	}
}

func TestValidatePersistentMappingsIdempotent(t *testing.T) {
	reg := DefaultRegistry()
	m := NewManager(reg)
	st := newMockStation(newMockStore())

	m.ValidatePersistentMappings(st)
	first := len(m.invalidVariables)
	m.ValidatePersistentMappings(st)
	second := len(m.invalidVariables)

	if first != second {
		t.Fatalf("self-check not idempotent: %d invalid then %d invalid", first, second)
	}
}

func TestGetVariableUnknownComponent(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())

	result := m.GetVariable(st, GetVariableData{
		Component: Component{Name: "NotARealComponent"},
		Variable:  Variable{Name: "Whatever"},
	})
	if result.Status != StatusUnknownComponent || result.ReasonCode != ReasonNotFound {
		t.Fatalf("result = %+v, want UnknownComponent/NotFound", result)
	}
}

func TestGetVariableUnknownVariable(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())

	result := m.GetVariable(st, GetVariableData{
		Component: Component{Name: ComponentAuthCtrlr},
		Variable:  Variable{Name: "NoSuchVariable"},
	})
	if result.Status != StatusUnknownVariable || result.ReasonCode != ReasonNotFound {
		t.Fatalf("result = %+v, want UnknownVariable/NotFound", result)
	}
}

func TestGetVariableWriteOnlyActualRejected(t *testing.T) {
	reg := minimalRegistry(VariableMetadata{
		Component:           ComponentSecurityCtrlr,
		Variable:            "Secret",
		DataType:            DataTypeString,
		Mutability:          MutabilityWriteOnly,
		Persistence:         PersistenceVolatile,
		SupportedAttributes: []AttributeKind{AttributeActual},
	})
	m := NewManager(reg)
	st := newMockStation(newMockStore())

	result := m.GetVariable(st, GetVariableData{
		Component: Component{Name: ComponentSecurityCtrlr},
		Variable:  Variable{Name: "Secret"},
	})
	if result.Status != StatusRejected || result.ReasonCode != ReasonWriteOnly {
		t.Fatalf("result = %+v, want Rejected/WriteOnly", result)
	}
}

func TestGetVariableUnsupportedAttribute(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())

	result := m.GetVariable(st, GetVariableData{
		Component:     Component{Name: ComponentAuthCtrlr},
		Variable:      Variable{Name: "AuthorizeRemoteStart"},
		AttributeType: AttributeTarget,
	})
	if result.Status != StatusNotSupportedAttributeType || result.ReasonCode != ReasonUnsupportedParam {
		t.Fatalf("result = %+v, want NotSupportedAttributeType/UnsupportedParam", result)
	}
}

func TestGetVariableCaseInsensitiveRoundTrip(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	lower := m.GetVariable(st, GetVariableData{
		Component: Component{Name: "authctrlr"},
		Variable:  Variable{Name: "authorizeRemoteStart"},
	})
	upper := m.GetVariable(st, GetVariableData{
		Component: Component{Name: "AuthCtrlr"},
		Variable:  Variable{Name: "AuthorizeRemoteStart"},
	})

	if lower.Status != StatusAccepted || upper.Status != StatusAccepted {
		t.Fatalf("expected both lookups accepted, got %+v and %+v", lower, upper)
	}
	if lower.AttributeValue != upper.AttributeValue {
		t.Fatalf("case-insensitive round trip mismatch: %q vs %q", lower.AttributeValue, upper.AttributeValue)
	}
}

func TestSetVariableReadOnlyRejected(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	result := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentChargingStation},
		Variable:       Variable{Name: "Model"},
		AttributeType:  AttributeActual,
		AttributeValue: "NewModel",
	})
	if result.Status != StatusRejected || result.ReasonCode != ReasonReadOnly {
		t.Fatalf("result = %+v, want Rejected/ReadOnly", result)
	}
}

func TestSetVariableBooleanInvalid(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	result := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentAuthCtrlr},
		Variable:       Variable{Name: "AuthorizeRemoteStart"},
		AttributeType:  AttributeActual,
		AttributeValue: "maybe",
	})
	if result.Status != StatusRejected || result.ReasonCode != ReasonInvalidValue {
		t.Fatalf("result = %+v, want Rejected/InvalidValue", result)
	}
	want := `AuthorizeRemoteStart must be "true" or "false"`
	if result.AdditionalInfo != want {
		t.Fatalf("AdditionalInfo = %q, want %q", result.AdditionalInfo, want)
	}
}

func TestSetVariableMinMaxSetOrdering(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	minResult := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentOCPPCommCtrlr},
		Variable:       Variable{Name: "HeartbeatInterval"},
		AttributeType:  AttributeMinSet,
		AttributeValue: "30",
	})
	if minResult.Status != StatusAccepted {
		t.Fatalf("MinSet=30 result = %+v, want Accepted", minResult)
	}

	maxResult := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentOCPPCommCtrlr},
		Variable:       Variable{Name: "HeartbeatInterval"},
		AttributeType:  AttributeMaxSet,
		AttributeValue: "20",
	})
	if maxResult.Status != StatusRejected || maxResult.ReasonCode != ReasonInvalidValue {
		t.Fatalf("MaxSet=20 result = %+v, want Rejected/InvalidValue", maxResult)
	}
	want := "MaxSet lower than MinSet"
	if maxResult.AdditionalInfo != want {
		t.Fatalf("AdditionalInfo = %q, want %q", maxResult.AdditionalInfo, want)
	}
}

func TestSetVariableIdempotence(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	req := SetVariableData{
		Component:      Component{Name: ComponentAuthCtrlr},
		Variable:       Variable{Name: "LocalPreAuthorize"},
		AttributeType:  AttributeActual,
		AttributeValue: "true",
	}
	first := m.SetVariable(st, req)
	second := m.SetVariable(st, req)

	if first.Status != StatusAccepted || second.Status != StatusAccepted {
		t.Fatalf("both sets should be Accepted, got %+v then %+v", first, second)
	}
	if second.Status == StatusRebootRequired {
		t.Fatalf("second identical set must not report RebootRequired")
	}
}

func TestSetVariableTooLargeElement(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	_ = st.store.Add(st, "ConfigurationValueSize", "5", ConfigurationKeyEntry{Visible: true}, true)

	result := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentClockCtrlr},
		Variable:       Variable{Name: "TimeSource"},
		AttributeType:  AttributeActual,
		AttributeValue: "Heartbeat,NTP",
	})
	if result.Status != StatusRejected || result.ReasonCode != ReasonTooLargeElement {
		t.Fatalf("result = %+v, want Rejected/TooLargeElement", result)
	}
}

func TestSetVariableRebootRequiredOnChange(t *testing.T) {
	reg := minimalRegistry(VariableMetadata{
		Component:           ComponentSecurityCtrlr,
		Variable:            "SecurityProfile",
		DataType:            DataTypeInteger,
		Mutability:          MutabilityReadWrite,
		Persistence:         PersistencePersistent,
		SupportedAttributes: []AttributeKind{AttributeActual},
		RebootRequired:      true,
		HasDefault:          true,
		DefaultValue:        "0",
	})
	m := NewManager(reg)
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	result := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentSecurityCtrlr},
		Variable:       Variable{Name: "SecurityProfile"},
		AttributeType:  AttributeActual,
		AttributeValue: "1",
	})
	if result.Status != StatusRebootRequired {
		t.Fatalf("result = %+v, want RebootRequired", result)
	}

	second := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentSecurityCtrlr},
		Variable:       Variable{Name: "SecurityProfile"},
		AttributeType:  AttributeActual,
		AttributeValue: "1",
	})
	if second.Status != StatusAccepted {
		t.Fatalf("unchanged re-set result = %+v, want Accepted (no reboot on no-op set)", second)
	}
}

func TestSetVariableHeartbeatSideEffect(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentOCPPCommCtrlr},
		Variable:       Variable{Name: "HeartbeatInterval"},
		AttributeType:  AttributeActual,
		AttributeValue: "45",
	})

	if len(st.restartedHeartbeat) != 1 || st.restartedHeartbeat[0] != 45 {
		t.Fatalf("restartedHeartbeat = %v, want [45]", st.restartedHeartbeat)
	}
}

func TestSetVariableWebSocketPingSideEffect(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentOCPPCommCtrlr},
		Variable:       Variable{Name: "WebSocketPingInterval"},
		AttributeType:  AttributeActual,
		AttributeValue: "0",
	})

	if len(st.restartedWSPing) != 1 || st.restartedWSPing[0] != 0 {
		t.Fatalf("restartedWSPing = %v, want [0]", st.restartedWSPing)
	}
}

func TestGetVariableMinMaxSetFallsBackToStaticBound(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	result := m.GetVariable(st, GetVariableData{
		Component:     Component{Name: ComponentOCPPCommCtrlr},
		Variable:      Variable{Name: "HeartbeatInterval"},
		AttributeType: AttributeMaxSet,
	})
	if result.Status != StatusAccepted || result.AttributeValue != "86400" {
		t.Fatalf("result = %+v, want Accepted with static max 86400", result)
	}
}

func TestSetVariableActiveBoundsEnforcedOnActualWrite(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentOCPPCommCtrlr},
		Variable:       Variable{Name: "HeartbeatInterval"},
		AttributeType:  AttributeMaxSet,
		AttributeValue: "100",
	})

	result := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentOCPPCommCtrlr},
		Variable:       Variable{Name: "HeartbeatInterval"},
		AttributeType:  AttributeActual,
		AttributeValue: "200",
	})
	if result.Status != StatusRejected || result.ReasonCode != ReasonValueTooHigh {
		t.Fatalf("result = %+v, want Rejected/ValueTooHigh (active MaxSet override)", result)
	}
}

func TestWriteOnlyVariableClearsInvalidFlag(t *testing.T) {
	reg := minimalRegistry(VariableMetadata{
		Component:           ComponentSecurityCtrlr,
		Variable:            "Secret",
		DataType:            DataTypeString,
		Mutability:          MutabilityWriteOnly,
		Persistence:         PersistenceVolatile,
		SupportedAttributes: []AttributeKind{AttributeActual},
	})
	m := NewManager(reg)
	st := newMockStation(newMockStore())

	key := BuildCompositeKey(Component{Name: ComponentSecurityCtrlr}, Variable{Name: "Secret"})
	m.invalidVariables[key] = struct{}{}

	result := m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentSecurityCtrlr},
		Variable:       Variable{Name: "Secret"},
		AttributeType:  AttributeActual,
		AttributeValue: "hunter2",
	})
	if result.Status != StatusAccepted {
		t.Fatalf("result = %+v, want Accepted", result)
	}
	if _, invalid := m.invalidVariables[key]; invalid {
		t.Fatalf("expected invalid flag cleared after successful WriteOnly set")
	}
}

func TestResetRuntimeOverrides(t *testing.T) {
	m := NewManager(DefaultRegistry())
	st := newMockStation(newMockStore())
	m.ValidatePersistentMappings(st)

	m.SetVariable(st, SetVariableData{
		Component:      Component{Name: ComponentTxCtrlr},
		Variable:       Variable{Name: "TxUpdatedInterval"},
		AttributeType:  AttributeActual,
		AttributeValue: "15",
	})
	if len(m.runtimeOverrides) == 0 {
		t.Fatalf("expected a runtime override to be recorded")
	}

	m.ResetRuntimeOverrides()
	if len(m.runtimeOverrides) != 0 {
		t.Fatalf("runtimeOverrides = %v, want empty after reset", m.runtimeOverrides)
	}
}
