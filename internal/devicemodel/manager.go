package devicemodel

import (
	"strconv"
	"sync"
)

// Manager owns the override maps and self-check set of §3 and
// implements the getVariable/setVariable contracts of §4.5. Per §9 it
// is constructible rather than a bare global — Default() below offers
// the original process-singleton shape as a convenience only.
type Manager struct {
	registry *Registry

	invalidVariables map[string]struct{}
	runtimeOverrides map[string]string
	minSetOverrides  map[string]string
	maxSetOverrides  map[string]string

	selfCheckDone map[StationContext]bool
}

// NewManager builds a Manager over the given Registry. Pass
// DefaultRegistry() for the standard OCPP 2.0.1 catalog.
func NewManager(registry *Registry) *Manager {
	return &Manager{
		registry:         registry,
		invalidVariables: make(map[string]struct{}),
		runtimeOverrides: make(map[string]string),
		minSetOverrides:  make(map[string]string),
		maxSetOverrides:  make(map[string]string),
		selfCheckDone:    make(map[StationContext]bool),
	}
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// Default lazily builds the process-wide convenience Manager over
// DefaultRegistry(). The sync.Once guards one-time construction only;
// per §5 the Manager itself performs no internal locking once built.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager(DefaultRegistry())
	})
	return defaultManager
}

// ResetRuntimeOverrides clears the volatile override map (§4.5.4),
// used by tests and station reboots.
func (m *Manager) ResetRuntimeOverrides() {
	m.runtimeOverrides = make(map[string]string)
}

// RegistryEntries exposes the Manager's static Registry entries, used
// by the control server's /registry dump.
func (m *Manager) RegistryEntries() []VariableMetadata {
	return m.registry.All()
}

// ValidatePersistentMappings is the startup self-check of §4.5.3. It
// is idempotent and clears invalidVariables at entry.
func (m *Manager) ValidatePersistentMappings(station StationContext) {
	m.invalidVariables = make(map[string]struct{})

	store := station.Store()
	for _, meta := range m.registry.All() {
		if meta.Persistence != PersistencePersistent || meta.Mutability == MutabilityWriteOnly {
			continue
		}

		keyName := StoreKeyName(Variable{Name: meta.Variable, Instance: meta.VarInstance}, meta.FlattenInstance)
		if _, found := store.Get(station, keyName); found {
			continue
		}

		if _, allowed := sizeControlVariables[meta.Variable]; allowed {
			continue
		}
		if meta.VarInstance != "" {
			continue // instance-scoped: lazy materialization (§4.5.3)
		}

		compositeKey := BuildCompositeKey(Component{Name: meta.Component}, Variable{Name: meta.Variable})
		if meta.HasDefault {
			_ = store.Add(station, keyName, meta.DefaultValue, ConfigurationKeyEntry{
				Key:      keyName,
				Value:    meta.DefaultValue,
				ReadOnly: meta.Mutability == MutabilityReadOnly,
				Visible:  true,
				Reboot:   meta.RebootRequired,
			}, false)
			logDefaultMaterialized(station, meta)
		} else {
			m.invalidVariables[compositeKey] = struct{}{}
			logInvalidVariable(station, meta)
		}
	}

	m.selfCheckDone[station] = true
}

func (m *Manager) ensureSelfCheck(station StationContext) {
	if !m.selfCheckDone[station] {
		m.ValidatePersistentMappings(station)
	}
}

// GetVariable implements the getVariable decision order of §4.5.1.
func (m *Manager) GetVariable(station StationContext, req GetVariableData) GetVariableResult {
	m.ensureSelfCheck(station)

	attr := req.AttributeType
	if attr == "" {
		attr = DefaultAttribute
	}

	result := GetVariableResult{
		Component:      req.Component,
		Variable:       req.Variable,
		AttributeType:  attr,
	}

	if !IsSupportedComponent(req.Component.Name) {
		result.Status = StatusUnknownComponent
		result.ReasonCode = ReasonNotFound
		return result
	}

	meta, found := m.registry.Lookup(req.Component.Name, req.Variable.Name, req.Variable.Instance)
	if !found {
		result.Status = StatusUnknownVariable
		result.ReasonCode = ReasonNotFound
		return result
	}

	if attr == AttributeActual && meta.Mutability == MutabilityWriteOnly {
		result.Status = StatusRejected
		result.ReasonCode = ReasonWriteOnly
		return result
	}

	if !meta.SupportsAttribute(attr) {
		result.Status = StatusNotSupportedAttributeType
		result.ReasonCode = ReasonUnsupportedParam
		return result
	}

	compositeKey := BuildCompositeKey(req.Component, req.Variable)
	if _, invalid := m.invalidVariables[compositeKey]; invalid {
		result.Status = StatusRejected
		result.ReasonCode = ReasonInternalError
		return result
	}

	if attr == AttributeMinSet || attr == AttributeMaxSet {
		value, ok := m.lookupBound(meta, compositeKey, attr)
		if !ok {
			result.Status = StatusNotSupportedAttributeType
			result.ReasonCode = ReasonUnsupportedParam
			return result
		}
		result.Status = StatusAccepted
		result.ReasonCode = ReasonNoError
		result.AttributeValue = value
		return result
	}

	value := ResolveValue(meta, req.Component, req.Variable, station, m.runtimeOverrides)

	if value == "" {
		if attr == AttributeTarget && meta.SupportsTarget {
			result.Status = StatusAccepted
			result.ReasonCode = ReasonNoError
			return result
		}
		result.Status = StatusRejected
		result.ReasonCode = ReasonInvalidValue
		return result
	}

	value = m.truncateForRead(station, value)

	result.Status = StatusAccepted
	result.ReasonCode = ReasonNoError
	result.AttributeValue = value
	return result
}

func (m *Manager) lookupBound(meta VariableMetadata, compositeKey string, attr AttributeKind) (string, bool) {
	overrides := m.minSetOverrides
	if attr == AttributeMaxSet {
		overrides = m.maxSetOverrides
	}
	if v, ok := overrides[compositeKey]; ok {
		return v, true
	}
	if attr == AttributeMinSet && meta.HasMin {
		return formatBound(meta.Min), true
	}
	if attr == AttributeMaxSet && meta.HasMax {
		return formatBound(meta.Max), true
	}
	return "", false
}

// truncateForRead applies the read-path truncation chain of §4.5.1
// step 10 / Invariant 6: ValueSize, then ReportingValueSize, then the
// absolute cap.
func (m *Manager) truncateForRead(station StationContext, value string) string {
	store := station.Store()
	if entry, ok := store.Get(station, VarValueSize); ok {
		if limit, err := strconv.Atoi(entry.Value); err == nil {
			value = EnforceReportingValueSize(value, limit)
		}
	}
	if entry, ok := store.Get(station, VarReportingValueSize); ok {
		if limit, err := strconv.Atoi(entry.Value); err == nil {
			value = EnforceReportingValueSize(value, limit)
		}
	}
	return EnforceReportingValueSize(value, OCPPValueAbsoluteMaxLength)
}

// effectiveWriteLimit implements Invariant 5: the smallest of the
// positive configured size-control variables, else the absolute cap,
// itself always a hard upper bound.
func (m *Manager) effectiveWriteLimit(station StationContext) int {
	limit := OCPPValueAbsoluteMaxLength
	store := station.Store()

	apply := func(keyName string) {
		entry, ok := store.Get(station, keyName)
		if !ok {
			return
		}
		n, err := strconv.Atoi(entry.Value)
		if err != nil || n <= 0 {
			return
		}
		if n < limit {
			limit = n
		}
	}
	apply(VarConfigurationValueSize)
	apply(VarValueSize)

	return limit
}

// SetVariable implements the setVariable decision order of §4.5.2.
func (m *Manager) SetVariable(station StationContext, req SetVariableData) SetVariableResult {
	attr := req.AttributeType
	if attr == "" {
		attr = DefaultAttribute
	}

	result := SetVariableResult{
		Component:     req.Component,
		Variable:      req.Variable,
		AttributeType: attr,
	}

	if !IsSupportedComponent(req.Component.Name) {
		result.Status = StatusUnknownComponent
		result.ReasonCode = ReasonNotFound
		return result
	}

	meta, found := m.registry.Lookup(req.Component.Name, req.Variable.Name, req.Variable.Instance)
	if !found {
		result.Status = StatusUnknownVariable
		result.ReasonCode = ReasonNotFound
		return result
	}

	if !meta.SupportsAttribute(attr) {
		result.Status = StatusNotSupportedAttributeType
		result.ReasonCode = ReasonUnsupportedParam
		return result
	}

	compositeKey := BuildCompositeKey(req.Component, req.Variable)

	if _, invalid := m.invalidVariables[compositeKey]; invalid && attr == AttributeActual && meta.Mutability != MutabilityWriteOnly {
		result.Status = StatusRejected
		result.ReasonCode = ReasonInternalError
		return result
	}

	if attr == AttributeMinSet || attr == AttributeMaxSet {
		return m.setBound(station, meta, req, compositeKey, attr, result)
	}

	// Actual write.
	if meta.Mutability == MutabilityReadOnly {
		result.Status = StatusRejected
		result.ReasonCode = ReasonReadOnly
		return result
	}

	limit := m.effectiveWriteLimit(station)
	if len([]rune(req.AttributeValue)) > limit {
		result.Status = StatusRejected
		result.ReasonCode = ReasonTooLargeElement
		return result
	}

	validation := Validate(meta, req.AttributeValue)
	if !validation.OK {
		result.Status = StatusRejected
		result.ReasonCode = validation.ReasonCode
		result.AdditionalInfo = validation.Info
		return result
	}

	if meta.DataType == DataTypeInteger {
		if v := m.enforceActiveBounds(meta, compositeKey, req.AttributeValue); v != nil {
			result.Status = StatusRejected
			result.ReasonCode = v.ReasonCode
			result.AdditionalInfo = v.Info
			return result
		}
	}

	previous := ResolveValue(meta, req.Component, req.Variable, station, m.runtimeOverrides)
	rebootFlag := meta.RebootRequired

	keyName := StoreKeyName(req.Variable, meta.FlattenInstance)
	if meta.Persistence == PersistencePersistent && meta.Mutability != MutabilityWriteOnly {
		if entry, existed := station.Store().Get(station, keyName); existed {
			rebootFlag = rebootFlag || entry.Reboot
		}
		if err := station.Store().SetValue(station, keyName, req.AttributeValue); err != nil {
			result.Status = StatusRejected
			result.ReasonCode = ReasonInternalError
			result.AdditionalInfo = truncateInfo(err.Error())
			return result
		}
	}
	if meta.Persistence == PersistenceVolatile && meta.Mutability != MutabilityReadOnly {
		m.runtimeOverrides[compositeKey] = req.AttributeValue
	}

	if meta.Mutability == MutabilityWriteOnly {
		delete(m.invalidVariables, compositeKey)
	}

	m.applySideEffects(station, meta, req.AttributeValue)

	if rebootFlag && previous != req.AttributeValue {
		result.Status = StatusRebootRequired
		result.ReasonCode = ReasonNoError
		return result
	}

	result.Status = StatusAccepted
	result.ReasonCode = ReasonNoError
	return result
}

func (m *Manager) setBound(station StationContext, meta VariableMetadata, req SetVariableData, compositeKey string, attr AttributeKind, result SetVariableResult) SetVariableResult {
	if meta.DataType != DataTypeInteger {
		result.Status = StatusRejected
		result.ReasonCode = ReasonUnsupportedParam
		result.AdditionalInfo = "MinSet/MaxSet only supported on integer variables"
		return result
	}

	validation := validateInteger(meta, req.AttributeValue)
	if !validation.OK {
		result.Status = StatusRejected
		result.ReasonCode = validation.ReasonCode
		result.AdditionalInfo = validation.Info
		return result
	}
	n, _ := strconv.ParseInt(req.AttributeValue, 10, 64)

	var otherBound *float64
	if attr == AttributeMinSet {
		if v, ok := m.maxSetOverrides[compositeKey]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				otherBound = &f
			}
		} else if meta.HasMax {
			v := meta.Max
			otherBound = &v
		}
		if otherBound != nil && float64(n) > *otherBound {
			result.Status = StatusRejected
			result.ReasonCode = ReasonInvalidValue
			result.AdditionalInfo = "MinSet higher than MaxSet"
			return result
		}
	} else {
		if v, ok := m.minSetOverrides[compositeKey]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				otherBound = &f
			}
		} else if meta.HasMin {
			v := meta.Min
			otherBound = &v
		}
		if otherBound != nil && float64(n) < *otherBound {
			result.Status = StatusRejected
			result.ReasonCode = ReasonInvalidValue
			result.AdditionalInfo = "MaxSet lower than MinSet"
			return result
		}
	}

	if meta.HasMin && float64(n) < meta.Min {
		result.Status = StatusRejected
		result.ReasonCode = ReasonValueTooLow
		return result
	}
	if meta.HasMax && float64(n) > meta.Max {
		result.Status = StatusRejected
		result.ReasonCode = ReasonValueTooHigh
		return result
	}

	if attr == AttributeMinSet {
		m.minSetOverrides[compositeKey] = req.AttributeValue
	} else {
		m.maxSetOverrides[compositeKey] = req.AttributeValue
	}

	result.Status = StatusAccepted
	result.ReasonCode = ReasonNoError
	return result
}

// enforceActiveBounds applies active MinSet/MaxSet overrides to an
// Actual integer write (§4.5.2 step 4).
func (m *Manager) enforceActiveBounds(meta VariableMetadata, compositeKey, value string) *ValidationResult {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	if v, ok := m.minSetOverrides[compositeKey]; ok {
		if min, err := strconv.ParseInt(v, 10, 64); err == nil && n < min {
			r := reject(ReasonValueTooLow, "value below active MinSet")
			return &r
		}
	}
	if v, ok := m.maxSetOverrides[compositeKey]; ok {
		if max, err := strconv.ParseInt(v, 10, 64); err == nil && n > max {
			r := reject(ReasonValueTooHigh, "value above active MaxSet")
			return &r
		}
	}
	return nil
}

// applySideEffects implements §4.5.2 step 6: heartbeat and WS-ping
// restarts are explicit calls to the Station Context, never implicit
// (§9 "Side-effect coupling").
func (m *Manager) applySideEffects(station StationContext, meta VariableMetadata, value string) {
	if meta.Component != ComponentOCPPCommCtrlr {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return
	}
	switch meta.Variable {
	case VarHeartbeatInterval:
		if n > 0 {
			station.RestartHeartbeat(n)
		}
	case VarWebSocketPingInterval:
		if n >= 0 {
			station.RestartWebSocketPing(n)
		}
	}
}
