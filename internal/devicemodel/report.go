package devicemodel

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// VariableAttribute is one per-attribute record within a ReportData
// entry (§4.6).
type VariableAttribute struct {
	Type       AttributeKind
	Value      string
	Mutability Mutability
}

// VariableCharacteristics is the static, registry-derived shape
// attached to every ReportData entry (§4.6).
type VariableCharacteristics struct {
	DataType           DataType
	SupportsMonitoring bool
	MinLimit           *float64
	MaxLimit           *float64
	ValuesList         []string
}

// ReportData is a single GetBaseReport inventory record (§4.6).
type ReportData struct {
	Component       Component
	Variable        Variable
	Attributes      []VariableAttribute
	Characteristics VariableCharacteristics
}

// BaseReport is BuildBaseReport's result: the ordered ReportData
// sequence plus a correlation id for the caller (SPEC_FULL.md §11).
type BaseReport struct {
	ReportID string
	Entries  []ReportData
}

// alwaysActualOnly are the data-type-independent exceptions of §4.6:
// "Boolean and size variables always emit exactly [Actual]".
func alwaysActualOnly(meta VariableMetadata) bool {
	if meta.DataType == DataTypeBoolean {
		return true
	}
	switch meta.Variable {
	case VarConfigurationValueSize, VarValueSize, VarReportingValueSize:
		return true
	}
	return false
}

func attributesFor(meta VariableMetadata) []AttributeKind {
	if alwaysActualOnly(meta) || !SupportsExtendedAttributes(meta.DataType) {
		return []AttributeKind{AttributeActual}
	}
	return meta.SupportedAttributes
}

func buildReportEntry(m *Manager, meta VariableMetadata, component Component, variable Variable, station StationContext) ReportData {
	attrs := make([]VariableAttribute, 0, len(attributesFor(meta)))
	for _, kind := range attributesFor(meta) {
		value := ""
		switch kind {
		case AttributeMinSet:
			if v, ok := m.lookupBound(meta, BuildCompositeKey(component, variable), AttributeMinSet); ok {
				value = v
			}
		case AttributeMaxSet:
			if v, ok := m.lookupBound(meta, BuildCompositeKey(component, variable), AttributeMaxSet); ok {
				value = v
			}
		default:
			value = ResolveValue(meta, component, variable, station, m.runtimeOverrides)
		}
		value = m.truncateForRead(station, value)
		attrs = append(attrs, VariableAttribute{Type: kind, Value: value, Mutability: meta.Mutability})
	}

	chars := VariableCharacteristics{
		DataType:           meta.DataType,
		SupportsMonitoring: meta.SupportsMonitoring,
		ValuesList:         meta.EnumValues,
	}
	if meta.HasMin {
		min := meta.Min
		chars.MinLimit = &min
	}
	if meta.HasMax {
		max := meta.Max
		chars.MaxLimit = &max
	}

	return ReportData{
		Component:       component,
		Variable:        variable,
		Attributes:      attrs,
		Characteristics: chars,
	}
}

// BuildBaseReport assembles the requested inventory shape (§4.6). An
// unknown reportBase yields a nil entry slice; the façade (C7) checks
// reportBase itself and answers NotSupported before calling here.
func (m *Manager) BuildBaseReport(station StationContext, reportBase ReportBase) *BaseReport {
	var entries []ReportData

	switch reportBase {
	case ReportConfigurationInventory:
		entries = m.configurationInventory(station)
	case ReportFullInventory:
		entries = m.configurationInventory(station)
		entries = append(entries, m.allRegistryEntries(station)...)
		entries = append(entries, m.identityEntries(station)...)
		entries = append(entries, m.topologyEntries(station)...)
		entries = dedupeReportData(entries)
	case ReportSummaryInventory:
		entries = m.summaryInventory(station)
	default:
		return &BaseReport{ReportID: newReportID(), Entries: nil}
	}

	return &BaseReport{ReportID: newReportID(), Entries: entries}
}

func newReportID() string {
	return uuid.NewString()
}

func dedupeReportData(entries []ReportData) []ReportData {
	seen := make(map[string]struct{}, len(entries))
	out := make([]ReportData, 0, len(entries))
	for _, e := range entries {
		key := strings.ToLower(string(e.Component.Name)) + "|" + strings.ToLower(e.Component.Instance) + "|" +
			strings.ToLower(e.Variable.Name) + "|" + strings.ToLower(e.Variable.Instance)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// configurationInventory projects every visible Persistent key in the
// ConfigurationKey Store to a registry entry when one exists (§4.6).
func (m *Manager) configurationInventory(station StationContext) []ReportData {
	var entries []ReportData
	for _, key := range station.Store().All(station) {
		if !key.Visible {
			continue
		}
		meta, ok := m.matchStoreKey(key.Key)
		if !ok {
			continue
		}
		component := Component{Name: meta.Component}
		variable := Variable{Name: meta.Variable, Instance: meta.VarInstance}
		entries = append(entries, buildReportEntry(m, meta, component, variable, station))
	}
	return entries
}

// matchStoreKey finds the registry entry whose computed store key name
// equals keyName, used to map flat stored keys back to their
// Component/Variable identity for reporting.
func (m *Manager) matchStoreKey(keyName string) (VariableMetadata, bool) {
	for _, meta := range m.registry.All() {
		if meta.Persistence != PersistencePersistent {
			continue
		}
		candidate := StoreKeyName(Variable{Name: meta.Variable, Instance: meta.VarInstance}, meta.FlattenInstance)
		if strings.EqualFold(candidate, keyName) {
			return meta, true
		}
	}
	return VariableMetadata{}, false
}

func (m *Manager) allRegistryEntries(station StationContext) []ReportData {
	var entries []ReportData
	for _, meta := range m.registry.All() {
		if meta.Component == ComponentEVSE || meta.Component == ComponentConnector {
			continue // handled per-instance by topologyEntries
		}
		component := Component{Name: meta.Component}
		variable := Variable{Name: meta.Variable, Instance: meta.VarInstance}
		entries = append(entries, buildReportEntry(m, meta, component, variable, station))
	}
	return entries
}

func (m *Manager) identityEntries(station StationContext) []ReportData {
	var entries []ReportData
	for _, name := range identityVariableNames {
		meta, ok := m.registry.Lookup(ComponentChargingStation, name, "")
		if !ok {
			continue
		}
		entries = append(entries, buildReportEntry(m, meta, Component{Name: ComponentChargingStation}, Variable{Name: name}, station))
	}
	return entries
}

// topologyEntries emits per-EVSE/Connector availability variables
// when the station has any EVSEs (§4.6, SPEC_FULL.md §12).
func (m *Manager) topologyEntries(station StationContext) []ReportData {
	var entries []ReportData
	evseMeta, hasEVSEMeta := m.registry.Lookup(ComponentEVSE, "AvailabilityState", "")
	connMeta, hasConnMeta := m.registry.Lookup(ComponentConnector, "AvailabilityState", "")

	for _, evseID := range station.EVSEIDs() {
		component := Component{Name: ComponentEVSE, Instance: strconv.Itoa(evseID)}
		if hasEVSEMeta {
			entries = append(entries, buildReportEntry(m, evseMeta, component, Variable{Name: "AvailabilityState"}, station))
		}
		for _, connID := range station.ConnectorIDs(evseID) {
			connComponent := Component{Name: ComponentConnector, Instance: strconv.Itoa(connID)}
			if hasConnMeta {
				entries = append(entries, buildReportEntry(m, connMeta, connComponent, Variable{Name: "AvailabilityState"}, station))
			}
			if connTypeMeta, ok := m.registry.Lookup(ComponentConnector, "ConnectorType", ""); ok {
				entries = append(entries, buildReportEntry(m, connTypeMeta, connComponent, Variable{Name: "ConnectorType"}, station))
			}
		}
	}
	return entries
}

// summaryInventory is the read-only operational snapshot of §4.6: the
// per-EVSE/Connector AvailabilityState (supportsMonitoring) and
// ConnectorType entries, plus ChargingStation/SerialNumber. It emits no
// connector-count variable.
func (m *Manager) summaryInventory(station StationContext) []ReportData {
	entries := m.topologyEntries(station)

	if meta, ok := m.registry.Lookup(ComponentChargingStation, "SerialNumber", ""); ok {
		entries = append(entries, buildReportEntry(m, meta, Component{Name: ComponentChargingStation}, Variable{Name: "SerialNumber"}, station))
	}

	return entries
}
