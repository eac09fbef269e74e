package devicemodel

import (
	"strconv"
	"strings"
)

// Registry is the static, declarative catalog of (Component, Variable,
// instance?) tuples a station claims to implement (§4.1). It is the
// sole authority on whether a component/variable pair belongs to the
// protocol surface; it never changes after construction.
type Registry struct {
	entries  map[string]VariableMetadata
	fallback map[string]VariableMetadata
}

func registryKey(component ComponentName, variable, varInstance string) string {
	return strings.ToLower(string(component)) + "\x00" + strings.ToLower(variable) + "\x00" + strings.ToLower(varInstance)
}

// NewRegistry builds a Registry from a literal slice of entries,
// indexing both the exact (component, variable, instance) lookup and
// the instance-agnostic fallback described in §4.1.
func NewRegistry(entries []VariableMetadata) *Registry {
	r := &Registry{
		entries:  make(map[string]VariableMetadata, len(entries)),
		fallback: make(map[string]VariableMetadata, len(entries)),
	}
	for _, e := range entries {
		r.entries[registryKey(e.Component, e.Variable, e.VarInstance)] = e
		if e.VarInstance == "" {
			r.fallback[registryKey(e.Component, e.Variable, "")] = e
		}
	}
	return r
}

// Lookup returns the metadata for (component, variable, varInstance),
// retrying without the variable instance when an exact match isn't
// found (§4.1 "instance-agnostic fallback").
func (r *Registry) Lookup(component ComponentName, variable, varInstance string) (VariableMetadata, bool) {
	if m, ok := r.entries[registryKey(component, variable, varInstance)]; ok {
		return m, true
	}
	if varInstance != "" {
		if m, ok := r.fallback[registryKey(component, variable, "")]; ok {
			return m, true
		}
	}
	return VariableMetadata{}, false
}

// All returns every registered entry, in insertion order is not
// guaranteed (map iteration); callers that need determinism should
// sort the result.
func (r *Registry) All() []VariableMetadata {
	out := make([]VariableMetadata, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// identityVariableNames lists ChargingStation variables treated as
// "identity variables" for FullInventory assembly (§4.6).
var identityVariableNames = []string{"Model", "VendorName", "SerialNumber", "FirmwareVersion"}

// dataTypesSupportingExtendedAttributes is the whitelist of §4.6:
// data types outside it only ever emit the Actual attribute.
var dataTypesSupportingExtendedAttributes = map[DataType]struct{}{
	DataTypeInteger:  {},
	DataTypeDecimal:  {},
	DataTypeString:   {},
	DataTypeDateTime: {},
}

// SupportsExtendedAttributes reports whether dt is in the §4.6
// whitelist of data types that may emit attributes beyond Actual.
func SupportsExtendedAttributes(dt DataType) bool {
	_, ok := dataTypesSupportingExtendedAttributes[dt]
	return ok
}

// DefaultRegistry is the station's standard OCPP 2.0.1 variable
// catalog, grounded on the teacher's supportedConfigurationKeys set
// (constants.go) generalized from OCPP 1.6's flat ConfigurationKey
// names to the richer Component/Variable/Attribute model (spec.md §3).
func DefaultRegistry() *Registry {
	return NewRegistry([]VariableMetadata{
		// AuthCtrlr
		{
			Component:           ComponentAuthCtrlr,
			Variable:            "AuthorizeRemoteStart",
			DataType:            DataTypeBoolean,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "true",
		},
		{
			Component:           ComponentAuthCtrlr,
			Variable:            "LocalAuthorizeOffline",
			DataType:            DataTypeBoolean,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "true",
		},
		{
			Component:           ComponentAuthCtrlr,
			Variable:            "LocalPreAuthorize",
			DataType:            DataTypeBoolean,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "false",
		},
		{
			Component:           ComponentAuthCtrlr,
			Variable:            "AuthCacheEnabled",
			DataType:            DataTypeBoolean,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "false",
		},

		// ChargingStation identity (§4.6 FullInventory)
		{
			Component:           ComponentChargingStation,
			Variable:            "Model",
			DataType:            DataTypeString,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "Generic-Simulator",
		},
		{
			Component:           ComponentChargingStation,
			Variable:            "VendorName",
			DataType:            DataTypeString,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "Unknown Vendor",
		},
		{
			Component:           ComponentChargingStation,
			Variable:            "SerialNumber",
			DataType:            DataTypeString,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "0000-0000",
		},
		{
			Component:           ComponentChargingStation,
			Variable:            "FirmwareVersion",
			DataType:            DataTypeString,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "0.0.0",
		},

		// ClockCtrlr
		{
			Component:           ComponentClockCtrlr,
			Variable:            "TimeSource",
			DataType:            DataTypeSequenceList,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			EnumValues:          []string{"Heartbeat", "NTP", "GPS", "RealTimeClock", "MobileNetwork", "RadioTimeTransmitter"},
			HasDefault:          true,
			DefaultValue:        "Heartbeat",
		},
		{
			Component:           ComponentClockCtrlr,
			Variable:            "DateTime",
			DataType:            DataTypeDateTime,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistenceVolatile,
			SupportedAttributes: []AttributeKind{AttributeActual},
		},

		// DeviceDataCtrlr: size-control variables (§3, §4.5.3 allowlist)
		{
			Component:           ComponentDeviceDataCtrlr,
			Variable:            VarConfigurationValueSize,
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasMin:              true,
			Min:                 0,
			HasMax:              true,
			Max:                 OCPPValueAbsoluteMaxLength,
		},
		{
			Component:           ComponentDeviceDataCtrlr,
			Variable:            VarValueSize,
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasMin:              true,
			Min:                 0,
			HasMax:              true,
			Max:                 OCPPValueAbsoluteMaxLength,
		},
		{
			Component:           ComponentDeviceDataCtrlr,
			Variable:            VarReportingValueSize,
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasMin:              true,
			Min:                 0,
			HasMax:              true,
			Max:                 OCPPValueAbsoluteMaxLength,
		},
		{
			Component:           ComponentDeviceDataCtrlr,
			Variable:            "ItemsPerMessage",
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "50",
		},
		{
			Component:           ComponentDeviceDataCtrlr,
			Variable:            "BytesPerMessage",
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "8192",
		},

		// OCPPCommCtrlr
		{
			Component:           ComponentOCPPCommCtrlr,
			Variable:            VarHeartbeatInterval,
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual, AttributeMinSet, AttributeMaxSet},
			SupportsTarget:      false,
			HasDefault:          true,
			DefaultValue:        "300",
			HasMin:              true,
			Min:                 0,
			HasMax:              true,
			Max:                 86400,
			Resolve: func(station StationContext) string {
				return strconv.Itoa(station.HeartbeatInterval())
			},
		},
		{
			Component:           ComponentOCPPCommCtrlr,
			Variable:            VarWebSocketPingInterval,
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual, AttributeMinSet, AttributeMaxSet},
			HasDefault:          true,
			DefaultValue:        "60",
			HasMin:              true,
			Min:                 0,
			HasMax:              true,
			Max:                 3600,
			Resolve: func(station StationContext) string {
				return strconv.Itoa(station.WSPingInterval())
			},
		},
		{
			Component:   ComponentOCPPCommCtrlr,
			Variable:    "MessageAttemptInterval",
			VarInstance: "TransactionEvent",
			DataType:    DataTypeInteger,
			Mutability:  MutabilityReadWrite,
			Persistence: PersistencePersistent,
			// Open Question resolution (§9): the registry, not a
			// special-cased function, carries the flatten rule.
			FlattenInstance:     true,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "60",
			HasMin:              true,
			Min:                 1,
			HasMax:              true,
			Max:                 3600,
		},
		{
			Component:           ComponentOCPPCommCtrlr,
			Variable:            "FileTransferProtocols",
			DataType:            DataTypeMemberList,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			EnumValues:          []string{"FTP", "FTPS", "HTTP", "HTTPS", "SFTP"},
			HasDefault:          true,
			DefaultValue:        "HTTPS",
		},

		// SampledDataCtrlr
		{
			Component:           ComponentSampledDataCtrlr,
			Variable:            "TxUpdatedInterval",
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistenceVolatile,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasMin:              true,
			Min:                 0,
			HasMax:              true,
			Max:                 3600,
		},
		{
			Component:           ComponentSampledDataCtrlr,
			Variable:            "TxUpdatedMeasurands",
			DataType:            DataTypeMemberList,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			EnumValues:          []string{"Energy.Active.Import.Register", "Power.Active.Import", "Current.Import", "Voltage", "SoC"},
			HasDefault:          true,
			DefaultValue:        "Energy.Active.Import.Register",
		},

		// SecurityCtrlr
		{
			Component:           ComponentSecurityCtrlr,
			Variable:            "CertificateEntries",
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistenceVolatile,
			SupportedAttributes: []AttributeKind{AttributeActual},
		},
		{
			Component:           ComponentSecurityCtrlr,
			Variable:            "SecurityProfile",
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasDefault:          true,
			DefaultValue:        "0",
		},

		// TxCtrlr
		{
			Component:           ComponentTxCtrlr,
			Variable:            VarTxUpdatedInterval,
			DataType:            DataTypeInteger,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistenceVolatile,
			SupportedAttributes: []AttributeKind{AttributeActual},
			HasMin:              true,
			Min:                 0,
			HasMax:              true,
			Max:                 3600,
		},
		{
			Component:           ComponentTxCtrlr,
			Variable:            "TxStartPoint",
			DataType:            DataTypeMemberList,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			EnumValues:          []string{"ParkingBayOccupancy", "EVConnected", "Authorized", "DataSigned", "PowerPathClosed", "EnergyTransfer"},
			HasDefault:          true,
			DefaultValue:        "EVConnected",
		},
		{
			Component:           ComponentTxCtrlr,
			Variable:            "TxStopPoint",
			DataType:            DataTypeMemberList,
			Mutability:          MutabilityReadWrite,
			Persistence:         PersistencePersistent,
			SupportedAttributes: []AttributeKind{AttributeActual},
			EnumValues:          []string{"ParkingBayOccupancy", "EVConnected", "Authorized", "PowerPathClosed", "EnergyTransfer"},
			HasDefault:          true,
			DefaultValue:        "EVConnected",
		},

		// EVSE/Connector: generic, instance-agnostic availability
		// entries (§4.6, SPEC_FULL.md §12). Their live value is
		// supplied per dynamic EVSE/Connector instance by the §4.3
		// step-4 well-known-fallback extension in resolver.go, not by
		// a Resolve hook (which carries no instance parameter).
		{
			Component:           ComponentEVSE,
			Variable:            "AvailabilityState",
			DataType:            DataTypeOptionList,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistenceVolatile,
			SupportedAttributes: []AttributeKind{AttributeActual},
			SupportsMonitoring:  true,
			EnumValues:          []string{"Operative", "Inoperative", "Faulted"},
		},
		{
			Component:           ComponentConnector,
			Variable:            "AvailabilityState",
			DataType:            DataTypeOptionList,
			Mutability:          MutabilityReadOnly,
			Persistence:         PersistenceVolatile,
			SupportedAttributes: []AttributeKind{AttributeActual},
			SupportsMonitoring:  true,
			EnumValues:          []string{"Operative", "Inoperative", "Faulted"},
		},
		{
			Component:           ComponentConnector,
			Variable:    "ConnectorType",
			DataType:    DataTypeString,
			Mutability:  MutabilityReadOnly,
			// Volatile, not Persistent: the ConfigurationKey Store's
			// flat key space (§3) has no room for the component
			// instance, so a Persistent entry here would collide
			// across every connector. The Manager's own
			// runtimeOverrides map is keyed by the full composite key
			// (component instance included), which does disambiguate.
			Persistence:         PersistenceVolatile,
			SupportedAttributes: []AttributeKind{AttributeActual},
		},
	})
}

