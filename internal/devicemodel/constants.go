package devicemodel

// Protocol-wide constants referenced by the resolver, validator and
// manager (§3 Invariant 5, §4.3).
const (
	// OCPPValueAbsoluteMaxLength is the hard upper bound on any
	// variable value, regardless of ConfigurationValueSize/ValueSize.
	OCPPValueAbsoluteMaxLength = 2500

	// DefaultTxUpdatedIntervalSeconds is the well-known live fallback
	// for TxCtrlr/TxUpdatedInterval when nothing else resolves it
	// (§4.3 step 4).
	DefaultTxUpdatedIntervalSeconds = 10
)

// Well-known variable names consulted by name throughout the resolver,
// manager and self-check (§3, §4.3, §4.5.3).
const (
	VarHeartbeatInterval     = "HeartbeatInterval"
	VarWebSocketPingInterval = "WebSocketPingInterval"
	VarTxUpdatedInterval     = "TxUpdatedInterval"

	VarConfigurationValueSize = "ConfigurationValueSize"
	VarValueSize              = "ValueSize"
	VarReportingValueSize     = "ReportingValueSize"
)

// sizeControlVariables is the self-check allowlist of §4.5.3: these
// three Persistent variables are allowed to be absent from the
// ConfigurationKey Store at boot without being flagged invalid.
var sizeControlVariables = map[string]struct{}{
	VarConfigurationValueSize: {},
	VarValueSize:              {},
	VarReportingValueSize:     {},
}
