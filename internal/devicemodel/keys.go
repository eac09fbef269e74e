package devicemodel

import "strings"

// BuildCompositeKey builds the manager's internal override-map key:
// lower-case `component[.componentInstance]/variable[.variableInstance]`
// (§3 "Composite key rule"). The variable-instance suffix is an
// additive generalization of the literal rule, which names only the
// component instance — without it, two distinct variable instances
// under the same component and variable name would collide in the
// override maps.
func BuildCompositeKey(component Component, variable Variable) string {
	var b strings.Builder
	b.WriteString(string(component.Name))
	if component.Instance != "" {
		b.WriteByte('.')
		b.WriteString(component.Instance)
	}
	b.WriteByte('/')
	b.WriteString(variable.Name)
	if variable.Instance != "" {
		b.WriteByte('.')
		b.WriteString(variable.Instance)
	}
	return strings.ToLower(b.String())
}

// StoreKeyName builds the ConfigurationKey Store's flat key name for
// a requested variable: the variable name alone, or `variable.instance`
// when the variable carries an instance that is not flagged for
// instance-flattening (§3, §9). flatten comes from the matched
// registry entry's FlattenInstance field.
func StoreKeyName(variable Variable, flatten bool) string {
	if variable.Instance == "" || flatten {
		return variable.Name
	}
	return variable.Name + "." + variable.Instance
}

// EnforceReportingValueSize truncates value to limit Unicode code
// points. Non-positive limits are no-ops (§4.2).
func EnforceReportingValueSize(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= limit {
		return value
	}
	return string(r[:limit])
}
