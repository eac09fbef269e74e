package devicemodel

import "strconv"

// ResolveValue computes the current value of a matched registry entry
// for the given request Component/Variable, following the five-step
// precedence of §4.3. It stops at the first source that yields a
// non-empty string, then unconditionally applies PostProcess.
//
// runtimeOverrides is the Variable Manager's volatile override map
// (§3); the resolver only reads it. Its one write is step 2's one-shot
// persistent-default materialization into the ConfigurationKey Store.
func ResolveValue(meta VariableMetadata, component Component, variable Variable, station StationContext, runtimeOverrides map[string]string) string {
	value := ""

	// Step 1: resolve(station) hook.
	if meta.Resolve != nil {
		value = meta.Resolve(station)
	}

	// Step 1b (supplemented, §4.3 step 4's mechanism extended to the
	// EVSE/Connector topology of SPEC_FULL.md §12): a well-known live
	// fallback that needs the request's own component instance, which
	// a Resolve hook (no instance parameter) cannot see. Tried before
	// the persistent/volatile paths since it is itself a "live" source
	// like step 1, not stored state.
	if value == "" && meta.Variable == "AvailabilityState" &&
		(meta.Component == ComponentEVSE || meta.Component == ComponentConnector) {
		if v, ok := station.EVSEAvailability(component); ok {
			value = v
		}
	}

	// Step 2: persistent path.
	if value == "" && meta.Persistence == PersistencePersistent {
		store := station.Store()
		keyName := StoreKeyName(variable, meta.FlattenInstance)

		if entry, ok := store.Get(station, keyName); ok {
			value = entry.Value
		} else if meta.HasDefault && variable.Instance == "" {
			// Instance-scoped entries defer materialization to the
			// first successful set (§4.3 step 2).
			_ = store.Add(station, keyName, meta.DefaultValue, ConfigurationKeyEntry{
				Key:      keyName,
				Value:    meta.DefaultValue,
				ReadOnly: meta.Mutability == MutabilityReadOnly,
				Visible:  true,
				Reboot:   meta.RebootRequired,
			}, false)
			if entry, ok := store.Get(station, keyName); ok {
				value = entry.Value
			}
		}
	}

	// Step 3: volatile path — the Manager's own runtimeOverrides map.
	if value == "" && meta.Persistence == PersistenceVolatile {
		if v, ok := runtimeOverrides[BuildCompositeKey(component, variable)]; ok {
			value = v
		}
	}

	// Step 4: remaining well-known live fallbacks.
	if value == "" && meta.Component == ComponentTxCtrlr && meta.Variable == VarTxUpdatedInterval {
		value = strconv.Itoa(DefaultTxUpdatedIntervalSeconds)
	}

	// Step 5: post-process unconditionally.
	if meta.PostProcess != nil {
		value = meta.PostProcess(station, value)
	}

	return value
}
