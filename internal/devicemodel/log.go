package devicemodel

import log "github.com/sirupsen/logrus"

// logDefaultMaterialized and logInvalidVariable give the self-check
// (§4.5.3) the same WithField/WithError structured-logging texture as
// the teacher's appLogger call sites (configurations_handler.go).
func logDefaultMaterialized(station StationContext, meta VariableMetadata) {
	log.WithField("station", station.LogPrefix()).
		WithField("component", meta.Component).
		WithField("variable", meta.Variable).
		WithField("default", meta.DefaultValue).
		Debug("materialized persistent default")
}

func logInvalidVariable(station StationContext, meta VariableMetadata) {
	log.WithField("station", station.LogPrefix()).
		WithField("component", meta.Component).
		WithField("variable", meta.Variable).
		Error("persistent variable has no stored value and no default")
}

func logInternalError(station StationContext, variable Variable, err error) {
	log.WithField("station", station.LogPrefix()).
		WithField("variable", variable.Name).
		WithError(err).
		Error("device model operation failed")
}
