package devicemodel

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Service is the Request Service façade (C7): the protocol entry
// point that calls into the Manager/Base Report Builder and enforces
// the per-message ItemsPerMessage/BytesPerMessage limits of §4.7.
type Service struct {
	Manager *Manager
}

// NewService builds a façade over manager.
func NewService(manager *Manager) *Service {
	return &Service{Manager: manager}
}

const (
	defaultItemsPerMessage = 50
	defaultBytesPerMessage = 8192
)

func (s *Service) itemsPerMessage(station StationContext) int {
	if entry, ok := station.Store().Get(station, "ItemsPerMessage"); ok {
		if n, err := strconv.Atoi(entry.Value); err == nil && n > 0 {
			return n
		}
	}
	return defaultItemsPerMessage
}

func (s *Service) bytesPerMessage(station StationContext) int {
	if entry, ok := station.Store().Get(station, "BytesPerMessage"); ok {
		if n, err := strconv.Atoi(entry.Value); err == nil && n > 0 {
			return n
		}
	}
	return defaultBytesPerMessage
}

func estimatedSize(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b)
}

// GetVariables implements §6's getVariables entry point: order is
// preserved, per-item errors are caught and surfaced as
// Rejected/InternalError (§7), and §4.7's message-size limits are
// enforced both before and after the batch executes.
func (s *Service) GetVariables(station StationContext, reqs []GetVariableData) []GetVariableResult {
	itemsLimit := s.itemsPerMessage(station)
	bytesLimit := s.bytesPerMessage(station)

	if len(reqs) > itemsLimit {
		return rejectAllGet(reqs, ReasonTooManyElements)
	}
	if estimatedSize(reqs) > bytesLimit {
		return rejectAllGet(reqs, ReasonTooLargeElement)
	}

	results := make([]GetVariableResult, len(reqs))
	for i, req := range reqs {
		results[i] = s.safeGetVariable(station, req)
	}

	if estimatedSize(results) > bytesLimit {
		return rejectAllGet(reqs, ReasonTooLargeElement)
	}
	return results
}

// SetVariables implements §6's setVariables entry point, symmetric to
// GetVariables.
func (s *Service) SetVariables(station StationContext, reqs []SetVariableData) []SetVariableResult {
	itemsLimit := s.itemsPerMessage(station)
	bytesLimit := s.bytesPerMessage(station)

	if len(reqs) > itemsLimit {
		return rejectAllSet(reqs, ReasonTooManyElements)
	}
	if estimatedSize(reqs) > bytesLimit {
		return rejectAllSet(reqs, ReasonTooLargeElement)
	}

	results := make([]SetVariableResult, len(reqs))
	for i, req := range reqs {
		results[i] = s.safeSetVariable(station, req)
	}

	if estimatedSize(results) > bytesLimit {
		return rejectAllSet(reqs, ReasonTooLargeElement)
	}
	return results
}

// GetBaseReportResult is handleGetBaseReport's response (§6).
type GetBaseReportResult struct {
	Status   GenericDeviceModelStatus
	ReportID string
}

// HandleGetBaseReport implements §6's handleGetBaseReport entry point
// and §4.6's status-mapping rules.
func (s *Service) HandleGetBaseReport(station StationContext, reportBase ReportBase) GetBaseReportResult {
	switch reportBase {
	case ReportConfigurationInventory, ReportFullInventory, ReportSummaryInventory:
	default:
		return GetBaseReportResult{Status: ReportStatusNotSupported}
	}

	report := s.Manager.BuildBaseReport(station, reportBase)
	if len(report.Entries) == 0 {
		return GetBaseReportResult{Status: ReportStatusEmptyResultSet, ReportID: report.ReportID}
	}
	return GetBaseReportResult{Status: ReportStatusAccepted, ReportID: report.ReportID}
}

func (s *Service) safeGetVariable(station StationContext, req GetVariableData) (result GetVariableResult) {
	defer func() {
		if r := recover(); r != nil {
			logInternalError(station, req.Variable, fmt.Errorf("panic: %v", r))
			result = GetVariableResult{
				Component:      req.Component,
				Variable:       req.Variable,
				AttributeType:  req.AttributeType,
				Status:         StatusRejected,
				ReasonCode:     ReasonInternalError,
				AdditionalInfo: truncateInfo("internal error"),
			}
		}
	}()
	return s.Manager.GetVariable(station, req)
}

func (s *Service) safeSetVariable(station StationContext, req SetVariableData) (result SetVariableResult) {
	defer func() {
		if r := recover(); r != nil {
			logInternalError(station, req.Variable, fmt.Errorf("panic: %v", r))
			result = SetVariableResult{
				Component:      req.Component,
				Variable:       req.Variable,
				AttributeType:  req.AttributeType,
				Status:         StatusRejected,
				ReasonCode:     ReasonInternalError,
				AdditionalInfo: truncateInfo("internal error"),
			}
		}
	}()
	return s.Manager.SetVariable(station, req)
}

func rejectAllGet(reqs []GetVariableData, reason ReasonCode) []GetVariableResult {
	out := make([]GetVariableResult, len(reqs))
	for i, req := range reqs {
		out[i] = GetVariableResult{
			Component:     req.Component,
			Variable:      req.Variable,
			AttributeType: req.AttributeType,
			Status:        StatusRejected,
			ReasonCode:    reason,
		}
	}
	return out
}

func rejectAllSet(reqs []SetVariableData, reason ReasonCode) []SetVariableResult {
	out := make([]SetVariableResult, len(reqs))
	for i, req := range reqs {
		out[i] = SetVariableResult{
			Component:     req.Component,
			Variable:      req.Variable,
			AttributeType: req.AttributeType,
			Status:        StatusRejected,
			ReasonCode:    reason,
		}
	}
	return out
}
