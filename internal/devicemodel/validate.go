package devicemodel

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/relvacode/iso8601"
)

var integerPattern = regexp.MustCompile(`^-?\d+$`)

// ValidationResult is the Validator's structured outcome (§4.4).
type ValidationResult struct {
	OK         bool
	ReasonCode ReasonCode
	Info       string
}

func ok() ValidationResult {
	return ValidationResult{OK: true, ReasonCode: ReasonNoError}
}

func reject(reason ReasonCode, info string) ValidationResult {
	return ValidationResult{OK: false, ReasonCode: reason, Info: truncateInfo(info)}
}

// Validate checks value against meta's DataType and bounds, producing
// the closed rejection taxonomy of §4.4.
func Validate(meta VariableMetadata, value string) ValidationResult {
	switch meta.DataType {
	case DataTypeInteger:
		return validateInteger(meta, value)
	case DataTypeDecimal:
		return validateDecimal(value)
	case DataTypeBoolean:
		return validateBoolean(meta, value)
	case DataTypeDateTime:
		return validateDateTime(value)
	case DataTypeOptionList:
		return validateOptionList(meta, value)
	case DataTypeSequenceList:
		return validateSequenceList(meta, value)
	case DataTypeMemberList:
		return validateMemberList(meta, value)
	case DataTypeString:
		return validateString(meta, value)
	default:
		return reject(ReasonInternalError, "unsupported data type")
	}
}

func validateInteger(meta VariableMetadata, value string) ValidationResult {
	if strings.Contains(value, ".") {
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			return reject(ReasonInvalidValue, fmt.Sprintf("%s must not be decimal", meta.Variable))
		}
	}
	if !integerPattern.MatchString(value) {
		return reject(ReasonInvalidValue, fmt.Sprintf("%s must be an integer", meta.Variable))
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return reject(ReasonInvalidValue, fmt.Sprintf("%s must be an integer", meta.Variable))
	}
	if meta.HasMin && float64(n) < meta.Min {
		return reject(ReasonValueTooLow, fmt.Sprintf("%s must be >= %s", meta.Variable, formatBound(meta.Min)))
	}
	if meta.HasMax && float64(n) > meta.Max {
		return reject(ReasonValueTooHigh, fmt.Sprintf("%s must be <= %s", meta.Variable, formatBound(meta.Max)))
	}
	return ok()
}

func validateDecimal(value string) ValidationResult {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return reject(ReasonInvalidValue, "value must be a finite decimal number")
	}
	return ok()
}

func validateBoolean(meta VariableMetadata, value string) ValidationResult {
	if value != "true" && value != "false" {
		return reject(ReasonInvalidValue, fmt.Sprintf("%s must be \"true\" or \"false\"", meta.Variable))
	}
	return ok()
}

func validateDateTime(value string) ValidationResult {
	if _, err := iso8601.ParseString(value); err != nil {
		return reject(ReasonInvalidValue, "value must be an ISO-8601 instant")
	}
	return ok()
}

func validateOptionList(meta VariableMetadata, value string) ValidationResult {
	if !containsString(meta.EnumValues, value) {
		return reject(ReasonInvalidValue, fmt.Sprintf("%s is not a supported value", value))
	}
	return ok()
}

func validateSequenceList(meta VariableMetadata, value string) ValidationResult {
	tokens := strings.Split(value, ",")
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if !containsString(meta.EnumValues, tok) {
			return reject(ReasonInvalidValue, fmt.Sprintf("%s is not a supported value", tok))
		}
		if _, dup := seen[tok]; dup {
			return reject(ReasonInvalidValue, fmt.Sprintf("duplicate value %s", tok))
		}
		seen[tok] = struct{}{}
	}
	return ok()
}

func validateMemberList(meta VariableMetadata, value string) ValidationResult {
	tokens := strings.Split(value, ",")
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if !containsString(meta.EnumValues, tok) {
			return reject(ReasonInvalidValue, fmt.Sprintf("%s is not a supported value", tok))
		}
		if _, dup := seen[tok]; dup {
			return reject(ReasonInvalidValue, fmt.Sprintf("duplicate value %s", tok))
		}
		seen[tok] = struct{}{}
	}
	return ok()
}

func validateString(meta VariableMetadata, value string) ValidationResult {
	if meta.Pattern == "" {
		return ok()
	}
	re, err := regexp.Compile(meta.Pattern)
	if err != nil {
		return reject(ReasonInternalError, "invalid pattern")
	}
	if !re.MatchString(value) {
		return reject(ReasonInvalidValue, fmt.Sprintf("%s does not match required pattern", meta.Variable))
	}
	return ok()
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func formatBound(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
