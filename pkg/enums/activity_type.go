package enums

import "fmt"

// ActivityType is the severity attached to an activity log entry.
type ActivityType string

const (
	ActivityTypeInfo    ActivityType = "info"
	ActivityTypeSuccess ActivityType = "success"
	ActivityTypeWarning ActivityType = "warning"
	ActivityTypeError   ActivityType = "error"
)

var validActivityTypes = []ActivityType{
	ActivityTypeInfo,
	ActivityTypeSuccess,
	ActivityTypeWarning,
	ActivityTypeError,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType. Empty input yields info.
func ParseActivityType(value string) (ActivityType, error) {
	if value == "" {
		return ActivityTypeInfo, nil
	}
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
