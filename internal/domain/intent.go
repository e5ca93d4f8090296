package domain

import "time"

type IntentKind string

const (
	IntentDeviceControl  IntentKind = "device_control"
	IntentSensorQuery    IntentKind = "sensor_query"
	IntentEmergency      IntentKind = "emergency"
	IntentPasswordAccess IntentKind = "password_access"
	IntentGeneralChat    IntentKind = "general_chat"
	IntentUnknown        IntentKind = "unknown"
)

func (k IntentKind) Valid() bool {
	switch k {
	case IntentDeviceControl, IntentSensorQuery, IntentEmergency,
		IntentPasswordAccess, IntentGeneralChat, IntentUnknown:
		return true
	}
	return false
}

// FallbackReply is returned whenever the language backend produces
// something we cannot parse.
const FallbackReply = "Sorry, I couldn't process that."

type Intent struct {
	Kind     IntentKind `json:"intent"`
	Response string     `json:"response"`
	Actions  []Action   `json:"actions"`
}

// UnknownIntent is the canonical sanitized result for malformed or
// failed backend responses: no actions, fixed reply.
func UnknownIntent() Intent {
	return Intent{
		Kind:     IntentUnknown,
		Response: FallbackReply,
		Actions:  []Action{},
	}
}

// Action is a single device directive extracted from an intent.
// Value is optional: bool for switches, int for durations/angles.
type Action struct {
	Device  string `json:"device"`
	Command string `json:"command"`
	Value   any    `json:"value,omitempty"`
}

// Result is the caller-facing outcome of one pipeline run. The field
// names (notably firebase_success) are an external contract shared with
// the frontend and must not change.
type Result struct {
	Success         bool       `json:"success"`
	Command         string     `json:"command,omitempty"`
	Intent          IntentKind `json:"intent,omitempty"`
	Response        string     `json:"response,omitempty"`
	Actions         []Action   `json:"actions"`
	FirebaseSuccess bool       `json:"firebase_success"`
	Timestamp       time.Time  `json:"timestamp"`
	Error           string     `json:"error,omitempty"`
}
