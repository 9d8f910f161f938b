// Package qos maps named QoS profiles onto concrete subscription policies.
package qos

import "github.com/arloliu/robotcmd/types"

// Profile names understood by Select.
const (
	ProfileSensorData      = "sensor_data"
	ProfileParameterEvents = "parameter_events"
	ProfileSystemDefault   = "system_default"
	ProfileDefault         = "default"
)

// Select resolves profileName to a QoS policy with the given depth.
//
// The table is fixed: sensor_data and system_default both resolve to
// best-effort/volatile, parameter_events and every other name (including
// "default" and the empty string) resolve to reliable/volatile. Depth is passed
// through unchanged.
//
// Parameters:
//   - profileName: Profile name as supplied by the host
//   - depth: History depth
//
// Returns:
//   - types.QoSPolicy: Resolved policy (never fails)
func Select(profileName string, depth uint) types.QoSPolicy {
	policy := types.QoSPolicy{
		Reliability: types.ReliabilityReliable,
		Durability:  types.DurabilityVolatile,
		Depth:       depth,
	}

	switch profileName {
	case ProfileSensorData:
		policy.Reliability = types.ReliabilityBestEffort
	case ProfileParameterEvents:
		policy.Reliability = types.ReliabilityReliable
	case ProfileSystemDefault:
		policy.Reliability = types.ReliabilityBestEffort
	}

	return policy
}

// Known reports whether profileName is one of the named profiles.
func Known(profileName string) bool {
	switch profileName {
	case ProfileSensorData, ProfileParameterEvents, ProfileSystemDefault, ProfileDefault:
		return true
	default:
		return false
	}
}

// Profiles returns the named profiles in table order.
func Profiles() []string {
	return []string{ProfileSensorData, ProfileParameterEvents, ProfileSystemDefault, ProfileDefault}
}
