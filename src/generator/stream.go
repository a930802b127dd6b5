package generator

import (
	"tapInfinity/src/spec"
)

// StreamInfo is what the stream declares to downstream consumers.
type StreamInfo struct {
	Name           string   `json:"stream"`
	KeyProperties  []string `json:"key_properties"`
	ReplicationKey string   `json:"replication_key"`
	// IsSorted promises rows arrive in non-decreasing ReplicationKey order.
	IsSorted                  bool `json:"is_sorted"`
	IsTimestampReplicationKey bool `json:"is_timestamp_replication_key"`
}

// NewStreamInfo describes the generated stream called name.
func NewStreamInfo(name string) StreamInfo {
	return StreamInfo{
		Name:           name,
		KeyProperties:  []string{spec.IDColumn},
		ReplicationKey: spec.ReplicationKeyColumn,
		IsSorted:       true,
	}
}
