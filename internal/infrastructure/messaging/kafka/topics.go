// Package kafka publishes comparison lifecycle events and consumes
// comparison requests for the background worker.
package kafka

import (
	"time"

	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

const (
	// TopicComparisonStatus carries lifecycle transitions so other
	// dashboard instances can refresh without polling this service.
	TopicComparisonStatus = "planlens.comparison.status"

	// TopicComparisonRequested carries comparison requests for the worker;
	// the API server enqueues here when a caller asks for fire-and-forget
	// generation.
	TopicComparisonRequested = "planlens.comparison.requested"
)

// RequestedEvent is the payload on TopicComparisonRequested.
type RequestedEvent struct {
	SourceBlockRef string        `json:"source_block_ref"`
	TargetBlockRef string        `json:"target_block_ref"`
	RequestedBy    common.UserID `json:"requested_by,omitempty"`
	RequestedAt    time.Time     `json:"requested_at"`
}
