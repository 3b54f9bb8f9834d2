package actor

import "github.com/markintheabyss/actorframe/internal/schedq"

// Counter identifiers, exported for Framework.GetCounterName/Value,
// mirroring internal/schedq's stable ordering.
const (
	CounterMessagesProcessed     = schedq.CounterMessagesProcessed
	CounterYields                = schedq.CounterYields
	CounterLocalPushes           = schedq.CounterLocalPushes
	CounterSharedPushes          = schedq.CounterSharedPushes
	CounterMailboxQueueMax       = schedq.CounterMailboxQueueMax
	CounterQueueLatencyLocalMin  = schedq.CounterQueueLatencyLocalMin
	CounterQueueLatencyLocalMax  = schedq.CounterQueueLatencyLocalMax
	CounterQueueLatencySharedMin = schedq.CounterQueueLatencySharedMin
	CounterQueueLatencySharedMax = schedq.CounterQueueLatencySharedMax

	// NumCounters is the number of distinct counters tracked.
	NumCounters = schedq.MaxCounters
)

var counterNames = [NumCounters]string{
	CounterMessagesProcessed:     "messages-processed",
	CounterYields:                "yields",
	CounterLocalPushes:           "local-pushes",
	CounterSharedPushes:          "shared-pushes",
	CounterMailboxQueueMax:       "mailbox-queue-max",
	CounterQueueLatencyLocalMin:  "queue-latency-local-min",
	CounterQueueLatencyLocalMax:  "queue-latency-local-max",
	CounterQueueLatencySharedMin: "queue-latency-shared-min",
	CounterQueueLatencySharedMax: "queue-latency-shared-max",
}

// GetNumCounters returns the number of distinct counters tracked.
func GetNumCounters() int { return NumCounters }

// GetCounterName returns the stable name of counter i, or "" if i is
// out of range.
func GetCounterName(i int) string {
	if i < 0 || i >= NumCounters {
		return ""
	}
	return counterNames[i]
}
