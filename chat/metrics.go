package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	userMessageCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "chat",
		Name:      "user_messages_total",
		Help:      "Number of user messages recorded.",
	})

	engineResponseCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "chat",
		Name:      "engine_responses_total",
		Help:      "Number of engine responses recorded, by engine and status.",
	}, []string{"engine", "status"})

	responseBlockCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "chat",
		Name:      "response_blocks_total",
		Help:      "Number of response blocks produced by the splitter, by block type.",
	}, []string{"type"})

	selectionOpCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "chat",
		Name:      "selection_operations_total",
		Help:      "Number of preferred-selection operations, by operation and result.",
	}, []string{"operation", "result"})
)
