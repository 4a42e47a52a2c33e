// Package metrics 提供 Prometheus 指标采集。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "study_notes"

// 请求状态标签值
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// LLMRequestsTotal 按阶段（outline/detail）统计的模型请求数。
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total number of LLM completion requests",
		},
		[]string{"stage", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "LLM request duration in seconds, streams measured until drained",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	StreamFragmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "stream_fragments_total",
			Help:      "Total number of non-empty streamed detail fragments",
		},
	)

	// RunsTotal 按最终状态统计的笔记生成次数。
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notes",
			Name:      "runs_total",
			Help:      "Total number of note generation runs by final state",
		},
		[]string{"state"},
	)
)
