package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
// Prometheus metrics
// ============================================================================

var (
	staticWorkersGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bastion_executor_static_workers",
			Help: "Static workers alive; equals the pool's low watermark after initialization",
		},
		[]string{"pool"},
	)
	dynamicWorkersGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bastion_executor_dynamic_workers",
			Help: "Dynamic workers currently alive",
		},
		[]string{"pool"},
	)
	recommendedWorkersGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bastion_executor_recommended_workers",
			Help: "The sampler's upper-percentile estimate of recent demand",
		},
		[]string{"pool"},
	)
	tasksScheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bastion_executor_tasks_scheduled_total",
			Help: "Tasks accepted by Schedule",
		},
		[]string{"pool"},
	)
	tasksCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bastion_executor_tasks_completed_total",
			Help: "Tasks whose Run returned",
		},
		[]string{"pool"},
	)
	dynamicUnparksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bastion_executor_dynamic_unparks_total",
			Help: "Parked dynamic workers woken instead of spawning",
		},
		[]string{"pool"},
	)
	dynamicSpawnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bastion_executor_dynamic_spawns_total",
			Help: "Dynamic workers spawned",
		},
		[]string{"pool"},
	)
	standaloneLaunchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bastion_executor_standalone_launches_total",
			Help: "One-shot burst absorbers launched",
		},
		[]string{"pool"},
	)
)
