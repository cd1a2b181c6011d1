package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const collectInterval = 5 * time.Second

var (
	hostCPUUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dispatch",
			Name:      "host_cpu_usage_percent",
			Help:      "Host CPU usage percentage",
		},
	)

	hostMemoryUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dispatch",
			Name:      "host_memory_used_bytes",
			Help:      "Host memory in use",
		},
	)

	heapAllocated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dispatch",
			Name:      "heap_allocated_bytes",
			Help:      "Go heap allocation of the process",
		},
	)
)

// StartSystemMetricsCollector снимает показатели хоста и процесса раз в
// collectInterval до конца жизни процесса.
func StartSystemMetricsCollector() {
	go func() {
		ticker := time.NewTicker(collectInterval)
		defer ticker.Stop()

		for range ticker.C {
			collect()
		}
	}()
}

func collect() {
	if percents, err := cpu.Percent(time.Second, false); err == nil && len(percents) > 0 {
		hostCPUUsage.Set(percents[0])
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		hostMemoryUsed.Set(float64(vm.Used))
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	heapAllocated.Set(float64(stats.Alloc))
}
