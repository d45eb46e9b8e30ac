package metrics

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var (
	systemCPUUsage    *prometheus.GaugeVec
	systemMemoryUsage *prometheus.GaugeVec
	goGoroutines      prometheus.Gauge
	goHeapAlloc       prometheus.Gauge
	goHeapSys         prometheus.Gauge

	systemInitOnce sync.Once
)

func initializeSystemMetrics() {
	systemInitOnce.Do(func() {
		systemCPUUsage = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "system_cpu_usage_percent",
				Help: "Current CPU usage percentage",
			},
			[]string{"core"},
		)

		systemMemoryUsage = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "system_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
			[]string{"type"},
		)

		goGoroutines = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nusam_goroutines",
				Help: "Number of goroutines that currently exist",
			},
		)

		goHeapAlloc = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nusam_heap_alloc_bytes",
				Help: "Heap memory usage in bytes",
			},
		)

		goHeapSys = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nusam_heap_sys_bytes",
				Help: "Heap memory reserved in bytes",
			},
		)

		prometheus.MustRegister(
			systemCPUUsage,
			systemMemoryUsage,
			goGoroutines,
			goHeapAlloc,
			goHeapSys,
		)
	})
}

// StartSystemMetricsCollection samples CPU, memory and runtime gauges
// on a fixed interval. Disabled unless ENABLE_SYSTEM_METRICS=true.
func StartSystemMetricsCollection(interval time.Duration) {
	if os.Getenv("ENABLE_SYSTEM_METRICS") != "true" {
		return
	}

	initializeSystemMetrics()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			collectSystemMetrics()
			collectGoRuntimeMetrics()
		}
	}()
}

func collectSystemMetrics() {
	if cpuPercentages, err := cpu.Percent(0, true); err == nil {
		for i, percentage := range cpuPercentages {
			systemCPUUsage.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(percentage)
		}
	}

	if vmstat, err := mem.VirtualMemory(); err == nil {
		systemMemoryUsage.WithLabelValues("total").Set(float64(vmstat.Total))
		systemMemoryUsage.WithLabelValues("available").Set(float64(vmstat.Available))
		systemMemoryUsage.WithLabelValues("used").Set(float64(vmstat.Used))
	}
}

func collectGoRuntimeMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	goGoroutines.Set(float64(runtime.NumGoroutine()))
	goHeapAlloc.Set(float64(m.HeapAlloc))
	goHeapSys.Set(float64(m.HeapSys))
}
