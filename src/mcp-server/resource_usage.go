// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
)

const mb = 1024 * 1024

// MemoryUsage is the heap and stack summary.
type MemoryUsage struct {
	HeapAllocMB    float64 `json:"heap_alloc_mb"`
	HeapSysMB      float64 `json:"heap_sys_mb"`
	HeapInuseMB    float64 `json:"heap_inuse_mb"`
	HeapIdleMB     float64 `json:"heap_idle_mb"`
	HeapReleasedMB float64 `json:"heap_released_mb"`
	HeapObjects    uint64  `json:"heap_objects"`
	StackInuseMB   float64 `json:"stack_inuse_mb"`
}

// GCStats summarizes the garbage collector.
type GCStats struct {
	NumGC         uint32  `json:"num_gc"`
	NumForcedGC   uint32  `json:"num_forced_gc"`
	GCCPUFraction float64 `json:"gc_cpu_fraction"`
	PauseTotalMS  float64 `json:"pause_total_ms"`
}

// SystemInfo describes the runtime.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	GOOS         string `json:"go_os"`
	GOARCH       string `json:"go_arch"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
}

// DetailedMemory is the allocator breakdown reported on request.
type DetailedMemory struct {
	AllocMB      float64 `json:"alloc_mb"`
	TotalAllocMB float64 `json:"total_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	Mallocs      uint64  `json:"mallocs"`
	Frees        uint64  `json:"frees"`
	NextGCMB     float64 `json:"next_gc_mb"`
}

// ChainCacheUsage reports the end certificate chain cache.
type ChainCacheUsage struct {
	Size           int64   `json:"size"`
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	Evictions      int64   `json:"evictions"`
	HitRatePercent float64 `json:"hit_rate_percent"`
	FetchedIssuers int     `json:"fetched_issuers"`
}

// ResourceUsageData is the result of get_resource_usage.
type ResourceUsageData struct {
	Timestamp      string          `json:"timestamp"`
	MemoryUsage    MemoryUsage     `json:"memory_usage"`
	GCStats        GCStats         `json:"gc_stats"`
	SystemInfo     SystemInfo      `json:"system_info"`
	ChainCache     ChainCacheUsage `json:"chain_cache"`
	DetailedMemory *DetailedMemory `json:"detailed_memory,omitempty"`
}

// CollectResourceUsage samples the runtime and the engine's chain cache.
// A nil engine leaves the cache section zero.
func CollectResourceUsage(detailed bool, engine *x509chain.Engine) *ResourceUsageData {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	data := &ResourceUsageData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		MemoryUsage: MemoryUsage{
			HeapAllocMB:    float64(m.HeapAlloc) / mb,
			HeapSysMB:      float64(m.HeapSys) / mb,
			HeapInuseMB:    float64(m.HeapInuse) / mb,
			HeapIdleMB:     float64(m.HeapIdle) / mb,
			HeapReleasedMB: float64(m.HeapReleased) / mb,
			HeapObjects:    m.HeapObjects,
			StackInuseMB:   float64(m.StackInuse) / mb,
		},
		GCStats: GCStats{
			NumGC:         m.NumGC,
			NumForcedGC:   m.NumForcedGC,
			GCCPUFraction: m.GCCPUFraction,
			PauseTotalMS:  float64(m.PauseTotalNs) / 1e6,
		},
		SystemInfo: SystemInfo{
			GoVersion:    runtime.Version(),
			GOOS:         runtime.GOOS,
			GOARCH:       runtime.GOARCH,
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
		},
	}

	if engine != nil {
		cm := engine.CacheMetrics()
		data.ChainCache = ChainCacheUsage{
			Size:           cm.Size,
			Hits:           cm.Hits,
			Misses:         cm.Misses,
			Evictions:      cm.Evictions,
			HitRatePercent: calculateHitRate(cm.Hits, cm.Misses),
			FetchedIssuers: engine.Fetched().Len(),
		}
	}

	if detailed {
		data.DetailedMemory = &DetailedMemory{
			AllocMB:      float64(m.Alloc) / mb,
			TotalAllocMB: float64(m.TotalAlloc) / mb,
			SysMB:        float64(m.Sys) / mb,
			Mallocs:      m.Mallocs,
			Frees:        m.Frees,
			NextGCMB:     float64(m.NextGC) / mb,
		}
	}
	return data
}

// FormatResourceUsageAsMarkdown renders data as a markdown report.
func FormatResourceUsageAsMarkdown(data *ResourceUsageData) string {
	var buf strings.Builder
	buf.WriteString("# Resource Usage Report\n\n")
	if t, err := time.Parse(time.RFC3339, data.Timestamp); err == nil {
		fmt.Fprintf(&buf, "**Generated:** %s\n\n", t.Format("January 2, 2006 at 3:04 PM MST"))
	}

	buf.WriteString("## System Information\n\n")
	writeMetricTable(&buf, [][]string{
		{"🏷️ Go Version", data.SystemInfo.GoVersion},
		{"🔧 Platform", data.SystemInfo.GOOS + "/" + data.SystemInfo.GOARCH},
		{"🔧 CPU Count", fmt.Sprint(data.SystemInfo.NumCPU)},
		{"🔧 Goroutines", fmt.Sprint(data.SystemInfo.NumGoroutine)},
	})

	buf.WriteString("## Memory Usage\n\n")
	writeMetricTable(&buf, [][]string{
		{"💾 Heap Allocated", fmt.Sprintf("%.2f MB", data.MemoryUsage.HeapAllocMB)},
		{"💾 Heap System", fmt.Sprintf("%.2f MB", data.MemoryUsage.HeapSysMB)},
		{"💾 Heap In Use", fmt.Sprintf("%.2f MB", data.MemoryUsage.HeapInuseMB)},
		{"💾 Heap Objects", fmt.Sprint(data.MemoryUsage.HeapObjects)},
		{"💾 Stack In Use", fmt.Sprintf("%.2f MB", data.MemoryUsage.StackInuseMB)},
	})

	buf.WriteString("## Garbage Collection\n\n")
	writeMetricTable(&buf, [][]string{
		{"🗑️ GC Cycles", fmt.Sprint(data.GCStats.NumGC)},
		{"🗑️ Forced GC", fmt.Sprint(data.GCStats.NumForcedGC)},
		{"🗑️ GC CPU Fraction", fmt.Sprintf("%.4f", data.GCStats.GCCPUFraction)},
		{"🗑️ Pause Total", fmt.Sprintf("%.2f ms", data.GCStats.PauseTotalMS)},
	})

	buf.WriteString("## Chain Cache\n\n")
	writeMetricTable(&buf, [][]string{
		{"📦 Cached Chains", fmt.Sprintf("%d entries", data.ChainCache.Size)},
		{"📊 Hits", fmt.Sprint(data.ChainCache.Hits)},
		{"📊 Misses", fmt.Sprint(data.ChainCache.Misses)},
		{"📊 Evictions", fmt.Sprint(data.ChainCache.Evictions)},
		{"📊 Hit Rate", fmt.Sprintf("%.2f%%", data.ChainCache.HitRatePercent)},
		{"📦 Fetched Issuers", fmt.Sprint(data.ChainCache.FetchedIssuers)},
	})

	if d := data.DetailedMemory; d != nil {
		buf.WriteString("## Detailed Memory Statistics\n\n")
		writeMetricTable(&buf, [][]string{
			{"💾 Current Alloc", fmt.Sprintf("%.2f MB", d.AllocMB)},
			{"💾 Total Alloc", fmt.Sprintf("%.2f MB", d.TotalAllocMB)},
			{"💾 System Memory", fmt.Sprintf("%.2f MB", d.SysMB)},
			{"🗑️ Mallocs", fmt.Sprint(d.Mallocs)},
			{"🗑️ Frees", fmt.Sprint(d.Frees)},
			{"🗑️ Next GC", fmt.Sprintf("%.2f MB", d.NextGCMB)},
		})
	}
	return buf.String()
}

func writeMetricTable(buf *strings.Builder, rows [][]string) {
	table := tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"📊 METRIC", "📈 VALUE"})
	table.Bulk(rows)
	table.Render()
	buf.WriteString("\n")
}

func calculateHitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}
