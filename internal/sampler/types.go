package sampler

import (
	"strings"
	"time"
)

// Metric identifies one sub-metric of a Sample.
type Metric uint8

const (
	MetricCPU Metric = 1 << iota
	MetricMemory
	MetricSwap
	MetricDisk
	MetricNetwork
	MetricHost
)

var metricNames = []struct {
	m    Metric
	name string
}{
	{MetricCPU, "cpu"},
	{MetricMemory, "memory"},
	{MetricSwap, "swap"},
	{MetricDisk, "disk"},
	{MetricNetwork, "network"},
	{MetricHost, "host"},
}

// String returns the names of the metrics in the set, comma-separated.
func (m Metric) String() string {
	var names []string
	for _, mn := range metricNames {
		if m&mn.m != 0 {
			names = append(names, mn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Sample is a point-in-time snapshot of host resource usage.
// Rates are bytes per second over the time since the previous sample.
type Sample struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
	CPUCores   int     `json:"cpu_cores" yaml:"cpu_cores"`
	CPUFreqMHz float64 `json:"cpu_freq_mhz" yaml:"cpu_freq_mhz"`

	MemUsed   uint64 `json:"mem_used" yaml:"mem_used"`
	MemTotal  uint64 `json:"mem_total" yaml:"mem_total"`
	SwapUsed  uint64 `json:"swap_used" yaml:"swap_used"`
	SwapTotal uint64 `json:"swap_total" yaml:"swap_total"`

	DiskReadRate  float64 `json:"disk_read_rate" yaml:"disk_read_rate"`
	DiskWriteRate float64 `json:"disk_write_rate" yaml:"disk_write_rate"`
	NetSentRate   float64 `json:"net_sent_rate" yaml:"net_sent_rate"`
	NetRecvRate   float64 `json:"net_recv_rate" yaml:"net_recv_rate"`

	Host HostInfo `json:"host" yaml:"host"`

	// Unavailable holds the sub-metrics that could not be read for this
	// sample. Their fields are zero.
	Unavailable Metric `json:"-" yaml:"-"`
}

// Available reports whether every metric in m was read successfully.
func (s Sample) Available(m Metric) bool {
	return s.Unavailable&m == 0
}

// MemPercent returns used memory as a percentage of total.
func (s Sample) MemPercent() float64 {
	return percent(s.MemUsed, s.MemTotal)
}

// SwapPercent returns used swap as a percentage of total.
func (s Sample) SwapPercent() float64 {
	return percent(s.SwapUsed, s.SwapTotal)
}

func percent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total) * 100
}

// HostInfo contains slow-changing facts about the host.
type HostInfo struct {
	OS              string `json:"os" yaml:"os"`
	Platform        string `json:"platform" yaml:"platform"`
	PlatformVersion string `json:"platform_version" yaml:"platform_version"`
	Kernel          string `json:"kernel" yaml:"kernel"`
	Hostname        string `json:"hostname" yaml:"hostname"`
}

// HostFacts are the values the sampler caches between ticks.
type HostFacts struct {
	Cores   int
	FreqMHz float64
	Info    HostInfo
}

// DiskCounters are cumulative bytes moved by all block devices.
type DiskCounters struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// NetCounters are cumulative bytes moved by all network interfaces.
type NetCounters struct {
	BytesSent uint64
	BytesRecv uint64
}
