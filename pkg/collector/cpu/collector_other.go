//go:build !linux
// +build !linux

package cpu

// Collector falls back to gopsutil where procfs is unavailable.
type Collector = PortableCollector

// NewCollector returns the portable collector.
func NewCollector(cfg Config) (*Collector, error) {
	return NewPortableCollector(cfg)
}
