// Package metrics exposes store activity as Prometheus collectors.
//
// A nil *Collector is valid and records nothing, so packages can take one
// unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pagestore"

// Collector groups the counters of one store.
type Collector struct {
	Allocations      prometheus.Counter
	Frees            prometheus.Counter
	PagesFreed       prometheus.Counter
	ChapterGrowths   prometheus.Counter
	BytesRead        prometheus.Counter
	BytesWritten     prometheus.Counter
	ChecksumFailures prometheus.Counter

	lockGauge prometheus.GaugeFunc
}

// New creates a collector. lockCount, when non-nil, backs the lock
// registry size gauge. constLabels distinguish stores sharing a registry.
func New(constLabels prometheus.Labels, lockCount func() float64) *Collector {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	c := &Collector{
		Allocations:      counter("allocations_total", "Chains allocated."),
		Frees:            counter("frees_total", "Chains freed."),
		PagesFreed:       counter("pages_freed_total", "Pages returned to the free list."),
		ChapterGrowths:   counter("chapter_growths_total", "Chapters appended to the file."),
		BytesRead:        counter("read_bytes_total", "Payload bytes returned to callers."),
		BytesWritten:     counter("written_bytes_total", "Payload bytes accepted from callers."),
		ChecksumFailures: counter("checksum_failures_total", "Pages whose footer did not match."),
	}
	if lockCount != nil {
		c.lockGauge = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "page_locks",
			Help:        "Page locks currently registered.",
			ConstLabels: constLabels,
		}, lockCount)
	}
	return c
}

func (c *Collector) collectors() []prometheus.Collector {
	cs := []prometheus.Collector{
		c.Allocations, c.Frees, c.PagesFreed, c.ChapterGrowths,
		c.BytesRead, c.BytesWritten, c.ChecksumFailures,
	}
	if c.lockGauge != nil {
		cs = append(cs, c.lockGauge)
	}
	return cs
}

// Register adds every collector to reg. A nil reg is a no-op.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if c == nil || reg == nil {
		return nil
	}
	for _, col := range c.collectors() {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes every collector from reg.
func (c *Collector) Unregister(reg prometheus.Registerer) {
	if c == nil || reg == nil {
		return
	}
	for _, col := range c.collectors() {
		reg.Unregister(col)
	}
}

func (c *Collector) Allocated() {
	if c != nil {
		c.Allocations.Inc()
	}
}

func (c *Collector) Freed(pages int) {
	if c != nil {
		c.Frees.Inc()
		c.PagesFreed.Add(float64(pages))
	}
}

func (c *Collector) Grew() {
	if c != nil {
		c.ChapterGrowths.Inc()
	}
}

func (c *Collector) Read(n int) {
	if c != nil {
		c.BytesRead.Add(float64(n))
	}
}

func (c *Collector) Wrote(n int) {
	if c != nil {
		c.BytesWritten.Add(float64(n))
	}
}

func (c *Collector) ChecksumFailed() {
	if c != nil {
		c.ChecksumFailures.Inc()
	}
}
