package debug

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Profiler collects timing statistics for named sections. It is meant for
// offline hosts and tests; the realtime host uses LoadMeter instead.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	Name    string
	Count   uint64
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
	Last    time.Duration
	samples []time.Duration
	next    int
}

// NewProfiler creates a profiler keeping the last maxSamples timings per section.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = 1
	}
	return &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   maxSamples,
	}
}

// Start begins timing a named section and returns the function that stops it.
func (p *Profiler) Start(name string) func() {
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of fn.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record stores a timing measurement.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{
			Name:    name,
			Min:     elapsed,
			Max:     elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.Count++
	m.Total += elapsed
	m.Last = elapsed
	if elapsed < m.Min {
		m.Min = elapsed
	}
	if elapsed > m.Max {
		m.Max = elapsed
	}

	if len(m.samples) < p.maxSamples {
		m.samples = append(m.samples, elapsed)
	} else {
		m.samples[m.next] = elapsed
	}
	m.next = (m.next + 1) % p.maxSamples
}

// Measurement returns a copy of the measurement for a named section.
func (p *Profiler) Measurement(name string) (Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return Measurement{}, false
	}
	out := *m
	out.samples = append([]time.Duration(nil), m.samples...)
	return out, true
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report generates a performance report sorted by section name.
func (p *Profiler) Report() string {
	p.mu.RLock()
	names := make([]string, 0, len(p.measurements))
	for name := range p.measurements {
		names = append(names, name)
	}
	p.mu.RUnlock()

	if len(names) == 0 {
		return "No measurements recorded"
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Performance Report\n")
	for _, name := range names {
		m, _ := p.Measurement(name)
		fmt.Fprintf(&sb, "%s: count=%d avg=%v min=%v max=%v p99=%v\n",
			name, m.Count, m.Average(), m.Min, m.Max, m.Percentile(99))
	}
	return sb.String()
}

// Average returns the mean duration.
func (m Measurement) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// Percentile returns the p-th percentile of the retained samples.
func (m Measurement) Percentile(p float64) time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), m.samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)-1) * p / 100.0)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// LoadMeter tracks how much of the realtime budget block processing uses.
// A load of 1.0 means a block took exactly as long as it plays for.
// Observe is lock-free so the audio callback may call it.
type LoadMeter struct {
	sampleRate float64
	last       atomic.Uint64
	peak       atomic.Uint64
	blocks     atomic.Uint64
}

// NewLoadMeter creates a load meter for the given sample rate.
func NewLoadMeter(sampleRate float64) *LoadMeter {
	return &LoadMeter{sampleRate: sampleRate}
}

// Observe records the time spent processing a block of numSamples frames.
func (l *LoadMeter) Observe(elapsed time.Duration, numSamples int) {
	if numSamples <= 0 || l.sampleRate <= 0 {
		return
	}
	budget := float64(numSamples) / l.sampleRate
	load := elapsed.Seconds() / budget
	l.last.Store(uint64(load * 1e6))
	for {
		peak := l.peak.Load()
		if uint64(load*1e6) <= peak || l.peak.CompareAndSwap(peak, uint64(load*1e6)) {
			break
		}
	}
	l.blocks.Add(1)
}

// Load returns the load of the most recent block.
func (l *LoadMeter) Load() float64 {
	return float64(l.last.Load()) / 1e6
}

// Peak returns the highest load observed.
func (l *LoadMeter) Peak() float64 {
	return float64(l.peak.Load()) / 1e6
}

// Blocks returns the number of observed blocks.
func (l *LoadMeter) Blocks() uint64 {
	return l.blocks.Load()
}

// Log writes the current load figures.
func (l *LoadMeter) Log(logger logrus.FieldLogger) {
	logger.WithFields(logrus.Fields{
		"load":   fmt.Sprintf("%.1f%%", l.Load()*100),
		"peak":   fmt.Sprintf("%.1f%%", l.Peak()*100),
		"blocks": l.Blocks(),
	}).Debug("Audio load")
}
