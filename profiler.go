package gekko2d

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// Counter names recorded for every frame.
const (
	CountGPUCalls  = "gpu_calls"
	CountDrawables = "drawables"
	CountLights    = "lights"
)

// FrameStats keeps the CPU timings and counters of the last frame.
type FrameStats struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	now func() time.Time
}

func NewFrameStats() *FrameStats {
	return &FrameStats{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Order:      make([]string, 0),
		now:        time.Now,
	}
}

func (p *FrameStats) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	// Insertion order keeps the report stable.
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

func (p *FrameStats) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = p.now().Sub(start)
	}
}

func (p *FrameStats) SetCount(name string, count int) {
	p.Counts[name] = count
}

func (p *FrameStats) Count(name string) int {
	return p.Counts[name]
}

func (p *FrameStats) Scope(name string) time.Duration {
	return p.Scopes[name]
}

// Reset zeroes the timings and keeps scope order and counters.
func (p *FrameStats) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

func (p *FrameStats) String() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, ms))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
	}

	return sb.String()
}
