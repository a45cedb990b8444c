package codegen

import (
	"io"
	"sync"
	"time"

	"github.com/google/pprof/profile"
)

// Profiler accumulates per-method tick counters, a tick-count delta
// accumulated into the method's profiling counters whenever profiling is
// enabled, and exports them as a real pprof profile, so a method's hot
// path is inspectable with `go tool pprof`.
type Profiler struct {
	mu      sync.Mutex
	samples map[string]*counter
}

type counter struct {
	calls uint64
	ticks uint64
}

func NewProfiler() *Profiler {
	return &Profiler{samples: make(map[string]*counter)}
}

// Tick records one call's tick delta for the named method symbol, called
// by the runtime helper the emitted prolog invokes: _soX_profile_tick,
// see bridge.go's emitMethodBody.
func (p *Profiler) Tick(symbol string, ticks uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.samples[symbol]
	if !ok {
		c = &counter{}
		p.samples[symbol] = c
	}
	c.calls++
	c.ticks += ticks
}

// WriteTo serializes the accumulated counters as a pprof CPU-shaped
// profile (two sample types, "calls" and "ticks"; one location+function
// per method symbol, whose sample holds its call count and tick total).
func (p *Profiler) WriteTo(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "calls", Unit: "count"},
			{Type: "ticks", Unit: "count"},
		},
		TimeNanos: time.Now().UnixNano(),
	}

	var id uint64
	for symbol, c := range p.samples {
		id++
		fn := &profile.Function{ID: id, Name: symbol, SystemName: symbol}
		loc := &profile.Location{ID: id, Line: []profile.Line{{Function: fn}}}
		prof.Function = append(prof.Function, fn)
		prof.Location = append(prof.Location, loc)
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{int64(c.calls), int64(c.ticks)},
		})
	}

	return prof.Write(w)
}
