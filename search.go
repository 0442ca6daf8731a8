package ising

import (
	"context"
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxExhaustiveSites is the practical ceiling for exhaustive search.
// Enumeration is exponential in the number of sites, and no polynomial
// algorithm is known for the general problem.
const MaxExhaustiveSites = 30

var (
	// ErrTooManySites is returned when exhaustive search is requested beyond
	// MaxExhaustiveSites. Callers choose the heuristic strategy explicitly;
	// the request is never downgraded silently.
	ErrTooManySites = errors.New("too many sites for exhaustive search")
	// ErrNoSamples is returned when reducing an empty sample batch.
	ErrNoSamples = errors.New("no samples")
)

// Result is the outcome of an exhaustive ground-state search.
type Result struct {
	// Configs are all configurations attaining Energy, sorted lexicographically.
	// When several configurations tie for the minimum, all of them are reported.
	Configs []Config
	Energy  float64
	// Exhaustive is false when the context expired before the full
	// enumeration completed, in which case Configs holds the best found so far.
	Exhaustive bool
}

// GroundStates enumerates all 2^N spin configurations and returns the global
// minimizers of h. Candidate configurations are evaluated in parallel.
//
// If ctx expires before enumeration completes, the best configurations found
// so far are returned with Exhaustive set to false and a nil error.
func GroundStates(ctx context.Context, h *Hamiltonian) (*Result, error) {
	n := h.numSites
	if n > MaxExhaustiveSites {
		return nil, errors.Wrapf(ErrTooManySites, "%d sites, limit %d", n, MaxExhaustiveSites)
	}
	if n == 0 {
		return &Result{Configs: []Config{{}}, Energy: h.offset, Exhaustive: true}, nil
	}

	total := 1 << n
	workers := min(runtime.GOMAXPROCS(0), total)
	chunk := (total + workers - 1) / workers

	parts := make([]partial, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, total)
		wg.Add(1)
		go func(part *partial) {
			defer wg.Done()
			*part = enumerate(ctx, h, lo, hi)
		}(&parts[w])
	}
	wg.Wait()

	// Min-by-energy reduction over the per-worker minima. The merge is
	// associative and commutative: ties are kept, never re-broken.
	res := &Result{Energy: math.Inf(1), Exhaustive: true}
	for _, p := range parts {
		switch {
		case p.energy < res.Energy:
			res.Energy = p.energy
			res.Configs = append(res.Configs[:0], p.configs...)
		case p.energy == res.Energy:
			res.Configs = append(res.Configs, p.configs...)
		}
		res.Exhaustive = res.Exhaustive && p.exhaustive
	}
	slices.SortFunc(res.Configs, func(a, b Config) int { return slices.Compare(a, b) })
	return res, nil
}

type partial struct {
	energy     float64
	configs    []Config
	exhaustive bool
}

func enumerate(ctx context.Context, h *Hamiltonian, lo, hi int) partial {
	p := partial{energy: math.Inf(1), exhaustive: true}
	cfg := make(Config, h.numSites)
	for i := lo; i < hi; i++ {
		if (i-lo)%4096 == 0 {
			select {
			case <-ctx.Done():
				p.exhaustive = false
				return p
			default:
			}
		}

		indexConfig(cfg, i)
		e := h.energy(cfg)
		switch {
		case e < p.energy:
			p.energy = e
			p.configs = append(p.configs[:0], slices.Clone(cfg))
		case e == p.energy:
			p.configs = append(p.configs, slices.Clone(cfg))
		}
	}
	return p
}

// indexConfig decodes enumeration index i into cfg, one bit per site.
func indexConfig(cfg Config, i int) {
	for k := range cfg {
		switch i >> k & 1 {
		case 1:
			cfg[k] = 1
		default:
			cfg[k] = -1
		}
	}
}

// Sample is one sampled configuration together with its energy and the
// number of reads that produced it.
type Sample struct {
	Config      Config
	Energy      float64
	Occurrences int
}

// SampleSet is a batch of samples returned by a heuristic sampler.
type SampleSet struct {
	Samples []Sample
}

// NumReads is the total number of reads in the batch.
func (ss SampleSet) NumReads() int {
	n := 0
	for _, s := range ss.Samples {
		n += s.Occurrences
	}
	return n
}

// Best returns the sample of minimum observed energy.
func (ss SampleSet) Best() (Sample, error) {
	if len(ss.Samples) == 0 {
		return Sample{}, errors.Wrap(ErrNoSamples, "")
	}
	best := ss.Samples[0]
	for _, s := range ss.Samples[1:] {
		if s.Energy < best.Energy {
			best = s
		}
	}
	return best, nil
}

// MinEnergy is the minimum observed energy, or NaN for an empty batch.
func (ss SampleSet) MinEnergy() float64 {
	if len(ss.Samples) == 0 {
		return math.NaN()
	}
	es := make([]float64, len(ss.Samples))
	for i, s := range ss.Samples {
		es[i] = s.Energy
	}
	return floats.Min(es)
}

// MeanEnergy is the occurrence-weighted mean energy, or NaN for an empty batch.
func (ss SampleSet) MeanEnergy() float64 {
	if len(ss.Samples) == 0 {
		return math.NaN()
	}
	es := make([]float64, len(ss.Samples))
	ws := make([]float64, len(ss.Samples))
	for i, s := range ss.Samples {
		es[i] = s.Energy
		ws[i] = float64(s.Occurrences)
	}
	return stat.Mean(es, ws)
}

// Fraction is the fraction of reads whose energy equals e.
func (ss SampleSet) Fraction(e float64) float64 {
	total := ss.NumReads()
	if total == 0 {
		return 0
	}
	hits := 0
	for _, s := range ss.Samples {
		if s.Energy == e {
			hits += s.Occurrences
		}
	}
	return float64(hits) / float64(total)
}

// Sampler is a heuristic search collaborator, such as a simulated annealer,
// that proposes low-energy configurations. Samplers are approximate: a batch
// may miss the global minimum entirely, which is the heuristic's defining
// trade-off and not an error.
type Sampler interface {
	Sample(ctx context.Context, h *Hamiltonian, numReads int) (SampleSet, error)
}

// BestFound delegates to sampler for numReads reads and reduces the batch to
// the configuration of minimum observed energy. The result is the best
// configuration found, with no guarantee of global optimality; use
// GroundStates when an exact answer is required.
func BestFound(ctx context.Context, h *Hamiltonian, sampler Sampler, numReads int) (Sample, SampleSet, error) {
	set, err := sampler.Sample(ctx, h, numReads)
	if err != nil {
		return Sample{}, SampleSet{}, errors.Wrap(err, "")
	}
	best, err := set.Best()
	if err != nil {
		return Sample{}, SampleSet{}, errors.Wrap(err, "")
	}
	return best, set, nil
}
