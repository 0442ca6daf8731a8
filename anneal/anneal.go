// Package anneal implements a simulated annealing sampler for Ising
// Hamiltonians.
//
// The sampler performs single-spin-flip Metropolis updates while the inverse
// temperature rises along a geometric schedule, so early sweeps explore
// freely and late sweeps settle into low-energy configurations. Sampling is
// heuristic: a batch is not guaranteed to contain a global minimizer.
package anneal

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/fumin/ising"
)

// Sampler is a simulated annealing sampler. The zero value is ready to use.
// It implements ising.Sampler.
type Sampler struct {
	// Sweeps is the number of Metropolis sweeps per read. Default 1000.
	Sweeps int
	// Betas is the inverse temperature range [hot, cold] of the geometric
	// schedule. When zero, the range is derived from the problem's
	// single-flip energy scales.
	Betas [2]float64
	// Seed seeds the random generator. Equal seeds give identical batches.
	Seed uint64
}

// Sample runs numReads independent anneals and returns the sampled
// configurations with their energies. Identical configurations are
// aggregated, summing their occurrences.
func (s *Sampler) Sample(ctx context.Context, h *ising.Hamiltonian, numReads int) (ising.SampleSet, error) {
	if numReads <= 0 {
		return ising.SampleSet{}, errors.Errorf("numReads %d", numReads)
	}

	n := h.NumSites()
	if n == 0 {
		cfg := ising.Config{}
		e, err := h.Energy(cfg)
		if err != nil {
			return ising.SampleSet{}, errors.Wrap(err, "")
		}
		return ising.SampleSet{Samples: []ising.Sample{{Config: cfg, Energy: e, Occurrences: numReads}}}, nil
	}

	prob := newProblem(h)
	sweeps := s.Sweeps
	if sweeps <= 0 {
		sweeps = 1000
	}
	betas := s.Betas
	if betas == [2]float64{} {
		betas = prob.defaultBetas()
	}
	schedule := geometric(betas, sweeps)
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))

	occurrences := make(map[string]int)
	order := make([]ising.Config, 0, numReads)
	cfg := make(ising.Config, n)
	for read := 0; read < numReads; read++ {
		select {
		case <-ctx.Done():
			return ising.SampleSet{}, errors.Wrap(ctx.Err(), "")
		default:
		}

		for i := range cfg {
			switch rng.IntN(2) {
			case 1:
				cfg[i] = 1
			default:
				cfg[i] = -1
			}
		}
		for _, beta := range schedule {
			prob.sweep(rng, cfg, beta)
		}

		key := cfg.String()
		if _, ok := occurrences[key]; !ok {
			order = append(order, append(ising.Config(nil), cfg...))
		}
		occurrences[key]++
	}

	set := ising.SampleSet{Samples: make([]ising.Sample, 0, len(order))}
	for _, c := range order {
		e, err := h.Energy(c)
		if err != nil {
			return ising.SampleSet{}, errors.Wrap(err, "")
		}
		set.Samples = append(set.Samples, ising.Sample{Config: c, Energy: e, Occurrences: occurrences[c.String()]})
	}
	return set, nil
}

type neighbor struct {
	site int
	j    float64
}

// problem is a Hamiltonian flattened into adjacency lists for fast
// single-flip energy differences.
type problem struct {
	neighbors [][]neighbor
	fields    []float64
}

func newProblem(h *ising.Hamiltonian) *problem {
	n := h.NumSites()
	p := &problem{neighbors: make([][]neighbor, n), fields: make([]float64, n)}
	for ij, j := range h.Couplings() {
		p.neighbors[ij[0]] = append(p.neighbors[ij[0]], neighbor{site: ij[1], j: j})
		p.neighbors[ij[1]] = append(p.neighbors[ij[1]], neighbor{site: ij[0], j: j})
	}
	for i, f := range h.Fields() {
		p.fields[i] = f
	}
	return p
}

// delta is the energy change of flipping site k.
func (p *problem) delta(cfg ising.Config, k int) float64 {
	local := p.fields[k]
	for _, nb := range p.neighbors[k] {
		local += nb.j * float64(cfg[nb.site])
	}
	return 2 * float64(cfg[k]) * local
}

func (p *problem) sweep(rng *rand.Rand, cfg ising.Config, beta float64) {
	for k := range cfg {
		d := p.delta(cfg, k)
		if d <= 0 || rng.Float64() < math.Exp(-beta*d) {
			cfg[k] = -cfg[k]
		}
	}
}

// defaultBetas derives the schedule endpoints from the largest and smallest
// per-site single-flip energy scales, so that the hottest sweep accepts most
// flips and the coldest accepts almost none.
func (p *problem) defaultBetas() [2]float64 {
	maxScale, minScale := 0.0, math.Inf(1)
	for k := range p.neighbors {
		scale := math.Abs(p.fields[k])
		for _, nb := range p.neighbors[k] {
			scale += math.Abs(nb.j)
		}
		scale *= 2
		maxScale = math.Max(maxScale, scale)
		if scale > 0 {
			minScale = math.Min(minScale, scale)
		}
	}
	if maxScale == 0 {
		return [2]float64{0.1, 1}
	}
	return [2]float64{math.Log(2) / maxScale, math.Log(100) / minScale}
}

func geometric(betas [2]float64, sweeps int) []float64 {
	schedule := make([]float64, sweeps)
	if sweeps == 1 {
		schedule[0] = betas[1]
		return schedule
	}
	ratio := math.Pow(betas[1]/betas[0], 1/float64(sweeps-1))
	beta := betas[0]
	for i := range schedule {
		schedule[i] = beta
		beta *= ratio
	}
	return schedule
}
