// Command run solves a suite of Ising instances with both the exhaustive and
// the simulated annealing strategy, persists every batch, and prints a CSV
// summary comparing the two.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/ising"
	"github.com/fumin/ising/anneal"
	"github.com/fumin/ising/store"
)

var (
	runDir   = flag.String("d", filepath.Join("runs", "ising"), "run directory")
	numReads = flag.Int("reads", 100, "number of annealing reads per instance")
	seed     = flag.Uint64("seed", 0, "annealing random seed")
)

type instance struct {
	label     string
	couplings map[[2]int]float64
	fields    map[int]float64
}

func instances() []instance {
	chain := func(n int, j float64) map[[2]int]float64 {
		couplings := make(map[[2]int]float64)
		for i := 0; i < n-1; i++ {
			couplings[[2]int{i, i + 1}] = j
		}
		return couplings
	}
	return []instance{
		{label: "ferromagnetic_chain_8", couplings: chain(8, 1)},
		{label: "frustrated_triangle", couplings: map[[2]int]float64{
			{0, 1}: -1, {0, 2}: -1, {1, 2}: -1,
		}},
		{label: "biased_chain_3", couplings: map[[2]int]float64{
			{0, 1}: 1, {1, 2}: -1,
		}, fields: map[int]float64{0: 0.5}},
	}
}

type summary struct {
	label          string
	sites          int
	strategy       string
	energy         float64
	exact          bool
	reads          int
	groundFraction float64
	meanEnergy     float64
}

func solve(ctx context.Context, st *store.Store, inst instance) ([]summary, error) {
	h, err := ising.New(inst.couplings, inst.fields, 0)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	// Exhaustive ground states.
	searchCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	res, err := ising.GroundStates(searchCtx, h)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	exhaustive := ising.SampleSet{}
	for _, cfg := range res.Configs {
		exhaustive.Samples = append(exhaustive.Samples, ising.Sample{Config: cfg, Energy: res.Energy, Occurrences: 1})
	}
	run, err := st.AddRun(ctx, inst.label, "exhaustive", res.Exhaustive)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := st.AddSamples(ctx, run.ID, exhaustive); err != nil {
		return nil, errors.Wrap(err, "")
	}

	// Annealed best found.
	sampler := &anneal.Sampler{Seed: *seed}
	best, set, err := ising.BestFound(ctx, h, sampler, *numReads)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	run, err = st.AddRun(ctx, inst.label, "anneal", false)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := st.AddSamples(ctx, run.ID, set); err != nil {
		return nil, errors.Wrap(err, "")
	}

	return []summary{
		{
			label: inst.label, sites: h.NumSites(), strategy: "exhaustive",
			energy: res.Energy, exact: res.Exhaustive,
			reads: len(res.Configs), groundFraction: 1, meanEnergy: res.Energy,
		},
		{
			label: inst.label, sites: h.NumSites(), strategy: "anneal",
			energy: best.Energy, exact: false,
			reads: set.NumReads(), groundFraction: set.Fraction(res.Energy), meanEnergy: set.MeanEnergy(),
		},
	}, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	st, err := store.Open(filepath.Join(*runDir, "runs.db"))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer st.Close()

	ctx := context.Background()
	summaries := make([]summary, 0)
	for _, inst := range instances() {
		ss, err := solve(ctx, st, inst)
		if err != nil {
			return errors.Wrap(err, inst.label)
		}
		summaries = append(summaries, ss...)
		log.Printf("%s done", inst.label)
	}

	fmt.Printf("label,sites,strategy,energy,exact,reads,ground_fraction,mean_energy\n")
	for _, s := range summaries {
		fmt.Printf("%s,%d,%s,%f,%t,%d,%f,%f\n", s.label, s.sites, s.strategy, s.energy, s.exact, s.reads, s.groundFraction, s.meanEnergy)
	}
	return nil
}
