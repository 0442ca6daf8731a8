package ising

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
)

func TestEnergy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		couplings map[[2]int]float64
		fields    map[int]float64
		offset    float64
		cfg       Config
		energy    float64
	}{
		{
			couplings: map[[2]int]float64{{0, 1}: 1, {1, 2}: -1},
			cfg:       Config{1, 1, -1},
			energy:    -2,
		},
		{
			couplings: map[[2]int]float64{{0, 1}: 1, {1, 2}: -1},
			cfg:       Config{1, -1, 1},
			energy:    0,
		},
		{
			couplings: map[[2]int]float64{{0, 1}: 1, {1, 2}: -1},
			fields:    map[int]float64{0: 0.5},
			cfg:       Config{1, 1, -1},
			energy:    -2.5,
		},
		{
			fields: map[int]float64{0: 2},
			offset: 1.5,
			cfg:    Config{-1},
			energy: 3.5,
		},
		{
			// Reversed pair keys denote the same interaction.
			couplings: map[[2]int]float64{{1, 0}: 2},
			cfg:       Config{1, -1},
			energy:    2,
		},
		{
			offset: -0.25,
			cfg:    Config{},
			energy: -0.25,
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v %s", test.couplings, test.fields, test.cfg), func(t *testing.T) {
			t.Parallel()
			h, err := New(test.couplings, test.fields, test.offset)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			e, err := h.Energy(test.cfg)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if e != test.energy {
				t.Fatalf("%f, expected %f", e, test.energy)
			}
		})
	}
}

func TestEnergyErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		couplings map[[2]int]float64
		fields    map[int]float64
		cfg       Config
		target    error
	}{
		{
			couplings: map[[2]int]float64{{0, 1}: 1},
			cfg:       Config{1, 0},
			target:    ErrInvalidSpin,
		},
		{
			couplings: map[[2]int]float64{{0, 1}: 1},
			cfg:       Config{1, 2},
			target:    ErrInvalidSpin,
		},
		{
			couplings: map[[2]int]float64{{0, 2}: 1},
			cfg:       Config{1, -1},
			target:    ErrSiteOutOfRange,
		},
		{
			fields: map[int]float64{3: 1},
			cfg:    Config{1},
			target: ErrSiteOutOfRange,
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v %v", test.couplings, test.fields, test.cfg), func(t *testing.T) {
			t.Parallel()
			h, err := New(test.couplings, test.fields, 0)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if _, err := h.Energy(test.cfg); !errors.Is(err, test.target) {
				t.Fatalf("%+v, expected %v", err, test.target)
			}
		})
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		couplings map[[2]int]float64
		fields    map[int]float64
	}{
		{couplings: map[[2]int]float64{{1, 1}: 1}},
		{couplings: map[[2]int]float64{{0, 1}: 1, {1, 0}: 2}},
		{couplings: map[[2]int]float64{{-1, 0}: 1}},
		{fields: map[int]float64{-2: 1}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v", test.couplings, test.fields), func(t *testing.T) {
			t.Parallel()
			if _, err := New(test.couplings, test.fields, 0); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

// A pure coupling Hamiltonian is symmetric under a global spin flip.
func TestEnergyGlobalFlip(t *testing.T) {
	t.Parallel()
	couplings := map[[2]int]float64{{0, 1}: 1, {1, 2}: -0.5, {2, 3}: 2, {0, 3}: -1}
	h, err := New(couplings, nil, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	n := h.NumSites()
	cfg := make(Config, n)
	flipped := make(Config, n)
	for i := 0; i < 1<<n; i++ {
		indexConfig(cfg, i)
		for k, s := range cfg {
			flipped[k] = -s
		}
		e, err := h.Energy(cfg)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		ef, err := h.Energy(flipped)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if e != ef {
			t.Fatalf("%s %f, %s %f", cfg, e, flipped, ef)
		}
	}

	// A field breaks the symmetry.
	hf, err := New(couplings, map[int]float64{0: 1}, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	up, err := hf.Energy(Config{1, 1, 1, 1})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	down, err := hf.Energy(Config{-1, -1, -1, -1})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if up == down {
		t.Fatalf("%f", up)
	}
}

func TestEnergyIdempotent(t *testing.T) {
	t.Parallel()
	h, err := New(map[[2]int]float64{{0, 1}: 0.1, {1, 2}: 0.7, {0, 2}: -0.3}, map[int]float64{1: 0.9}, 0.01)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	cfg := Config{1, -1, 1}
	first, err := h.Energy(cfg)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for i := 0; i < 100; i++ {
		e, err := h.Energy(cfg)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if e != first {
			t.Fatalf("%x, expected %x", e, first)
		}
	}
}

func TestDense(t *testing.T) {
	t.Parallel()
	h, err := New(map[[2]int]float64{{0, 2}: 1.5}, map[int]float64{1: -0.5}, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	j, f := h.Dense()
	if r, c := j.Dims(); r != 3 || c != 3 {
		t.Fatalf("%d %d", r, c)
	}
	if j.At(0, 2) != 1.5 || j.At(2, 0) != 1.5 {
		t.Fatalf("%f %f", j.At(0, 2), j.At(2, 0))
	}
	if j.At(0, 1) != 0 {
		t.Fatalf("%f", j.At(0, 1))
	}
	if f.AtVec(1) != -0.5 {
		t.Fatalf("%f", f.AtVec(1))
	}
}

func TestConfigString(t *testing.T) {
	t.Parallel()
	cfg := Config{1, -1, -1, 1}
	if cfg.String() != "+--+" {
		t.Fatalf("%s", cfg)
	}
	parsed, err := ParseConfig("+--+")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if parsed.String() != cfg.String() {
		t.Fatalf("%s, expected %s", parsed, cfg)
	}
	if _, err := ParseConfig("+x"); err == nil {
		t.Fatalf("expected error")
	}
}
