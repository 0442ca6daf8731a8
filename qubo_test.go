package ising

import (
	"fmt"
	"math"
	"slices"
	"testing"
)

func TestBinaryRoundTrip(t *testing.T) {
	t.Parallel()
	const n = 4
	cfg := make(Config, n)
	for i := 0; i < 1<<n; i++ {
		indexConfig(cfg, i)
		w, err := ToBinary(cfg)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		back, err := FromBinary(w)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if !slices.Equal(back, cfg) {
			t.Fatalf("%s, expected %s", back, cfg)
		}
	}

	w, err := ToBinary(Config{1, -1})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !slices.Equal(w, []int8{1, 0}) {
		t.Fatalf("%v", w)
	}

	if _, err := ToBinary(Config{0}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := FromBinary([]int8{2}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestQUBOEquivalence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		couplings map[[2]int]float64
		fields    map[int]float64
		offset    float64
	}{
		{
			couplings: map[[2]int]float64{{0, 1}: 1, {1, 2}: -1},
		},
		{
			couplings: map[[2]int]float64{{0, 1}: -1, {0, 2}: -1, {1, 2}: -1},
			fields:    map[int]float64{0: 0.5, 2: -0.25},
			offset:    1.25,
		},
		{
			fields: map[int]float64{0: 2, 1: -3},
			offset: -0.5,
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v", test.couplings, test.fields), func(t *testing.T) {
			t.Parallel()
			h, err := New(test.couplings, test.fields, test.offset)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			q := h.QUBO()

			n := h.NumSites()
			cfg := make(Config, n)
			for i := 0; i < 1<<n; i++ {
				indexConfig(cfg, i)
				es, err := h.Energy(cfg)
				if err != nil {
					t.Fatalf("%+v", err)
				}
				w, err := ToBinary(cfg)
				if err != nil {
					t.Fatalf("%+v", err)
				}
				eq, err := q.Energy(w)
				if err != nil {
					t.Fatalf("%+v", err)
				}
				if math.Abs(es-eq) > 1e-9 {
					t.Fatalf("%s: ising %f, qubo %f", cfg, es, eq)
				}
			}
		})
	}
}

func TestQUBORoundTrip(t *testing.T) {
	t.Parallel()
	h, err := New(
		map[[2]int]float64{{0, 1}: 1, {1, 2}: -1, {0, 2}: 0.5},
		map[int]float64{1: 0.75},
		-2,
	)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	back, err := h.QUBO().Ising()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	n := h.NumSites()
	cfg := make(Config, n)
	for i := 0; i < 1<<n; i++ {
		indexConfig(cfg, i)
		e, err := h.Energy(cfg)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		eb, err := back.Energy(cfg)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if math.Abs(e-eb) > 1e-9 {
			t.Fatalf("%s: %f, expected %f", cfg, eb, e)
		}
	}

	couplings := back.Couplings()
	for ij, j := range h.Couplings() {
		if math.Abs(couplings[ij]-j) > 1e-9 {
			t.Fatalf("%v: %f, expected %f", ij, couplings[ij], j)
		}
	}
}

func TestQUBOEnergyErrors(t *testing.T) {
	t.Parallel()
	q := &QUBO{Q: map[[2]int]float64{{0, 1}: -4}}
	if _, err := q.Energy([]int8{1}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := q.Energy([]int8{1, 2}); err == nil {
		t.Fatalf("expected error")
	}
}
