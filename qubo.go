package ising

import (
	"github.com/pkg/errors"
)

// ToBinary converts a spin configuration to the {0, 1} QUBO encoding, w = (s+1)/2.
func ToBinary(cfg Config) ([]int8, error) {
	w := make([]int8, len(cfg))
	for i, s := range cfg {
		switch s {
		case 1:
			w[i] = 1
		case -1:
			w[i] = 0
		default:
			return nil, errors.Wrapf(ErrInvalidSpin, "site %d value %d", i, s)
		}
	}
	return w, nil
}

// FromBinary converts a {0, 1} QUBO configuration to spins, s = 2w - 1.
// ToBinary and FromBinary are exact inverses of each other.
func FromBinary(w []int8) (Config, error) {
	cfg := make(Config, len(w))
	for i, b := range w {
		switch b {
		case 1:
			cfg[i] = 1
		case 0:
			cfg[i] = -1
		default:
			return nil, errors.Errorf("site %d value %d not 0 or 1", i, b)
		}
	}
	return cfg, nil
}

// QUBO is a quadratic unconstrained binary optimization problem
//
//	E(w) = Σ_{i<=j} Q_ij w_i w_j + offset
//
// over {0, 1}-valued variables. Diagonal entries carry the linear terms
// since w_i^2 = w_i.
type QUBO struct {
	Q      map[[2]int]float64
	Offset float64
}

// QUBO converts h to the equivalent QUBO problem under the substitution
// s = 2w - 1. Energies of corresponding configurations agree exactly.
func (h *Hamiltonian) QUBO() *QUBO {
	q := &QUBO{Q: make(map[[2]int]float64), Offset: h.offset}
	for k, ij := range h.pairs {
		// -J s_i s_j = -4J w_i w_j + 2J w_i + 2J w_j - J.
		j := h.jvals[k]
		q.Q[ij] += -4 * j
		q.Q[[2]int{ij[0], ij[0]}] += 2 * j
		q.Q[[2]int{ij[1], ij[1]}] += 2 * j
		q.Offset -= j
	}
	for k, i := range h.sites {
		// -h s_i = -2h w_i + h.
		f := h.hvals[k]
		q.Q[[2]int{i, i}] += -2 * f
		q.Offset += f
	}
	for ij, v := range q.Q {
		if v == 0 {
			delete(q.Q, ij)
		}
	}
	return q
}

// Ising converts q back to the equivalent spin Hamiltonian, inverting
// Hamiltonian.QUBO.
func (q *QUBO) Ising() (*Hamiltonian, error) {
	couplings := make(map[[2]int]float64)
	fields := make(map[int]float64)
	offset := q.Offset
	for ij, v := range q.Q {
		if ij[0] < 0 || ij[1] < 0 {
			return nil, errors.Errorf("negative site %v", ij)
		}
		if ij[0] > ij[1] {
			ij[0], ij[1] = ij[1], ij[0]
		}
		switch {
		case ij[0] == ij[1]:
			// Q_ii w_i = Q_ii (s_i+1)/2.
			fields[ij[0]] -= v / 2
			offset += v / 2
		default:
			// Q_ij w_i w_j = Q_ij (s_i s_j + s_i + s_j + 1)/4.
			j := -v / 4
			if _, ok := couplings[ij]; ok {
				return nil, errors.Errorf("duplicate pair %v", ij)
			}
			couplings[ij] = j
			fields[ij[0]] += j
			fields[ij[1]] += j
			offset -= j
		}
	}
	for i, f := range fields {
		if f == 0 {
			delete(fields, i)
		}
	}
	for ij, j := range couplings {
		if j == 0 {
			delete(couplings, ij)
		}
	}

	h, err := New(couplings, fields, offset)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return h, nil
}

// Energy computes the QUBO objective for a {0, 1} configuration.
func (q *QUBO) Energy(w []int8) (float64, error) {
	for i, b := range w {
		if b != 0 && b != 1 {
			return 0, errors.Errorf("site %d value %d not 0 or 1", i, b)
		}
	}

	e := q.Offset
	for ij, v := range q.Q {
		if ij[0] >= len(w) || ij[1] >= len(w) {
			return 0, errors.Wrapf(ErrSiteOutOfRange, "%v in %d-site configuration", ij, len(w))
		}
		e += v * float64(w[ij[0]]*w[ij[1]])
	}
	return e, nil
}
