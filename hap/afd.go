// elQuant: a tool for estimating haplotype fractions from variant evidence.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elquant/blob/master/LICENSE.txt>.

package hap

import (
	"math"
	"sort"
)

// An AFDEntry pairs a candidate allele frequency with its empirical
// density.
type AFDEntry struct {
	VAF, Density float64
}

// An AlleleFreqDist is an empirical distribution over candidate allele
// frequencies at one variant, with at least one entry and strictly
// increasing VAF keys.
type AlleleFreqDist []AFDEntry

// MakeAlleleFreqDist copies the given entries into a distribution,
// sorted by increasing VAF.
func MakeAlleleFreqDist(entries []AFDEntry) AlleleFreqDist {
	afd := make(AlleleFreqDist, len(entries))
	copy(afd, entries)
	sort.Slice(afd, func(i, j int) bool { return afd[i].VAF < afd[j].VAF })
	return afd
}

// Min returns the smallest VAF key.
func (afd AlleleFreqDist) Min() float64 {
	return afd[0].VAF
}

// Max returns the largest VAF key.
func (afd AlleleFreqDist) Max() float64 {
	return afd[len(afd)-1].VAF
}

/*
VafQuery returns the log-probability of observing the given allele
frequency under the distribution.

An exact key hit returns the log of the density recorded at that key.
Any other query inside the key range is answered by linear
interpolation between the densities of the nearest lower and upper
keys. Queries outside the key range fail with OutOfRangeQuery; the
distribution is never extrapolated.

VafQuery is pure and deterministic, so it can be called concurrently.
*/
func (afd AlleleFreqDist) VafQuery(vaf float64) (float64, error) {
	upper := sort.Search(len(afd), func(i int) bool { return afd[i].VAF >= vaf })
	if upper < len(afd) && afd[upper].VAF == vaf {
		return math.Log(afd[upper].Density), nil
	}
	if upper == 0 || upper == len(afd) {
		return 0, &OutOfRangeQuery{Query: vaf, Min: afd.Min(), Max: afd.Max()}
	}
	x0, y0 := afd[upper-1].VAF, afd[upper-1].Density
	x1, y1 := afd[upper].VAF, afd[upper].Density
	density := y0 + (vaf-x0)*(y1-y0)/(x1-x0)
	return math.Log(density), nil
}
