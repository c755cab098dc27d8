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

package quant

import (
	"fmt"
	"math"
	"sort"

	"github.com/exascience/elquant/hap"
	"github.com/exascience/pargo/parallel"
)

// A PriorMode selects how candidate fraction assignments are
// generated and weighted.
type PriorMode int

const (
	// PriorUniform enumerates all fraction assignments on a uniform
	// grid at the configured resolution.
	PriorUniform PriorMode = iota
	// PriorDiploid enumerates the assignments expressible by two
	// haplotype copies: one haplotype at fraction 1, or two at 0.5.
	PriorDiploid
)

// ParsePriorMode parses a prior mode name.
func ParsePriorMode(s string) (PriorMode, error) {
	switch s {
	case "uniform":
		return PriorUniform, nil
	case "diploid":
		return PriorDiploid, nil
	default:
		return 0, fmt.Errorf("invalid prior mode %v", s)
	}
}

func (mode PriorMode) String() string {
	switch mode {
	case PriorDiploid:
		return "diploid"
	default:
		return "uniform"
	}
}

const (
	// DefaultResolution is the uniform grid resolution.
	DefaultResolution = 100

	// DefaultMaxEvents is the safety bound on the number of
	// enumerated fraction assignments.
	DefaultMaxEvents = 5000000
)

// A RankedEvent pairs a candidate fraction assignment with its
// unnormalized log-posterior.
type RankedEvent struct {
	Fractions    hap.HaplotypeFractions
	LogPosterior float64
}

/*
An Engine enumerates candidate haplotype fraction assignments over a
reduced panel and ranks them by unnormalized posterior. This is the
computational bottleneck of the pipeline: the event space grows
combinatorially with the panel size, which is why the prefilter runs
first.
*/
type Engine struct {
	// Prior selects the event space and its weighting.
	Prior PriorMode
	// Resolution is the uniform grid resolution; 0 selects
	// DefaultResolution.
	Resolution int
	// UpperBound is the maximum fraction any single haplotype may
	// take; 0 selects 1.
	UpperBound float64
	// MaxEvents bounds the event space; 0 selects DefaultMaxEvents.
	MaxEvents int
}

func (engine *Engine) upperBound() float64 {
	if engine.UpperBound == 0 {
		return 1
	}
	return engine.UpperBound
}

func (engine *Engine) maxEvents() int {
	if engine.MaxEvents == 0 {
		return DefaultMaxEvents
	}
	return engine.MaxEvents
}

/*
ImpliedVAF computes the allele frequency implied at one variant by a
candidate fraction assignment: the summed fractions of the haplotypes
that carry the variant and are covered there, divided by 1 minus the
summed fractions of the haplotypes that neither carry the variant nor
are covered, rounded to 2 decimal places. The denominator correction
is only applied while it stays positive.

ok is false when no covered haplotype carries the variant, in which
case the variant is neutral for the assignment.
*/
func ImpliedVAF(row *hap.MatrixRow, fractions hap.HaplotypeFractions) (vaf float64, ok bool) {
	vafSum := 0.0
	denom := 1.0
	contributors := 0
	for column, status := range row.Statuses {
		covered := row.Covered.Test(uint(column))
		switch {
		case status == hap.Present && covered:
			vafSum += fractions[column]
			contributors++
		case status == hap.NotPresent && !covered:
			denom -= fractions[column]
		}
	}
	if contributors == 0 {
		return 0, false
	}
	if denom > 0 {
		vafSum /= denom
	}
	return math.Round(vafSum*100) / 100, true
}

// logLikelihood sums the log-probabilities of the implied allele
// frequencies over all contributing variants.
func logLikelihood(matrix *hap.CandidateMatrix, evidence *hap.VariantEvidence, fractions hap.HaplotypeFractions) (float64, error) {
	likelihood := 0.0
	for i := 0; i < matrix.Len(); i++ {
		call, ok := evidence.Call(matrix.Variant(i))
		if !ok {
			continue
		}
		vaf, ok := ImpliedVAF(matrix.Row(i), fractions)
		if !ok {
			continue
		}
		logProb, err := call.AFD.VafQuery(vaf)
		if err != nil {
			return 0, err
		}
		likelihood += logProb
	}
	return likelihood, nil
}

// logPrior is a pure function of the assignment shape, independent of
// the data. Both modes weight their admissible assignments uniformly,
// so the prior is flat in log space.
func logPrior(mode PriorMode, fractions hap.HaplotypeFractions) float64 {
	return 0
}

// enumerate generates the event space for a panel of size n, in a
// fixed order that also serves as the tie-break order of the ranking.
func (engine *Engine) enumerate(n int) ([]hap.HaplotypeFractions, error) {
	maxEvents := engine.maxEvents()
	upper := engine.upperBound()
	var events []hap.HaplotypeFractions
	appendEvent := func(fractions hap.HaplotypeFractions) error {
		if len(events) >= maxEvents {
			return &hap.EnumerationOverflow{Limit: maxEvents}
		}
		events = append(events, fractions)
		return nil
	}
	switch engine.Prior {
	case PriorDiploid:
		if upper >= 1 {
			for i := 0; i < n; i++ {
				fractions := make(hap.HaplotypeFractions, n)
				fractions[i] = 1
				if err := appendEvent(fractions); err != nil {
					return nil, err
				}
			}
		}
		if upper >= 0.5 {
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					fractions := make(hap.HaplotypeFractions, n)
					fractions[i] = 0.5
					fractions[j] = 0.5
					if err := appendEvent(fractions); err != nil {
						return nil, err
					}
				}
			}
		}
	default:
		resolution := engine.Resolution
		if resolution == 0 {
			resolution = DefaultResolution
		}
		maxPart := int(upper*float64(resolution) + 1e-9)
		parts := make([]int, n)
		var build func(column, remaining int) error
		build = func(column, remaining int) error {
			if column == n-1 {
				if remaining > maxPart {
					return nil
				}
				parts[column] = remaining
				fractions := make(hap.HaplotypeFractions, n)
				for i, part := range parts {
					fractions[i] = float64(part) / float64(resolution)
				}
				return appendEvent(fractions)
			}
			max := maxPart
			if remaining < max {
				max = remaining
			}
			for part := 0; part <= max; part++ {
				parts[column] = part
				if err := build(column+1, remaining-part); err != nil {
					return err
				}
			}
			return nil
		}
		if err := build(0, resolution); err != nil {
			return nil, err
		}
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no admissible fraction assignments for %v haplotypes with upper bound %v", n, upper)
	}
	return events, nil
}

/*
Rank enumerates the event space for the panel of the given candidate
matrix and returns all assignments with their unnormalized
log-posteriors, sorted by non-increasing log-posterior. Ties keep the
enumeration order, so identical inputs always produce the identical
ranking. The result is fully materialized and can be iterated any
number of times.

Independent assignments are scored in parallel; the matrix and the
evidence are only read.
*/
func (engine *Engine) Rank(matrix *hap.CandidateMatrix, evidence *hap.VariantEvidence) ([]RankedEvent, error) {
	n := len(matrix.Haplotypes())
	if n == 0 {
		return nil, fmt.Errorf("empty haplotype panel")
	}
	events, err := engine.enumerate(n)
	if err != nil {
		return nil, err
	}
	ranked := make([]RankedEvent, len(events))
	errs := make([]error, len(events))
	parallel.Range(0, len(events), 0, func(low, high int) {
		for i := low; i < high; i++ {
			likelihood, err := logLikelihood(matrix, evidence, events[i])
			if err != nil {
				errs[i] = err
				continue
			}
			ranked[i] = RankedEvent{
				Fractions:    events[i],
				LogPosterior: logPrior(engine.Prior, events[i]) + likelihood,
			}
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LogPosterior > ranked[j].LogPosterior
	})
	return ranked, nil
}
