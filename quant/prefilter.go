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
	"sort"

	"github.com/exascience/elquant/hap"
)

// DefaultSelectionThreshold is the minimum solved fraction at which a
// haplotype is selected by the prefilter.
const DefaultSelectionThreshold = 0.01

/*
A Prefilter shrinks a haplotype panel to the subset that can explain
the observed point allele frequencies. The posterior stage enumerates
fraction assignments combinatorially in the panel size, so it needs a
small panel; the prefilter solves a linear program instead, which
handles large panels.

The program has one continuous fraction variable per haplotype, in
[0,1] and summing to 1. For every variant that is covered across the
whole panel, the absolute difference between the summed fractions of
the haplotypes carrying the variant and the observed allele frequency
is linearized with an auxiliary variable, and the sum of the auxiliary
variables is minimized (an L1 regression). Variants with partial
coverage do not contribute to the objective.
*/
type Prefilter struct {
	// Solver is the linear program backend.
	Solver Solver
	// SelectionThreshold is the minimum solved fraction for
	// selection; 0 selects DefaultSelectionThreshold.
	SelectionThreshold float64
	// MaxHaplotypes caps the number of selected haplotypes, keeping
	// those with the largest solved fractions; 0 means no cap.
	MaxHaplotypes int
}

/*
Select solves the prefilter program and returns the selected subset of
the panel, in panel order.

Haplotypes whose solved fraction reaches the selection threshold are
selected. Every other panel haplotype that is Present at exactly the
same variants as a selected one is indistinguishable from the
evidence, for the posterior stage as much as for the program, and is
included as well. The result is deduplicated and never larger than
the panel.

Select fails with InfeasibleProgram when the backend reports that no
solution exists.
*/
func (prefilter *Prefilter) Select(matrix *hap.CandidateMatrix, evidence *hap.VariantEvidence) ([]hap.Haplotype, error) {
	haplotypes := matrix.Haplotypes()
	n := len(haplotypes)

	type residual struct {
		present []int
		af      float64
	}
	var residuals []residual
	for i := 0; i < matrix.Len(); i++ {
		row := matrix.Row(i)
		if !row.FullyCovered() {
			continue
		}
		call, ok := evidence.Call(matrix.Variant(i))
		if !ok {
			continue
		}
		var present []int
		for column, status := range row.Statuses {
			if status == hap.Present {
				present = append(present, column)
			}
		}
		residuals = append(residuals, residual{present: present, af: call.AF})
	}

	m := len(residuals)
	program := &Program{NumVars: n + m, Cost: make([]float64, n+m)}
	for t := 0; t < m; t++ {
		program.Cost[n+t] = 1
	}
	sum := make([]float64, n+m)
	for i := 0; i < n; i++ {
		sum[i] = 1
	}
	program.AddConstraint(sum, Equal, 1)
	for t, residual := range residuals {
		lower := make([]float64, n+m)
		upper := make([]float64, n+m)
		lower[n+t] = 1
		upper[n+t] = 1
		for _, column := range residual.present {
			lower[column] = -1
			upper[column] = 1
		}
		program.AddConstraint(lower, GreaterEqual, -residual.af)
		program.AddConstraint(upper, GreaterEqual, residual.af)
	}
	for i := 0; i < n+m; i++ {
		bound := make([]float64, n+m)
		bound[i] = 1
		program.AddConstraint(bound, LessEqual, 1)
	}

	fractions, err := prefilter.Solver.Solve(program)
	if err != nil {
		return nil, &hap.InfeasibleProgram{Err: err}
	}

	threshold := prefilter.SelectionThreshold
	if threshold == 0 {
		threshold = DefaultSelectionThreshold
	}
	type selection struct {
		column   int
		fraction float64
	}
	var selected []selection
	for column := 0; column < n; column++ {
		if fractions[column] >= threshold {
			selected = append(selected, selection{column: column, fraction: fractions[column]})
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].fraction > selected[j].fraction
	})
	if prefilter.MaxHaplotypes > 0 && len(selected) > prefilter.MaxHaplotypes {
		selected = selected[:prefilter.MaxHaplotypes]
	}

	// index signatures once instead of rescanning the panel per
	// selected haplotype
	signatures := make([]string, n)
	index := make(map[string][]int)
	for column := 0; column < n; column++ {
		signature := make([]byte, matrix.Len())
		for i := 0; i < matrix.Len(); i++ {
			if matrix.Row(i).Statuses[column] == hap.Present {
				signature[i] = '1'
			} else {
				signature[i] = '0'
			}
		}
		signatures[column] = string(signature)
		index[signatures[column]] = append(index[signatures[column]], column)
	}
	keep := make([]bool, n)
	for _, selection := range selected {
		for _, column := range index[signatures[selection.column]] {
			keep[column] = true
		}
	}
	var result []hap.Haplotype
	for column, haplotype := range haplotypes {
		if keep[column] {
			result = append(result, haplotype)
		}
	}
	return result, nil
}
