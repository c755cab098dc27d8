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

import "fmt"

// All errors below are terminal for one quantification call. The
// stages surface them unchanged; the caller decides whether to abort
// or to skip the sample. Use errors.As to branch on the failure kind.

// A DataInconsistency reports a candidate matrix row whose haplotype
// columns do not match the panel.
type DataInconsistency struct {
	Variant   VariantID
	Haplotype Haplotype
}

func (err *DataInconsistency) Error() string {
	return fmt.Sprintf("no genotype for haplotype %v at variant %v: candidate matrix columns do not match the panel", err.Haplotype, err.Variant)
}

// An OutOfRangeQuery reports an allele frequency queried outside the
// domain of an empirical distribution. Densities are never
// extrapolated.
type OutOfRangeQuery struct {
	Query, Min, Max float64
}

func (err *OutOfRangeQuery) Error() string {
	return fmt.Sprintf("allele frequency %v outside the distribution domain [%v, %v]", err.Query, err.Min, err.Max)
}

// An InfeasibleProgram reports that the haplotype selection program
// has no solution.
type InfeasibleProgram struct {
	Err error
}

func (err *InfeasibleProgram) Error() string {
	return fmt.Sprintf("haplotype selection program cannot be solved: %v", err.Err)
}

func (err *InfeasibleProgram) Unwrap() error {
	return err.Err
}

// An EmptyEvidence reports that no variant survived the intersection
// of genotype information and observed calls.
type EmptyEvidence struct{}

func (err *EmptyEvidence) Error() string {
	return "no variants with both genotype information and observed calls"
}

// An EnumerationOverflow reports that the fraction event space exceeds
// the safety bound for the configured panel size and resolution.
type EnumerationOverflow struct {
	Limit int
}

func (err *EnumerationOverflow) Error() string {
	return fmt.Sprintf("number of haplotype fraction events exceeds the safety bound %d; reduce the panel size or the resolution", err.Limit)
}
