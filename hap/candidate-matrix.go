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
	"github.com/willf/bitset"
)

// A MatrixRow holds the variant statuses of one variant for all panel
// haplotypes, plus a parallel coverage bit vector. Statuses and
// Covered are indexed by panel position.
type MatrixRow struct {
	Statuses []VariantStatus
	Covered  *bitset.BitSet
}

// FullyCovered tells whether all panel haplotypes are covered at this
// variant.
func (row *MatrixRow) FullyCovered() bool {
	return row.Covered.Count() == uint(len(row.Statuses))
}

// A CandidateMatrix is the variant-by-haplotype view of the genotype
// source, restricted to variants with surviving evidence. Every row
// has one column per panel haplotype, in panel order. The matrix is
// immutable after construction.
type CandidateMatrix struct {
	haplotypes []Haplotype
	variants   []VariantID
	rows       []MatrixRow
}

// NewCandidateMatrix builds the candidate matrix for the intersection
// of the variants known to the genotype source and the variants with
// observed evidence. It fails with DataInconsistency when the source
// misses a (variant, haplotype) pair for a retained variant, and with
// EmptyEvidence when no variant survives the intersection.
func NewCandidateMatrix(source GenotypeSource, evidence *VariantEvidence) (*CandidateMatrix, error) {
	haplotypes := source.Haplotypes()
	matrix := &CandidateMatrix{haplotypes: haplotypes}
	for _, variant := range source.Variants() {
		if _, ok := evidence.Call(variant); !ok {
			continue
		}
		row := MatrixRow{
			Statuses: make([]VariantStatus, len(haplotypes)),
			Covered:  bitset.New(uint(len(haplotypes))),
		}
		for column, haplotype := range haplotypes {
			status, covered, ok := source.Genotype(variant, haplotype)
			if !ok {
				return nil, &DataInconsistency{Variant: variant, Haplotype: haplotype}
			}
			row.Statuses[column] = status
			row.Covered.SetTo(uint(column), covered)
		}
		matrix.variants = append(matrix.variants, variant)
		matrix.rows = append(matrix.rows, row)
	}
	if len(matrix.variants) == 0 {
		return nil, &EmptyEvidence{}
	}
	return matrix, nil
}

// Haplotypes returns the panel in its fixed order. The returned slice
// must not be modified.
func (matrix *CandidateMatrix) Haplotypes() []Haplotype {
	return matrix.haplotypes
}

// Len returns the number of variant rows.
func (matrix *CandidateMatrix) Len() int {
	return len(matrix.variants)
}

// Variant returns the variant identifier of row i. Rows are ordered by
// ascending variant identifier.
func (matrix *CandidateMatrix) Variant(i int) VariantID {
	return matrix.variants[i]
}

// Row returns row i. The returned row must not be modified.
func (matrix *CandidateMatrix) Row(i int) *MatrixRow {
	return &matrix.rows[i]
}

// Reduce returns a new candidate matrix restricted to the given subset
// of the panel. The subset keeps the original panel order; haplotypes
// not in the panel are ignored. The receiver is left unchanged.
func (matrix *CandidateMatrix) Reduce(subset []Haplotype) *CandidateMatrix {
	keep := make(map[Haplotype]bool, len(subset))
	for _, haplotype := range subset {
		keep[haplotype] = true
	}
	var columns []int
	var haplotypes []Haplotype
	for column, haplotype := range matrix.haplotypes {
		if keep[haplotype] {
			columns = append(columns, column)
			haplotypes = append(haplotypes, haplotype)
		}
	}
	reduced := &CandidateMatrix{
		haplotypes: haplotypes,
		variants:   matrix.variants,
		rows:       make([]MatrixRow, len(matrix.rows)),
	}
	for i := range matrix.rows {
		row := MatrixRow{
			Statuses: make([]VariantStatus, len(columns)),
			Covered:  bitset.New(uint(len(columns))),
		}
		for j, column := range columns {
			row.Statuses[j] = matrix.rows[i].Statuses[column]
			row.Covered.SetTo(uint(j), matrix.rows[i].Covered.Test(uint(column)))
		}
		reduced.rows[i] = row
	}
	return reduced
}
