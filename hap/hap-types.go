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
	"sort"

	"gonum.org/v1/gonum/floats"
)

// A Haplotype is a named member of the candidate panel whose relative
// abundance is estimated.
type Haplotype string

// A VariantID is the unique integer key of a genomic site used as
// evidence.
type VariantID int32

// A VariantStatus records whether a haplotype reference sequence
// carries the variant allele at a site. It is orthogonal to whether
// the haplotype is covered at that site.
type VariantStatus int

const (
	// Present means the haplotype carries the variant allele.
	Present VariantStatus = iota
	// NotPresent means the haplotype does not carry the variant allele.
	NotPresent
	// Unknown means the status could not be determined upstream.
	Unknown
)

func (status VariantStatus) String() string {
	switch status {
	case Present:
		return "present"
	case NotPresent:
		return "not-present"
	default:
		return "unknown"
	}
}

// HaplotypeFractions holds one non-negative fraction per haplotype, in
// panel order. Fractions emitted by the quantification stages sum to 1
// up to floating point rounding.
type HaplotypeFractions []float64

// Sum returns the sum of all fractions.
func (fractions HaplotypeFractions) Sum() float64 {
	return floats.Sum(fractions)
}

// A Call holds the variant evidence observed upstream for one site:
// the point estimate of the allele frequency, and the empirical
// distribution over candidate allele frequencies.
type Call struct {
	AF  float64
	AFD AlleleFreqDist
}

// VariantEvidence maps variant identifiers to their observed calls.
// It is built once and immutable afterwards; iteration is in ascending
// variant order.
type VariantEvidence struct {
	variants []VariantID
	calls    map[VariantID]Call
}

// NewVariantEvidence builds the evidence view for the given calls.
// Variants failing upstream quality gates must already be excluded by
// the evidence source.
func NewVariantEvidence(calls map[VariantID]Call) *VariantEvidence {
	variants := make([]VariantID, 0, len(calls))
	for variant := range calls {
		variants = append(variants, variant)
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })
	return &VariantEvidence{variants: variants, calls: calls}
}

// Len returns the number of variants with evidence.
func (evidence *VariantEvidence) Len() int {
	return len(evidence.variants)
}

// Variants returns the variant identifiers in ascending order. The
// returned slice must not be modified.
func (evidence *VariantEvidence) Variants() []VariantID {
	return evidence.variants
}

// Call returns the call for the given variant.
func (evidence *VariantEvidence) Call(variant VariantID) (Call, bool) {
	call, ok := evidence.calls[variant]
	return call, ok
}

// A GenotypeSource provides per-haplotype genotype and coverage
// information for a panel of haplotypes, for example backed by a
// haplotype-variants VCF file.
type GenotypeSource interface {
	// Haplotypes returns the haplotype panel in its fixed order.
	Haplotypes() []Haplotype
	// Variants returns the identifiers of all variants the source
	// has genotype information for, in ascending order.
	Variants() []VariantID
	// Genotype returns the variant status of the given haplotype at
	// the given variant, and whether the haplotype is covered there.
	// ok is false when the source has no entry for this pair.
	Genotype(variant VariantID, haplotype Haplotype) (status VariantStatus, covered bool, ok bool)
}

// An EvidenceSource provides the observed variant calls, for example
// backed by a variant-calls VCF file. Implementations exclude variants
// that fail upstream quality gates (zero read depth, ambiguous absence
// probability, empty distribution).
type EvidenceSource interface {
	Evidence() (*VariantEvidence, error)
}
