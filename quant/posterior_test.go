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
	"errors"
	"math"
	"testing"

	"github.com/exascience/elquant/hap"
)

func floatsClose(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestImpliedVAF(t *testing.T) {
	matrix, _ := makeTwoHaplotypeFixture(t)
	// variant 1 is carried by A only
	vaf, ok := ImpliedVAF(matrix.Row(0), hap.HaplotypeFractions{0.5, 0.5})
	if !ok || vaf != 0.5 {
		t.Error("ImpliedVAF 1 failed, got", vaf, ok)
	}
	// variant 2 is carried by both
	vaf, ok = ImpliedVAF(matrix.Row(1), hap.HaplotypeFractions{0.3, 0.7})
	if !ok || vaf != 1.0 {
		t.Error("ImpliedVAF 2 failed, got", vaf, ok)
	}
	if _, ok = ImpliedVAF(matrix.Row(0), hap.HaplotypeFractions{0, 1}); !ok {
		t.Error("ImpliedVAF must treat a zero fraction carrier as a contributor")
	}
}

func TestImpliedVAFDenominator(t *testing.T) {
	source := &testSource{
		haplotypes: []hap.Haplotype{"A", "B"},
		variants:   []hap.VariantID{1},
		rows: map[hap.VariantID][]testGenotype{
			1: {{hap.Present, true}, {hap.NotPresent, false}},
		},
	}
	evidence := makeEvidence(map[hap.VariantID]float64{1: 1.0})
	matrix, err := hap.NewCandidateMatrix(source, evidence)
	if err != nil {
		t.Fatal("NewCandidateMatrix failed:", err)
	}
	// B neither carries the variant nor covers it, so its fraction is
	// removed from the denominator: 0.6 / (1 - 0.4) = 1
	vaf, ok := ImpliedVAF(matrix.Row(0), hap.HaplotypeFractions{0.6, 0.4})
	if !ok || vaf != 1.0 {
		t.Error("ImpliedVAF denominator correction failed, got", vaf, ok)
	}
	// a non-positive denominator leaves the sum uncorrected
	vaf, ok = ImpliedVAF(matrix.Row(0), hap.HaplotypeFractions{0, 1})
	if !ok || vaf != 0.0 {
		t.Error("ImpliedVAF zero denominator failed, got", vaf, ok)
	}
}

func TestImpliedVAFNoContributor(t *testing.T) {
	source := &testSource{
		haplotypes: []hap.Haplotype{"A", "B"},
		variants:   []hap.VariantID{1},
		rows: map[hap.VariantID][]testGenotype{
			1: {{hap.NotPresent, true}, {hap.Present, false}},
		},
	}
	evidence := makeEvidence(map[hap.VariantID]float64{1: 0.5})
	matrix, err := hap.NewCandidateMatrix(source, evidence)
	if err != nil {
		t.Fatal("NewCandidateMatrix failed:", err)
	}
	if _, ok := ImpliedVAF(matrix.Row(0), hap.HaplotypeFractions{0.5, 0.5}); ok {
		t.Error("ImpliedVAF without covered carriers must report ok == false")
	}
}

func checkRanking(t *testing.T, ranked []RankedEvent, upper float64) {
	t.Helper()
	for i, event := range ranked {
		sum := event.Fractions.Sum()
		if math.Abs(sum-1) > 1e-6 {
			t.Error("event", i, "fractions sum to", sum)
		}
		for _, fraction := range event.Fractions {
			if fraction < 0 || fraction > upper+1e-9 {
				t.Error("event", i, "fraction out of bounds:", fraction)
			}
		}
		if i > 0 && event.LogPosterior > ranked[i-1].LogPosterior {
			t.Error("ranking not sorted at position", i)
		}
	}
}

func TestRankUniform(t *testing.T) {
	matrix, evidence := makeTwoHaplotypeFixture(t)
	engine := &Engine{Prior: PriorUniform, Resolution: 2}
	ranked, err := engine.Rank(matrix, evidence)
	if err != nil {
		t.Fatal("Rank failed:", err)
	}
	// resolution 2 admits (0,1), (0.5,0.5), and (1,0)
	if len(ranked) != 3 {
		t.Fatal("Rank returned", len(ranked), "events")
	}
	checkRanking(t, ranked, 1)
	best := ranked[0]
	if best.Fractions[0] != 0.5 || best.Fractions[1] != 0.5 {
		t.Error("best event is not the equal mixture:", best.Fractions)
	}
	// the equal mixture implies frequencies 0.5, 1.0, 0.5
	expected := 2*math.Log(0.9) + math.Log(0.01)
	if !floatsClose(best.LogPosterior, expected) {
		t.Error("best log posterior is", best.LogPosterior, "expected", expected)
	}
	for _, event := range ranked[1:] {
		if event.LogPosterior >= best.LogPosterior {
			t.Error("single haplotype event outranks the equal mixture")
		}
	}
}

func TestRankDeterminism(t *testing.T) {
	matrix, evidence := makeTwoHaplotypeFixture(t)
	engine := &Engine{Prior: PriorUniform, Resolution: 4}
	ranked1, err := engine.Rank(matrix, evidence)
	if err != nil {
		t.Fatal("Rank failed:", err)
	}
	ranked2, err := engine.Rank(matrix, evidence)
	if err != nil {
		t.Fatal("Rank failed:", err)
	}
	if len(ranked1) != len(ranked2) {
		t.Fatal("rankings differ in length")
	}
	for i := range ranked1 {
		if ranked1[i].LogPosterior != ranked2[i].LogPosterior {
			t.Fatal("rankings differ in posterior at position", i)
		}
		for j := range ranked1[i].Fractions {
			if ranked1[i].Fractions[j] != ranked2[i].Fractions[j] {
				t.Fatal("rankings differ in fractions at position", i)
			}
		}
	}
}

func TestRankDiploid(t *testing.T) {
	source := &testSource{
		haplotypes: []hap.Haplotype{"A", "B", "C"},
		variants:   []hap.VariantID{1},
		rows: map[hap.VariantID][]testGenotype{
			1: {{hap.Present, true}, {hap.NotPresent, true}, {hap.NotPresent, true}},
		},
	}
	evidence := makeEvidence(map[hap.VariantID]float64{1: 0.5})
	matrix, err := hap.NewCandidateMatrix(source, evidence)
	if err != nil {
		t.Fatal("NewCandidateMatrix failed:", err)
	}
	engine := &Engine{Prior: PriorDiploid}
	ranked, err := engine.Rank(matrix, evidence)
	if err != nil {
		t.Fatal("Rank failed:", err)
	}
	// 3 homozygous events plus 3 heterozygous pairs
	if len(ranked) != 6 {
		t.Fatal("Rank returned", len(ranked), "events")
	}
	checkRanking(t, ranked, 1)
	best := ranked[0]
	if best.Fractions[0] != 0.5 || best.Fractions[1]+best.Fractions[2] != 0.5 {
		t.Error("best diploid event does not put A at 0.5:", best.Fractions)
	}
}

func TestRankDiploidUpperBound(t *testing.T) {
	matrix, evidence := makeTwoHaplotypeFixture(t)
	engine := &Engine{Prior: PriorDiploid, UpperBound: 0.5}
	ranked, err := engine.Rank(matrix, evidence)
	if err != nil {
		t.Fatal("Rank failed:", err)
	}
	// the bound excludes the homozygous events
	if len(ranked) != 1 {
		t.Fatal("Rank returned", len(ranked), "events")
	}
	if ranked[0].Fractions[0] != 0.5 || ranked[0].Fractions[1] != 0.5 {
		t.Error("bounded diploid event is not the equal mixture:", ranked[0].Fractions)
	}
}

func TestRankUniformUpperBound(t *testing.T) {
	matrix, evidence := makeTwoHaplotypeFixture(t)
	engine := &Engine{Prior: PriorUniform, Resolution: 2, UpperBound: 0.5}
	ranked, err := engine.Rank(matrix, evidence)
	if err != nil {
		t.Fatal("Rank failed:", err)
	}
	if len(ranked) != 1 {
		t.Fatal("Rank returned", len(ranked), "events")
	}
	checkRanking(t, ranked, 0.5)
}

func TestRankOverflow(t *testing.T) {
	matrix, evidence := makeTwoHaplotypeFixture(t)
	engine := &Engine{Prior: PriorUniform, Resolution: 10, MaxEvents: 3}
	var overflow *hap.EnumerationOverflow
	if _, err := engine.Rank(matrix, evidence); !errors.As(err, &overflow) {
		t.Error("event space overflow did not surface as EnumerationOverflow")
	} else if overflow.Limit != 3 {
		t.Error("overflow limit is", overflow.Limit)
	}
}

func TestRankEmptyPanel(t *testing.T) {
	matrix, evidence := makeTwoHaplotypeFixture(t)
	reduced := matrix.Reduce(nil)
	engine := &Engine{Prior: PriorUniform, Resolution: 2}
	if _, err := engine.Rank(reduced, evidence); err == nil {
		t.Error("Rank on an empty panel must fail")
	}
}
