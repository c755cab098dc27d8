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

package vcf

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/exascience/elquant/hap"
)

func writeTempVcf(t *testing.T, name, contents string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "elquant-vcf-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	filename := filepath.Join(dir, name)
	if err := ioutil.WriteFile(filename, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
	return filename
}

const testHaplotypeVariants = "##fileformat=VCFv4.2\n" +
	"##source=test\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tA1\tA2\n" +
	"chr6\t100\t1\tA\tT\t.\tPASS\t.\tGT:C\t1:1\t0:1\n" +
	"chr6\t200\t2\tG\tC\t.\tPASS\t.\tGT:C\t0:1\t1:0\n" +
	"chr6\t300\t3\tT\tG\t.\tPASS\t.\tGT:C\t.:1\t1:1\n"

func TestReadHaplotypeVariants(t *testing.T) {
	filename := writeTempVcf(t, "haplotype-variants.vcf", testHaplotypeVariants)
	panel, err := ReadHaplotypeVariants(filename)
	if err != nil {
		t.Fatal("ReadHaplotypeVariants failed:", err)
	}
	haplotypes := panel.Haplotypes()
	if len(haplotypes) != 2 || haplotypes[0] != "A1" || haplotypes[1] != "A2" {
		t.Error("panel does not follow the sample column order")
	}
	variants := panel.Variants()
	if len(variants) != 3 || variants[0] != 1 || variants[1] != 2 || variants[2] != 3 {
		t.Error("variant identifiers wrong")
	}
	checkGenotype := func(variant hap.VariantID, haplotype hap.Haplotype, status hap.VariantStatus, covered bool) {
		t.Helper()
		s, c, ok := panel.Genotype(variant, haplotype)
		if !ok || s != status || c != covered {
			t.Errorf("genotype of %v at variant %v wrong", haplotype, variant)
		}
	}
	checkGenotype(1, "A1", hap.Present, true)
	checkGenotype(1, "A2", hap.NotPresent, true)
	checkGenotype(2, "A2", hap.Present, false)
	checkGenotype(3, "A1", hap.Unknown, true)
	if _, _, ok := panel.Genotype(4, "A1"); ok {
		t.Error("unknown variant reported as known")
	}
}

const testVariantCalls = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tsample\n" +
	"chr6\t100\t1\tA\tT\t.\tPASS\tPROB_ABSENT=60.0\tDP:AF:AFD\t10:0.5:0.5=0.9,0.0=0.01,1.0=0.01\n" +
	"chr6\t200\t2\tG\tC\t.\tPASS\tPROB_ABSENT=60.0\tDP:AF:AFD\t0:0.5:0.0=0.5,1.0=0.5\n" +
	"chr6\t300\t3\tT\tG\t.\tPASS\tPROB_ABSENT=3.0\tDP:AF:AFD\t10:0.5:0.0=0.5,1.0=0.5\n" +
	"chr6\t400\t4\tT\tG\t.\tPASS\tPROB_ABSENT=60.0\tDP:AF:AFD\t10:0.5:.\n" +
	"chr6\t500\t5\tC\tA\t.\tPASS\tPROB_ABSENT=0.1\tDP:AF:AFD\t10:0.0:0.0=0.99,1.0=0.01\n"

func TestReadVariantCalls(t *testing.T) {
	filename := writeTempVcf(t, "variant-calls.vcf", testVariantCalls)
	evidence, err := ReadVariantCalls(filename)
	if err != nil {
		t.Fatal("ReadVariantCalls failed:", err)
	}
	// variant 2 has zero depth, variant 3 an ambiguous absence
	// probability, variant 4 an empty distribution
	if evidence.Len() != 2 {
		t.Fatal("quality gates did not retain exactly 2 variants, got", evidence.Len())
	}
	variants := evidence.Variants()
	if variants[0] != 1 || variants[1] != 5 {
		t.Error("retained variants wrong")
	}
	call, ok := evidence.Call(1)
	if !ok || call.AF != 0.5 {
		t.Error("call of variant 1 wrong")
	}
	if len(call.AFD) != 3 || call.AFD.Min() != 0.0 || call.AFD.Max() != 1.0 || call.AFD[1].Density != 0.9 {
		t.Error("allele frequency distribution of variant 1 wrong")
	}
	if _, ok := evidence.Call(2); ok {
		t.Error("zero depth call not excluded")
	}
}

func TestReadVariantCallsMissingInfo(t *testing.T) {
	contents := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tsample\n" +
		"chr6\t100\t1\tA\tT\t.\tPASS\t.\tDP:AF:AFD\t10:0.5:0.0=0.5,1.0=0.5\n"
	filename := writeTempVcf(t, "variant-calls.vcf", contents)
	if _, err := ReadVariantCalls(filename); err == nil {
		t.Error("missing PROB_ABSENT did not fail")
	}
}

func TestParseStatus(t *testing.T) {
	if parseStatus("1") != hap.Present {
		t.Error("parseStatus 1 failed")
	}
	if parseStatus("0") != hap.NotPresent {
		t.Error("parseStatus 0 failed")
	}
	if parseStatus(".") != hap.Unknown {
		t.Error("parseStatus . failed")
	}
	if parseStatus("0/1") != hap.Present {
		t.Error("parseStatus 0/1 failed")
	}
	if parseStatus("0|0") != hap.NotPresent {
		t.Error("parseStatus 0|0 failed")
	}
}
