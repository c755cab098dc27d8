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

/*
Package vcf reads the two VCF-shaped input files of elquant: the
haplotype-variants file, whose sample columns form the haplotype panel
and whose GT and C FORMAT fields record variant status and coverage
per haplotype, and the variant-calls file, whose AF, DP, and AFD
FORMAT fields and PROB_ABSENT INFO field carry the observed evidence.

This is deliberately not a general VCF parser: only the fields named
above are interpreted, everything else is skipped.
*/
package vcf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/exascience/elquant/hap"
)

const fileFormatVersionLinePrefix = "##fileformat="

// the number of fixed columns before the sample columns
const fixedColumns = 9

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	switch {
	case err == nil:
		line = strings.TrimRight(line, "\r\n")
	case err == io.EOF:
		err = nil
	}
	return
}

// parseHeader skips the meta-information lines of a VCF file and
// returns the sample names from the column header line.
func parseHeader(reader *bufio.Reader) (samples []string, lines int, err error) {
	line, err := getLine(reader)
	if err != nil {
		return nil, 0, err
	}
	lines++
	if !strings.HasPrefix(line, fileFormatVersionLinePrefix) {
		return nil, 0, errors.New("invalid first line in a VCF file")
	}
	for {
		line, err = getLine(reader)
		if err != nil {
			return nil, 0, err
		}
		lines++
		if strings.HasPrefix(line, "##") {
			continue
		}
		if !strings.HasPrefix(line, "#CHROM") {
			return nil, 0, errors.New("unexpected end of VCF header")
		}
		columns := strings.Split(line, "\t")
		if len(columns) > fixedColumns {
			samples = columns[fixedColumns:]
		}
		return samples, lines, nil
	}
}

// formatIndex returns the position of the given key in a ':'-separated
// FORMAT column, or -1.
func formatIndex(format, key string) int {
	for i, field := range strings.Split(format, ":") {
		if field == key {
			return i
		}
	}
	return -1
}

func sampleField(sample string, index int) (string, bool) {
	fields := strings.Split(sample, ":")
	if index < 0 || index >= len(fields) {
		return "", false
	}
	return fields[index], true
}

func phredToProb(phred float64) float64 {
	return math.Pow(10, -phred/10)
}

type genotype struct {
	status  hap.VariantStatus
	covered bool
}

// A HaplotypePanel holds the genotype and coverage information of a
// haplotype-variants file. It implements hap.GenotypeSource.
type HaplotypePanel struct {
	haplotypes []hap.Haplotype
	index      map[hap.Haplotype]int
	variants   []hap.VariantID
	genotypes  map[hap.VariantID][]genotype
}

// Haplotypes implements hap.GenotypeSource. The panel order is the
// sample column order of the input file.
func (panel *HaplotypePanel) Haplotypes() []hap.Haplotype {
	return panel.haplotypes
}

// Variants implements hap.GenotypeSource.
func (panel *HaplotypePanel) Variants() []hap.VariantID {
	return panel.variants
}

// Genotype implements hap.GenotypeSource.
func (panel *HaplotypePanel) Genotype(variant hap.VariantID, haplotype hap.Haplotype) (hap.VariantStatus, bool, bool) {
	row, ok := panel.genotypes[variant]
	if !ok {
		return hap.Unknown, false, false
	}
	column, ok := panel.index[haplotype]
	if !ok {
		return hap.Unknown, false, false
	}
	return row[column].status, row[column].covered, true
}

// parseStatus interprets a GT value. A haplotype carries the variant
// when any of its alleles is 1; all-missing alleles yield Unknown.
func parseStatus(gt string) hap.VariantStatus {
	status := hap.Unknown
	for _, allele := range strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' }) {
		switch allele {
		case "1":
			return hap.Present
		case ".":
		default:
			status = hap.NotPresent
		}
	}
	return status
}

// ReadHaplotypeVariants reads a haplotype-variants file. Every record
// needs an integer ID and GT and C FORMAT fields for every sample
// column.
func ReadHaplotypeVariants(filename string) (panel *HaplotypePanel, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		nerr := file.Close()
		if err == nil {
			err = nerr
		}
	}()
	reader := bufio.NewReader(file)
	samples, lines, err := parseHeader(reader)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, errors.New("no haplotype sample columns in a haplotype-variants file")
	}
	panel = &HaplotypePanel{
		haplotypes: make([]hap.Haplotype, len(samples)),
		index:      make(map[hap.Haplotype]int, len(samples)),
		genotypes:  make(map[hap.VariantID][]genotype),
	}
	for column, sample := range samples {
		panel.haplotypes[column] = hap.Haplotype(sample)
		panel.index[hap.Haplotype(sample)] = column
	}
	var sc StringScanner
	for {
		line, err := getLine(reader)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		lines++
		sc.Reset(line)
		sc.doString() // CHROM
		sc.doString() // POS
		variant := hap.VariantID(sc.doInt32())
		sc.doString() // REF
		sc.doString() // ALT
		sc.doString() // QUAL
		sc.doString() // FILTER
		sc.doString() // INFO
		format := sc.doString()
		gtIndex := formatIndex(format, "GT")
		cIndex := formatIndex(format, "C")
		if sc.Err() == nil && (gtIndex < 0 || cIndex < 0) {
			return nil, fmt.Errorf("line %v: missing GT or C FORMAT field in a haplotype-variants file", lines)
		}
		row := make([]genotype, len(samples))
		for column := range samples {
			sample := sc.doString()
			if sc.Err() != nil {
				break
			}
			gt, gtOK := sampleField(sample, gtIndex)
			c, cOK := sampleField(sample, cIndex)
			if !gtOK || !cOK {
				return nil, fmt.Errorf("line %v: incomplete sample entry in a haplotype-variants file", lines)
			}
			row[column] = genotype{status: parseStatus(gt), covered: c == "1"}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("line %v: %v", lines, err)
		}
		if _, ok := panel.genotypes[variant]; !ok {
			panel.variants = append(panel.variants, variant)
		}
		panel.genotypes[variant] = row
	}
	sortVariantIDs(panel.variants)
	return panel, nil
}

func sortVariantIDs(variants []hap.VariantID) {
	sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })
}

func parseAFD(s string) ([]hap.AFDEntry, error) {
	if s == "" || s == "." {
		return nil, nil
	}
	var entries []hap.AFDEntry
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid AFD pair %q", pair)
		}
		vaf, err := strconv.ParseFloat(kv[0], 64)
		if err != nil {
			return nil, err
		}
		density, err := strconv.ParseFloat(kv[1], 64)
		if err != nil {
			return nil, err
		}
		entries = append(entries, hap.AFDEntry{VAF: vaf, Density: density})
	}
	return entries, nil
}

func infoField(info, key string) (string, bool) {
	for _, field := range strings.Split(info, ";") {
		kv := strings.SplitN(field, "=", 2)
		if kv[0] == key && len(kv) == 2 {
			return kv[1], true
		}
	}
	return "", false
}

/*
ReadVariantCalls reads a variant-calls file into the evidence view.

Records that fail the upstream quality gates are excluded: zero read
depth, an ambiguous absence probability (PROB_ABSENT between 0.05 and
0.95 on the linear scale), or an empty allele frequency distribution.
*/
func ReadVariantCalls(filename string) (evidence *hap.VariantEvidence, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		nerr := file.Close()
		if err == nil {
			err = nerr
		}
	}()
	reader := bufio.NewReader(file)
	samples, lines, err := parseHeader(reader)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, errors.New("no sample column in a variant-calls file")
	}
	calls := make(map[hap.VariantID]hap.Call)
	var sc StringScanner
	for {
		line, err := getLine(reader)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		lines++
		sc.Reset(line)
		sc.doString() // CHROM
		sc.doString() // POS
		variant := hap.VariantID(sc.doInt32())
		sc.doString() // REF
		sc.doString() // ALT
		sc.doString() // QUAL
		sc.doString() // FILTER
		info := sc.doString()
		format := sc.doString()
		sample := sc.doString()
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("line %v: %v", lines, err)
		}
		probAbsentValue, ok := infoField(info, "PROB_ABSENT")
		if !ok {
			return nil, fmt.Errorf("line %v: missing PROB_ABSENT INFO field in a variant-calls file", lines)
		}
		probAbsentPhred, err := strconv.ParseFloat(probAbsentValue, 64)
		if err != nil {
			return nil, fmt.Errorf("line %v: %v", lines, err)
		}
		dpValue, dpOK := sampleField(sample, formatIndex(format, "DP"))
		afValue, afOK := sampleField(sample, formatIndex(format, "AF"))
		afdValue, afdOK := sampleField(sample, formatIndex(format, "AFD"))
		if !dpOK || !afOK || !afdOK {
			return nil, fmt.Errorf("line %v: missing DP, AF, or AFD FORMAT field in a variant-calls file", lines)
		}
		depth, err := strconv.ParseInt(dpValue, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %v: %v", lines, err)
		}
		entries, err := parseAFD(afdValue)
		if err != nil {
			return nil, fmt.Errorf("line %v: %v", lines, err)
		}
		probAbsent := phredToProb(probAbsentPhred)
		if depth == 0 || (probAbsent > 0.05 && probAbsent < 0.95) || len(entries) == 0 {
			continue
		}
		af, err := strconv.ParseFloat(afValue, 64)
		if err != nil {
			return nil, fmt.Errorf("line %v: %v", lines, err)
		}
		calls[variant] = hap.Call{AF: af, AFD: hap.MakeAlleleFreqDist(entries)}
	}
	return hap.NewVariantEvidence(calls), nil
}

// A CallsFile names a variant-calls file. It implements
// hap.EvidenceSource by reading the file on demand.
type CallsFile struct {
	Filename string
}

// Evidence implements hap.EvidenceSource.
func (file CallsFile) Evidence() (*hap.VariantEvidence, error) {
	return ReadVariantCalls(file.Filename)
}
