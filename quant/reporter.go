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
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/exascience/elquant/hap"
	"github.com/google/uuid"
)

// formatValue formats a non-negative report value: scientific notation
// with an explicit sign at magnitude 0.01 or below, fixed two decimals
// otherwise.
func formatValue(value float64) string {
	if value <= 0.01 {
		return fmt.Sprintf("%+.2e", value)
	}
	return fmt.Sprintf("%.2f", value)
}

/*
WriteReport writes the ranked fraction assignments as a CSV table.

The columns are the posterior density, the odds relative to the best
assignment, one fraction column per panel haplotype, and one column
per variant holding "<impliedVAF>:<probability>" for the allele
frequency the assignment implies at that variant. The first row is
the best assignment, with odds exactly 1; the remaining rows follow
in descending posterior order. A variant cell is left empty when no
covered haplotype of the assignment carries the variant.

The table is first written to a uniquely named temporary file next to
the target and only renamed into place once complete, so a failure
never leaves a partial report behind.
*/
func WriteReport(filename string, matrix *hap.CandidateMatrix, evidence *hap.VariantEvidence, ranked []RankedEvent) error {
	if len(ranked) == 0 {
		return errors.New("no ranked fraction assignments to report")
	}

	header := []string{"density", "odds"}
	for _, haplotype := range matrix.Haplotypes() {
		header = append(header, string(haplotype))
	}
	for i := 0; i < matrix.Len(); i++ {
		header = append(header, strconv.Itoa(int(matrix.Variant(i))))
	}

	best := ranked[0].LogPosterior
	records := make([][]string, 0, len(ranked)+1)
	records = append(records, header)
	for rank, event := range ranked {
		record := make([]string, 0, len(header))
		record = append(record, formatValue(math.Exp(event.LogPosterior)))
		if rank == 0 {
			record = append(record, "1")
		} else {
			record = append(record, formatValue(math.Exp(event.LogPosterior-best)))
		}
		for _, fraction := range event.Fractions {
			record = append(record, formatValue(fraction))
		}
		for i := 0; i < matrix.Len(); i++ {
			vaf, ok := ImpliedVAF(matrix.Row(i), event.Fractions)
			if !ok {
				record = append(record, "")
				continue
			}
			call, ok := evidence.Call(matrix.Variant(i))
			if !ok {
				record = append(record, "")
				continue
			}
			logProb, err := call.AFD.VafQuery(vaf)
			if err != nil {
				return err
			}
			record = append(record, strconv.FormatFloat(vaf, 'g', -1, 64)+":"+formatValue(math.Exp(logProb)))
		}
		records = append(records, record)
	}

	tmp := filepath.Join(filepath.Dir(filename), fmt.Sprintf(".%s-%s.tmp", filepath.Base(filename), uuid.New().String()))
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(file)
	werr := writer.WriteAll(records)
	if err := file.Close(); werr == nil {
		werr = err
	}
	if werr != nil {
		_ = os.Remove(tmp)
		return werr
	}
	if err := os.Rename(tmp, filename); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
