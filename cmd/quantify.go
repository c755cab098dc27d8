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

package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/exascience/elquant/hap"
	"github.com/exascience/elquant/internal"
	"github.com/exascience/elquant/quant"
	"github.com/exascience/elquant/vcf"
)

// QuantifyHelp is the help string for the elquant quantify command.
const QuantifyHelp = "\nquantify parameters:\n" +
	"elquant quantify haplotype-variants.vcf variant-calls.vcf output.csv\n" +
	"[--prior [uniform | diploid]]\n" +
	"[--max-haplotypes nr]\n" +
	"[--upper-fraction-bound bound]\n" +
	"[--lp-selection-threshold threshold]\n" +
	"[--resolution nr]\n" +
	"[--nr-of-threads nr]\n" +
	"[--timed]\n" +
	"[--log-path path]\n"

// Quantify implements the elquant quantify command.
func Quantify() error {
	var (
		prior                string
		maxHaplotypes        int
		upperFractionBound   float64
		lpSelectionThreshold float64
		resolution           int
		nrOfThreads          int
		timed                bool
		logPath              string
	)

	var flags flag.FlagSet

	flags.StringVar(&prior, "prior", "uniform", "prior mode for the fraction events")
	flags.IntVar(&maxHaplotypes, "max-haplotypes", 0, "cap on the number of selected haplotypes")
	flags.Float64Var(&upperFractionBound, "upper-fraction-bound", 1.0, "maximum fraction of a single haplotype")
	flags.Float64Var(&lpSelectionThreshold, "lp-selection-threshold", quant.DefaultSelectionThreshold, "minimum solved fraction for selection")
	flags.IntVar(&resolution, "resolution", quant.DefaultResolution, "resolution of the uniform fraction grid")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	if len(os.Args) < 5 {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, QuantifyHelp)
		os.Exit(1)
	}

	haplotypeVariants := getFilename(os.Args[2], QuantifyHelp)
	variantCalls := getFilename(os.Args[3], QuantifyHelp)
	output := getFilename(os.Args[4], QuantifyHelp)

	parseFlags(flags, 5, QuantifyHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", haplotypeVariants) {
		sanityChecksFailed = true
	}
	if !checkExist("", variantCalls) {
		sanityChecksFailed = true
	}

	priorMode, err := quant.ParsePriorMode(prior)
	if err != nil {
		log.Printf("Error: %v.\n", err)
		sanityChecksFailed = true
	}
	if upperFractionBound <= 0 || upperFractionBound > 1 {
		log.Printf("Error: Invalid upper-fraction-bound %v, must be in (0, 1].\n", upperFractionBound)
		sanityChecksFailed = true
	}
	if priorMode == quant.PriorDiploid && upperFractionBound < 0.5 {
		log.Printf("Error: upper-fraction-bound %v admits no diploid fraction events.\n", upperFractionBound)
		sanityChecksFailed = true
	}
	if lpSelectionThreshold < 0 {
		log.Printf("Error: Invalid lp-selection-threshold %v.\n", lpSelectionThreshold)
		sanityChecksFailed = true
	}
	if resolution <= 0 {
		log.Printf("Error: Invalid resolution %v.\n", resolution)
		sanityChecksFailed = true
	}
	if maxHaplotypes < 0 {
		log.Printf("Error: Invalid max-haplotypes %v.\n", maxHaplotypes)
		sanityChecksFailed = true
	}
	if nrOfThreads < 0 {
		log.Printf("Error: Invalid nr-of-threads %v.\n", nrOfThreads)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, QuantifyHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " quantify ", haplotypeVariants, " ", variantCalls, " ", output)
	fmt.Fprint(&command, " --prior ", prior)
	if maxHaplotypes > 0 {
		fmt.Fprint(&command, " --max-haplotypes ", maxHaplotypes)
	}
	fmt.Fprint(&command, " --upper-fraction-bound ", upperFractionBound)
	fmt.Fprint(&command, " --lp-selection-threshold ", lpSelectionThreshold)
	fmt.Fprint(&command, " --resolution ", resolution)
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", nrOfThreads)
	}
	if timed {
		fmt.Fprint(&command, " --timed")
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	var panel *vcf.HaplotypePanel
	var evidence *hap.VariantEvidence
	timedRun(timed, "Reading input files.", func() {
		if panel, err = vcf.ReadHaplotypeVariants(haplotypeVariants); err != nil {
			return
		}
		evidence, err = vcf.CallsFile{Filename: variantCalls}.Evidence()
	})
	if err != nil {
		return err
	}
	log.Println("Panel of", len(panel.Haplotypes()), "haplotypes,", evidence.Len(), "variants with observed calls.")

	matrix, err := hap.NewCandidateMatrix(panel, evidence)
	if err != nil {
		return err
	}

	var selected []hap.Haplotype
	timedRun(timed, "Selecting candidate haplotypes.", func() {
		prefilter := &quant.Prefilter{
			Solver:             quant.SimplexSolver{},
			SelectionThreshold: lpSelectionThreshold,
			MaxHaplotypes:      maxHaplotypes,
		}
		selected, err = prefilter.Select(matrix, evidence)
	})
	if err != nil {
		return err
	}
	log.Println("Selected haplotypes:", selected)

	reduced := matrix.Reduce(selected)

	var ranked []quant.RankedEvent
	timedRun(timed, "Ranking haplotype fractions.", func() {
		engine := &quant.Engine{
			Prior:      priorMode,
			Resolution: resolution,
			UpperBound: upperFractionBound,
		}
		ranked, err = engine.Rank(reduced, evidence)
	})
	if err != nil {
		return err
	}
	log.Println("Ranked", len(ranked), "fraction events.")

	fullOutput, err := internal.FullPathname(output)
	if err != nil {
		return err
	}
	timedRun(timed, "Writing report.", func() {
		err = quant.WriteReport(fullOutput, reduced, evidence, ranked)
	})
	if err != nil {
		return err
	}
	log.Println("Report written to", fullOutput)
	log.Println("Best fractions:", ranked[0].Fractions, "for haplotypes", reduced.Haplotypes())
	return nil
}
