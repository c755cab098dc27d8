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
Package hap provides the data model for haplotype fraction
quantification: the haplotype panel, per-variant genotype and coverage
information organized as a candidate matrix, and the empirical
allele-frequency distributions observed for each variant.

Candidate matrices and variant evidence are built once from their
sources and are immutable afterwards, so the quantification stages can
read them from multiple goroutines without locking.
*/
package hap
