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
Package quant implements the haplotype fraction quantification
pipeline: a linear-programming prefilter that shrinks a large
haplotype panel to the subset that can explain the observed allele
frequencies, a Bayesian engine that enumerates candidate fraction
assignments over the shrunk panel and ranks them by posterior, and a
reporter that writes the ranked assignments as a table.

The stages run strictly one after the other; each consumes the
complete output of the previous one. Within the posterior stage,
independent candidate events are scored in parallel with pargo,
which is safe because the candidate matrix and the variant evidence
are read-only for the duration of the call.
*/
package quant
