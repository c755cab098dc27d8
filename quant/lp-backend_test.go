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
	"math"
	"testing"
)

func TestSimplexSolver(t *testing.T) {
	program := &Program{NumVars: 2, Cost: []float64{1, 0}}
	program.AddConstraint([]float64{1, 1}, Equal, 1)
	x, err := SimplexSolver{}.Solve(program)
	if err != nil {
		t.Fatal("SimplexSolver failed:", err)
	}
	if len(x) != 2 {
		t.Fatal("solution does not cover the program variables")
	}
	if math.Abs(x[0]) > 1e-9 || math.Abs(x[1]-1) > 1e-9 {
		t.Error("SimplexSolver did not minimize the cost")
	}
}

func TestSimplexSolverInequalities(t *testing.T) {
	// minimize t subject to t >= x - 0.25, t >= 0.25 - x, x <= 1,
	// with x fixed to 1 by an equality; the optimum is t = 0.75.
	program := &Program{NumVars: 2, Cost: []float64{0, 1}}
	program.AddConstraint([]float64{1, 0}, Equal, 1)
	program.AddConstraint([]float64{-1, 1}, GreaterEqual, -0.25)
	program.AddConstraint([]float64{1, 1}, GreaterEqual, 0.25)
	program.AddConstraint([]float64{0, 1}, LessEqual, 1)
	x, err := SimplexSolver{}.Solve(program)
	if err != nil {
		t.Fatal("SimplexSolver failed:", err)
	}
	if math.Abs(x[0]-1) > 1e-9 || math.Abs(x[1]-0.75) > 1e-9 {
		t.Error("SimplexSolver inequalities failed, got", x)
	}
}

func TestSimplexSolverInfeasible(t *testing.T) {
	program := &Program{NumVars: 2, Cost: []float64{1, 1}}
	program.AddConstraint([]float64{1, 1}, Equal, -1)
	if _, err := (SimplexSolver{}).Solve(program); err == nil {
		t.Error("infeasible program did not fail")
	}
}
