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
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// A ConstraintKind is the relation of a linear constraint.
type ConstraintKind int

const (
	// Equal is coefs . x == rhs
	Equal ConstraintKind = iota
	// LessEqual is coefs . x <= rhs
	LessEqual
	// GreaterEqual is coefs . x >= rhs
	GreaterEqual
)

// A Constraint is one linear constraint of a program. Coefs has one
// entry per program variable.
type Constraint struct {
	Coefs []float64
	Kind  ConstraintKind
	Rhs   float64
}

// A Program is a linear program over non-negative continuous
// variables, minimizing Cost subject to Constraints.
type Program struct {
	NumVars     int
	Cost        []float64
	Constraints []Constraint
}

// AddConstraint appends a constraint.
func (program *Program) AddConstraint(coefs []float64, kind ConstraintKind, rhs float64) {
	program.Constraints = append(program.Constraints, Constraint{Coefs: coefs, Kind: kind, Rhs: rhs})
}

// A Solver solves linear programs. It is an injected strategy so that
// tests can substitute deterministic stubs for the real backend.
type Solver interface {
	// Solve returns the values of the program variables at an
	// optimum, or an error when the program has no solution.
	Solve(program *Program) ([]float64, error)
}

// A SimplexSolver solves linear programs with the gonum simplex
// implementation. The zero SimplexSolver is valid and uses the
// default tolerance.
type SimplexSolver struct {
	// Tol is passed through to the simplex; 0 selects its default.
	Tol float64
}

// Solve implements Solver. The program is brought into standard form
// by adding one slack variable per inequality constraint.
func (solver SimplexSolver) Solve(program *Program) ([]float64, error) {
	slacks := 0
	for _, constraint := range program.Constraints {
		if constraint.Kind != Equal {
			slacks++
		}
	}
	columns := program.NumVars + slacks
	a := mat.NewDense(len(program.Constraints), columns, nil)
	b := make([]float64, len(program.Constraints))
	c := make([]float64, columns)
	copy(c, program.Cost)
	slack := program.NumVars
	for i, constraint := range program.Constraints {
		for j, coef := range constraint.Coefs {
			a.Set(i, j, coef)
		}
		b[i] = constraint.Rhs
		switch constraint.Kind {
		case LessEqual:
			a.Set(i, slack, 1)
			slack++
		case GreaterEqual:
			a.Set(i, slack, -1)
			slack++
		}
	}
	_, x, err := lp.Simplex(c, a, b, solver.Tol, nil)
	if err != nil {
		return nil, err
	}
	return x[:program.NumVars], nil
}
