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
	"errors"
	"strconv"
)

// A StringScanner can be used to scan/parse strings representing
// lines in VCF files.
//
// The zero StringScanner is valid and empty.
type StringScanner struct {
	index int
	data  string
	err   error
}

// Reset resets the scanner, and initializes it with the given string.
func (sc *StringScanner) Reset(s string) {
	sc.index = 0
	sc.data = s
	sc.err = nil
}

// Len returns the number of ASCII characters that still need to be
// scanned/parsed.
func (sc *StringScanner) Len() int {
	return len(sc.data) - sc.index
}

// Err returns the first error encountered while scanning.
func (sc *StringScanner) Err() error {
	return sc.err
}

func (sc *StringScanner) readUntilByte(c byte) (s string, found bool) {
	start := sc.index
	for end := sc.index; end < len(sc.data); end++ {
		if sc.data[end] == c {
			sc.index = end + 1
			return sc.data[start:end], true
		}
	}
	sc.index = len(sc.data)
	return sc.data[start:], false
}

// doString scans the next tab-separated field. The final field of a
// line may or may not carry a trailing tabulator; scanning past it
// sets an error.
func (sc *StringScanner) doString() string {
	if sc.err != nil {
		return ""
	}
	if sc.index > len(sc.data) {
		sc.err = errors.New("missing tabulator in VCF data line")
		return ""
	}
	value, found := sc.readUntilByte('\t')
	if !found {
		sc.index = len(sc.data) + 1
	}
	return value
}

// doInt32 scans the next tab-separated field as a 32-bit integer.
func (sc *StringScanner) doInt32() int32 {
	value := sc.doString()
	if sc.err != nil {
		return -1
	}
	i, err := strconv.ParseInt(value, 10, 32)
	if err != nil && sc.err == nil {
		sc.err = err
	}
	return int32(i)
}
