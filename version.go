// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// versionRow pairs a minimum (major, minor) class file version with the
// Java release that first emitted it (JVMS 4.1, table 4.1-A).
type versionRow struct {
	major, minor int
	release      string
}

// versionTable is ordered ascending; Version() keeps the last row whose
// (major, minor) the class file's version satisfies.
var versionTable = []versionRow{
	{45, 3, "Java SE base (< 1.5)"},
	{49, 0, "Java SE 1.5"},
	{50, 0, "Java SE 6"},
	{51, 0, "Java SE 7"},
	{52, 0, "Java SE 8"},
	{53, 0, "Java SE 9"},
	{54, 0, "Java SE 10"},
	{55, 0, "Java SE 11"},
	{56, 0, "Java SE 12"},
	{57, 0, "Java SE 13"},
	{58, 0, "Java SE 14"},
	{59, 0, "Java SE 15"},
	{60, 0, "Java SE 16"},
}

// classVersionString encodes a (major, minor) pair as a semver-compatible
// string so golang.org/x/mod/semver can compare class file version tuples
// instead of a hand-rolled comparator.
func classVersionString(major, minor int) string {
	return fmt.Sprintf("v%d.%d.0", major, minor)
}

// Version classifies the class file's (major, minor) version against the
// JVMS release table. Returns "unknown" if no row is satisfied or if the
// major version is newer than the table's last row.
func (cf *ClassFile) Version() string {
	if int(cf.Major) > versionTable[len(versionTable)-1].major {
		return "unknown"
	}
	current := classVersionString(int(cf.Major), int(cf.Minor))
	result := "unknown"
	for _, row := range versionTable {
		candidate := classVersionString(row.major, row.minor)
		if semver.Compare(current, candidate) >= 0 {
			result = row.release
		}
	}
	return result
}
