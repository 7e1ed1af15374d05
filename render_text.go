// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import (
	"fmt"
	"strings"
)

// calculatePadding returns the left padding (in digit-widths) used to
// right-align an ordinal against the largest index in a section of the
// given entry count.
func calculatePadding(count int) int {
	switch {
	case count >= 10000:
		return 5
	case count >= 1000:
		return 4
	case count >= 100:
		return 3
	case count >= 10:
		return 2
	default:
		return 1
	}
}

// RenderText renders a fixed-layout, human-readable dump of the class file.
func RenderText(cf *ClassFile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "version     %s (%d.%d)\n", cf.Version(), cf.Major, cf.Minor)
	fmt.Fprintf(&b, "flags       %s\n", cf.AccessFlagsReadable())
	fmt.Fprintf(&b, "class       %s\n", cf.Name())
	fmt.Fprintf(&b, "super       %s\n", cf.Super())
	fmt.Fprintf(&b, "language    %s\n", cf.Language())

	pad := calculatePadding(cf.ConstPool.Count())
	fmt.Fprintf(&b, "\nconstant pool (%d entries)\n", cf.ConstPool.Count()-1)
	for i := 1; i < cf.ConstPool.Count(); i++ {
		entry := cf.ConstPool.At(uint16(i))
		if entry == nil {
			continue
		}
		fmt.Fprintf(&b, "  #%*d = %-20s %s\n", pad, i, TagName(entry.Tag()), Stringify(cf.ConstPool, entry))
	}

	fmt.Fprintf(&b, "\ninterfaces (%d)\n", len(cf.Interfaces))
	for _, iface := range cf.Interfaces {
		if iface == nil {
			continue
		}
		name, _ := cf.ConstPool.ClassNameAt(iface.ClassIndex)
		fmt.Fprintf(&b, "  %s\n", name)
	}

	fmt.Fprintf(&b, "\nfields (%d)\n", len(cf.Fields))
	for _, f := range cf.Fields {
		if f == nil {
			continue
		}
		fmt.Fprintf(&b, "  %s %s\n", cf.ConstPool.Utf8At(f.DescriptorIndex), cf.ConstPool.Utf8At(f.NameIndex))
	}

	fmt.Fprintf(&b, "\nmethods (%d)\n", len(cf.Methods))
	for _, m := range cf.Methods {
		if m == nil {
			continue
		}
		fmt.Fprintf(&b, "  %s%s\n", cf.ConstPool.Utf8At(m.NameIndex), cf.ConstPool.Utf8At(m.DescriptorIndex))
	}

	fmt.Fprintf(&b, "\nattributes (%d)\n", len(cf.Attributes))
	for _, a := range cf.Attributes {
		if a == nil {
			continue
		}
		fmt.Fprintf(&b, "  %s (%d bytes)\n", a.Name, a.Length)
	}

	return b.String()
}
