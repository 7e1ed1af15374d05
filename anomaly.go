// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

// Anomalies recorded when the tolerant parser truncates a section or skips
// a malformed element rather than failing the whole parse.
var (
	// AnoConstPoolTruncated is reported when a constant pool entry failed to
	// decode, truncating the remaining pool.
	AnoConstPoolTruncated = "constant pool truncated by a malformed entry"

	// AnoInterfaceSkipped is reported when an interfaces table entry failed
	// to decode and was skipped.
	AnoInterfaceSkipped = "interfaces table entry skipped, malformed"

	// AnoFieldSkipped is reported when a field_info entry failed to decode
	// and was skipped.
	AnoFieldSkipped = "field entry skipped, malformed"

	// AnoMethodSkipped is reported when a method_info entry failed to
	// decode and was skipped.
	AnoMethodSkipped = "method entry skipped, malformed"

	// AnoClassAttributesTruncated is reported when the class-level
	// attribute list could not be fully read.
	AnoClassAttributesTruncated = "class attribute list truncated"

	// AnoAttributeSkipped is reported when an attribute envelope could not
	// be read, or its name index does not resolve to a Utf8 entry, and the
	// slot was left nil.
	AnoAttributeSkipped = "attribute skipped, malformed envelope or unresolvable name"

	// AnoAttributeDegraded is reported when a recognized attribute's typed
	// payload failed to decode against its declared length and was kept as
	// an opaque, unresolved attribute instead.
	AnoAttributeDegraded = "attribute degraded to unknown, payload did not match declared length"
)

func (cf *ClassFile) noteAnomaly(msg string) {
	cf.Anomalies = append(cf.Anomalies, msg)
}
