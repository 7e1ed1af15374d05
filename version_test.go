// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import "testing"

func TestVersionMapping(t *testing.T) {
	tests := []struct {
		major, minor uint16
		want         string
	}{
		{45, 3, "Java SE base (< 1.5)"},
		{52, 0, "Java SE 8"},
		{55, 0, "Java SE 11"},
		{60, 0, "Java SE 16"},
		{200, 0, "unknown"},
		{44, 0, "unknown"},
	}
	for _, tt := range tests {
		cf := &ClassFile{Major: tt.major, Minor: tt.minor}
		if got := cf.Version(); got != tt.want {
			t.Errorf("Version() major=%d minor=%d = %q, want %q", tt.major, tt.minor, got, tt.want)
		}
	}
}

func TestVersionLastSatisfiedWins(t *testing.T) {
	// 53.0 satisfies both the 52.0 and 53.0 rows; the later (more specific)
	// row must win.
	cf := &ClassFile{Major: 53, Minor: 0}
	if got := cf.Version(); got != "Java SE 9" {
		t.Errorf("Version() = %q, want Java SE 9", got)
	}
}
