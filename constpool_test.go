// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import "testing"

func TestResolveTagArity(t *testing.T) {
	tests := []struct {
		entry ConstPoolEntry
		n     int
	}{
		{ClassEntry{NameIndex: 1}, 1},
		{StringEntry{StringIndex: 1}, 1},
		{FieldRefEntry{ClassIndex: 1, NameAndTypeIndex: 2}, 2},
		{MethodRefEntry{ClassIndex: 1, NameAndTypeIndex: 2}, 2},
		{NameAndTypeEntry{NameIndex: 1, DescriptorIndex: 2}, 2},
		{Utf8Entry{}, 0},
		{IntegerEntry{}, 0},
	}
	for _, tt := range tests {
		n, _, _ := Resolve(tt.entry)
		if n != tt.n {
			t.Errorf("Resolve(%T) n = %d, want %d", tt.entry, n, tt.n)
		}
	}
}

func TestRequiresNull(t *testing.T) {
	if !RequiresNull(LongEntry{}) {
		t.Error("RequiresNull(LongEntry) = false, want true")
	}
	if !RequiresNull(DoubleEntry{}) {
		t.Error("RequiresNull(DoubleEntry) = false, want true")
	}
	if RequiresNull(IntegerEntry{}) {
		t.Error("RequiresNull(IntegerEntry) = true, want false")
	}
}

func TestIsImport(t *testing.T) {
	if !IsImport(MethodRefEntry{}) {
		t.Error("IsImport(MethodRefEntry) = false, want true")
	}
	if IsImport(ClassEntry{}) {
		t.Error("IsImport(ClassEntry) = true, want false")
	}
}

func TestTagName(t *testing.T) {
	if TagName(TagUtf8) != "Utf8" {
		t.Errorf("TagName(TagUtf8) = %q", TagName(TagUtf8))
	}
	if TagName(99) != "Unknown(99)" {
		t.Errorf("TagName(99) = %q", TagName(99))
	}
}

func TestConstPoolUtf8At(t *testing.T) {
	pool := &ConstPool{entries: make([]ConstPoolEntry, 3)}
	pool.entries[1] = Utf8Entry{Bytes: []byte("hello")}
	pool.entries[2] = IntegerEntry{Value: 1}

	if got := pool.Utf8At(1); got != "hello" {
		t.Errorf("Utf8At(1) = %q, want hello", got)
	}
	if got := pool.Utf8At(2); got != "" {
		t.Errorf("Utf8At(2) = %q, want empty", got)
	}
	if got := pool.Utf8At(99); got != "" {
		t.Errorf("Utf8At(99) = %q, want empty", got)
	}
}

func TestDecodeConstPoolEntryUnknownTag(t *testing.T) {
	cur := NewByteCursor([]byte{0xFE})
	entry, err := decodeConstPoolEntry(cur, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := entry.(UnknownEntry)
	if !ok || u.RawTag != 0xFE {
		t.Errorf("decodeConstPoolEntry = %+v, want UnknownEntry{RawTag: 0xFE}", entry)
	}
}

func TestDecodeConstPoolEntryTruncated(t *testing.T) {
	cur := NewByteCursor([]byte{TagClass, 0x00}) // needs 2 bytes for name_index, has 1
	if _, err := decodeConstPoolEntry(cur, 0); err != ErrOutsideBoundary {
		t.Fatalf("err = %v, want ErrOutsideBoundary", err)
	}
}
