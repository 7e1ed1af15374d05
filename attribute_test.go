// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import "testing"

// buildClassWithMain builds a HelloWorld-style class whose single static main
// method carries a Code attribute; withLineNumbers adds a LineNumberTable as
// a nested attribute of that Code.
func buildClassWithMain(withLineNumbers bool) []byte {
	b := newClassBuilder(0, 52)
	// 1=Utf8 "HelloWorld", 2=Class(1), 3=Utf8 "main",
	// 4=Utf8 descriptor, 5=Utf8 "Code", 6=Utf8 "LineNumberTable"
	b.u16(7)
	b.utf8Entry("HelloWorld")
	b.classEntry(1)
	b.utf8Entry("main")
	b.utf8Entry("([Ljava/lang/String;)V")
	b.utf8Entry("Code")
	b.utf8Entry("LineNumberTable")
	b.u16(AccPublic | AccSuper)
	b.u16(2) // this_class
	b.u16(0) // super_class
	b.u16(0) // interfaces
	b.u16(0) // fields
	b.u16(1) // methods_count

	b.u16(AccPublic | AccStatic)
	b.u16(3) // name_index
	b.u16(4) // descriptor_index
	b.u16(1) // attributes_count

	codeBody := new(classBuilder)
	codeBody.u16(2)   // max_stack
	codeBody.u16(1)   // max_locals
	codeBody.u32(1)   // code_length
	codeBody.u8(0xb1) // return
	codeBody.u16(0)   // exception_table_length
	if withLineNumbers {
		codeBody.u16(1) // nested attributes_count
		codeBody.u16(6) // attribute_name_index -> "LineNumberTable"
		codeBody.u32(6) // attribute_length
		codeBody.u16(1) // line_number_table_length
		codeBody.u16(0) // start_pc
		codeBody.u16(4) // line_number
	} else {
		codeBody.u16(0)
	}
	raw := codeBody.bytes()

	b.u16(5) // attribute_name_index -> "Code"
	b.u32(uint32(len(raw)))
	b.raw(raw)
	b.u16(0) // class attributes_count
	return b.bytes()
}

func TestCodeAttributeResolved(t *testing.T) {
	cf, err := NewBytes(buildClassWithMain(false), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := cf.Methods[0]
	if m == nil {
		t.Fatal("method slot is nil")
	}
	code := m.Code()
	if code == nil {
		t.Fatal("Code() = nil, want resolved Code attribute")
	}
	if code.MaxStack != 2 || code.MaxLocals != 1 || code.CodeLength != 1 {
		t.Errorf("Code = %+v", code)
	}
	if code.CodeOffset == 0 {
		t.Error("CodeOffset not recorded")
	}
	// CodeOffset names the first bytecode byte (the lone return here).
	data := buildClassWithMain(false)
	if data[code.CodeOffset] != 0xb1 {
		t.Errorf("byte at CodeOffset = %#x, want 0xb1", data[code.CodeOffset])
	}
}

func TestLineNumberTableNested(t *testing.T) {
	cf, err := NewBytes(buildClassWithMain(true), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code := cf.Methods[0].Code()
	if code == nil {
		t.Fatal("Code() = nil")
	}
	if len(code.Attributes) != 1 {
		t.Fatalf("nested attributes = %d, want 1", len(code.Attributes))
	}
	nested := code.Attributes[0]
	if nested.Type != AttrLineNumberTable {
		t.Fatalf("nested attribute type = %v, want AttrLineNumberTable", nested.Type)
	}
	lnt := nested.Info.(*LineNumberTableAttribute)
	if len(lnt.Entries) != 1 || lnt.Entries[0].LineNumber != 4 {
		t.Errorf("LineNumberTable = %+v", lnt.Entries)
	}
}

func TestDebugInfoWithLineNumbers(t *testing.T) {
	cf, err := NewBytes(buildClassWithMain(true), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cf.DebugInfo(); got != DbgSyms|DbgLineNums {
		t.Errorf("DebugInfo() = %d, want DbgSyms|DbgLineNums", got)
	}
}

func TestCodeSectionReadExecute(t *testing.T) {
	cf, err := NewBytes(buildClassWithMain(false), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code := cf.Methods[0].Code()
	var found bool
	for _, s := range cf.Sections() {
		if s.Name == "class.methods.main.attr.0.code" {
			found = true
			if s.Perm != PermRead|PermExecute {
				t.Errorf("code section perm = %d, want read+execute", s.Perm)
			}
			if s.VSA != code.CodeOffset {
				t.Errorf("code section vaddr = %#x, want %#x", s.VSA, code.CodeOffset)
			}
		}
	}
	if !found {
		t.Error("Sections() missing the per-Code read+execute section")
	}
}

func TestAttributeUnknownNameKept(t *testing.T) {
	b := newClassBuilder(0, 52)
	b.u16(2)
	b.utf8Entry("NotARealAttribute")
	b.u16(0) // access_flags
	b.u16(0) // this_class
	b.u16(0) // super_class
	b.u16(0) // interfaces
	b.u16(0) // fields
	b.u16(0) // methods
	b.u16(1) // attributes_count
	b.u16(1) // attribute_name_index -> Utf8
	b.u32(2) // attribute_length
	b.raw([]byte{0xAA, 0xBB})
	cf, err := NewBytes(b.bytes(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cf.Attributes) != 1 || cf.Attributes[0] == nil {
		t.Fatalf("Attributes = %+v, want one kept envelope", cf.Attributes)
	}
	a := cf.Attributes[0]
	if a.Type != AttrUnknown || a.Name != "NotARealAttribute" || len(a.Raw) != 2 {
		t.Errorf("attribute = %+v, want unknown envelope with raw bytes", a)
	}
}

func TestAttributeBadNameIndexDiscarded(t *testing.T) {
	b := newClassBuilder(0, 52)
	b.u16(3)
	b.utf8Entry("X")
	b.classEntry(1)
	b.u16(0) // access_flags
	b.u16(0) // this_class
	b.u16(0) // super_class
	b.u16(0) // interfaces
	b.u16(0) // fields
	b.u16(0) // methods
	b.u16(1) // attributes_count
	b.u16(2) // attribute_name_index -> Class entry, not Utf8
	b.u32(0) // attribute_length
	cf, err := NewBytes(b.bytes(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cf.Attributes) != 1 || cf.Attributes[0] != nil {
		t.Fatalf("Attributes = %+v, want a single nil slot", cf.Attributes)
	}
	var noted bool
	for _, a := range cf.Anomalies {
		if a == AnoAttributeSkipped {
			noted = true
		}
	}
	if !noted {
		t.Error("discarded attribute did not record an anomaly")
	}
}

func TestAttributeDegradedOnTruncatedPayload(t *testing.T) {
	b := newClassBuilder(0, 52)
	b.u16(2)
	b.utf8Entry("Code")
	b.u16(0) // access_flags
	b.u16(0) // this_class
	b.u16(0) // super_class
	b.u16(0) // interfaces
	b.u16(0) // fields
	b.u16(0) // methods
	b.u16(1) // attributes_count
	b.u16(1) // attribute_name_index -> "Code"
	b.u32(2) // attribute_length: far too short for a Code payload
	b.raw([]byte{0x00, 0x01})
	cf, err := NewBytes(b.bytes(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cf.Attributes) != 1 || cf.Attributes[0] == nil {
		t.Fatalf("Attributes = %+v, want one degraded envelope", cf.Attributes)
	}
	a := cf.Attributes[0]
	if a.Type != AttrUnknown || a.Name != "Code" || len(a.Raw) != 2 || a.Info != nil {
		t.Errorf("attribute = %+v, want degraded unknown with raw restored", a)
	}
	var noted bool
	for _, an := range cf.Anomalies {
		if an == AnoAttributeDegraded {
			noted = true
		}
	}
	if !noted {
		t.Error("degraded attribute did not record an anomaly")
	}
}

func TestSourceFileAttribute(t *testing.T) {
	b := newClassBuilder(0, 52)
	b.u16(4)
	b.utf8Entry("SourceFile")
	b.utf8Entry("Hello.java")
	b.utf8Entry("Hello")
	b.u16(0) // access_flags
	b.u16(0) // this_class
	b.u16(0) // super_class
	b.u16(0) // interfaces
	b.u16(0) // fields
	b.u16(0) // methods
	b.u16(1) // attributes_count
	b.u16(1) // attribute_name_index -> "SourceFile"
	b.u32(2)
	b.u16(2) // sourcefile_index -> "Hello.java"
	cf, err := NewBytes(b.bytes(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := cf.Attributes[0]
	if a.Type != AttrSourceFile {
		t.Fatalf("attribute type = %v, want AttrSourceFile", a.Type)
	}
	sf := a.Info.(*SourceFileAttribute)
	if sf.Name != "Hello.java" {
		t.Errorf("SourceFile name = %q, want Hello.java", sf.Name)
	}
}

func TestTypedAttributeDepthCap(t *testing.T) {
	cf := &ClassFile{ConstPool: &ConstPool{}, logger: newLogger(&Options{})}
	if _, err := cf.decodeTypedAttribute(AttrCode, nil, 0, maxAttributeDepth+1); err == nil {
		t.Error("decodeTypedAttribute past depth cap did not fail")
	}
}
