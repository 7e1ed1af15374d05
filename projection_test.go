// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import "testing"

func TestAccessFlagsReadable(t *testing.T) {
	got := accessFlagsReadable(AccPublic | AccFinal | AccSuper)
	want := "public final super"
	if got != want {
		t.Errorf("accessFlagsReadable() = %q, want %q", got, want)
	}
}

func TestAccessFlagsReadableEmpty(t *testing.T) {
	if got := accessFlagsReadable(0); got != "" {
		t.Errorf("accessFlagsReadable(0) = %q, want empty", got)
	}
}

func TestSectionsMinimalClass(t *testing.T) {
	cf, err := NewBytes(buildMinimalClass(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// With no interfaces, fields or methods, only the constant pool and the
	// (empty) class attribute area are surfaced.
	sections := cf.Sections()
	if len(sections) != 2 {
		t.Fatalf("Sections() = %+v, want 2", sections)
	}
	if sections[0].Name != "class.constant_pool" || sections[1].Name != "class.attr" {
		t.Errorf("Sections() = %+v", sections)
	}
	if sections[1].Size != 0 {
		t.Errorf("class.attr size = %d, want 0", sections[1].Size)
	}
}

func TestSectionsWithMethods(t *testing.T) {
	cf, err := NewBytes(buildClassWithMain(false), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := map[string]bool{}
	for _, s := range cf.Sections() {
		names[s.Name] = true
	}
	for _, want := range []string{
		"class.constant_pool", "class.methods",
		"class.methods.main.attr", "class.methods.main.attr.0.code", "class.attr",
	} {
		if !names[want] {
			t.Errorf("Sections() missing %q", want)
		}
	}
	if names["class.interfaces"] || names["class.fields"] {
		t.Errorf("Sections() = %v, unpopulated areas should be absent", names)
	}
}

func TestResolveSymbolNotFound(t *testing.T) {
	cf, err := NewBytes(buildMinimalClass(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr := cf.ResolveSymbol(SymMain); addr != noAddr {
		t.Errorf("ResolveSymbol(SymMain) = %d, want noAddr", addr)
	}
}

func TestStringsRecoversUtf8Entries(t *testing.T) {
	cf, err := NewBytes(buildMinimalClass(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	strs := cf.Strings()
	if len(strs) != 2 || strs[0].Value != "Empty" || strs[1].Value != "java/lang/Object" {
		t.Errorf("Strings() = %+v, want Empty and java/lang/Object", strs)
	}
	if strs[0].Ordinal != 1 || strs[0].Length != len("Empty") {
		t.Errorf("Strings()[0] = %+v", strs[0])
	}
}

// buildClassWithImports builds a class that calls
// java/io/PrintStream.println and java/io/PrintStream.main, and declares one
// interface.
func buildClassWithImports() []byte {
	b := newClassBuilder(0, 52)
	b.u16(14)
	b.utf8Entry("Caller")                   // 1
	b.classEntry(1)                         // 2
	b.utf8Entry("java/io/PrintStream")      // 3
	b.classEntry(3)                         // 4
	b.utf8Entry("println")                  // 5
	b.utf8Entry("(Ljava/lang/String;)V")    // 6
	b.nameAndTypeEntry(5, 6)                // 7
	b.methodRefEntry(4, 7)                  // 8
	b.utf8Entry("java/lang/Runnable")       // 9
	b.classEntry(9)                         // 10
	b.utf8Entry("main")                     // 11
	b.nameAndTypeEntry(11, 6)               // 12
	b.methodRefEntry(4, 12)                 // 13
	b.u16(AccPublic)
	b.u16(2)  // this_class
	b.u16(0)  // super_class
	b.u16(1)  // interfaces_count
	b.u16(10) // -> java/lang/Runnable
	b.u16(0)  // fields_count
	b.u16(0)  // methods_count
	b.u16(0)  // attributes_count
	return b.bytes()
}

func TestConstPoolAsSymbols(t *testing.T) {
	cf, err := NewBytes(buildClassWithImports(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	syms := cf.ConstPoolAsSymbols()
	if len(syms) != 2 {
		t.Fatalf("ConstPoolAsSymbols() = %+v, want 2 symbols", syms)
	}
	ref := syms[0]
	if ref.Name != "java.io.PrintStream.println" || ref.Bind != BindImport ||
		ref.Type != TypeMeth || ref.Ordinal != 8 {
		t.Errorf("println symbol = %+v", ref)
	}
	// A member named main is promoted to FUNC regardless of its ref tag.
	if syms[1].Type != TypeFunc {
		t.Errorf("main symbol type = %v, want TypeFunc", syms[1].Type)
	}
}

func TestConstPoolAsImports(t *testing.T) {
	cf, err := NewBytes(buildClassWithImports(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	imports := cf.ConstPoolAsImports()
	if len(imports) != 3 {
		t.Fatalf("ConstPoolAsImports() = %+v, want 2 refs + 1 interface", imports)
	}
	ref := imports[0]
	if ref.ClassName != "java.io.PrintStream" || ref.Name != "println" ||
		ref.Descriptor != "(Ljava/lang/String;)V" || ref.Bind != BindImport || ref.Type != TypeMeth {
		t.Errorf("ref import = %+v", ref)
	}
	// The imported main is promoted to a globally bound FUNC.
	if imports[1].Bind != BindGlobal || imports[1].Type != TypeFunc {
		t.Errorf("main import = %+v", imports[1])
	}
	last := imports[2]
	if last.Name != "*" || last.Bind != BindWeak || last.Type != TypeIFace ||
		last.ClassName != "java.lang.Runnable" {
		t.Errorf("interface import = %+v, want weak IFACE *", last)
	}
}

func TestLibrariesFirstSeenOrder(t *testing.T) {
	cf, err := NewBytes(buildClassWithImports(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	libs := cf.Libraries()
	want := []string{"Caller", "java/io/PrintStream", "java/lang/Runnable"}
	if len(libs) != len(want) {
		t.Fatalf("Libraries() = %v, want %v", libs, want)
	}
	for i := range want {
		if libs[i] != want[i] {
			t.Errorf("Libraries()[%d] = %q, want %q", i, libs[i], want[i])
		}
	}
}

func TestInfoConstants(t *testing.T) {
	cf, err := NewBytes(buildMinimalClass(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info := cf.Info()
	if info.Arch != "java" || info.Bits != 32 || !info.BigEndian || info.HasVA {
		t.Errorf("Info() = %+v", info)
	}
	if info.Language != "java" || info.Version != "Java SE 8" {
		t.Errorf("Info() = %+v", info)
	}
}

func TestEntrypointAddressesCoincide(t *testing.T) {
	cf, err := NewBytes(buildClassWithMain(false), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eps := cf.Entrypoints()
	if len(eps) != 1 {
		t.Fatalf("Entrypoints() = %+v, want 1", eps)
	}
	if eps[0].Addr != eps[0].Paddr {
		t.Errorf("vaddr %#x != paddr %#x", eps[0].Addr, eps[0].Paddr)
	}
	if eps[0].Addr != cf.ResolveSymbol(SymMain) {
		t.Errorf("entrypoint %#x != ResolveSymbol(SymMain) %#x", eps[0].Addr, cf.ResolveSymbol(SymMain))
	}
}

func TestMethodsAsSymbols(t *testing.T) {
	cf, err := NewBytes(buildClassWithMain(false), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	syms := cf.MethodsAsSymbols()
	if len(syms) != 1 {
		t.Fatalf("MethodsAsSymbols() = %+v, want 1 symbol", syms)
	}
	s := syms[0]
	if s.Name != "HelloWorld.main" || s.Bind != BindGlobal || s.Type != TypeFunc {
		t.Errorf("symbol = %+v", s)
	}
	if s.Addr != uint64(cf.Methods[0].Code().CodeOffset) {
		t.Errorf("symbol addr = %#x, want code offset", s.Addr)
	}
}

func TestDebugInfoWithoutLineNumbers(t *testing.T) {
	cf, err := NewBytes(buildMinimalClass(), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cf.DebugInfo(); got != DbgSyms {
		t.Errorf("DebugInfo() = %d, want DbgSyms only", got)
	}
}
