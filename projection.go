// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import (
	"math"
	"strconv"
	"strings"
)

// Binding describes the linkage visibility of a Symbol or Import.
type Binding int

const (
	BindLocal Binding = iota
	BindGlobal
	BindWeak
	BindImport
)

func (b Binding) String() string {
	switch b {
	case BindGlobal:
		return "GLOBAL"
	case BindWeak:
		return "WEAK"
	case BindImport:
		return "IMPORT"
	default:
		return "LOCAL"
	}
}

// SymbolType describes what a Symbol or Import refers to.
type SymbolType int

const (
	TypeFunc SymbolType = iota
	TypeObject
	TypeMeth
	TypeField
	TypeIMeth
	TypeIFace
)

func (t SymbolType) String() string {
	switch t {
	case TypeFunc:
		return "FUNC"
	case TypeObject:
		return "OBJECT"
	case TypeMeth:
		return "METH"
	case TypeField:
		return "FIELD"
	case TypeIMeth:
		return "IMETH"
	case TypeIFace:
		return "IFACE"
	default:
		return "FUNC"
	}
}

// Symbol is one entry of the toolkit-neutral symbol table.
type Symbol struct {
	Name    string     `json:"name"`
	Bind    Binding    `json:"bind"`
	Type    SymbolType `json:"type"`
	Addr    uint64     `json:"vaddr"`
	Ordinal int        `json:"ordinal,omitempty"`
}

// Import is one entry of the toolkit-neutral import table. ClassName is
// dotted; Name is the bare member name, or "*" for a declared interface.
type Import struct {
	ClassName  string     `json:"classname"`
	Name       string     `json:"name"`
	Descriptor string     `json:"descriptor,omitempty"`
	Bind       Binding    `json:"bind"`
	Type       SymbolType `json:"type"`
	Ordinal    int        `json:"ordinal"`
}

// Entrypoint identifies one candidate program-entry method. Class files are
// not relocated, so the physical and virtual addresses coincide.
type Entrypoint struct {
	Name  string `json:"name"`
	Addr  uint64 `json:"vaddr"`
	Paddr uint64 `json:"paddr"`
}

// StringRecord is one literal string recovered from the constant pool.
type StringRecord struct {
	Offset  uint32 `json:"paddr"`
	Ordinal int    `json:"ordinal"`
	Length  int    `json:"length"`
	Value   string `json:"string"`
}

// Permission bits for Section.Perm.
const (
	PermRead    = 0x4
	PermWrite   = 0x2
	PermExecute = 0x1
)

// Section is one named, offset-delimited region of the file.
type Section struct {
	Name string `json:"name"`
	VSA  uint32 `json:"vaddr"`
	Size uint32 `json:"size"`
	Perm int    `json:"perm"`
}

// DebugInfo bits returned by ClassFile.DebugInfo.
const (
	DbgSyms     = 1 << 0
	DbgLineNums = 1 << 1
)

// SymbolKind selects which well-known address ResolveSymbol looks up.
type SymbolKind int

const (
	SymEntry SymbolKind = iota
	SymInit
	SymMain
)

// noAddr is the sentinel ResolveSymbol and symbol records use for "not
// found".
const noAddr = math.MaxUint64

var accessFlagNames = []struct {
	bit  uint16
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSuper, "super"},
	{AccBridge, "bridge"},
	{AccVarargs, "varargs"},
	{AccNative, "native"},
	{AccInterface, "interface"},
	{AccAbstract, "abstract"},
	{AccStrict, "strict"},
	{AccSynthetic, "synthetic"},
	{AccAnnotation, "annotation"},
	{AccEnum, "enum"},
	{AccModule, "module"},
}

// ClassInfo is the class-level summary record the host toolkit displays.
type ClassInfo struct {
	Language  string `json:"language"`
	Version   string `json:"version"`
	DebugInfo uint32 `json:"debug_info"`
	Arch      string `json:"arch"`
	Bits      int    `json:"bits"`
	BigEndian bool   `json:"big_endian"`
	HasVA     bool   `json:"has_va"`
}

// Info assembles the class-level summary. Arch, bits, endianness and the
// absence of virtual addressing are fixed properties of the class file
// format, not computed from the input.
func (cf *ClassFile) Info() ClassInfo {
	return ClassInfo{
		Language:  cf.Language(),
		Version:   cf.Version(),
		DebugInfo: cf.DebugInfo(),
		Arch:      "java",
		Bits:      32,
		BigEndian: true,
		HasVA:     false,
	}
}

// Name resolves this_class through to its Utf8 name, or "unknown_class" if
// the reference cannot be resolved.
func (cf *ClassFile) Name() string {
	if name, ok := cf.ConstPool.ClassNameAt(cf.ThisClass); ok {
		return name
	}
	return "unknown_class"
}

// Super resolves super_class through to its Utf8 name, or "unknown_super"
// if there is none or it cannot be resolved.
func (cf *ClassFile) Super() string {
	if name, ok := cf.ConstPool.ClassNameAt(cf.SuperClass); ok {
		return name
	}
	return "unknown_super"
}

// Language guesses the source language from characteristic runtime package
// references found among the constant pool's Utf8 strings. Defaults to
// "java".
func (cf *ClassFile) Language() string {
	for i := 1; i < cf.ConstPool.Count(); i++ {
		s := cf.ConstPool.Utf8At(uint16(i))
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "kotlin/jvm") {
			return "kotlin"
		}
		if strings.HasPrefix(s, "org/codehaus/groovy/runtime") {
			return "groovy"
		}
	}
	return "java"
}

// DebugInfo reports which categories of debug information the class file
// carries: symbols are always assumed present, line numbers only if some
// method's Code attribute has a LineNumberTable.
func (cf *ClassFile) DebugInfo() uint32 {
	info := uint32(DbgSyms)
	for _, m := range cf.Methods {
		if m == nil {
			continue
		}
		code := m.Code()
		if code == nil {
			continue
		}
		for _, a := range code.Attributes {
			if a != nil && a.Type == AttrLineNumberTable {
				return DbgSyms | DbgLineNums
			}
		}
	}
	return info
}

// AccessFlagsReadable renders the class's access flags as a space-separated
// list of JVMS flag names.
func (cf *ClassFile) AccessFlagsReadable() string {
	return accessFlagsReadable(cf.AccessFlags)
}

func accessFlagsReadable(flags uint16) string {
	var parts []string
	for _, f := range accessFlagNames {
		if flags&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, " ")
}

// Entrypoints returns every method that qualifies as a program entry point:
// any method named main, <init> or <clinit>, or any method carrying the
// STATIC access flag. Methods without a Code attribute are skipped.
func (cf *ClassFile) Entrypoints() []Entrypoint {
	var eps []Entrypoint
	for _, m := range cf.Methods {
		if m == nil {
			continue
		}
		name := cf.ConstPool.Utf8At(m.NameIndex)
		qualifies := m.IsStatic()
		if !qualifies {
			qualifies = name == "main" || name == "<init>" || name == "<clinit>"
		}
		if !qualifies {
			continue
		}
		code := m.Code()
		if code == nil {
			continue
		}
		addr := uint64(code.CodeOffset)
		eps = append(eps, Entrypoint{Name: name, Addr: addr, Paddr: addr})
	}
	return eps
}

// ResolveSymbol returns the address of a well-known symbol kind, or
// math.MaxUint64 if not found.
func (cf *ClassFile) ResolveSymbol(kind SymbolKind) uint64 {
	switch kind {
	case SymEntry, SymInit:
		for _, m := range cf.Methods {
			if m == nil {
				continue
			}
			name := cf.ConstPool.Utf8At(m.NameIndex)
			if (name == "<init>" || name == "<clinit>") && m.Code() != nil {
				return uint64(m.Code().CodeOffset)
			}
		}
	case SymMain:
		for _, m := range cf.Methods {
			if m == nil {
				continue
			}
			if cf.ConstPool.Utf8At(m.NameIndex) == "main" && m.Code() != nil {
				return uint64(m.Code().CodeOffset)
			}
		}
	}
	return noAddr
}

// Strings returns every Utf8 constant pool entry as a located string record.
func (cf *ClassFile) Strings() []StringRecord {
	var out []StringRecord
	for i := 1; i < cf.ConstPool.Count(); i++ {
		u, ok := cf.ConstPool.At(uint16(i)).(Utf8Entry)
		if !ok || len(u.Bytes) == 0 {
			continue
		}
		out = append(out, StringRecord{
			Offset:  u.Offset,
			Ordinal: i,
			Length:  len(u.Bytes),
			Value:   u.String(),
		})
	}
	return out
}

func qualifiedMemberName(className, memberName string) string {
	joined := className + "." + memberName
	return strings.ReplaceAll(joined, "/", ".")
}

// MethodsAsSymbols renders every method as a Symbol.
func (cf *ClassFile) MethodsAsSymbols() []Symbol {
	className := cf.Name()
	var out []Symbol
	for _, m := range cf.Methods {
		if m == nil {
			continue
		}
		addr := uint64(noAddr)
		if code := m.Code(); code != nil {
			addr = uint64(code.CodeOffset)
		}
		bind := BindLocal
		if m.IsPublic() {
			bind = BindGlobal
		}
		out = append(out, Symbol{
			Name:    qualifiedMemberName(className, cf.ConstPool.Utf8At(m.NameIndex)),
			Bind:    bind,
			Type:    TypeFunc,
			Addr:    addr,
			Ordinal: len(out),
		})
	}
	return out
}

// FieldsAsSymbols renders every field as a Symbol.
func (cf *ClassFile) FieldsAsSymbols() []Symbol {
	className := cf.Name()
	var out []Symbol
	for _, f := range cf.Fields {
		if f == nil {
			continue
		}
		bind := BindLocal
		if f.IsPublic() {
			bind = BindGlobal
		}
		out = append(out, Symbol{
			Name:    qualifiedMemberName(className, cf.ConstPool.Utf8At(f.NameIndex)),
			Bind:    bind,
			Type:    TypeObject,
			Addr:    uint64(f.Offset),
			Ordinal: len(out),
		})
	}
	return out
}

// ConstPoolAsSymbols renders every cross-class member reference in the
// constant pool as an IMPORT-bound Symbol.
func (cf *ClassFile) ConstPoolAsSymbols() []Symbol {
	var out []Symbol
	for i := 1; i < cf.ConstPool.Count(); i++ {
		entry := cf.ConstPool.At(uint16(i))
		if entry == nil || !IsImport(entry) {
			continue
		}
		className, memberName, _, ok := resolveImportRef(cf.ConstPool, entry)
		if !ok {
			continue
		}
		typ := importType(entry)
		if memberName == "main" {
			typ = TypeFunc
		}
		out = append(out, Symbol{
			Name:    qualifiedMemberName(className, memberName),
			Bind:    BindImport,
			Type:    typ,
			Addr:    uint64(entry.header().Offset),
			Ordinal: i,
		})
	}
	return out
}

// ConstPoolAsImports renders the constant pool's member references as
// Imports, plus one weak IFACE import per declared interface. An imported
// member named main is promoted to a globally bound FUNC.
func (cf *ClassFile) ConstPoolAsImports() []Import {
	var out []Import
	for i := 1; i < cf.ConstPool.Count(); i++ {
		entry := cf.ConstPool.At(uint16(i))
		if entry == nil || !IsImport(entry) {
			continue
		}
		className, memberName, descriptor, ok := resolveImportRef(cf.ConstPool, entry)
		if !ok {
			continue
		}
		bind := BindImport
		typ := importType(entry)
		if memberName == "main" {
			bind = BindGlobal
			typ = TypeFunc
		}
		out = append(out, Import{
			ClassName:  strings.ReplaceAll(className, "/", "."),
			Name:       memberName,
			Descriptor: descriptor,
			Bind:       bind,
			Type:       typ,
			Ordinal:    i,
		})
	}
	for i, iface := range cf.Interfaces {
		if iface == nil {
			continue
		}
		name, ok := cf.ConstPool.ClassNameAt(iface.ClassIndex)
		if !ok {
			continue
		}
		out = append(out, Import{
			ClassName: strings.ReplaceAll(name, "/", "."),
			Name:      "*",
			Bind:      BindWeak,
			Type:      TypeIFace,
			Ordinal:   i,
		})
	}
	return out
}

func resolveImportRef(pool *ConstPool, entry ConstPoolEntry) (className, memberName, descriptor string, ok bool) {
	var classIdx, natIdx uint16
	switch e := entry.(type) {
	case FieldRefEntry:
		classIdx, natIdx = e.ClassIndex, e.NameAndTypeIndex
	case MethodRefEntry:
		classIdx, natIdx = e.ClassIndex, e.NameAndTypeIndex
	case InterfaceMethodRefEntry:
		classIdx, natIdx = e.ClassIndex, e.NameAndTypeIndex
	default:
		return "", "", "", false
	}
	className, classOK := pool.ClassNameAt(classIdx)
	memberName, descriptor, natOK := pool.NameAndTypeAt(natIdx)
	return className, memberName, descriptor, classOK && natOK
}

func importType(entry ConstPoolEntry) SymbolType {
	switch entry.(type) {
	case FieldRefEntry:
		return TypeField
	case InterfaceMethodRefEntry:
		return TypeIMeth
	default:
		return TypeMeth
	}
}

// Libraries returns the deduplicated, first-seen-order set of class names
// referenced from either Class entries or member references.
func (cf *ClassFile) Libraries() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for i := 1; i < cf.ConstPool.Count(); i++ {
		entry := cf.ConstPool.At(uint16(i))
		switch e := entry.(type) {
		case ClassEntry:
			add(cf.ConstPool.Utf8At(e.NameIndex))
		case FieldRefEntry:
			name, _ := cf.ConstPool.ClassNameAt(e.ClassIndex)
			add(name)
		case MethodRefEntry:
			name, _ := cf.ConstPool.ClassNameAt(e.ClassIndex)
			add(name)
		case InterfaceMethodRefEntry:
			name, _ := cf.ConstPool.ClassNameAt(e.ClassIndex)
			add(name)
		}
	}
	return out
}

// Sections returns the read-only top-level sections for each populated area,
// plus per-member attribute subsections and a read+execute subsection for
// each method's first Code attribute.
func (cf *ClassFile) Sections() []Section {
	var out []Section

	if cf.ConstPool.Count() > 0 {
		out = append(out, Section{Name: "class.constant_pool", VSA: cf.ConstPoolOffset, Size: spanSize(cf.ConstPoolOffset, cf.InterfacesOffset), Perm: PermRead})
	}
	if len(cf.Interfaces) > 0 {
		out = append(out, Section{Name: "class.interfaces", VSA: cf.InterfacesOffset, Size: spanSize(cf.InterfacesOffset, cf.FieldsOffset), Perm: PermRead})
	}

	if len(cf.Fields) > 0 {
		out = append(out, Section{Name: "class.fields", VSA: cf.FieldsOffset, Size: spanSize(cf.FieldsOffset, cf.MethodsOffset), Perm: PermRead})
		for i, f := range cf.Fields {
			if f == nil {
				continue
			}
			name := cf.ConstPool.Utf8At(f.NameIndex)
			if name == "" {
				continue
			}
			end := cf.MethodsOffset
			if i+1 < len(cf.Fields) && cf.Fields[i+1] != nil {
				end = cf.Fields[i+1].Offset
			}
			out = append(out, Section{
				Name: "class.fields." + name + ".attr",
				VSA:  f.Offset, Size: spanSize(f.Offset, end), Perm: PermRead,
			})
		}
	}

	if len(cf.Methods) > 0 {
		out = append(out, Section{Name: "class.methods", VSA: cf.MethodsOffset, Size: spanSize(cf.MethodsOffset, cf.AttributesOffset), Perm: PermRead})
		for i, m := range cf.Methods {
			if m == nil || len(m.Attributes) == 0 {
				continue
			}
			name := cf.ConstPool.Utf8At(m.NameIndex)
			if name == "" {
				continue
			}
			end := cf.AttributesOffset
			if i+1 < len(cf.Methods) && cf.Methods[i+1] != nil {
				end = cf.Methods[i+1].Offset
			}
			out = append(out, Section{
				Name: "class.methods." + name + ".attr",
				VSA:  m.Offset, Size: spanSize(m.Offset, end), Perm: PermRead,
			})
			for k, a := range m.Attributes {
				if a == nil || a.Type != AttrCode {
					continue
				}
				code := a.Info.(*AttributeCode)
				out = append(out, Section{
					Name: "class.methods." + name + ".attr." + strconv.Itoa(k) + ".code",
					VSA:  code.CodeOffset, Size: a.Length, Perm: PermRead | PermExecute,
				})
				break
			}
		}
	}

	if cf.Attributes != nil {
		out = append(out, Section{Name: "class.attr", VSA: cf.AttributesOffset, Size: spanSize(cf.AttributesOffset, cf.ClassEndOffset), Perm: PermRead})
	}
	return out
}

func spanSize(start, end uint32) uint32 {
	if end < start {
		return 0
	}
	return end - start
}
