// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import "fmt"

// Constant pool tag values, JVMS table 4.4-A.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldRef           = 9
	TagMethodRef          = 10
	TagInterfaceMethodRef = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// entryHeader is embedded by every concrete constant pool entry and carries
// the bookkeeping the projection layer needs regardless of tag.
type entryHeader struct {
	Offset uint32
	Size   uint32
}

// ConstPoolEntry is the tagged-union interface implemented by one concrete
// type per JVMS constant pool tag.
type ConstPoolEntry interface {
	Tag() uint8
	header() entryHeader
}

func (h entryHeader) header() entryHeader { return h }

// Utf8Entry holds Modified UTF-8 bytes exactly as they were written; decoding
// happens lazily in String() so a malformed sequence never fails the parse.
type Utf8Entry struct {
	entryHeader
	Bytes []byte
}

func (Utf8Entry) Tag() uint8 { return TagUtf8 }

// String decodes the Modified UTF-8 payload into a Go string. Unpaired or
// malformed sequences are passed through best-effort rather than rejected.
func (u Utf8Entry) String() string {
	return decodeModifiedUTF8(u.Bytes)
}

type IntegerEntry struct {
	entryHeader
	Value int32
}

func (IntegerEntry) Tag() uint8 { return TagInteger }

type FloatEntry struct {
	entryHeader
	Bits uint32
}

func (FloatEntry) Tag() uint8 { return TagFloat }

type LongEntry struct {
	entryHeader
	Value int64
}

func (LongEntry) Tag() uint8 { return TagLong }

type DoubleEntry struct {
	entryHeader
	Bits uint64
}

func (DoubleEntry) Tag() uint8 { return TagDouble }

// NullPadEntry is the synthesized slot the parser inserts immediately after
// every Long/Double entry, per JVMS 4.4.5's two-slot idiosyncrasy.
type NullPadEntry struct {
	entryHeader
}

func (NullPadEntry) Tag() uint8 { return 0 }

type ClassEntry struct {
	entryHeader
	NameIndex uint16
}

func (ClassEntry) Tag() uint8 { return TagClass }

type StringEntry struct {
	entryHeader
	StringIndex uint16
}

func (StringEntry) Tag() uint8 { return TagString }

type FieldRefEntry struct {
	entryHeader
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (FieldRefEntry) Tag() uint8 { return TagFieldRef }

type MethodRefEntry struct {
	entryHeader
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (MethodRefEntry) Tag() uint8 { return TagMethodRef }

type InterfaceMethodRefEntry struct {
	entryHeader
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (InterfaceMethodRefEntry) Tag() uint8 { return TagInterfaceMethodRef }

type NameAndTypeEntry struct {
	entryHeader
	NameIndex       uint16
	DescriptorIndex uint16
}

func (NameAndTypeEntry) Tag() uint8 { return TagNameAndType }

type MethodHandleEntry struct {
	entryHeader
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (MethodHandleEntry) Tag() uint8 { return TagMethodHandle }

type MethodTypeEntry struct {
	entryHeader
	DescriptorIndex uint16
}

func (MethodTypeEntry) Tag() uint8 { return TagMethodType }

type DynamicEntry struct {
	entryHeader
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (DynamicEntry) Tag() uint8 { return TagDynamic }

type InvokeDynamicEntry struct {
	entryHeader
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (InvokeDynamicEntry) Tag() uint8 { return TagInvokeDynamic }

type ModuleEntry struct {
	entryHeader
	NameIndex uint16
}

func (ModuleEntry) Tag() uint8 { return TagModule }

type PackageEntry struct {
	entryHeader
	NameIndex uint16
}

func (PackageEntry) Tag() uint8 { return TagPackage }

// UnknownEntry preserves an unrecognized tag byte without payload, so an
// unfamiliar future tag degrades gracefully instead of failing the parse.
type UnknownEntry struct {
	entryHeader
	RawTag uint8
}

func (u UnknownEntry) Tag() uint8 { return u.RawTag }

// ConstPool is the 1-indexed constant pool table. Index 0 is always absent.
type ConstPool struct {
	entries []ConstPoolEntry
}

// At returns the entry at idx, or nil if idx is out of range, zero, or a
// slot left empty by a truncated pool. The slot after a Long/Double yields
// its NullPadEntry.
func (p *ConstPool) At(idx uint16) ConstPoolEntry {
	if p == nil || int(idx) >= len(p.entries) {
		return nil
	}
	return p.entries[idx]
}

// Count returns constant_pool_count (one more than the highest valid index).
func (p *ConstPool) Count() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Utf8At resolves idx to its decoded string, or "" if idx does not name a
// Utf8 entry.
func (p *ConstPool) Utf8At(idx uint16) string {
	if u, ok := p.At(idx).(Utf8Entry); ok {
		return u.String()
	}
	return ""
}

// ClassNameAt resolves a Class entry at idx through to its Utf8 name.
func (p *ConstPool) ClassNameAt(idx uint16) (string, bool) {
	c, ok := p.At(idx).(ClassEntry)
	if !ok {
		return "", false
	}
	name := p.Utf8At(c.NameIndex)
	if name == "" {
		return "", false
	}
	return name, true
}

// NameAndTypeAt resolves a NameAndType entry at idx to (name, descriptor).
func (p *ConstPool) NameAndTypeAt(idx uint16) (name, desc string, ok bool) {
	nt, isNT := p.At(idx).(NameAndTypeEntry)
	if !isNT {
		return "", "", false
	}
	name = p.Utf8At(nt.NameIndex)
	desc = p.Utf8At(nt.DescriptorIndex)
	return name, desc, name != "" && desc != ""
}

// TagName returns the JVMS mnemonic for a tag value.
func TagName(tag uint8) string {
	switch tag {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldRef:
		return "Fieldref"
	case TagMethodRef:
		return "Methodref"
	case TagInterfaceMethodRef:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return fmt.Sprintf("Unknown(%d)", tag)
	}
}

// RequiresNull reports whether entry occupies two constant pool slots.
func RequiresNull(entry ConstPoolEntry) bool {
	switch entry.(type) {
	case LongEntry, DoubleEntry:
		return true
	default:
		return false
	}
}

// IsString reports whether entry carries literal Utf8 text.
func IsString(entry ConstPoolEntry) bool {
	_, ok := entry.(Utf8Entry)
	return ok
}

// IsImport reports whether entry names a cross-class member reference.
func IsImport(entry ConstPoolEntry) bool {
	switch entry.(type) {
	case FieldRefEntry, MethodRefEntry, InterfaceMethodRefEntry:
		return true
	default:
		return false
	}
}

// Resolve returns the constant-pool indices an entry carries: n is how many
// of a, b are meaningful (0, 1, or 2).
func Resolve(entry ConstPoolEntry) (n int, a, b uint16) {
	switch e := entry.(type) {
	case ClassEntry:
		return 1, e.NameIndex, 0
	case StringEntry:
		return 1, e.StringIndex, 0
	case MethodTypeEntry:
		return 1, e.DescriptorIndex, 0
	case ModuleEntry:
		return 1, e.NameIndex, 0
	case PackageEntry:
		return 1, e.NameIndex, 0
	case FieldRefEntry:
		return 2, e.ClassIndex, e.NameAndTypeIndex
	case MethodRefEntry:
		return 2, e.ClassIndex, e.NameAndTypeIndex
	case InterfaceMethodRefEntry:
		return 2, e.ClassIndex, e.NameAndTypeIndex
	case NameAndTypeEntry:
		return 2, e.NameIndex, e.DescriptorIndex
	case DynamicEntry:
		return 2, e.BootstrapMethodAttrIndex, e.NameAndTypeIndex
	case InvokeDynamicEntry:
		return 2, e.BootstrapMethodAttrIndex, e.NameAndTypeIndex
	case MethodHandleEntry:
		return 2, uint16(e.ReferenceKind), e.ReferenceIndex
	default:
		return 0, 0, 0
	}
}

// Stringify renders entry's canonical textual form, resolving any indices it
// carries through pool.
func Stringify(pool *ConstPool, entry ConstPoolEntry) string {
	switch e := entry.(type) {
	case Utf8Entry:
		return e.String()
	case IntegerEntry:
		return fmt.Sprintf("%d", e.Value)
	case FloatEntry:
		return fmt.Sprintf("0x%08x", e.Bits)
	case LongEntry:
		return fmt.Sprintf("%d", e.Value)
	case DoubleEntry:
		return fmt.Sprintf("0x%016x", e.Bits)
	case ClassEntry:
		return pool.Utf8At(e.NameIndex)
	case StringEntry:
		return pool.Utf8At(e.StringIndex)
	case FieldRefEntry:
		return stringifyRef(pool, e.ClassIndex, e.NameAndTypeIndex)
	case MethodRefEntry:
		return stringifyRef(pool, e.ClassIndex, e.NameAndTypeIndex)
	case InterfaceMethodRefEntry:
		return stringifyRef(pool, e.ClassIndex, e.NameAndTypeIndex)
	case NameAndTypeEntry:
		name := pool.Utf8At(e.NameIndex)
		desc := pool.Utf8At(e.DescriptorIndex)
		return name + ":" + desc
	case MethodHandleEntry:
		return fmt.Sprintf("REF_kind%d#%d", e.ReferenceKind, e.ReferenceIndex)
	case MethodTypeEntry:
		return pool.Utf8At(e.DescriptorIndex)
	case DynamicEntry:
		name, desc, _ := pool.NameAndTypeAt(e.NameAndTypeIndex)
		return name + ":" + desc
	case InvokeDynamicEntry:
		name, desc, _ := pool.NameAndTypeAt(e.NameAndTypeIndex)
		return name + ":" + desc
	case ModuleEntry:
		return pool.Utf8At(e.NameIndex)
	case PackageEntry:
		return pool.Utf8At(e.NameIndex)
	case NullPadEntry:
		return ""
	default:
		return fmt.Sprintf("#%d", entry.Tag())
	}
}

func stringifyRef(pool *ConstPool, classIdx, natIdx uint16) string {
	className, _ := pool.ClassNameAt(classIdx)
	name, desc, _ := pool.NameAndTypeAt(natIdx)
	return className + "." + name + ":" + desc
}

// decodeConstPoolEntry reads one tagged entry at the cursor's current
// position. offset is the entry's absolute file position (tag byte
// inclusive).
func decodeConstPoolEntry(cur *ByteCursor, offset uint32) (ConstPoolEntry, error) {
	tag, err := cur.ReadU8()
	if err != nil {
		return nil, err
	}
	hdr := entryHeader{Offset: offset}
	switch tag {
	case TagUtf8:
		length, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		b, err := cur.ReadBytes(uint32(length))
		if err != nil {
			return nil, err
		}
		hdr.Size = 3 + uint32(length)
		return Utf8Entry{entryHeader: hdr, Bytes: append([]byte(nil), b...)}, nil
	case TagInteger:
		v, err := cur.ReadU32()
		if err != nil {
			return nil, err
		}
		hdr.Size = 5
		return IntegerEntry{entryHeader: hdr, Value: int32(v)}, nil
	case TagFloat:
		v, err := cur.ReadU32()
		if err != nil {
			return nil, err
		}
		hdr.Size = 5
		return FloatEntry{entryHeader: hdr, Bits: v}, nil
	case TagLong:
		v, err := cur.ReadU64()
		if err != nil {
			return nil, err
		}
		hdr.Size = 9
		return LongEntry{entryHeader: hdr, Value: int64(v)}, nil
	case TagDouble:
		v, err := cur.ReadU64()
		if err != nil {
			return nil, err
		}
		hdr.Size = 9
		return DoubleEntry{entryHeader: hdr, Bits: v}, nil
	case TagClass:
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		hdr.Size = 3
		return ClassEntry{entryHeader: hdr, NameIndex: idx}, nil
	case TagString:
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		hdr.Size = 3
		return StringEntry{entryHeader: hdr, StringIndex: idx}, nil
	case TagFieldRef:
		c, n, err := readU16Pair(cur)
		if err != nil {
			return nil, err
		}
		hdr.Size = 5
		return FieldRefEntry{entryHeader: hdr, ClassIndex: c, NameAndTypeIndex: n}, nil
	case TagMethodRef:
		c, n, err := readU16Pair(cur)
		if err != nil {
			return nil, err
		}
		hdr.Size = 5
		return MethodRefEntry{entryHeader: hdr, ClassIndex: c, NameAndTypeIndex: n}, nil
	case TagInterfaceMethodRef:
		c, n, err := readU16Pair(cur)
		if err != nil {
			return nil, err
		}
		hdr.Size = 5
		return InterfaceMethodRefEntry{entryHeader: hdr, ClassIndex: c, NameAndTypeIndex: n}, nil
	case TagNameAndType:
		n, d, err := readU16Pair(cur)
		if err != nil {
			return nil, err
		}
		hdr.Size = 5
		return NameAndTypeEntry{entryHeader: hdr, NameIndex: n, DescriptorIndex: d}, nil
	case TagMethodHandle:
		kind, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		hdr.Size = 4
		return MethodHandleEntry{entryHeader: hdr, ReferenceKind: kind, ReferenceIndex: idx}, nil
	case TagMethodType:
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		hdr.Size = 3
		return MethodTypeEntry{entryHeader: hdr, DescriptorIndex: idx}, nil
	case TagDynamic:
		b, n, err := readU16Pair(cur)
		if err != nil {
			return nil, err
		}
		hdr.Size = 5
		return DynamicEntry{entryHeader: hdr, BootstrapMethodAttrIndex: b, NameAndTypeIndex: n}, nil
	case TagInvokeDynamic:
		b, n, err := readU16Pair(cur)
		if err != nil {
			return nil, err
		}
		hdr.Size = 5
		return InvokeDynamicEntry{entryHeader: hdr, BootstrapMethodAttrIndex: b, NameAndTypeIndex: n}, nil
	case TagModule:
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		hdr.Size = 3
		return ModuleEntry{entryHeader: hdr, NameIndex: idx}, nil
	case TagPackage:
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		hdr.Size = 3
		return PackageEntry{entryHeader: hdr, NameIndex: idx}, nil
	default:
		hdr.Size = 1
		return UnknownEntry{entryHeader: hdr, RawTag: tag}, nil
	}
}

func readU16Pair(cur *ByteCursor) (uint16, uint16, error) {
	a, err := cur.ReadU16()
	if err != nil {
		return 0, 0, err
	}
	b, err := cur.ReadU16()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
