// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package classfile parses Java .class files (JVMS 4) into a queryable,
// immutable model: constant pool, interfaces, fields, methods and
// attributes, plus a projection layer exposing symbols, imports, sections,
// entrypoints and strings the way a binary-analysis toolkit plugin needs
// them.
package classfile

import (
	"encoding/binary"
	"errors"
	"os"

	"github.com/binspector/classfile/log"
	mmap "github.com/edsrzf/mmap-go"
)

// Magic is the fixed 4-byte signature at the start of every class file.
const Magic = 0xCAFEBABE

// Minimum per-entry sizes used to clamp attacker-controlled counts against
// the remaining buffer length.
const (
	minConstPoolEntrySize = 3
	minInterfaceSize      = 2
	minFieldSize          = 8
	minMethodSize         = 8
	minAttributeSize      = 6
)

// ErrTooSmall is returned when the buffer is empty.
var ErrTooSmall = errors.New("classfile: buffer too small to be a class file")

// ClassFile is the parsed, immutable model of a single Java .class file.
type ClassFile struct {
	Magic       uint32 `json:"magic"`
	Minor       uint16 `json:"minor_version"`
	Major       uint16 `json:"major_version"`
	AccessFlags uint16 `json:"access_flags"`
	ThisClass   uint16 `json:"this_class"`
	SuperClass  uint16 `json:"super_class"`

	ConstPool  *ConstPool   `json:"-"`
	Interfaces []*Interface `json:"interfaces,omitempty"`
	Fields     []*Field     `json:"fields,omitempty"`
	Methods    []*Method    `json:"methods,omitempty"`
	Attributes []*Attribute `json:"attributes,omitempty"`

	ConstPoolOffset  uint32 `json:"-"`
	InterfacesOffset uint32 `json:"-"`
	FieldsOffset     uint32 `json:"-"`
	MethodsOffset    uint32 `json:"-"`
	AttributesOffset uint32 `json:"-"`
	ClassEndOffset   uint32 `json:"-"`

	Anomalies []string `json:"anomalies,omitempty"`

	data   []byte
	mapped mmap.MMap
	f      *os.File
	size   uint32
	opts   *Options
	logger *log.Helper
}

// Options configures parsing.
type Options struct {
	// Base is added to every recorded offset, for callers embedding the
	// class file at a non-zero position within a larger container.
	Base uint32

	// A custom logger. Defaults to a StdLogger over os.Stderr filtered at
	// LevelError.
	Logger log.Logger
}

func newLogger(opts *Options) *log.Helper {
	if opts.Logger != nil {
		return log.NewHelper(opts.Logger)
	}
	base := log.NewStdLogger(os.Stderr)
	return log.NewHelper(log.NewFilter(base, log.FilterLevel(log.LevelError)))
}

// New memory-maps the file at path and parses it.
func New(path string, opts *Options) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	if opts == nil {
		opts = &Options{}
	}
	cf := &ClassFile{opts: opts, logger: newLogger(opts), data: data, mapped: data, f: f, size: uint32(len(data))}
	if err := cf.parse(); err != nil {
		cf.Close()
		return nil, err
	}
	return cf, nil
}

// NewBytes parses an in-memory buffer directly. The buffer is not copied and
// must not be mutated by the caller afterward.
func NewBytes(data []byte, opts *Options) (*ClassFile, error) {
	if opts == nil {
		opts = &Options{}
	}
	cf := &ClassFile{opts: opts, logger: newLogger(opts), data: data, size: uint32(len(data))}
	if err := cf.parse(); err != nil {
		return nil, err
	}
	return cf, nil
}

// Close releases the memory-mapped region, if any. Safe to call on a
// NewBytes-constructed ClassFile (no-op).
func (cf *ClassFile) Close() error {
	if cf.mapped != nil {
		_ = cf.mapped.Unmap()
	}
	if cf.f != nil {
		return cf.f.Close()
	}
	return nil
}

// Check reports whether buf looks like a Java class file: larger than 32
// bytes and starting with the CAFEBABE magic.
func Check(buf []byte) bool {
	if len(buf) <= 32 {
		return false
	}
	return binary.BigEndian.Uint32(buf[:4]) == Magic
}

// parse runs the single streaming pass: tolerant of truncation and tail
// corruption within every section, fatal only on an empty buffer. Failed
// reads leave zero values and do not advance the cursor, so section offsets
// stay monotone even on truncated input. The magic is recorded but not
// validated; callers gate on Check.
func (cf *ClassFile) parse() error {
	if cf.size < 1 {
		return ErrTooSmall
	}
	base := cf.opts.Base
	cur := NewByteCursor(cf.data)

	cf.Magic, _ = cur.ReadU32()
	cf.Minor, _ = cur.ReadU16()
	cf.Major, _ = cur.ReadU16()

	cf.parseConstPool(cur, base)

	cf.AccessFlags, _ = cur.ReadU16()
	cf.ThisClass, _ = cur.ReadU16()
	cf.SuperClass, _ = cur.ReadU16()

	cf.parseInterfaces(cur, base)
	cf.parseFields(cur, base)
	cf.parseMethods(cur, base)
	cf.parseAttributes(cur, base)

	cf.ClassEndOffset = base + cur.Tell()
	return nil
}

// Each section records its offset after the count field, so the offset names
// the first entry of the section, the way downstream section consumers
// expect.
func (cf *ClassFile) parseConstPool(cur *ByteCursor, base uint32) {
	rawCount, err := cur.ReadU16()
	cf.ConstPoolOffset = base + cur.Tell()
	if err != nil {
		cf.ConstPool = &ConstPool{}
		return
	}
	count := sanitizeCount(cur.Remaining(), uint32(rawCount), minConstPoolEntrySize)

	pool := &ConstPool{entries: make([]ConstPoolEntry, count)}
	for i := uint32(1); i < count; i++ {
		offset := base + cur.Tell()
		entry, err := decodeConstPoolEntry(cur, offset)
		if err != nil {
			cf.logger.Debugf("constant pool entry %d truncated: %v", i, err)
			cf.noteAnomaly(AnoConstPoolTruncated)
			break
		}
		pool.entries[i] = entry
		if RequiresNull(entry) {
			i++
			if i < count {
				pool.entries[i] = NullPadEntry{entryHeader{Offset: offset}}
			}
		}
	}
	cf.ConstPool = pool
}

func (cf *ClassFile) parseInterfaces(cur *ByteCursor, base uint32) {
	rawCount, err := cur.ReadU16()
	cf.InterfacesOffset = base + cur.Tell()
	if err != nil {
		return
	}
	count := sanitizeCount(cur.Remaining(), uint32(rawCount), minInterfaceSize)
	cf.Interfaces = make([]*Interface, 0, count)
	for i := uint32(0); i < count; i++ {
		iface, err := decodeInterface(cur, base)
		if err != nil {
			cf.logger.Debugf("interface entry %d truncated: %v", i, err)
			cf.noteAnomaly(AnoInterfaceSkipped)
			cf.Interfaces = append(cf.Interfaces, nil)
			continue
		}
		cf.Interfaces = append(cf.Interfaces, iface)
	}
}

func (cf *ClassFile) parseFields(cur *ByteCursor, base uint32) {
	rawCount, err := cur.ReadU16()
	cf.FieldsOffset = base + cur.Tell()
	if err != nil {
		return
	}
	count := sanitizeCount(cur.Remaining(), uint32(rawCount), minFieldSize)
	cf.Fields = make([]*Field, 0, count)
	for i := uint32(0); i < count; i++ {
		field, err := cf.decodeField(cur, base)
		if err != nil {
			cf.logger.Debugf("field entry %d truncated: %v", i, err)
			cf.noteAnomaly(AnoFieldSkipped)
			cf.Fields = append(cf.Fields, nil)
			continue
		}
		cf.Fields = append(cf.Fields, field)
	}
}

func (cf *ClassFile) parseMethods(cur *ByteCursor, base uint32) {
	rawCount, err := cur.ReadU16()
	cf.MethodsOffset = base + cur.Tell()
	if err != nil {
		return
	}
	count := sanitizeCount(cur.Remaining(), uint32(rawCount), minMethodSize)
	cf.Methods = make([]*Method, 0, count)
	for i := uint32(0); i < count; i++ {
		method, err := cf.decodeMethod(cur, base)
		if err != nil {
			cf.logger.Debugf("method entry %d truncated: %v", i, err)
			cf.noteAnomaly(AnoMethodSkipped)
			cf.Methods = append(cf.Methods, nil)
			continue
		}
		cf.Methods = append(cf.Methods, method)
	}
}

func (cf *ClassFile) parseAttributes(cur *ByteCursor, base uint32) {
	rawCount, err := cur.ReadU16()
	cf.AttributesOffset = base + cur.Tell()
	if err != nil {
		cf.logger.Warnf("class attribute count unreadable: %v", err)
		cf.noteAnomaly(AnoClassAttributesTruncated)
		return
	}
	count := sanitizeCount(cur.Remaining(), uint32(rawCount), minAttributeSize)
	cf.Attributes = cf.decodeAttributeEntries(cur, base, count, 0)
}
