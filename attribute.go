// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

// maxAttributeDepth bounds attribute-list recursion (Code -> nested
// attributes -> ...). JVMS-conformant files never nest more than one level
// deep.
const maxAttributeDepth = 4

// AttributeKind discriminates the typed payload an Attribute carries.
type AttributeKind int

const (
	AttrUnknown AttributeKind = iota
	AttrCode
	AttrLineNumberTable
	AttrLocalVariableTable
	AttrLocalVariableTypeTable
	AttrSourceFile
	AttrConstantValue
	AttrExceptions
	AttrInnerClasses
	AttrEnclosingMethod
	AttrSynthetic
	AttrDeprecated
	AttrSignature
	AttrSourceDebugExtension
	AttrStackMapTable
	AttrRuntimeVisibleAnnotations
	AttrRuntimeInvisibleAnnotations
	AttrAnnotationDefault
	AttrBootstrapMethods
	AttrMethodParameters
	AttrNestHost
	AttrNestMembers
	AttrRecord
	AttrPermittedSubclasses
)

var attrNames = map[string]AttributeKind{
	"Code":                               AttrCode,
	"LineNumberTable":                    AttrLineNumberTable,
	"LocalVariableTable":                 AttrLocalVariableTable,
	"LocalVariableTypeTable":             AttrLocalVariableTypeTable,
	"SourceFile":                         AttrSourceFile,
	"ConstantValue":                      AttrConstantValue,
	"Exceptions":                         AttrExceptions,
	"InnerClasses":                       AttrInnerClasses,
	"EnclosingMethod":                    AttrEnclosingMethod,
	"Synthetic":                          AttrSynthetic,
	"Deprecated":                         AttrDeprecated,
	"Signature":                          AttrSignature,
	"SourceDebugExtension":               AttrSourceDebugExtension,
	"StackMapTable":                      AttrStackMapTable,
	"RuntimeVisibleAnnotations":          AttrRuntimeVisibleAnnotations,
	"RuntimeInvisibleAnnotations":        AttrRuntimeInvisibleAnnotations,
	"AnnotationDefault":                  AttrAnnotationDefault,
	"BootstrapMethods":                   AttrBootstrapMethods,
	"MethodParameters":                   AttrMethodParameters,
	"NestHost":                           AttrNestHost,
	"NestMembers":                        AttrNestMembers,
	"Record":                             AttrRecord,
	"PermittedSubclasses":                AttrPermittedSubclasses,
}

// Attribute is the generic attribute_info envelope plus its resolved,
// type-dispatched payload.
type Attribute struct {
	NameIndex uint16        `json:"attribute_name_index"`
	Length    uint32        `json:"attribute_length"`
	Name      string        `json:"attribute_name"`
	Type      AttributeKind `json:"type"`
	Offset    uint32        `json:"offset"`
	Raw       []byte        `json:"-"`
	Info      interface{}   `json:"info,omitempty"`
}

// decodeAttributeEnvelope reads the fixed 6-byte attribute_info header and
// slurps attribute_length raw bytes, without interpreting them yet.
func decodeAttributeEnvelope(cur *ByteCursor, base uint32) (*Attribute, []byte, error) {
	offset := base + cur.Tell()
	nameIdx, err := cur.ReadU16()
	if err != nil {
		return nil, nil, err
	}
	length, err := cur.ReadU32()
	if err != nil {
		return nil, nil, err
	}
	raw, err := cur.ReadBytes(length)
	if err != nil {
		return nil, nil, err
	}
	return &Attribute{
		NameIndex: nameIdx,
		Length:    length,
		Offset:    offset,
	}, raw, nil
}

// decodeAttributeList reads a count-prefixed attribute table and resolves
// each entry.
func (cf *ClassFile) decodeAttributeList(cur *ByteCursor, base uint32, depth int) ([]*Attribute, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizeCount(cur.Remaining(), uint32(count), minAttributeSize)
	return cf.decodeAttributeEntries(cur, base, sanitized, depth), nil
}

// decodeAttributeEntries walks count attribute entries. An entry whose
// envelope cannot be read, or whose name index does not resolve to a Utf8
// entry, leaves a nil slot; a resolved-but-undecodable attribute degrades to
// AttrUnknown rather than being dropped.
func (cf *ClassFile) decodeAttributeEntries(cur *ByteCursor, base uint32, count uint32, depth int) []*Attribute {
	attrs := make([]*Attribute, 0, count)
	for i := uint32(0); i < count; i++ {
		env, raw, err := decodeAttributeEnvelope(cur, base)
		if err != nil {
			cf.logger.Debugf("attribute %d envelope truncated: %v", i, err)
			cf.noteAnomaly(AnoAttributeSkipped)
			attrs = append(attrs, nil)
			continue
		}
		if !cf.resolveAttribute(env, raw, depth) {
			cf.logger.Debugf("attribute %d: name index %d is not a Utf8 entry", i, env.NameIndex)
			cf.noteAnomaly(AnoAttributeSkipped)
			attrs = append(attrs, nil)
			continue
		}
		attrs = append(attrs, env)
	}
	return attrs
}

// resolveAttribute looks up env's name and, for recognized kinds, decodes
// the typed payload in place. Returns false if the name index does not
// resolve to a Utf8 entry at all, in which case the envelope is discarded.
func (cf *ClassFile) resolveAttribute(env *Attribute, raw []byte, depth int) bool {
	name := cf.ConstPool.Utf8At(env.NameIndex)
	if name == "" {
		return false
	}
	env.Name = name
	kind, known := attrNames[name]
	if !known {
		env.Type = AttrUnknown
		env.Raw = raw
		return true
	}
	info, err := cf.decodeTypedAttribute(kind, raw, env.Offset, depth)
	if err != nil {
		cf.logger.Debugf("attribute %q at %#x: %v, keeping raw envelope", name, env.Offset, err)
		cf.noteAnomaly(AnoAttributeDegraded)
		env.Type = AttrUnknown
		env.Raw = raw
		return true
	}
	env.Type = kind
	env.Info = info
	return true
}

func (cf *ClassFile) decodeTypedAttribute(kind AttributeKind, raw []byte, offset uint32, depth int) (interface{}, error) {
	if depth > maxAttributeDepth {
		return nil, ErrOutsideBoundary
	}
	cur := NewByteCursor(raw)
	switch kind {
	case AttrCode:
		// offset+6 is the absolute position of the payload past the 6-byte
		// envelope header.
		return cf.decodeAttributeCode(cur, offset+6, depth)
	case AttrLineNumberTable:
		return decodeLineNumberTable(cur)
	case AttrLocalVariableTable:
		return decodeLocalVariableTable(cur)
	case AttrLocalVariableTypeTable:
		return decodeLocalVariableTable(cur)
	case AttrSourceFile:
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		return &SourceFileAttribute{SourceFileIndex: idx, Name: cf.ConstPool.Utf8At(idx)}, nil
	case AttrConstantValue:
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		return &ConstantValueAttribute{ConstantValueIndex: idx}, nil
	case AttrExceptions:
		return decodeExceptions(cur)
	case AttrInnerClasses:
		return decodeInnerClasses(cur)
	case AttrEnclosingMethod:
		class, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		method, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		return &EnclosingMethodAttribute{ClassIndex: class, MethodIndex: method}, nil
	case AttrSynthetic, AttrDeprecated:
		return nil, nil
	case AttrSignature:
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		return &SignatureAttribute{SignatureIndex: idx, Signature: cf.ConstPool.Utf8At(idx)}, nil
	case AttrSourceDebugExtension:
		return &RawAttribute{Bytes: raw}, nil
	case AttrStackMapTable:
		return &RawAttribute{Bytes: raw}, nil
	case AttrRuntimeVisibleAnnotations, AttrRuntimeInvisibleAnnotations:
		return decodeAnnotationsCount(cur)
	case AttrAnnotationDefault:
		return &RawAttribute{Bytes: raw}, nil
	case AttrBootstrapMethods:
		return decodeBootstrapMethods(cur)
	case AttrMethodParameters:
		return decodeMethodParameters(cur, cf.ConstPool)
	case AttrNestHost:
		idx, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		return &NestHostAttribute{HostClassIndex: idx}, nil
	case AttrNestMembers:
		return decodeClassIndexList(cur)
	case AttrRecord:
		return cf.decodeRecord(cur, offset+6, depth)
	case AttrPermittedSubclasses:
		return decodeClassIndexList(cur)
	default:
		return &RawAttribute{Bytes: raw}, nil
	}
}

// RawAttribute is used for attribute kinds whose internal structure this
// parser does not interpret (stack map frames, annotation element values):
// presence and raw bytes are retained.
type RawAttribute struct {
	Bytes []byte `json:"-"`
}

type SourceFileAttribute struct {
	SourceFileIndex uint16 `json:"sourcefile_index"`
	Name            string `json:"name"`
}

type ConstantValueAttribute struct {
	ConstantValueIndex uint16 `json:"constantvalue_index"`
}

type EnclosingMethodAttribute struct {
	ClassIndex  uint16 `json:"class_index"`
	MethodIndex uint16 `json:"method_index"`
}

type SignatureAttribute struct {
	SignatureIndex uint16 `json:"signature_index"`
	Signature      string `json:"signature"`
}

type NestHostAttribute struct {
	HostClassIndex uint16 `json:"host_class_index"`
}

type AnnotationsAttribute struct {
	Count uint16 `json:"num_annotations"`
	Raw   []byte `json:"-"`
}

func decodeAnnotationsCount(cur *ByteCursor) (*AnnotationsAttribute, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	return &AnnotationsAttribute{Count: count, Raw: cur.data[cur.pos:]}, nil
}

type ClassIndexListAttribute struct {
	Indices []uint16 `json:"classes"`
}

func decodeClassIndexList(cur *ByteCursor) (*ClassIndexListAttribute, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizeCount(cur.Remaining(), uint32(count), 2)
	out := &ClassIndexListAttribute{Indices: make([]uint16, 0, sanitized)}
	for i := uint32(0); i < sanitized; i++ {
		idx, err := cur.ReadU16()
		if err != nil {
			break
		}
		out.Indices = append(out.Indices, idx)
	}
	return out, nil
}
