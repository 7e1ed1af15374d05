// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

// Access flag bits shared by classes, fields and methods (JVMS 4.1, 4.5, 4.6).
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccBridge     = 0x0040
	AccVarargs    = 0x0080
	AccNative     = 0x0100
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccStrict     = 0x0800
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
	AccModule     = 0x8000
)

// Interface is a single entry of the interfaces table: an index into the
// constant pool naming a Class entry.
type Interface struct {
	ClassIndex uint16 `json:"class_index"`
	Offset     uint32 `json:"offset"`
}

// Field describes one field_info structure (JVMS 4.5).
type Field struct {
	AccessFlags     uint16       `json:"access_flags"`
	NameIndex       uint16       `json:"name_index"`
	DescriptorIndex uint16       `json:"descriptor_index"`
	Attributes      []*Attribute `json:"attributes,omitempty"`
	Offset          uint32       `json:"offset"`
}

// IsPublic reports whether the field carries the PUBLIC access flag.
func (f *Field) IsPublic() bool {
	return f.AccessFlags&AccPublic != 0
}

// Method describes one method_info structure (JVMS 4.6).
type Method struct {
	AccessFlags     uint16       `json:"access_flags"`
	NameIndex       uint16       `json:"name_index"`
	DescriptorIndex uint16       `json:"descriptor_index"`
	Attributes      []*Attribute `json:"attributes,omitempty"`
	Offset          uint32       `json:"offset"`

	code *AttributeCode
}

// IsStatic reports whether the method carries the STATIC access flag.
func (m *Method) IsStatic() bool {
	return m.AccessFlags&AccStatic != 0
}

// IsPublic reports whether the method carries the PUBLIC access flag.
func (m *Method) IsPublic() bool {
	return m.AccessFlags&AccPublic != 0
}

// Code returns the method's resolved Code attribute, or nil if it has none.
// The result is cached at construction time so repeated projection-layer
// calls don't rescan the attribute list.
func (m *Method) Code() *AttributeCode {
	return m.code
}

func (m *Method) cacheCode() {
	for _, a := range m.Attributes {
		if a == nil {
			continue
		}
		if code, ok := a.Info.(*AttributeCode); ok {
			m.code = code
			return
		}
	}
}

// decodeInterface reads one interfaces table entry.
func decodeInterface(cur *ByteCursor, base uint32) (*Interface, error) {
	offset := base + cur.Tell()
	idx, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	return &Interface{ClassIndex: idx, Offset: offset}, nil
}

// decodeMember reads the common field_info/method_info shape and resolves
// its attribute list.
func (cf *ClassFile) decodeMember(cur *ByteCursor, base uint32) (flags, name, desc uint16, offset uint32, attrs []*Attribute, err error) {
	offset = base + cur.Tell()
	flags, err = cur.ReadU16()
	if err != nil {
		return
	}
	name, err = cur.ReadU16()
	if err != nil {
		return
	}
	desc, err = cur.ReadU16()
	if err != nil {
		return
	}
	attrs, err = cf.decodeAttributeList(cur, base, 0)
	return
}

func (cf *ClassFile) decodeField(cur *ByteCursor, base uint32) (*Field, error) {
	flags, name, desc, offset, attrs, err := cf.decodeMember(cur, base)
	if err != nil {
		return nil, err
	}
	return &Field{
		AccessFlags:     flags,
		NameIndex:       name,
		DescriptorIndex: desc,
		Attributes:      attrs,
		Offset:          offset,
	}, nil
}

func (cf *ClassFile) decodeMethod(cur *ByteCursor, base uint32) (*Method, error) {
	flags, name, desc, offset, attrs, err := cf.decodeMember(cur, base)
	if err != nil {
		return nil, err
	}
	m := &Method{
		AccessFlags:     flags,
		NameIndex:       name,
		DescriptorIndex: desc,
		Attributes:      attrs,
		Offset:          offset,
	}
	m.cacheCode()
	return m, nil
}
