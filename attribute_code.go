// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

// ExceptionTableEntry is one row of a Code attribute's exception table.
type ExceptionTableEntry struct {
	StartPC   uint16 `json:"start_pc"`
	EndPC     uint16 `json:"end_pc"`
	HandlerPC uint16 `json:"handler_pc"`
	CatchType uint16 `json:"catch_type"`
}

// AttributeCode is the resolved Code attribute (JVMS 4.7.3): bytecode plus
// its exception table and nested attributes (LineNumberTable and friends).
// Bytecode semantics and stackmap-frame interpretation are not part of this
// model.
type AttributeCode struct {
	MaxStack       uint16                `json:"max_stack"`
	MaxLocals      uint16                `json:"max_locals"`
	CodeLength     uint32                `json:"code_length"`
	CodeOffset     uint32                `json:"code_offset"`
	ExceptionTable []ExceptionTableEntry `json:"exception_table,omitempty"`
	Attributes     []*Attribute          `json:"attributes,omitempty"`
}

func (cf *ClassFile) decodeAttributeCode(cur *ByteCursor, payloadBase uint32, depth int) (*AttributeCode, error) {
	maxStack, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	codeLength, err := cur.ReadU32()
	if err != nil {
		return nil, err
	}
	codeOffset := payloadBase + cur.Tell()
	if _, err := cur.ReadBytes(codeLength); err != nil {
		return nil, err
	}

	excCount, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	sanitizedExc := sanitizeCount(cur.Remaining(), uint32(excCount), 8)
	excTable := make([]ExceptionTableEntry, 0, sanitizedExc)
	for i := uint32(0); i < sanitizedExc; i++ {
		startPC, err := cur.ReadU16()
		if err != nil {
			break
		}
		endPC, err := cur.ReadU16()
		if err != nil {
			break
		}
		handlerPC, err := cur.ReadU16()
		if err != nil {
			break
		}
		catchType, err := cur.ReadU16()
		if err != nil {
			break
		}
		excTable = append(excTable, ExceptionTableEntry{
			StartPC: startPC, EndPC: endPC, HandlerPC: handlerPC, CatchType: catchType,
		})
	}

	nested, err := cf.decodeAttributeList(cur, payloadBase, depth+1)
	if err != nil {
		nested = nil
	}

	return &AttributeCode{
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		CodeLength:     codeLength,
		CodeOffset:     codeOffset,
		ExceptionTable: excTable,
		Attributes:     nested,
	}, nil
}

// LineNumberEntry is one row of a LineNumberTable attribute.
type LineNumberEntry struct {
	StartPC    uint16 `json:"start_pc"`
	LineNumber uint16 `json:"line_number"`
}

// LineNumberTableAttribute is the resolved LineNumberTable attribute.
type LineNumberTableAttribute struct {
	Entries []LineNumberEntry `json:"line_number_table"`
}

func decodeLineNumberTable(cur *ByteCursor) (*LineNumberTableAttribute, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizeCount(cur.Remaining(), uint32(count), 4)
	entries := make([]LineNumberEntry, 0, sanitized)
	for i := uint32(0); i < sanitized; i++ {
		startPC, err := cur.ReadU16()
		if err != nil {
			break
		}
		line, err := cur.ReadU16()
		if err != nil {
			break
		}
		entries = append(entries, LineNumberEntry{StartPC: startPC, LineNumber: line})
	}
	return &LineNumberTableAttribute{Entries: entries}, nil
}

// LocalVariableEntry is one row of a LocalVariableTable/LocalVariableTypeTable.
type LocalVariableEntry struct {
	StartPC         uint16 `json:"start_pc"`
	Length          uint16 `json:"length"`
	NameIndex       uint16 `json:"name_index"`
	DescriptorIndex uint16 `json:"descriptor_index"`
	Index           uint16 `json:"index"`
}

// LocalVariableTableAttribute is the resolved LocalVariableTable or
// LocalVariableTypeTable attribute (identical wire shape).
type LocalVariableTableAttribute struct {
	Entries []LocalVariableEntry `json:"local_variable_table"`
}

func decodeLocalVariableTable(cur *ByteCursor) (*LocalVariableTableAttribute, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizeCount(cur.Remaining(), uint32(count), 10)
	entries := make([]LocalVariableEntry, 0, sanitized)
	for i := uint32(0); i < sanitized; i++ {
		startPC, err := cur.ReadU16()
		if err != nil {
			break
		}
		length, err := cur.ReadU16()
		if err != nil {
			break
		}
		name, err := cur.ReadU16()
		if err != nil {
			break
		}
		desc, err := cur.ReadU16()
		if err != nil {
			break
		}
		index, err := cur.ReadU16()
		if err != nil {
			break
		}
		entries = append(entries, LocalVariableEntry{
			StartPC: startPC, Length: length, NameIndex: name, DescriptorIndex: desc, Index: index,
		})
	}
	return &LocalVariableTableAttribute{Entries: entries}, nil
}

// ExceptionsAttribute is the resolved Exceptions attribute: declared checked
// exception classes.
type ExceptionsAttribute struct {
	ClassIndices []uint16 `json:"exception_index_table"`
}

func decodeExceptions(cur *ByteCursor) (*ExceptionsAttribute, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizeCount(cur.Remaining(), uint32(count), 2)
	out := make([]uint16, 0, sanitized)
	for i := uint32(0); i < sanitized; i++ {
		idx, err := cur.ReadU16()
		if err != nil {
			break
		}
		out = append(out, idx)
	}
	return &ExceptionsAttribute{ClassIndices: out}, nil
}

// InnerClassEntry is one row of an InnerClasses attribute.
type InnerClassEntry struct {
	InnerClassInfoIndex   uint16 `json:"inner_class_info_index"`
	OuterClassInfoIndex   uint16 `json:"outer_class_info_index"`
	InnerNameIndex        uint16 `json:"inner_name_index"`
	InnerClassAccessFlags uint16 `json:"inner_class_access_flags"`
}

// InnerClassesAttribute is the resolved InnerClasses attribute.
type InnerClassesAttribute struct {
	Classes []InnerClassEntry `json:"classes"`
}

func decodeInnerClasses(cur *ByteCursor) (*InnerClassesAttribute, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizeCount(cur.Remaining(), uint32(count), 8)
	entries := make([]InnerClassEntry, 0, sanitized)
	for i := uint32(0); i < sanitized; i++ {
		inner, err := cur.ReadU16()
		if err != nil {
			break
		}
		outer, err := cur.ReadU16()
		if err != nil {
			break
		}
		name, err := cur.ReadU16()
		if err != nil {
			break
		}
		flags, err := cur.ReadU16()
		if err != nil {
			break
		}
		entries = append(entries, InnerClassEntry{
			InnerClassInfoIndex: inner, OuterClassInfoIndex: outer,
			InnerNameIndex: name, InnerClassAccessFlags: flags,
		})
	}
	return &InnerClassesAttribute{Classes: entries}, nil
}

// BootstrapMethod is one row of a BootstrapMethods attribute.
type BootstrapMethod struct {
	MethodRef uint16   `json:"bootstrap_method_ref"`
	Arguments []uint16 `json:"bootstrap_arguments"`
}

// BootstrapMethodsAttribute is the resolved BootstrapMethods attribute
// (JVMS 4.7.23), used by invokedynamic call sites.
type BootstrapMethodsAttribute struct {
	Methods []BootstrapMethod `json:"bootstrap_methods"`
}

func decodeBootstrapMethods(cur *ByteCursor) (*BootstrapMethodsAttribute, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizeCount(cur.Remaining(), uint32(count), 4)
	methods := make([]BootstrapMethod, 0, sanitized)
	for i := uint32(0); i < sanitized; i++ {
		ref, err := cur.ReadU16()
		if err != nil {
			break
		}
		argCount, err := cur.ReadU16()
		if err != nil {
			break
		}
		sanitizedArgs := sanitizeCount(cur.Remaining(), uint32(argCount), 2)
		args := make([]uint16, 0, sanitizedArgs)
		for j := uint32(0); j < sanitizedArgs; j++ {
			a, err := cur.ReadU16()
			if err != nil {
				break
			}
			args = append(args, a)
		}
		methods = append(methods, BootstrapMethod{MethodRef: ref, Arguments: args})
	}
	return &BootstrapMethodsAttribute{Methods: methods}, nil
}

// MethodParameter is one row of a MethodParameters attribute.
type MethodParameter struct {
	Name  string `json:"name"`
	Flags uint16 `json:"access_flags"`
}

// MethodParametersAttribute is the resolved MethodParameters attribute.
type MethodParametersAttribute struct {
	Parameters []MethodParameter `json:"parameters"`
}

func decodeMethodParameters(cur *ByteCursor, pool *ConstPool) (*MethodParametersAttribute, error) {
	count, err := cur.ReadU8()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizeCount(cur.Remaining(), uint32(count), 4)
	params := make([]MethodParameter, 0, sanitized)
	for i := uint32(0); i < sanitized; i++ {
		nameIdx, err := cur.ReadU16()
		if err != nil {
			break
		}
		flags, err := cur.ReadU16()
		if err != nil {
			break
		}
		params = append(params, MethodParameter{Name: pool.Utf8At(nameIdx), Flags: flags})
	}
	return &MethodParametersAttribute{Parameters: params}, nil
}

// RecordComponent is one component of a Record attribute (JVMS 4.7.30).
type RecordComponent struct {
	NameIndex       uint16       `json:"name_index"`
	Name            string       `json:"name"`
	DescriptorIndex uint16       `json:"descriptor_index"`
	Attributes      []*Attribute `json:"attributes,omitempty"`
}

// RecordAttribute is the resolved Record attribute.
type RecordAttribute struct {
	Components []RecordComponent `json:"components"`
}

func (cf *ClassFile) decodeRecord(cur *ByteCursor, base uint32, depth int) (*RecordAttribute, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizeCount(cur.Remaining(), uint32(count), 6)
	components := make([]RecordComponent, 0, sanitized)
	for i := uint32(0); i < sanitized; i++ {
		nameIdx, err := cur.ReadU16()
		if err != nil {
			break
		}
		descIdx, err := cur.ReadU16()
		if err != nil {
			break
		}
		attrs, err := cf.decodeAttributeList(cur, base, depth+1)
		if err != nil {
			break
		}
		components = append(components, RecordComponent{
			NameIndex: nameIdx, Name: cf.ConstPool.Utf8At(nameIdx),
			DescriptorIndex: descIdx, Attributes: attrs,
		})
	}
	return &RecordAttribute{Components: components}, nil
}
