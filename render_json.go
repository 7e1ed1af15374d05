// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import "encoding/json"

// constPoolEntryJSON is the JSON shape of one constant pool entry: paired
// "_n"/"_s" fields carry the raw tag number and its resolved text
// representation.
type constPoolEntryJSON struct {
	Ordinal int    `json:"ordinal"`
	TagN    uint8  `json:"tag_n"`
	TagS    string `json:"tag_s"`
	ValueS  string `json:"value_s"`
}

// classFileJSON is the wire document RenderJSON marshals. It mirrors
// ClassFile's fields plus the projection-layer values a consumer typically
// wants without calling back into the Go API.
type classFileJSON struct {
	Magic        uint32 `json:"magic"`
	MinorN       uint16 `json:"minor_version_n"`
	MajorN       uint16 `json:"major_version_n"`
	VersionS     string `json:"version_s"`
	AccessFlagsN uint16 `json:"access_flags_n"`
	AccessFlagsS string `json:"access_flags_s"`
	ClassS       string `json:"class_s"`
	SuperS       string `json:"super_s"`
	LanguageS    string `json:"language_s"`

	ConstantPool []constPoolEntryJSON `json:"constant_pool"`
	Interfaces   []string             `json:"interfaces"`
	Fields       []*Field             `json:"fields"`
	Methods      []*Method            `json:"methods"`
	Attributes   []*Attribute         `json:"attributes"`
	Sections     []Section            `json:"sections"`
	Libraries    []string             `json:"libraries"`
}

// RenderJSON renders the class file as a structured JSON document.
func RenderJSON(cf *ClassFile) ([]byte, error) {
	doc := classFileJSON{
		Magic:        cf.Magic,
		MinorN:       cf.Minor,
		MajorN:       cf.Major,
		VersionS:     cf.Version(),
		AccessFlagsN: cf.AccessFlags,
		AccessFlagsS: cf.AccessFlagsReadable(),
		ClassS:       cf.Name(),
		SuperS:       cf.Super(),
		LanguageS:    cf.Language(),
		Fields:       cf.Fields,
		Methods:      cf.Methods,
		Attributes:   cf.Attributes,
		Sections:     cf.Sections(),
		Libraries:    cf.Libraries(),
	}

	for i := 1; i < cf.ConstPool.Count(); i++ {
		entry := cf.ConstPool.At(uint16(i))
		if entry == nil {
			continue
		}
		doc.ConstantPool = append(doc.ConstantPool, constPoolEntryJSON{
			Ordinal: i,
			TagN:    entry.Tag(),
			TagS:    TagName(entry.Tag()),
			ValueS:  Stringify(cf.ConstPool, entry),
		})
	}

	for _, iface := range cf.Interfaces {
		if iface == nil {
			continue
		}
		name, _ := cf.ConstPool.ClassNameAt(iface.ClassIndex)
		doc.Interfaces = append(doc.Interfaces, name)
	}

	return json.MarshalIndent(&doc, "", "\t")
}
