// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import "strconv"

// KVStore is the minimal key-value sidecar the host toolkit provides
// (backed by its own Sdb-style store); PopulateSidecar deposits scalar
// facts about a parsed class file into it.
type KVStore interface {
	SetString(key, val string)
	SetNumber(key string, val int64)
}

// MapKVStore is an in-memory KVStore, useful for tests and standalone use.
// It is not safe for concurrent use without external synchronization.
type MapKVStore struct {
	strings map[string]string
	numbers map[string]int64
}

// NewMapKVStore returns an empty MapKVStore.
func NewMapKVStore() *MapKVStore {
	return &MapKVStore{strings: map[string]string{}, numbers: map[string]int64{}}
}

func (m *MapKVStore) SetString(key, val string) { m.strings[key] = val }
func (m *MapKVStore) SetNumber(key string, val int64) { m.numbers[key] = val }

// String returns a previously set string value.
func (m *MapKVStore) String(key string) string { return m.strings[key] }

// Number returns a previously set numeric value.
func (m *MapKVStore) Number(key string) int64 { return m.numbers[key] }

// PopulateSidecar deposits scalar facts about cf into kv. offset and size
// describe where the class file sits within its container (0, len(data) for
// a standalone file).
func PopulateSidecar(kv KVStore, cf *ClassFile, offset, size uint64) {
	kv.SetNumber("java_class.offset", int64(offset))
	kv.SetNumber("java_class.size", int64(size))
	kv.SetNumber("java_class.magic", int64(cf.Magic))
	kv.SetNumber("java_class.minor_version", int64(cf.Minor))
	kv.SetNumber("java_class.major_version", int64(cf.Major))
	kv.SetString("java_class.version", cf.Version())
	kv.SetNumber("java_class.constant_pool_count", int64(cf.ConstPool.Count()))
	for i := 1; i < cf.ConstPool.Count(); i++ {
		entry := cf.ConstPool.At(uint16(i))
		if entry == nil {
			continue
		}
		kv.SetString("java_class.constant_pool_"+strconv.Itoa(i), Stringify(cf.ConstPool, entry))
	}
	kv.SetNumber("java_class.fields_count", int64(len(cf.Fields)))
	kv.SetNumber("java_class.methods_count", int64(len(cf.Methods)))
	kv.SetNumber("java_class.attributes_count", int64(len(cf.Attributes)))
}
