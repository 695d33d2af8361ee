package nsmeta

import "hash/fnv"

// hashName is the symbol-table name hash. Bucket assignment and
// in-bucket ordering both derive from it, so it must match the
// function the generator used, bit for bit.
func hashName(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

// GlobalTable is the hash-bucketed index over every top-level record:
// a packed array of buckets, each bucket a packed array of record
// pointers kept sorted by name hash.
type GlobalTable struct {
	f *File
}

func (g *GlobalTable) buckets() PtrArray {
	return g.f.ptrArrayAt(0)
}

// SizeInBytes reports the table's on-disk size.
func (g *GlobalTable) SizeInBytes() int {
	return g.buckets().SizeInBytes()
}

// findInBucket locates the record named name for which accept returns
// true: hash the name, pick the bucket, leftmost-binary-search the
// hash run, then scan it comparing full names. Unavailable or
// wrong-kind candidates are skipped by accept, continuing the scan.
func (g *GlobalTable) findInBucket(name string, accept func(Meta) bool) Meta {
	bs := g.buckets()
	n := bs.Count()
	if n == 0 {
		return nil
	}
	h := hashName(name)
	bucket, ok := g.f.ptrArray(bs.At(int(h % uint32(n))))
	if !ok {
		return nil
	}
	idx := bucket.BinarySearchLeftmost(func(i int) int {
		m := g.f.metaAt(bucket.At(i))
		if m == nil {
			return -1
		}
		switch hi := hashName(m.JSName()); {
		case hi < h:
			return -1
		case hi > h:
			return 1
		}
		return 0
	})
	if idx < 0 {
		return nil
	}
	for ; idx < bucket.Count(); idx++ {
		m := g.f.metaAt(bucket.At(idx))
		if m == nil {
			continue
		}
		if hashName(m.JSName()) != h {
			break
		}
		if m.JSName() != name {
			continue
		}
		if accept(m) {
			return m
		}
	}
	return nil
}

// FindMeta returns the record with the given script-facing name, or
// nil. With onlyIfAvailable set, records failing the availability
// check are skipped as if absent.
func (g *GlobalTable) FindMeta(name string, onlyIfAvailable bool) Meta {
	return g.findInBucket(name, func(m Meta) bool {
		return !onlyIfAvailable || m.IsAvailable()
	})
}

// FindInterface returns the interface with the given name, or nil. A
// name may resolve to both an interface and a protocol; each lookup
// sees only its own kind.
func (g *GlobalTable) FindInterface(name string) *InterfaceMeta {
	m := g.findInBucket(name, func(m Meta) bool {
		_, ok := m.(*InterfaceMeta)
		return ok
	})
	if im, ok := m.(*InterfaceMeta); ok {
		return im
	}
	return nil
}

// FindProtocol returns the protocol with the given name, or nil.
func (g *GlobalTable) FindProtocol(name string) *ProtocolMeta {
	m := g.findInBucket(name, func(m Meta) bool {
		_, ok := m.(*ProtocolMeta)
		return ok
	})
	if pm, ok := m.(*ProtocolMeta); ok {
		return pm
	}
	return nil
}

// Iterator enumerates every record in the table, in bucket order then
// in-bucket order. That is not name order, but it is stable across
// repeated scans of the same blob.
type Iterator struct {
	g      *GlobalTable
	bucket int
	index  int
}

// Iterate returns an iterator positioned before the first record.
func (g *GlobalTable) Iterate() *Iterator {
	return &Iterator{g: g, index: -1}
}

// Next advances to the next record, lazily skipping empty and
// exhausted buckets. It returns false when the table is exhausted.
func (it *Iterator) Next() bool {
	bs := it.g.buckets()
	it.index++
	for it.bucket < bs.Count() {
		if b, ok := it.g.f.ptrArray(bs.At(it.bucket)); ok && it.index < b.Count() {
			return true
		}
		it.bucket++
		it.index = 0
	}
	return false
}

// Meta returns the record at the current position.
func (it *Iterator) Meta() Meta {
	b, ok := it.g.f.ptrArray(it.g.buckets().At(it.bucket))
	if !ok {
		return nil
	}
	return it.g.f.metaAt(b.At(it.index))
}

// Pos reports the cursor position. Two cursors over the same table
// are positionally equal iff Pos matches.
func (it *Iterator) Pos() (bucket, index int) {
	return it.bucket, it.index
}
