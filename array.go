package nsmeta

// arrayCountSize is the width of the element-count prefix.
const arrayCountSize = 4

// Array is a view over a length-prefixed sequence of fixed-size
// elements stored inline in the blob: a 32-bit count immediately
// followed by count elements, no capacity. It never copies.
type Array struct {
	f        *File
	off      int // absolute offset of the count field
	elemSize int
}

// Count reports the number of elements.
func (a Array) Count() int {
	if a.f == nil {
		return 0
	}
	n := a.f.i32(a.off)
	if n < 0 {
		return 0
	}
	return int(n)
}

// elem returns the absolute offset of element i.
func (a Array) elem(i int) int {
	return a.off + arrayCountSize + i*a.elemSize
}

// SizeInBytes reports the total on-disk size of the array, count
// prefix included.
func (a Array) SizeInBytes() int {
	return arrayCountSize + a.Count()*a.elemSize
}

// BinarySearch runs a classic binary search over elements the caller
// keeps in non-decreasing key order. cmp compares element i against
// the key: negative when the element orders before it, positive when
// after, zero on a match. It returns the index of any matching
// element, or -(insertion+1) when absent, where insertion is the
// index the key would be inserted at.
func (a Array) BinarySearch(cmp func(i int) int) int {
	left, right := 0, a.Count()-1
	for left <= right {
		mid := (left + right) / 2
		switch r := cmp(mid); {
		case r < 0:
			left = mid + 1
		case r > 0:
			right = mid - 1
		default:
			return mid
		}
	}
	return -(left + 1)
}

// BinarySearchLeftmost is BinarySearch followed by a walk to the
// first element of the matching run. Keys are not unique (name
// hashes, overloaded names), so callers that need every match start
// here and scan forward.
func (a Array) BinarySearchLeftmost(cmp func(i int) int) int {
	mid := a.BinarySearch(cmp)
	for mid > 0 && cmp(mid-1) == 0 {
		mid--
	}
	return mid
}

// PtrArray is an Array of heap-relative pointers.
type PtrArray struct {
	Array
}

func (f *File) ptrArrayAt(off int) PtrArray {
	return PtrArray{Array{f: f, off: off, elemSize: 4}}
}

// ptrArray dereferences p to a pointer array, absent on null.
func (f *File) ptrArray(p Ptr) (PtrArray, bool) {
	off, ok := f.resolve(p)
	if !ok {
		return PtrArray{}, false
	}
	return f.ptrArrayAt(off), true
}

// At returns element i.
func (a PtrArray) At(i int) Ptr {
	return a.f.ptrAt(a.elem(i))
}

// StringArray is an Array of string pointers.
type StringArray struct {
	PtrArray
}

// At returns string i, "" for null entries.
func (a StringArray) At(i int) string {
	return a.f.stringAt(a.PtrArray.At(i))
}
