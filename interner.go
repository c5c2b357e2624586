package jitthird

import (
	"sync"
	"unsafe"
)

// internedString is one entry in the StringInterner: a byte payload
// length-prefixed the way the nativecode puts() shim expects, plus a
// reference count.
type internedString struct {
	data    []byte // 8-byte length prefix followed by the raw bytes
	refs    int
	content string // cached for string_of / equality lookups
}

// StringInterner maps source string literals to stable indices with
// reference counts, per C2. All operations are serialised under a single
// mutex: the core itself is single-threaded, but an optional UI
// collaborator may intern concurrently (§5).
type StringInterner struct {
	mu      sync.Mutex
	entries []*internedString
	byValue map[string]int
}

func newStringInterner() *StringInterner {
	return &StringInterner{byValue: make(map[string]int)}
}

// Intern records s if not already present (refcount starts at 1) or
// increments the existing entry's refcount; returns a stable index.
func (si *StringInterner) Intern(s string) int {
	si.mu.Lock()
	defer si.mu.Unlock()
	if idx, ok := si.byValue[s]; ok {
		si.entries[idx].refs++
		return idx
	}
	idx := si.allocLocked(s)
	si.byValue[s] = idx
	return idx
}

func (si *StringInterner) allocLocked(s string) int {
	for i, e := range si.entries {
		if e == nil {
			si.entries[i] = makeInternedString(s)
			return i
		}
	}
	si.entries = append(si.entries, makeInternedString(s))
	return len(si.entries) - 1
}

func makeInternedString(s string) *internedString {
	buf := make([]byte, 8+len(s))
	n := uint64(len(s))
	for i := 0; i < 8; i++ {
		buf[i] = byte(n >> (8 * i))
	}
	copy(buf[8:], s)
	return &internedString{data: buf, refs: 1, content: s}
}

// StringOf returns the string previously stored at idx.
func (si *StringInterner) StringOf(idx int) string {
	si.mu.Lock()
	defer si.mu.Unlock()
	if idx < 0 || idx >= len(si.entries) || si.entries[idx] == nil {
		halt(ErrUnknownWord)
	}
	return si.entries[idx].content
}

// AddressOf returns a raw pointer to idx's length-prefixed byte payload,
// usable as the immediate operand `puts` expects and as the address a
// colon-defined `string` kind word pushes.
func (si *StringInterner) AddressOf(idx int) uintptr {
	si.mu.Lock()
	defer si.mu.Unlock()
	if idx < 0 || idx >= len(si.entries) || si.entries[idx] == nil {
		halt(ErrUnknownWord)
	}
	return uintptr(unsafe.Pointer(&si.entries[idx].data[0]))
}

// Incref bumps idx's reference count.
func (si *StringInterner) Incref(idx int) {
	si.mu.Lock()
	defer si.mu.Unlock()
	if idx >= 0 && idx < len(si.entries) && si.entries[idx] != nil {
		si.entries[idx].refs++
	}
}

// Decref drops idx's reference count; at zero the slot is cleared and
// becomes reusable by a future Intern (no compaction, matching C2).
func (si *StringInterner) Decref(idx int) {
	si.mu.Lock()
	defer si.mu.Unlock()
	if idx < 0 || idx >= len(si.entries) || si.entries[idx] == nil {
		return
	}
	e := si.entries[idx]
	e.refs--
	if e.refs <= 0 {
		delete(si.byValue, e.content)
		si.entries[idx] = nil
	}
}

// ReleaseIfLast is Decref's documented convenience alias.
func (si *StringInterner) ReleaseIfLast(idx int) { si.Decref(idx) }

// Concat interns the concatenation of the strings at a and b.
func (si *StringInterner) Concat(a, b int) int {
	return si.Intern(si.StringOf(a) + si.StringOf(b))
}
