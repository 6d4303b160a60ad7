// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Modified from github.com/bufbuild/protocompile/internal/arena.

// Package arena provides an append-only arena addressed by compressed
// pointers. Values never move once allocated, so a *T obtained from the
// arena stays valid for the arena's lifetime.
package arena

import (
	"fmt"
	"math/bits"
)

// The first chunk holds 1<<minChunkShift values; each later chunk doubles.
const (
	minChunkShift = 4
	minChunkLen   = 1 << minChunkShift
)

// Pointer is a compressed pointer into an Arena[T]: one plus the number of
// values allocated before it. The zero value is nil.
type Pointer[T any] uint32

// Nil returns whether this pointer is nil.
func (p Pointer[T]) Nil() bool {
	return p == 0
}

// Arena stores values in a table of chunks whose capacities grow
// geometrically, which keeps lookups O(1) without ever moving a value.
//
// A zero Arena is empty and ready to use.
type Arena[T any] struct {
	// cap(chunks[n]) == minChunkLen<<n, and every chunk but the last is full.
	chunks [][]T
}

// New allocates value and returns a pointer to it.
func (a *Arena[T]) New(value T) Pointer[T] {
	if a.chunks == nil {
		a.chunks = [][]T{make([]T, 0, minChunkLen)}
	}

	last := &a.chunks[len(a.chunks)-1]
	if len(*last) == cap(*last) {
		a.chunks = append(a.chunks, make([]T, 0, 2*cap(*last)))
		last = &a.chunks[len(a.chunks)-1]
	}

	*last = append(*last, value)
	return Pointer[T](a.Len())
}

// Deref returns the value p points to. It panics if p is nil or was not
// allocated by this arena; use Contains to check first.
func (a *Arena[T]) Deref(p Pointer[T]) *T {
	if !a.Contains(p) {
		panic(fmt.Sprintf("arena: pointer out of range: %#x", uint32(p)))
	}
	chunk, idx := coordinates(int(p) - 1)
	return &a.chunks[chunk][idx]
}

// Contains reports whether p is a non-nil pointer this arena could have
// returned.
func (a *Arena[T]) Contains(p Pointer[T]) bool {
	return !p.Nil() && int(p) <= a.Len()
}

// Len returns the number of values allocated.
func (a *Arena[T]) Len() int {
	if len(a.chunks) == 0 {
		return 0
	}
	return lenOfFirstChunks(len(a.chunks)-1) + len(a.chunks[len(a.chunks)-1])
}

// All calls yield for every allocated value in allocation order until
// yield returns false.
func (a *Arena[T]) All(yield func(Pointer[T], *T) bool) {
	n := 0
	for c := range a.chunks {
		for i := range a.chunks[c] {
			n++
			if !yield(Pointer[T](n), &a.chunks[c][i]) {
				return
			}
		}
	}
}

// lenOfFirstChunks returns the total capacity of the first n chunks:
// 2^m + ... + 2^(m+n-1) = 2^(m+n) - 2^m.
func lenOfFirstChunks(n int) int {
	return (minChunkLen << n) - minChunkLen
}

// coordinates maps a 0-based index to its chunk and offset. Chunk k starts
// at (2^k - 1) << minChunkShift, so adding minChunkLen and taking the high
// bit yields k + minChunkShift + 1.
func coordinates(idx int) (chunk, offset int) {
	chunk = bits.UintSize - bits.LeadingZeros(uint(idx)+minChunkLen)
	chunk -= minChunkShift + 1
	return chunk, idx - lenOfFirstChunks(chunk)
}
