// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package linux

import "math/bits"

// signalSetWords is the number of uint64 words needed to cover
// [1, SignalCount) as a bitset. Bit 0 of word 0 is unused: signal 0 is
// reserved as "no signal".
const signalSetWords = (SignalCount + 63) / 64

// SignalSet is a fixed-width bitset over signal numbers.
// Signal 0 is never set. The zero value is the empty set.
type SignalSet [signalSetWords]uint64

// SignalSetOf returns a SignalSet containing only sig.
func SignalSetOf(sig Signal) SignalSet {
	var s SignalSet
	s.Add(sig)
	return s
}

func wordIndex(sig Signal) (int, uint64) {
	return int(sig) / 64, uint64(1) << (uint(sig) % 64)
}

// Add sets sig in s. Adding signal 0 is a no-op.
func (s *SignalSet) Add(sig Signal) {
	if sig <= 0 {
		return
	}
	w, bit := wordIndex(sig)
	s[w] |= bit
}

// Remove clears sig from s.
func (s *SignalSet) Remove(sig Signal) {
	if sig <= 0 {
		return
	}
	w, bit := wordIndex(sig)
	s[w] &^= bit
}

// Contains reports whether sig is set in s.
func (s SignalSet) Contains(sig Signal) bool {
	if sig <= 0 {
		return false
	}
	w, bit := wordIndex(sig)
	return s[w]&bit != 0
}

// Empty reports whether s has no signals set.
func (s SignalSet) Empty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// Union returns s ∪ other.
func (s SignalSet) Union(other SignalSet) SignalSet {
	var r SignalSet
	for i := range s {
		r[i] = s[i] | other[i]
	}
	return r
}

// Intersect returns s ∩ other.
func (s SignalSet) Intersect(other SignalSet) SignalSet {
	var r SignalSet
	for i := range s {
		r[i] = s[i] & other[i]
	}
	return r
}

// Difference returns s \ other.
func (s SignalSet) Difference(other SignalSet) SignalSet {
	var r SignalSet
	for i := range s {
		r[i] = s[i] &^ other[i]
	}
	return r
}

// Lowest returns the lowest-numbered signal in s, or 0 if s is empty.
// Lower-numbered standard signals win over higher-numbered ones.
func (s SignalSet) Lowest() Signal {
	for i, w := range s {
		if w == 0 {
			continue
		}
		return Signal(i*64 + bits.TrailingZeros64(w))
	}
	return 0
}
