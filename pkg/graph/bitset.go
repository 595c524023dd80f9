package graph

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// DeclarationSet is a set of declaration IDs backed by a Roaring bitmap.
// It is safe for concurrent use.
type DeclarationSet struct {
	bitmap *roaring.Bitmap
	mu     sync.RWMutex
}

// NewDeclarationSet creates an empty set.
func NewDeclarationSet() *DeclarationSet {
	return &DeclarationSet{bitmap: roaring.New()}
}

// Add inserts id and reports whether it was absent.
func (s *DeclarationSet) Add(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bitmap.CheckedAdd(id)
}

// AddMany inserts every id.
func (s *DeclarationSet) AddMany(ids []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitmap.AddMany(ids)
}

// Contains reports whether id is in the set.
func (s *DeclarationSet) Contains(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bitmap.Contains(id)
}

// Len returns the number of members.
func (s *DeclarationSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.bitmap.GetCardinality())
}

// IDs returns the members in ascending order.
func (s *DeclarationSet) IDs() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bitmap.ToArray()
}

// Union adds every member of other.
func (s *DeclarationSet) Union(other *DeclarationSet) {
	ids := other.IDs()
	s.AddMany(ids)
}

// Clone returns an independent copy.
func (s *DeclarationSet) Clone() *DeclarationSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &DeclarationSet{bitmap: s.bitmap.Clone()}
}

// Equal reports whether both sets hold the same members.
func (s *DeclarationSet) Equal(other *DeclarationSet) bool {
	a := s.Clone()
	b := other.Clone()
	return a.bitmap.Equals(b.bitmap)
}
