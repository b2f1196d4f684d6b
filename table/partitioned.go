package table

import (
	"sync"

	"github.com/google/btree"

	"github.com/stevemurr/laws/keys"
)

const btreeDegree = 16

// store is the two-level document container behind a Table. Implementations
// are instantiated with one concrete Go type per key role.
type store interface {
	// read calls fn with the document stored at the keys carried by query, or nil.
	read(query any, fn func(Document)) error

	// write calls fn with the document stored at the keys carried by doc (nil if
	// none) while holding that partition's write lock. fn returns the document to
	// store, or nil to remove the entry. With create unset a missing partition is
	// left alone and fn is not called.
	write(doc any, create bool, fn func(cur Document) (Document, error)) error

	// scan visits every document, partitions ascending and sort values ascending
	// within each. Each partition is read-locked only while it is visited.
	scan(fn func(Document))
}

// partitioned maps partition value -> (sort value -> document).
//
// Lock order is partitioned.mu, then partition.mu. Partitions are never removed
// once created, so a partition pointer stays valid after partitioned.mu is released.
type partitioned[P, S any] struct {
	pk keys.Key
	sk keys.Key
	pc keys.Codec[P]
	sc keys.Codec[S]

	mu    sync.RWMutex
	parts *btree.BTreeG[*partition[P, S]]
}

type partition[P, S any] struct {
	key P

	mu   sync.RWMutex
	docs *btree.BTreeG[entry[S]]
}

type entry[S any] struct {
	key S
	doc Document
}

func newPartitioned[P, S any](pk keys.Key, pc keys.Codec[P], sk keys.Key, sc keys.Codec[S]) *partitioned[P, S] {
	return &partitioned[P, S]{
		pk: pk,
		sk: sk,
		pc: pc,
		sc: sc,
		parts: btree.NewG(btreeDegree, func(a, b *partition[P, S]) bool {
			return pc.Less(a.key, b.key)
		}),
	}
}

func (s *partitioned[P, S]) keysOf(doc any) (P, S, error) {
	var sv S
	p, err := keys.Extract(s.pk, s.pc, doc)
	if err != nil {
		return p, sv, err
	}
	sv, err = keys.Extract(s.sk, s.sc, doc)
	return p, sv, err
}

// partitionLocked returns the partition for p, creating it if needed.
// s.mu must be held for writing.
func (s *partitioned[P, S]) partitionLocked(p P) *partition[P, S] {
	if part, ok := s.parts.Get(&partition[P, S]{key: p}); ok {
		return part
	}
	sc := s.sc
	part := &partition[P, S]{
		key: p,
		docs: btree.NewG(btreeDegree, func(a, b entry[S]) bool {
			return sc.Less(a.key, b.key)
		}),
	}
	s.parts.ReplaceOrInsert(part)
	return part
}

func (s *partitioned[P, S]) read(query any, fn func(Document)) error {
	p, sv, err := s.keysOf(query)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	part, ok := s.parts.Get(&partition[P, S]{key: p})
	if !ok {
		fn(nil)
		return nil
	}

	part.mu.RLock()
	defer part.mu.RUnlock()
	e, _ := part.docs.Get(entry[S]{key: sv})
	fn(e.doc)
	return nil
}

func (s *partitioned[P, S]) write(doc any, create bool, fn func(cur Document) (Document, error)) error {
	p, sv, err := s.keysOf(doc)
	if err != nil {
		return err
	}

	s.mu.RLock()
	part, ok := s.parts.Get(&partition[P, S]{key: p})
	if ok {
		defer s.mu.RUnlock()
	} else {
		s.mu.RUnlock()
		if !create {
			return nil
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		part = s.partitionLocked(p)
	}

	part.mu.Lock()
	defer part.mu.Unlock()
	cur, _ := part.docs.Get(entry[S]{key: sv})
	next, err := fn(cur.doc)
	if err != nil {
		return err
	}
	if next == nil {
		part.docs.Delete(entry[S]{key: sv})
		return nil
	}
	part.docs.ReplaceOrInsert(entry[S]{key: sv, doc: next})
	return nil
}

func (s *partitioned[P, S]) scan(fn func(Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.parts.Ascend(func(part *partition[P, S]) bool {
		part.mu.RLock()
		defer part.mu.RUnlock()
		part.docs.Ascend(func(e entry[S]) bool {
			fn(e.doc)
			return true
		})
		return true
	})
}

// newStore instantiates the container for the declared key datatypes.
func newStore(pk, sk keys.Key) store {
	switch pk.Datatype {
	case keys.Boolean:
		return withSortKey(pk, keys.BooleanCodec, sk)
	case keys.SignedInt:
		return withSortKey(pk, keys.SignedIntCodec, sk)
	case keys.UnsignedInt:
		return withSortKey(pk, keys.UnsignedIntCodec, sk)
	case keys.Float:
		return withSortKey(pk, keys.FloatCodec, sk)
	case keys.String:
		return withSortKey(pk, keys.StringCodec, sk)
	default:
		return withSortKey(pk, keys.NullCodec, sk)
	}
}

func withSortKey[P any](pk keys.Key, pc keys.Codec[P], sk keys.Key) store {
	switch sk.Datatype {
	case keys.Boolean:
		return newPartitioned(pk, pc, sk, keys.BooleanCodec)
	case keys.SignedInt:
		return newPartitioned(pk, pc, sk, keys.SignedIntCodec)
	case keys.UnsignedInt:
		return newPartitioned(pk, pc, sk, keys.UnsignedIntCodec)
	case keys.Float:
		return newPartitioned(pk, pc, sk, keys.FloatCodec)
	case keys.String:
		return newPartitioned(pk, pc, sk, keys.StringCodec)
	default:
		return newPartitioned(pk, pc, sk, keys.NullCodec)
	}
}
