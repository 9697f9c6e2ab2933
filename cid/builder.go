package cid

import (
	"crypto/sha256"
	"hash"
	"math/bits"
)

// BlockSize is the fixed leaf granularity of the hash tree. Input is split
// into BlockSize chunks at absolute stream offsets and each chunk hashes to
// one leaf. Changing it changes every computed identifier.
const BlockSize = 16 * 1024

// HashSize is the width in bytes of the SHA-256 leaf and root hashes.
const HashSize = 32

// Hash is a 32-byte SHA-256 digest: a block leaf or a tree root.
type Hash [HashSize]byte

// Builder accumulates a byte stream into a Cid. Feed bytes with Update in
// any number of calls, then call Finalize exactly once; a Builder must not
// be reused after Finalize. Builders are not safe for concurrent use.
type Builder struct {
	version byte
	size    uint64
	head    int // bytes accumulated into the active block, always < BlockSize
	hasher  hash.Hash
	leaves  []Hash
}

// NewBuilder returns an empty Builder that stamps version into the finished
// Cid.
func NewBuilder(version byte) *Builder {
	return &Builder{
		version: version,
		hasher:  sha256.New(),
	}
}

// SetVersion replaces the version tag carried into the finished Cid.
func (b *Builder) SetVersion(version byte) {
	b.version = version
}

// Update appends data to the logical input stream. Block boundaries fall at
// absolute stream offsets, never at Update call boundaries, so splitting the
// same input across calls differently cannot change the result.
func (b *Builder) Update(data []byte) {
	b.size += uint64(len(data))
	for len(data) > 0 {
		n := min(len(data), BlockSize-b.head)
		b.hasher.Write(data[:n])
		data = data[n:]
		b.head += n
		if b.head == BlockSize {
			b.head = 0
			b.leaves = append(b.leaves, b.sum())
			b.hasher.Reset()
		}
	}
}

// Finalize hashes any partial trailing block, reduces the leaves to a tree
// root, and returns the finished Cid. Zero-length input produces no leaves
// at all; its root is the all-zero padding hash, not a digest.
func (b *Builder) Finalize() Cid {
	if b.head != 0 {
		b.leaves = append(b.leaves, b.sum())
	}
	return New(b.version, b.size, merkleRoot(b.leaves))
}

func (b *Builder) sum() Hash {
	var h Hash
	b.hasher.Sum(h[:0])
	return h
}

// merkleRoot reduces leaves to the root of a complete binary tree stored as
// a flat array: parent i has children 2i+1 and 2i+2, internal nodes occupy
// [0, m-1) and leaf slots [m-1, 2m-1), where m is len(leaves) rounded up to
// a power of two. Real leaves fill the leaf slots in input order and the
// remaining tail slots keep the zero hash; internal nodes are
// SHA-256(left || right), computed in decreasing index order. The tail
// placement of the zero padding is part of the identifier format.
func merkleRoot(leaves []Hash) Hash {
	m := nextPowerOfTwo(len(leaves))
	nodes := make([]Hash, 2*m-1)
	copy(nodes[m-1:], leaves)
	h := sha256.New()
	for i := m - 2; i >= 0; i-- {
		h.Reset()
		h.Write(nodes[2*i+1][:])
		h.Write(nodes[2*i+2][:])
		h.Sum(nodes[i][:0])
	}
	return nodes[0]
}

// nextPowerOfTwo treats 0 like 1: a tree with no real leaves still has one
// padding slot.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
