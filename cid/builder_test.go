package cid

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestUpdateSplitInvariance(t *testing.T) {
	b := NewBuilder(VersionRaw)
	b.Update([]byte("hello"))
	b.Update([]byte("world"))
	got := b.Finalize()

	want := FromData(VersionRaw, []byte("helloworld"))
	if got != want {
		t.Fatalf("split update mismatch: got %v want %v", got, want)
	}
}

func TestUpdateSplitInvarianceAcrossBlockBoundaries(t *testing.T) {
	data := make([]byte, 3*BlockSize+17)
	for i := range data {
		data[i] = byte(i * 31)
	}
	want := FromData(VersionRaw, data)

	steps := []int{1, 7, 1000, BlockSize - 1, BlockSize, BlockSize + 1, len(data)}
	for _, step := range steps {
		b := NewBuilder(VersionRaw)
		for off := 0; off < len(data); off += step {
			b.Update(data[off:min(off+step, len(data))])
		}
		if got := b.Finalize(); got != want {
			t.Fatalf("step %d mismatch: got %v want %v", step, got, want)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	c := FromData(VersionRaw, nil)
	if c.Size() != 0 {
		t.Fatalf("size: got %d want 0", c.Size())
	}
	if c.NumBlocks() != 0 {
		t.Fatalf("blocks: got %d want 0", c.NumBlocks())
	}
	if c.Hash() != (Hash{}) {
		t.Fatalf("empty input root: got %x want all zeros", c.Hash())
	}
}

func TestSinglePartialBlockRootIsLeafHash(t *testing.T) {
	data := []byte("well under one block")
	c := FromData(VersionRaw, data)
	if want := Hash(sha256.Sum256(data)); c.Hash() != want {
		t.Fatalf("root: got %x want %x", c.Hash(), want)
	}
	if c.NumBlocks() != 1 {
		t.Fatalf("blocks: got %d want 1", c.NumBlocks())
	}
}

func TestSingleFullBlockRootIsLeafHash(t *testing.T) {
	data := bytes.Repeat([]byte{0xab}, BlockSize)
	c := FromData(VersionRaw, data)
	if want := Hash(sha256.Sum256(data)); c.Hash() != want {
		t.Fatalf("root: got %x want %x", c.Hash(), want)
	}
	if c.Size() != BlockSize {
		t.Fatalf("size: got %d want %d", c.Size(), BlockSize)
	}
	if c.NumBlocks() != 1 {
		t.Fatalf("blocks: got %d want 1", c.NumBlocks())
	}
}

func TestTwoBlockRoot(t *testing.T) {
	data := make([]byte, 2*BlockSize)
	for i := range data {
		data[i] = byte(i)
	}
	c := FromData(VersionRaw, data)

	l0 := sha256.Sum256(data[:BlockSize])
	l1 := sha256.Sum256(data[BlockSize:])
	want := sha256.Sum256(append(l0[:], l1[:]...))
	if c.Hash() != Hash(want) {
		t.Fatalf("two block root: got %x want %x", c.Hash(), want)
	}
	if c.NumBlocks() != 2 {
		t.Fatalf("blocks: got %d want 2", c.NumBlocks())
	}
}

// Three leaves pad to a four-slot tree and the zero hash must occupy the
// last slot, pairing with the third leaf.
func TestThreeLeafTreePadsTail(t *testing.T) {
	data := make([]byte, 2*BlockSize+100)
	for i := range data {
		data[i] = byte(i % 251)
	}
	c := FromData(VersionRaw, data)

	l0 := sha256.Sum256(data[:BlockSize])
	l1 := sha256.Sum256(data[BlockSize : 2*BlockSize])
	l2 := sha256.Sum256(data[2*BlockSize:])

	var zero [HashSize]byte
	left := sha256.Sum256(append(l0[:], l1[:]...))
	right := sha256.Sum256(append(l2[:], zero[:]...))
	want := sha256.Sum256(append(left[:], right[:]...))

	if c.Hash() != Hash(want) {
		t.Fatalf("three leaf root: got %x want %x", c.Hash(), want)
	}
}

func TestPartialTrailingBlock(t *testing.T) {
	// One full block plus one byte: two leaves, and size counts the exact
	// bytes consumed rather than whole blocks.
	data := make([]byte, BlockSize+1)
	for i := range data {
		data[i] = byte(i % 7)
	}
	c := FromData(VersionRaw, data)

	if c.Size() != BlockSize+1 {
		t.Fatalf("size: got %d want %d", c.Size(), BlockSize+1)
	}
	if c.NumBlocks() != 2 {
		t.Fatalf("blocks: got %d want 2", c.NumBlocks())
	}

	l0 := sha256.Sum256(data[:BlockSize])
	l1 := sha256.Sum256(data[BlockSize:])
	want := sha256.Sum256(append(l0[:], l1[:]...))
	if c.Hash() != Hash(want) {
		t.Fatalf("root: got %x want %x", c.Hash(), want)
	}
}

func TestSizeDistinguishesContent(t *testing.T) {
	// Zero runs of different lengths must not collide: the leaf digest
	// covers the actual bytes and the size rides in the identifier.
	a := FromData(VersionRaw, make([]byte, 100))
	b := FromData(VersionRaw, make([]byte, 101))
	if a == b {
		t.Fatalf("different sizes produced identical cid %v", a)
	}
	if a.Hash() == b.Hash() {
		t.Fatalf("different contents produced identical root %x", a.Hash())
	}
}

func TestDeterminism(t *testing.T) {
	data := []byte("same bytes, same cid")
	if a, b := FromData(VersionRaw, data), FromData(VersionRaw, data); a != b {
		t.Fatalf("cid not deterministic: %v vs %v", a, b)
	}
}

func TestSetVersion(t *testing.T) {
	b := NewBuilder(VersionRaw)
	b.Update([]byte("x"))
	b.SetVersion('Z')
	c := b.Finalize()

	if c.Version() != 'Z' {
		t.Fatalf("version: got %q want %q", c.Version(), byte('Z'))
	}
	if c.IsRaw() {
		t.Fatalf("IsRaw true for version %q", c.Version())
	}

	raw := FromData(VersionRaw, []byte("x"))
	if c == raw {
		t.Fatalf("cids with different versions compare equal")
	}
	if c.Hash() != raw.Hash() {
		t.Fatalf("version changed the root hash: %x vs %x", c.Hash(), raw.Hash())
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{1023, 1024},
		{1024, 1024},
		{1025, 2048},
	}
	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d): got %d want %d", tt.n, got, tt.want)
		}
	}
}
