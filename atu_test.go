// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package atu

import (
	"errors"
	"testing"
)

type fakeRegs struct {
	mem    map[uint32]uint32
	reads  int
	writes int
}

func (r *fakeRegs) Rd32(off uint32) uint32 {
	r.reads++
	return r.mem[off]
}

func (r *fakeRegs) Wr32(off uint32, val uint32) {
	r.writes++
	r.mem[off] = val
}

// a block advertising max entries and 4K max/configured apertures,
// version 2.1.3
func newFakeRegs(max uint32) *fakeRegs {
	return &fakeRegs{mem: map[uint32]uint32{
		RegVer: 2<<10 | 1<<6 | 3,
		RegCap: max<<16 | 12<<8 | 12,
	}}
}

func TestMaxEntries(t *testing.T) {
	r := newFakeRegs(8)
	tr := New(r)
	for i := 0; i < 3; i++ {
		if max := tr.MaxEntries(); max != 8 {
			t.Error("wrong max entries:", max)
		}
	}
	if r.writes != 0 {
		t.Error("capability query wrote", r.writes, "registers")
	}
	if r.reads != 3 {
		t.Error("expected an uncached read per call, got", r.reads)
	}
}

func TestCaps(t *testing.T) {
	tr := New(newFakeRegs(256))
	caps := tr.Caps()
	if n := caps.MaxEntries(); n != 256 {
		t.Error("wrong max entries:", n)
	}
	if n := caps.MaxApertureSize(); n != 12 {
		t.Error("wrong max aperture size:", n)
	}
	if n := caps.ApertureSize(); n != 12 {
		t.Error("wrong aperture size:", n)
	}
}

func TestVersion(t *testing.T) {
	tr := New(newFakeRegs(8))
	if s := tr.Version().String(); s != "2.1.3" {
		t.Error("wrong version:", s)
	}
}

func validAddrs(n int) []uint64 {
	addrs := make([]uint64, n)
	for i := range addrs {
		addrs[i] = 0x1000 * uint64(i+1)
	}
	return addrs
}

func expectInvalid(t *testing.T, r *fakeRegs, err error) {
	t.Helper()
	if !errors.Is(err, ErrInvalidArgument) {
		t.Error("wrong error:", err)
	}
	if r.writes != 0 {
		t.Error("rejected request wrote", r.writes, "registers")
	}
}

func TestSetPageTableTooMany(t *testing.T) {
	r := newFakeRegs(8)
	err := New(r).SetPageTable(validAddrs(16), 0x80000000, 0x1000, 16)
	expectInvalid(t, r, err)
}

func TestSetPageTableNotPowerOfTwo(t *testing.T) {
	r := newFakeRegs(8)
	err := New(r).SetPageTable(validAddrs(3), 0x80000000, 0x1000, 3)
	expectInvalid(t, r, err)
}

func TestSetPageTableZeroCount(t *testing.T) {
	r := newFakeRegs(8)
	err := New(r).SetPageTable(nil, 0x80000000, 0x1000, 0)
	expectInvalid(t, r, err)
}

func TestSetPageTableShortSlice(t *testing.T) {
	r := newFakeRegs(8)
	err := New(r).SetPageTable(validAddrs(4), 0x80000000, 0x1000, 8)
	expectInvalid(t, r, err)
}

func TestSetPageTableZeroAddress(t *testing.T) {
	r := newFakeRegs(8)
	addrs := validAddrs(8)
	addrs[5] = 0
	err := New(r).SetPageTable(addrs, 0x80000000, 0x1000, 8)
	expectInvalid(t, r, err)
}

func TestSetPageTable(t *testing.T) {
	r := newFakeRegs(8)
	addrs := validAddrs(8)
	addrs[7] = 0x100002000 // above 4G to cover the hi word

	err := New(r).SetPageTable(addrs, 0x80000000, 0x1000, 8)
	if err != nil {
		t.Fatal(err)
	}
	for i, addr := range addrs {
		i := uint32(i)
		if lo := r.mem[slotLo(i)]; lo != uint32(addr) {
			t.Errorf("slot %d lo: got 0x%x want 0x%x",
				i, lo, uint32(addr))
		}
		if hi := r.mem[slotHi(i)]; hi != uint32(addr>>32) {
			t.Errorf("slot %d hi: got 0x%x want 0x%x",
				i, hi, uint32(addr>>32))
		}
	}
	if lo := r.mem[RegBaseAddrLo]; lo != 0x80000000 {
		t.Errorf("base lo: got 0x%x", lo)
	}
	if hi := r.mem[RegBaseAddrHi]; hi != 0 {
		t.Errorf("base hi: got 0x%x", hi)
	}
	// 8 * 0x1000 = 2^15
	if rg := r.mem[RegAddrRange]; rg != 15 {
		t.Error("wrong address range:", rg)
	}
	if n := r.mem[RegEntryNum]; n != 8 {
		t.Error("wrong entry count:", n)
	}

	tr := New(r)
	if n := tr.Entries(); n != 8 {
		t.Error("wrong readback entry count:", n)
	}
	if max := tr.MaxEntries(); max != 8 {
		t.Error("max entries changed:", max)
	}
}

func TestSetPageTableSingleEntry(t *testing.T) {
	r := newFakeRegs(8)
	err := New(r).SetPageTable([]uint64{0x200000000}, 0x100000000, 0x200000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if lo, hi := r.mem[slotLo(0)], r.mem[slotHi(0)]; lo != 0 || hi != 2 {
		t.Errorf("slot 0: got 0x%x 0x%x", lo, hi)
	}
	if lo, hi := r.mem[RegBaseAddrLo], r.mem[RegBaseAddrHi]; lo != 0 || hi != 1 {
		t.Errorf("base: got 0x%x 0x%x", lo, hi)
	}
	// 1 * 0x200000 = 2^21
	if rg := r.mem[RegAddrRange]; rg != 21 {
		t.Error("wrong address range:", rg)
	}
	if n := r.mem[RegEntryNum]; n != 1 {
		t.Error("wrong entry count:", n)
	}
}

func TestIlog2(t *testing.T) {
	for _, x := range []struct {
		in   uint64
		want uint32
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{0x8000, 15},
		{0x8001, 15}, // inexact ranges truncate
		{1 << 40, 40},
	} {
		if got := ilog2(x.in); got != x.want {
			t.Errorf("ilog2(0x%x): got %d want %d",
				x.in, got, x.want)
		}
	}
}
