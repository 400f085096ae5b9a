// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package atu programs the address translation unit of an FPGA shell: a
// fixed layout register block that maps up to 256 physical pages into one
// contiguous aperture presented to the accelerator.
package atu

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"
)

// ErrInvalidArgument is wrapped by every validation failure of
// SetPageTable.
var ErrInvalidArgument = errors.New("invalid argument")

// RegSpace is word granular access to the translator register block at
// the offsets given in regs.go.
type RegSpace interface {
	Rd32(off uint32) uint32
	Wr32(off uint32, val uint32)
}

// Translator mediates all access to one ATU register block. Every method
// serializes on the same lock, so a capability read can't interleave with
// a page table write.
type Translator struct {
	mutex sync.Mutex
	regs  RegSpace
}

func New(regs RegSpace) *Translator { return &Translator{regs: regs} }

// MaxEntries returns the MAX_NUM_APERTURES capability field. The value is
// re-read from hardware on every call.
func (t *Translator) MaxEntries() uint32 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return Cap(t.regs.Rd32(RegCap)).MaxEntries()
}

// Caps returns the capability register.
func (t *Translator) Caps() Cap {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return Cap(t.regs.Rd32(RegCap))
}

// Version returns the version register.
func (t *Translator) Version() Ver {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return Ver(t.regs.Rd32(RegVer))
}

// Entries returns the currently programmed NUM_APERTURES.
func (t *Translator) Entries() uint32 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.regs.Rd32(RegEntryNum) & 0x1ff
}

// SetPageTable validates the given table against the hardware capability,
// then writes it as one transaction: page table slots in ascending order
// with the low word before the high word, then the aperture base address,
// the log2 address range, and last the entry count, so hardware never
// sees a partially indexed table. Validation completes before the first
// register write; a rejected request leaves the block untouched.
//
// num must be a power of two no greater than MaxEntries and each of the
// first num physAddrs must be non-zero. entrySz is assumed to be a power
// of two; it is not validated, and a non power of two stride truncates
// the range exponent.
func (t *Translator) SetPageTable(physAddrs []uint64, baseAddr, entrySz uint64, num uint32) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	max := Cap(t.regs.Rd32(RegCap)).MaxEntries()
	if num > max {
		return fmt.Errorf("%d entries exceeds hardware capacity %d: %w",
			num, max, ErrInvalidArgument)
	}
	if !isPow2(num) {
		return fmt.Errorf("entry count %d isn't a power of two: %w",
			num, ErrInvalidArgument)
	}
	if uint64(num) > uint64(len(physAddrs)) {
		return fmt.Errorf("%d entries but only %d addresses: %w",
			num, len(physAddrs), ErrInvalidArgument)
	}
	for i := uint32(0); i < num; i++ {
		if physAddrs[i] == 0 {
			return fmt.Errorf("zero physical address at index %d: %w",
				i, ErrInvalidArgument)
		}
	}

	for i := uint32(0); i < num; i++ {
		addr := physAddrs[i]
		t.regs.Wr32(slotLo(i), uint32(addr))
		t.regs.Wr32(slotHi(i), uint32(addr>>32))
	}
	t.regs.Wr32(RegBaseAddrLo, uint32(baseAddr))
	t.regs.Wr32(RegBaseAddrHi, uint32(baseAddr>>32))
	t.regs.Wr32(RegAddrRange, ilog2(uint64(num)*entrySz))
	t.regs.Wr32(RegEntryNum, num)
	return nil
}

func isPow2(x uint32) bool { return x != 0 && x&(x-1) == 0 }

// floor of log2; 0 for 0
func ilog2(x uint64) uint32 {
	if x == 0 {
		return 0
	}
	return uint32(bits.Len64(x) - 1)
}
