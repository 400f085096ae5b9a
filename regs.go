// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package atu

import "fmt"

// Register block of the shell's address translator.
//
//	ver: 0x0 RO		Bit 5-0: Revision
//				Bit 9-6: Minor version
//				Bit 13-10: Major version
//				Bit 31-14: all-zeroes (Reserved)
//	cap: 0x4 RO		Bit 7-0: MAX_APERTURE_SIZE (power of 2)
//				Bit 15-8: APERTURE_SIZE (power of 2)
//				Bit 24-16: MAX_NUM_APERTURES (1~256)
//				Bit 31-25: all-zeroes (Reserved)
//	entry_num: 0x8 RW	Bit 8-0: NUM_APERTURES
//				Bit 31-9: all-zeroes (Reserved)
//	base_addr: 0x10 RW	Bit 31-0: low 32 bit address
//				Bit 63-32: high 32 bit address
//	addr_range: 0x18 RW	Bit 7-0: SI_ADDR_RANGE (power of 2)
//				Bit 31-8: all-zeroes (Reserved)
//	page_table_phys: 0x800	Bit 31-0: low 32 bit address
//		~0xFFC		Bit 63-32: high 32 bit address
const (
	RegVer        = 0x0
	RegCap        = 0x4
	RegEntryNum   = 0x8
	RegBaseAddrLo = 0x10
	RegBaseAddrHi = 0x14
	RegAddrRange  = 0x18
	RegPageTable  = 0x800

	MaxSlots     = 256
	RegBlockSize = 0x1000
)

// Page table slot i occupies 8 bytes, low word first.
func slotLo(i uint32) uint32 { return RegPageTable + 8*i }
func slotHi(i uint32) uint32 { return RegPageTable + 8*i + 4 }

// Cap is the read-only capability register value.
type Cap uint32

// MaxApertureSize returns the log2 of the largest supported aperture.
func (c Cap) MaxApertureSize() uint32 { return uint32(c) & 0xff }

// ApertureSize returns the log2 of the configured aperture size.
func (c Cap) ApertureSize() uint32 { return uint32(c) >> 8 & 0xff }

// MaxEntries returns MAX_NUM_APERTURES, 1~256.
func (c Cap) MaxEntries() uint32 { return uint32(c) >> 16 & 0x1ff }

// Ver is the read-only version register value.
type Ver uint32

func (v Ver) Major() uint32    { return uint32(v) >> 10 & 0xf }
func (v Ver) Minor() uint32    { return uint32(v) >> 6 & 0xf }
func (v Ver) Revision() uint32 { return uint32(v) & 0x3f }

func (v Ver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Revision())
}
