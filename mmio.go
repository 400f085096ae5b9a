// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package atu

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// Mmio is a RegSpace mapped from a device file, normally /dev/mem.
type Mmio struct {
	f   *os.File
	mem []byte
}

// OpenMmio maps size bytes of the register block at physical address
// base. base must be page aligned.
func OpenMmio(dev string, base uintptr, size int) (*Mmio, error) {
	f, err := os.OpenFile(dev, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	mem, err := syscall.Mmap(int(f.Fd()), int64(base), size,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s @ 0x%x: %w", dev, base, err)
	}
	return &Mmio{f: f, mem: mem}, nil
}

func (m *Mmio) Close() error {
	err := syscall.Munmap(m.mem)
	m.mem = nil
	if xerr := m.f.Close(); err == nil {
		err = xerr
	}
	return err
}

func (m *Mmio) Rd32(off uint32) uint32 {
	return *(*uint32)(unsafe.Pointer(&m.mem[off]))
}

func (m *Mmio) Wr32(off uint32, val uint32) {
	*(*uint32)(unsafe.Pointer(&m.mem[off])) = val
}
