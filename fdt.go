// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package atu

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/platinasystems/fdt"
)

// Compat matches the shell's translator node in the device tree.
const Compat = "xlnx,addr-translator-1.0"

// FindResource parses the flattened device tree in file and returns the
// physical base address and byte size of the register block of the first
// node compatible with compat.
func FindResource(file, compat string) (base, size uint64, err error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return 0, 0, err
	}
	t := &fdt.Tree{Debug: false, IsLittleEndian: false}
	t.Parse(b)
	n := findCompat(t.RootNode, compat)
	if n == nil {
		return 0, 0, fmt.Errorf("%s: no node compatible with %s",
			file, compat)
	}
	base, size, err = parseReg(n.Properties["reg"])
	if err != nil {
		err = fmt.Errorf("%s: %s: %w", file, n.Name, err)
	}
	return
}

func findCompat(n *fdt.Node, compat string) *fdt.Node {
	if n == nil {
		return nil
	}
	for _, s := range strings.Split(string(n.Properties["compatible"]), "\x00") {
		if s == compat {
			return n
		}
	}
	for _, c := range n.Children {
		if m := findCompat(c, compat); m != nil {
			return m
		}
	}
	return nil
}

// parseReg decodes a big-endian "reg" property of one address/size pair
// with either one or two cells each.
func parseReg(reg []byte) (base, size uint64, err error) {
	switch len(reg) {
	case 8:
		base = uint64(binary.BigEndian.Uint32(reg))
		size = uint64(binary.BigEndian.Uint32(reg[4:]))
	case 16:
		base = binary.BigEndian.Uint64(reg)
		size = binary.BigEndian.Uint64(reg[8:])
	default:
		err = fmt.Errorf("reg property has %d bytes, want 8 or 16",
			len(reg))
	}
	return
}
