// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This daemon attaches the FPGA shell address translator.
package main

import (
	"fmt"
	"os"

	"github.com/platinasystems/atu/atud"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
)

func main() {
	parm, args := parms.New(os.Args[1:], "-dtb", "-dev", "-compat")
	if s := parm.ByName["-dtb"]; len(s) > 0 {
		atud.DtbFile = s
	}
	if s := parm.ByName["-dev"]; len(s) > 0 {
		atud.DevMem = s
	}
	if s := parm.ByName["-compat"]; len(s) > 0 {
		atud.Compat = s
	}
	redis.DefaultHash = "platina"
	if err := new(atud.Command).Main(args...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
