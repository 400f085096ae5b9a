// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package atuctl queries and programs the address translator through the
// atud rpc socket.
package atuctl

import (
	"fmt"
	"strconv"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/atu/atud"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
)

type Command struct{}

func (Command) String() string { return "atu" }

func (Command) Usage() string {
	return `
	atu max-entries
	atu program [-q] -base BASE -entry-size SIZE ADDRESS...`
}

func (Command) Main(args ...string) error {
	flag, args := flags.New(args, "-q")
	parm, args := parms.New(args, "-base", "-entry-size")
	if len(args) == 0 {
		return fmt.Errorf("COMMAND: missing")
	}
	switch args[0] {
	case "max-entries":
		cl, err := atsock.NewRpcClient(atud.Name)
		if err != nil {
			return err
		}
		defer cl.Close()
		var max uint32
		if err = cl.Call("Info.MaxEntries", struct{}{}, &max); err != nil {
			return err
		}
		fmt.Printf("0x%x\n", max)
	case "program":
		req, err := parseProgram(parm.ByName["-base"],
			parm.ByName["-entry-size"], args[1:])
		if err != nil {
			return err
		}
		cl, err := atsock.NewRpcClient(atud.Name)
		if err != nil {
			return err
		}
		defer cl.Close()
		if err = cl.Call("Info.SetPageTable", req,
			new(struct{})); err != nil {
			return err
		}
		if !flag.ByName["-q"] {
			fmt.Printf("programmed %d entries\n", req.Num)
		}
	default:
		return fmt.Errorf("%s: command not found", args[0])
	}
	return nil
}

func parseProgram(base, entrySz string, args []string) (req atud.SetPageTableArgs, err error) {
	if len(base) == 0 {
		err = fmt.Errorf("-base: missing")
		return
	}
	if len(entrySz) == 0 {
		err = fmt.Errorf("-entry-size: missing")
		return
	}
	if len(args) == 0 {
		err = fmt.Errorf("ADDRESS: missing")
		return
	}
	if req.BaseAddr, err = strconv.ParseUint(base, 0, 64); err != nil {
		return
	}
	if req.EntrySz, err = strconv.ParseUint(entrySz, 0, 64); err != nil {
		return
	}
	req.PhysAddrs = make([]uint64, 0, len(args))
	for _, s := range args {
		addr, xerr := strconv.ParseUint(s, 0, 64)
		if xerr != nil {
			err = xerr
			return
		}
		req.PhysAddrs = append(req.PhysAddrs, addr)
	}
	req.Num = uint32(len(req.PhysAddrs))
	return
}
