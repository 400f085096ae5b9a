// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package atud attaches the FPGA shell address translator and serves
// page table programming requests from its rpc socket. Capability and
// status attributes are published to the local redis hash.
package atud

import (
	"fmt"
	"net/rpc"
	"sync"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/atu"
	"github.com/platinasystems/log"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
)

const Name = "atud"

var (
	// Vdev is the attached translator. Main attaches it from DtbFile
	// and DevMem unless machine init set it first.
	Vdev *atu.Translator

	DtbFile = "/boot/linux.dtb"
	DevMem  = "/dev/mem"
	Compat  = atu.Compat
)

type Command struct {
	Info
}

type Info struct {
	mutex sync.Mutex
	rpc   *atsock.RpcServer
	pub   *publisher.Publisher
	stop  chan struct{}
	lasts map[string]string
}

// SetPageTableArgs is the Info.SetPageTable rpc argument.
type SetPageTableArgs struct {
	PhysAddrs []uint64
	BaseAddr  uint64
	EntrySz   uint64
	Num       uint32
}

func (*Command) String() string { return Name }

func (*Command) Usage() string { return Name }

func (c *Command) Main(...string) error {
	var err error

	if err = redis.IsReady(); err != nil {
		return err
	}

	if Vdev == nil {
		base, size, err := atu.FindResource(DtbFile, Compat)
		if err != nil {
			return err
		}
		log.Printf("daemon", "info", "%s: regs at 0x%x size 0x%x",
			Name, base, size)
		m, err := atu.OpenMmio(DevMem, uintptr(base), int(size))
		if err != nil {
			return err
		}
		defer m.Close()
		Vdev = atu.New(m)
	}

	c.stop = make(chan struct{})
	c.lasts = make(map[string]string)

	if c.pub, err = publisher.New(); err != nil {
		return err
	}

	if c.rpc, err = atsock.NewRpcServer(Name); err != nil {
		return err
	}
	defer c.rpc.Close()

	rpc.Register(&c.Info)

	t := time.NewTicker(10 * time.Second)
	defer t.Stop()
	c.update()
	for {
		select {
		case <-c.stop:
			return nil
		case <-t.C:
			c.update()
		}
	}
}

func (c *Command) Close() error {
	close(c.stop)
	return nil
}

// SetPageTable programs the translator for the orchestration layer.
func (i *Info) SetPageTable(args SetPageTableArgs, reply *struct{}) error {
	err := Vdev.SetPageTable(args.PhysAddrs, args.BaseAddr, args.EntrySz,
		args.Num)
	if err != nil {
		log.Print("daemon", "err", Name, ": set page table: ", err)
		return err
	}
	i.update()
	return nil
}

// MaxEntries reports the MAX_NUM_APERTURES capability field.
func (i *Info) MaxEntries(args struct{}, reply *uint32) error {
	*reply = Vdev.MaxEntries()
	return nil
}

func (i *Info) update() {
	caps := Vdev.Caps()
	i.publish("atu.ver", Vdev.Version().String())
	i.publish("atu.max_entries", fmt.Sprintf("0x%x", caps.MaxEntries()))
	i.publish("atu.max_aperture_size",
		fmt.Sprintf("0x%x", caps.MaxApertureSize()))
	i.publish("atu.aperture_size",
		fmt.Sprintf("0x%x", caps.ApertureSize()))
	i.publish("atu.entries", fmt.Sprintf("0x%x", Vdev.Entries()))
}

func (i *Info) publish(k, v string) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if i.pub == nil {
		return
	}
	if v != i.lasts[k] {
		i.pub.Print(k, ": ", v)
		i.lasts[k] = v
	}
}
