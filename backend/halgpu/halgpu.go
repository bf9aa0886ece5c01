// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop" // headless fallback

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
)

// ErrNoAdapter is returned when no HAL backend exposes an adapter.
var ErrNoAdapter = errors.New("halgpu: no adapter")

// Registered backend names.
const (
	NameHardware = "hal"
	NameNoop     = "noop"
)

// hardware lists the HAL backends tried by the "hal" backend, in order.
// Backends are linked in by importing their hal packages.
var hardware = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

func init() {
	backend.Register(NameHardware, 10, func(opts backend.Options) (backend.Backend, error) {
		b, err := OpenHardware(opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
	backend.Register(NameNoop, 0, func(opts backend.Options) (backend.Backend, error) {
		b, err := Open(gputypes.BackendEmpty, opts)
		if err != nil {
			return nil, err
		}
		b.name = NameNoop
		return b, nil
	})
}

// Backend is a backend.Backend over a wgpu HAL device.
type Backend struct {
	name  string
	info  gputypes.AdapterInfo
	dev   *Device
	queue *Queue
}

func (b *Backend) Name() string         { return b.name }
func (b *Backend) Device() gxapi.Device { return b.dev }
func (b *Backend) Queue() graph.Queue   { return b.queue }

// Info describes the adapter the device was opened on.
func (b *Backend) Info() gputypes.AdapterInfo { return b.info }

// Close drains the queue and releases the device.
func (b *Backend) Close() {
	if err := b.queue.Drain(); err != nil {
		b.dev.log.Warn("drain queue", "err", err)
	}
	b.dev.Close()
}

// OpenHardware opens the first hardware HAL backend linked into the
// binary that exposes an adapter.
func OpenHardware(opts backend.Options) (*Backend, error) {
	var errs []error
	for _, v := range hardware {
		if _, ok := hal.GetBackend(v); !ok {
			continue
		}
		b, err := Open(v, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return b, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no hardware backend linked", ErrNoAdapter)
	}
	return nil, errors.Join(errs...)
}

// Open creates an instance of the HAL backend variant and opens a device
// on its first adapter.
func Open(variant gputypes.Backend, opts backend.Options) (*Backend, error) {
	log := opts.Logger
	api, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("%w: backend %s not linked", ErrNoAdapter, variant)
	}
	inst, err := api.CreateInstance(&hal.InstanceDescriptor{Backends: gputypes.BackendsAll})
	if err != nil {
		return nil, fmt.Errorf("halgpu: %s instance: %w", variant, err)
	}
	adapters := inst.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		inst.Destroy()
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, variant)
	}
	ad := adapters[0]
	od, err := ad.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		inst.Destroy()
		return nil, fmt.Errorf("halgpu: open %s adapter %q: %w", variant, ad.Info.Name, err)
	}
	if log == nil {
		log = framegraph.ComponentLogger("halgpu")
	}
	log.Info("hal device opened", "backend", variant.String(), "adapter", ad.Info.Name)

	dev := newDevice(od.Device, od.Queue, log, func() {
		od.Device.Destroy()
		ad.Adapter.Destroy()
		inst.Destroy()
	})
	return &Backend{
		name:  NameHardware,
		info:  ad.Info,
		dev:   dev,
		queue: NewQueue(dev, opts.SubmitTimeout),
	}, nil
}

// halProvider is implemented by device providers exposing HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewFromProvider wraps the HAL device of a host application. The device
// stays owned by the provider: Close releases framegraph objects only.
func NewFromProvider(p gpucontext.DeviceProvider, opts backend.Options) (*Backend, error) {
	hp, ok := p.(halProvider)
	if !ok {
		return nil, fmt.Errorf("halgpu: provider %T does not expose HAL objects", p)
	}
	raw, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("halgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("halgpu: provider HalQueue is not hal.Queue")
	}
	log := opts.Logger
	if log == nil {
		log = framegraph.ComponentLogger("halgpu")
	}
	info := p.AdapterInfo()
	log.Info("using provider device", "adapter", info.Name)
	dev := newDevice(raw, queue, log, nil)
	return &Backend{
		name:  "provider",
		info:  gputypes.AdapterInfo{Name: info.Name},
		dev:   dev,
		queue: NewQueue(dev, opts.SubmitTimeout),
	}, nil
}
