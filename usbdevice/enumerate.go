// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbdevice

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/neo4reo/USBProxy/support/byteslicereader"
)

// descriptorReader is the slice of proxy.DeviceProxy that descriptor
// enumeration needs. Spelled out locally (rather than importing package
// proxy) to avoid a usbdevice -> proxy -> usbdevice import cycle, since
// proxy.DeviceProxy's method set already references usbdevice types.
type descriptorReader interface {
	ReadDescriptor(ctx context.Context, descriptorType uint8, index uint8) ([]byte, error)
}

// Enumerate builds a Model by walking dp's descriptor set: the device
// descriptor, then each configuration descriptor (which a real USB device
// returns as the configuration header immediately followed by its
// interface and endpoint descriptors, concatenated back to back), then,
// if the device reports one, the device_qualifier and its other-speed
// configuration set.
//
// This is the concrete counterpart to manager.ModelBuilder: spec.md §1
// places Device Model construction outside the Manager's scope, pinning
// only the Model interface it consumes, but a complete, runnable daemon
// needs a real implementation of that seam. It is grounded on
// ardnew-softusb's descriptor-walking logic in device/descriptor.go and
// device/standard.go, reading the sub-descriptor stream with
// support/byteslicereader.R the same way the teacher reads framed headers
// in protocol/discovery.go: peek the two-byte bLength/bDescriptorType
// prefix, then Next(bLength) to advance without copying.
func Enumerate(ctx context.Context, dp descriptorReader) (Model, error) {
	raw, err := dp.ReadDescriptor(ctx, DescriptorTypeDevice, 0)
	if err != nil {
		return nil, errors.Wrap(err, "reading device descriptor")
	}
	desc, err := ParseDeviceDescriptor(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parsing device descriptor")
	}

	m := &deviceModel{desc: desc, configs: make(map[uint8]*Configuration)}
	for i := uint8(0); i < desc.NumConfigurations; i++ {
		cfg, err := readConfiguration(ctx, dp, DescriptorTypeConfiguration, i)
		if err != nil {
			return nil, errors.Wrapf(err, "reading configuration %d", i)
		}
		m.configs[cfg.Value] = cfg
	}

	if qdata, err := dp.ReadDescriptor(ctx, DescriptorTypeDeviceQualifier, 0); err == nil {
		qdesc, err := ParseQualifierDescriptor(qdata)
		if err != nil {
			return nil, errors.Wrap(err, "parsing device_qualifier descriptor")
		}
		q := NewQualifier(qdesc)
		for i := uint8(0); i < qdesc.NumConfigurations; i++ {
			cfg, err := readConfiguration(ctx, dp, DescriptorTypeOtherSpeedConfig, i)
			if err != nil {
				return nil, errors.Wrapf(err, "reading other-speed configuration %d", i)
			}
			q.AddOtherSpeedConfiguration(cfg.Value, cfg)
		}
		m.qualifier = q
	}

	return m, nil
}

// readConfiguration parses a full configuration descriptor blob (header
// plus every interface and endpoint descriptor it contains) into a
// Configuration tree.
func readConfiguration(ctx context.Context, dp descriptorReader, descriptorType, index uint8) (*Configuration, error) {
	raw, err := dp.ReadDescriptor(ctx, descriptorType, index)
	if err != nil {
		return nil, err
	}

	r := &byteslicereader.R{Buffer: raw}
	hdr, _ := r.Next(ConfigurationDescriptorSize)
	if len(hdr) < ConfigurationDescriptorSize {
		return nil, ErrDescriptorTooShort
	}
	cdesc, err := ParseConfigurationDescriptor(hdr)
	if err != nil {
		return nil, err
	}
	cfg := NewConfiguration(cdesc)

	var current *Interface
	for r.Remaining() >= 2 {
		peek := r.Peek(2)
		bLength, bType := int(peek[0]), peek[1]
		if bLength < 2 {
			break
		}
		block, _ := r.Next(bLength)
		if len(block) < bLength {
			break
		}

		switch bType {
		case DescriptorTypeInterface:
			ifaceDesc, err := ParseInterfaceDescriptor(block)
			if err != nil {
				return nil, err
			}
			current = NewInterface(ifaceDesc)
			cfg.AddInterface(current)
		case DescriptorTypeEndpoint:
			if current == nil {
				return nil, errors.New("endpoint descriptor with no preceding interface")
			}
			epDesc, err := ParseEndpointDescriptor(block)
			if err != nil {
				return nil, err
			}
			current.AddEndpoint(epDesc)
		default:
			// Class/vendor-specific descriptors (HID, CDC functional, etc.)
			// are skipped; the Manager only needs the standard topology.
		}
	}

	return cfg, nil
}

// deviceModel is the concrete Model built by Enumerate.
type deviceModel struct {
	mu        sync.Mutex
	desc      *DeviceDescriptor
	configs   map[uint8]*Configuration
	active    uint8
	qualifier *Qualifier
	highSpeed bool
}

func (m *deviceModel) Descriptor() *DeviceDescriptor { return m.desc }

func (m *deviceModel) ActiveConfiguration() *Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configs[m.active]
}

func (m *deviceModel) Configuration(value uint8) *Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configs[value]
}

func (m *deviceModel) DeviceQualifier() *Qualifier { return m.qualifier }

func (m *deviceModel) IsHighSpeed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highSpeed
}

func (m *deviceModel) SetActiveConfiguration(value uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[value]; !ok {
		return errors.Errorf("no such configuration %d", value)
	}
	m.active = value
	m.highSpeed = m.desc.USBVersion >= 0x0200
	return nil
}
