// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbdevice

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestUsbdevice(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "usbdevice Suite")
}

var _ = Describe("Descriptor parsing", func() {
	It("parses a device descriptor", func() {
		data := []byte{
			18, DescriptorTypeDevice,
			0x00, 0x02, // bcdUSB 2.00
			0xff, 0x00, 0x00, // class/subclass/protocol
			64,         // bMaxPacketSize0
			0x83, 0x04, // idVendor
			0x01, 0x00, // idProduct
			0x00, 0x01, // bcdDevice
			1, 2, 0, // string indices
			1, // bNumConfigurations
		}

		desc, err := ParseDeviceDescriptor(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(desc.MaxPacketSize0).To(Equal(uint8(64)))
		Expect(desc.VendorID).To(Equal(uint16(0x0483)))
		Expect(desc.NumConfigurations).To(Equal(uint8(1)))
	})

	It("rejects a too-short buffer", func() {
		_, err := ParseDeviceDescriptor(make([]byte, 4))
		Expect(err).To(Equal(ErrDescriptorTooShort))
	})

	It("rejects a mismatched descriptor type", func() {
		data := make([]byte, DeviceDescriptorSize)
		data[1] = DescriptorTypeConfiguration
		_, err := ParseDeviceDescriptor(data)
		Expect(err).To(Equal(ErrDescriptorTypeMismatch))
	})

	It("parses an endpoint descriptor", func() {
		data := []byte{7, DescriptorTypeEndpoint, 0x81, 0x02, 0x40, 0x00, 10}
		ep, err := ParseEndpointDescriptor(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(ep.EndpointAddress).To(Equal(uint8(0x81)))
		Expect(ep.MaxPacketSize).To(Equal(uint16(0x40)))
	})
})

var _ = Describe("EndpointRef", func() {
	It("derives direction and number from its address", func() {
		iface := NewInterface(&InterfaceDescriptor{InterfaceNumber: 0})
		ep := iface.AddEndpoint(&EndpointDescriptor{EndpointAddress: 0x82, MaxPacketSize: 512})

		Expect(ep.Direction()).To(Equal(In))
		Expect(ep.EndpointNumber()).To(Equal(uint8(2)))
		Expect(ep.Interface()).To(Equal(iface))
	})

	It("synthesizes EP0 with no owning interface", func() {
		ep0 := NewEP0Ref(64)
		Expect(ep0.Address()).To(Equal(EP0Address))
		Expect(ep0.MaxPacketSize()).To(Equal(uint16(64)))
		Expect(ep0.Interface()).To(BeNil())
	})

	It("compares equal by address", func() {
		a := NewEP0Ref(64)
		b := NewEP0Ref(8)
		Expect(a.Equal(b)).To(BeTrue())
	})
})

var _ = Describe("Configuration", func() {
	It("flattens endpoints across interfaces in order", func() {
		cfg := NewConfiguration(&ConfigurationDescriptor{NumInterfaces: 2})

		ifc0 := NewInterface(&InterfaceDescriptor{InterfaceNumber: 0})
		ifc0.AddEndpoint(&EndpointDescriptor{EndpointAddress: 0x81})
		ifc1 := NewInterface(&InterfaceDescriptor{InterfaceNumber: 1})
		ifc1.AddEndpoint(&EndpointDescriptor{EndpointAddress: 0x02})
		ifc1.AddEndpoint(&EndpointDescriptor{EndpointAddress: 0x83})

		cfg.AddInterface(ifc0)
		cfg.AddInterface(ifc1)

		eps := cfg.Endpoints()
		Expect(eps).To(HaveLen(3))
		Expect(eps[0].Address()).To(Equal(uint8(0x81)))
		Expect(eps[2].Address()).To(Equal(uint8(0x83)))
	})
})

var _ = Describe("Qualifier", func() {
	It("pairs a configuration value with its other-speed configuration", func() {
		q := NewQualifier(&QualifierDescriptor{NumConfigurations: 1})
		other := NewConfiguration(&ConfigurationDescriptor{ConfigurationValue: 1})
		q.AddOtherSpeedConfiguration(1, other)

		Expect(q.Configuration(1)).To(Equal(other))
		Expect(q.Configuration(2)).To(BeNil())
	})
})

// fakeDescriptorReader serves canned descriptor buffers keyed by
// (descriptorType, index), mimicking a DeviceProxy's ReadDescriptor primitive
// for Enumerate's tests without a real transport.
type fakeDescriptorReader struct {
	byKey map[[2]uint8][]byte
}

func newFakeDescriptorReader() *fakeDescriptorReader {
	return &fakeDescriptorReader{byKey: make(map[[2]uint8][]byte)}
}

func (f *fakeDescriptorReader) set(descriptorType, index uint8, data []byte) {
	f.byKey[[2]uint8{descriptorType, index}] = data
}

func (f *fakeDescriptorReader) ReadDescriptor(ctx context.Context, descriptorType, index uint8) ([]byte, error) {
	data, ok := f.byKey[[2]uint8{descriptorType, index}]
	if !ok {
		return nil, ErrDescriptorTooShort
	}
	return data, nil
}

var _ = Describe("Enumerate", func() {
	It("builds a Model from a device descriptor and one configuration's concatenated sub-descriptors", func() {
		r := newFakeDescriptorReader()
		r.set(DescriptorTypeDevice, 0, []byte{
			18, DescriptorTypeDevice,
			0x00, 0x02,
			0xff, 0x00, 0x00,
			64,
			0x83, 0x04,
			0x01, 0x00,
			0x00, 0x01,
			1, 2, 0,
			1,
		})

		var cfgBlob []byte
		cfgBlob = append(cfgBlob, 9, DescriptorTypeConfiguration, 0, 0, 0, 1, 0, 0, 0)
		cfgBlob = append(cfgBlob, 9, DescriptorTypeInterface, 0, 0, 2, 0, 0, 0, 0)
		cfgBlob = append(cfgBlob, 7, DescriptorTypeEndpoint, 0x81, 0x02, 0x40, 0x00, 0)
		cfgBlob = append(cfgBlob, 7, DescriptorTypeEndpoint, 0x02, 0x02, 0x40, 0x00, 0)
		r.set(DescriptorTypeConfiguration, 0, cfgBlob)

		model, err := Enumerate(context.Background(), r)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Descriptor().VendorID).To(Equal(uint16(0x0483)))
		Expect(model.DeviceQualifier()).To(BeNil())

		cfg := model.Configuration(1)
		Expect(cfg).NotTo(BeNil())
		Expect(cfg.InterfaceCount()).To(Equal(1))
		Expect(cfg.Endpoints()).To(HaveLen(2))

		Expect(model.SetActiveConfiguration(1)).To(Succeed())
		Expect(model.ActiveConfiguration()).To(Equal(cfg))
	})

	It("propagates a device_qualifier's other-speed configurations", func() {
		r := newFakeDescriptorReader()
		r.set(DescriptorTypeDevice, 0, []byte{
			18, DescriptorTypeDevice, 0x00, 0x02, 0, 0, 0, 64, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1,
		})
		r.set(DescriptorTypeConfiguration, 0, []byte{9, DescriptorTypeConfiguration, 9, 0, 0, 1, 0, 0, 0})
		r.set(DescriptorTypeDeviceQualifier, 0, []byte{
			10, DescriptorTypeDeviceQualifier, 0x00, 0x02, 0, 0, 0, 64, 1, 0,
		})
		r.set(DescriptorTypeOtherSpeedConfig, 0, []byte{9, DescriptorTypeOtherSpeedConfig, 9, 0, 0, 1, 0, 0, 0})

		model, err := Enumerate(context.Background(), r)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.DeviceQualifier()).NotTo(BeNil())
		Expect(model.DeviceQualifier().Configuration(1)).NotTo(BeNil())
	})
})
