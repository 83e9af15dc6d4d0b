// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbdevice

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrDescriptorTooShort is returned when a descriptor buffer is shorter than
// its fixed-size layout requires.
var ErrDescriptorTooShort = errors.New("descriptor too short")

// ErrDescriptorTypeMismatch is returned when a descriptor buffer's type byte
// does not match the descriptor being parsed.
var ErrDescriptorTypeMismatch = errors.New("descriptor type mismatch")

// The *DescriptorSize constants are the fixed wire sizes, in bytes, of each
// descriptor type this package parses.
const (
	DeviceDescriptorSize        = 18
	ConfigurationDescriptorSize = 9
	InterfaceDescriptorSize     = 9
	EndpointDescriptorSize      = 7
	QualifierDescriptorSize     = 10
)

// DeviceDescriptor is a USB device descriptor (18 bytes, USB 2.0 Spec Table
// 9-8).
type DeviceDescriptor struct {
	USBVersion        uint16
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	VendorID          uint16
	ProductID         uint16
	DeviceVersion     uint16
	ManufacturerIndex uint8
	ProductIndex      uint8
	SerialNumberIndex uint8
	NumConfigurations uint8
}

// ParseDeviceDescriptor parses a device descriptor from data.
func ParseDeviceDescriptor(data []byte) (*DeviceDescriptor, error) {
	if len(data) < DeviceDescriptorSize {
		return nil, ErrDescriptorTooShort
	}
	if data[1] != DescriptorTypeDevice {
		return nil, ErrDescriptorTypeMismatch
	}
	return &DeviceDescriptor{
		USBVersion:        binary.LittleEndian.Uint16(data[2:4]),
		DeviceClass:       data[4],
		DeviceSubClass:    data[5],
		DeviceProtocol:    data[6],
		MaxPacketSize0:    data[7],
		VendorID:          binary.LittleEndian.Uint16(data[8:10]),
		ProductID:         binary.LittleEndian.Uint16(data[10:12]),
		DeviceVersion:     binary.LittleEndian.Uint16(data[12:14]),
		ManufacturerIndex: data[14],
		ProductIndex:      data[15],
		SerialNumberIndex: data[16],
		NumConfigurations: data[17],
	}, nil
}

// ConfigurationDescriptor is a USB configuration descriptor (9 bytes, USB
// 2.0 Spec Table 9-10).
type ConfigurationDescriptor struct {
	TotalLength        uint16
	NumInterfaces      uint8
	ConfigurationValue uint8
	ConfigurationIndex uint8
	Attributes         uint8
	MaxPower           uint8
}

// ParseConfigurationDescriptor parses a configuration descriptor from data.
// It also accepts DescriptorTypeOtherSpeedConfig: USB 2.0 Spec §9.6.4 gives
// the other-speed configuration descriptor the identical field layout,
// tagged with a different bDescriptorType.
func ParseConfigurationDescriptor(data []byte) (*ConfigurationDescriptor, error) {
	if len(data) < ConfigurationDescriptorSize {
		return nil, ErrDescriptorTooShort
	}
	if data[1] != DescriptorTypeConfiguration && data[1] != DescriptorTypeOtherSpeedConfig {
		return nil, ErrDescriptorTypeMismatch
	}
	return &ConfigurationDescriptor{
		TotalLength:        binary.LittleEndian.Uint16(data[2:4]),
		NumInterfaces:      data[4],
		ConfigurationValue: data[5],
		ConfigurationIndex: data[6],
		Attributes:         data[7],
		MaxPower:           data[8],
	}, nil
}

// InterfaceDescriptor is a USB interface descriptor (9 bytes, USB 2.0 Spec
// Table 9-12).
type InterfaceDescriptor struct {
	InterfaceNumber   uint8
	AlternateSetting  uint8
	NumEndpoints      uint8
	InterfaceClass    uint8
	InterfaceSubClass uint8
	InterfaceProtocol uint8
	InterfaceIndex    uint8
}

// ParseInterfaceDescriptor parses an interface descriptor from data.
func ParseInterfaceDescriptor(data []byte) (*InterfaceDescriptor, error) {
	if len(data) < InterfaceDescriptorSize {
		return nil, ErrDescriptorTooShort
	}
	if data[1] != DescriptorTypeInterface {
		return nil, ErrDescriptorTypeMismatch
	}
	return &InterfaceDescriptor{
		InterfaceNumber:   data[2],
		AlternateSetting:  data[3],
		NumEndpoints:      data[4],
		InterfaceClass:    data[5],
		InterfaceSubClass: data[6],
		InterfaceProtocol: data[7],
		InterfaceIndex:    data[8],
	}, nil
}

// EndpointDescriptor is a USB endpoint descriptor (7 bytes, USB 2.0 Spec
// Table 9-13).
type EndpointDescriptor struct {
	EndpointAddress uint8
	Attributes      uint8
	MaxPacketSize   uint16
	Interval        uint8
}

// ParseEndpointDescriptor parses an endpoint descriptor from data.
func ParseEndpointDescriptor(data []byte) (*EndpointDescriptor, error) {
	if len(data) < EndpointDescriptorSize {
		return nil, ErrDescriptorTooShort
	}
	if data[1] != DescriptorTypeEndpoint {
		return nil, ErrDescriptorTypeMismatch
	}
	return &EndpointDescriptor{
		EndpointAddress: data[2],
		Attributes:      data[3],
		MaxPacketSize:   binary.LittleEndian.Uint16(data[4:6]),
		Interval:        data[6],
	}, nil
}

// QualifierDescriptor is a USB device_qualifier descriptor (10 bytes, USB
// 2.0 Spec Table 9-9), describing a device's capabilities at the "other"
// speed than the one it's currently operating at.
type QualifierDescriptor struct {
	USBVersion        uint16
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	NumConfigurations uint8
}

// ParseQualifierDescriptor parses a device_qualifier descriptor from data.
func ParseQualifierDescriptor(data []byte) (*QualifierDescriptor, error) {
	if len(data) < QualifierDescriptorSize {
		return nil, ErrDescriptorTooShort
	}
	if data[1] != DescriptorTypeDeviceQualifier {
		return nil, ErrDescriptorTypeMismatch
	}
	return &QualifierDescriptor{
		USBVersion:        binary.LittleEndian.Uint16(data[2:4]),
		DeviceClass:       data[4],
		DeviceSubClass:    data[5],
		DeviceProtocol:    data[6],
		MaxPacketSize0:    data[7],
		NumConfigurations: data[8],
	}, nil
}
