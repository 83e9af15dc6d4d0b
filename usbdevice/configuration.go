// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbdevice

// Configuration is one USB configuration: its descriptor plus the ordered
// set of interfaces it groups.
type Configuration struct {
	// Descriptor is the parsed configuration descriptor.
	Descriptor *ConfigurationDescriptor

	// Value is a convenience accessor for Descriptor.ConfigurationValue, the
	// value SET_CONFIGURATION selects this configuration by.
	Value uint8

	interfaces []*Interface
}

// NewConfiguration constructs a Configuration from its descriptor.
func NewConfiguration(desc *ConfigurationDescriptor) *Configuration {
	return &Configuration{Descriptor: desc, Value: desc.ConfigurationValue}
}

// AddInterface appends an interface to this configuration.
func (c *Configuration) AddInterface(i *Interface) { c.interfaces = append(c.interfaces, i) }

// Interfaces returns the configuration's interfaces in descriptor order.
func (c *Configuration) Interfaces() []*Interface { return c.interfaces }

// InterfaceCount returns the number of interfaces in this configuration.
func (c *Configuration) InterfaceCount() int { return len(c.interfaces) }

// Endpoints returns every endpoint of every interface in this configuration,
// flattened in interface-then-endpoint order.
func (c *Configuration) Endpoints() []*EndpointRef {
	var eps []*EndpointRef
	for _, iface := range c.interfaces {
		eps = append(eps, iface.Endpoints()...)
	}
	return eps
}

// Qualifier pairs a device_qualifier descriptor with the "other speed"
// configuration descriptor it describes, used to pass the correct pairing
// to DeviceProxy.SetConfig/HostProxy.SetConfig when the device reports
// separate high-speed and full-speed behavior (spec.md §4.7, §9; grounded
// on original_source/lib/Manager.cpp's setConfig method).
type Qualifier struct {
	Descriptor *QualifierDescriptor

	// otherSpeedConfigs maps a configuration value to its other-speed
	// configuration descriptor.
	otherSpeedConfigs map[uint8]*Configuration
}

// NewQualifier constructs a Qualifier from its descriptor.
func NewQualifier(desc *QualifierDescriptor) *Qualifier {
	return &Qualifier{Descriptor: desc, otherSpeedConfigs: make(map[uint8]*Configuration)}
}

// AddOtherSpeedConfiguration registers the other-speed configuration
// descriptor paired with the given configuration value.
func (q *Qualifier) AddOtherSpeedConfiguration(value uint8, cfg *Configuration) {
	q.otherSpeedConfigs[value] = cfg
}

// Configuration returns the other-speed Configuration paired with the given
// configuration value, or nil if none was registered.
func (q *Qualifier) Configuration(value uint8) *Configuration {
	return q.otherSpeedConfigs[value]
}
