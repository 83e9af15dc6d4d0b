// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package filter

import (
	"testing"

	"github.com/neo4reo/USBProxy/usbdevice"
	"github.com/neo4reo/USBProxy/usbpacket"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestFilter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "filter Suite")
}

// recordingFilter is a Filter that returns its configured action and records
// its name for every packet or setup it sees, preserving call order.
type recordingFilter struct {
	name    string
	order   *[]string
	action  Action
	replace *usbpacket.Packet
}

func (f *recordingFilter) TestDevice(usbdevice.Model) bool                { return true }
func (f *recordingFilter) TestConfiguration(*usbdevice.Configuration) bool { return true }
func (f *recordingFilter) TestInterface(*usbdevice.Interface) bool         { return true }
func (f *recordingFilter) TestEndpoint(*usbdevice.EndpointRef) bool        { return true }

func (f *recordingFilter) FilterPacket(pkt *usbpacket.Packet) (Action, *usbpacket.Packet) {
	*f.order = append(*f.order, f.name)
	if f.action == Replace {
		return Replace, f.replace
	}
	return f.action, nil
}

func (f *recordingFilter) FilterSetup(sp *usbpacket.SetupPacket) (Action, *usbpacket.SetupPacket) {
	*f.order = append(*f.order, f.name)
	return f.action, nil
}

var _ = Describe("Chain", func() {
	var order []string

	BeforeEach(func() { order = nil })

	It("evaluates filters in registration order", func() {
		var c Chain
		c.Add(&recordingFilter{name: "A", order: &order, action: Pass})
		c.Add(&recordingFilter{name: "B", order: &order, action: Pass})

		_, ok := c.ApplyPacket(&usbpacket.Packet{EndpointAddress: 0x02})
		Expect(ok).To(BeTrue())
		Expect(order).To(Equal([]string{"A", "B"}))
	})

	It("halts on the first Drop and never reaches later filters", func() {
		var c Chain
		c.Add(&recordingFilter{name: "A", order: &order, action: Drop})
		c.Add(&recordingFilter{name: "B", order: &order, action: Pass})

		_, ok := c.ApplyPacket(&usbpacket.Packet{EndpointAddress: 0x02})
		Expect(ok).To(BeFalse())
		Expect(order).To(Equal([]string{"A"}))
	})

	It("substitutes on Replace and continues with the replacement", func() {
		replacement := &usbpacket.Packet{EndpointAddress: 0x02, Payload: []byte{0xff}}

		var c Chain
		c.Add(&recordingFilter{name: "A", order: &order, action: Replace, replace: replacement})
		c.Add(&recordingFilter{name: "B", order: &order, action: Pass})

		out, ok := c.ApplyPacket(&usbpacket.Packet{EndpointAddress: 0x02, Payload: []byte{0x01}})
		Expect(ok).To(BeTrue())
		Expect(out).To(Equal(replacement))
		Expect(order).To(Equal([]string{"A", "B"}))
	})

	It("round-trips add/remove back to prior contents", func() {
		var c Chain
		f1 := &recordingFilter{name: "A", order: &order, action: Pass}
		c.Add(f1)
		before := c.Len()

		f2 := &recordingFilter{name: "B", order: &order, action: Pass}
		c.Add(f2)
		c.filters = c.filters[:len(c.filters)-1] // remove_filter(last_index, free=false)

		Expect(c.Len()).To(Equal(before))
		Expect(c.filters).To(Equal([]Filter{f1}))
	})
})
