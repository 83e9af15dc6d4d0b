// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/neo4reo/USBProxy/filter"
	"github.com/neo4reo/USBProxy/usbdevice"
	"github.com/neo4reo/USBProxy/usbpacket"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestRelay(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "relay Suite")
}

// proxyCore backs both fakeDeviceProxy and fakeHostProxy with the
// channel-based Send/Receive/setup plumbing needed to drive a Relayer's
// worker loop end to end without a real transport.
type proxyCore struct {
	mu        sync.Mutex
	inbox     chan *usbpacket.Packet
	sent      []*usbpacket.Packet
	setupIn   chan *usbpacket.SetupPacket
	responded []*usbpacket.SetupPacket
	sendErr   error
}

func newProxyCore() *proxyCore {
	return &proxyCore{
		inbox:   make(chan *usbpacket.Packet, 4),
		setupIn: make(chan *usbpacket.SetupPacket, 4),
	}
}

func (f *proxyCore) Send(ctx context.Context, ep *usbdevice.EndpointRef, pkt *usbpacket.Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, pkt)
	return nil
}

func (f *proxyCore) Receive(ctx context.Context, ep *usbdevice.EndpointRef, timeout time.Duration) (*usbpacket.Packet, error) {
	select {
	case pkt := <-f.inbox:
		return pkt, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *proxyCore) SendSetup(ctx context.Context, sp *usbpacket.SetupPacket) error {
	sp.TransferResult = usbpacket.TransferSuccess
	return nil
}

func (f *proxyCore) ReceiveSetup(ctx context.Context, timeout time.Duration) (*usbpacket.SetupPacket, error) {
	select {
	case sp := <-f.setupIn:
		return sp, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *proxyCore) RespondSetup(ctx context.Context, sp *usbpacket.SetupPacket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responded = append(f.responded, sp)
	return nil
}

func (f *proxyCore) Disconnect() error { return nil }

func (f *proxyCore) SetConfig(cfg, other *usbdevice.Configuration, highSpeed bool) error { return nil }

func (f *proxyCore) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *proxyCore) respondedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.responded)
}

// fakeDeviceProxy implements proxy.DeviceProxy.
type fakeDeviceProxy struct{ *proxyCore }

func newFakeProxy() *fakeDeviceProxy { return &fakeDeviceProxy{newProxyCore()} }

func (f *fakeDeviceProxy) Connect(ctx context.Context) error { return nil }
func (f *fakeDeviceProxy) ClaimInterface(number uint8) error { return nil }
func (f *fakeDeviceProxy) ReleaseInterface(number uint8) error { return nil }
func (f *fakeDeviceProxy) ReadDescriptor(ctx context.Context, dt uint8, idx uint8) ([]byte, error) {
	return nil, nil
}

// fakeHostProxy implements proxy.HostProxy.
type fakeHostProxy struct{ *proxyCore }

func newFakeHostProxy() *fakeHostProxy { return &fakeHostProxy{newProxyCore()} }

func (f *fakeHostProxy) Connect(ctx context.Context, dev usbdevice.Model) error { return nil }

var _ = Describe("DataRelayer", func() {
	var (
		ep     *usbdevice.EndpointRef
		device *fakeDeviceProxy
		host   *fakeHostProxy
		r      *DataRelayer
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		desc := &usbdevice.EndpointDescriptor{EndpointAddress: 0x81, MaxPacketSize: 64}
		ep = usbdevice.NewEndpointRef(desc, nil)
		device = newFakeProxy()
		host = newFakeHostProxy()
		r = NewDataRelayer(ep, device, host)
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		r.Halt()
		r.Join(ctx)
		cancel()
	})

	It("forwards a packet read from the device to the host on an IN endpoint", func() {
		device.inbox <- &usbpacket.Packet{EndpointAddress: 0x81, Payload: []byte{1, 2, 3}}
		r.Start(ctx)

		Eventually(host.sentCount, time.Second, time.Millisecond).Should(Equal(1))
	})

	It("forwards an injected packet ahead of a fresh device read", func() {
		device.inbox <- &usbpacket.Packet{EndpointAddress: 0x81, Payload: []byte{0x01}}
		injected := &usbpacket.Packet{EndpointAddress: 0x81, Payload: []byte{0xaa}}
		Expect(r.Inject(injected)).To(BeTrue())
		r.Start(ctx)

		Eventually(host.sentCount, time.Second, time.Millisecond).Should(Equal(2))
		host.mu.Lock()
		first := host.sent[0]
		host.mu.Unlock()
		Expect(first).To(BeIdenticalTo(injected))
	})

	It("halts and joins promptly even while idle", func() {
		r.Start(ctx)
		done := make(chan struct{})
		go func() {
			r.Halt()
			r.Join(context.Background())
			close(done)
		}()
		Eventually(done, time.Second, time.Millisecond).Should(BeClosed())
	})
})

var _ = Describe("ControlRelayer", func() {
	var (
		ep     *usbdevice.EndpointRef
		device *fakeDeviceProxy
		host   *fakeHostProxy
		r      *ControlRelayer
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ep = usbdevice.NewEP0Ref(64)
		device = newFakeProxy()
		host = newFakeHostProxy()
		r = NewControlRelayer(ep, device, host)
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		r.Halt()
		r.Join(ctx)
		cancel()
	})

	It("invokes OnSetConfiguration between forwarding and acknowledging SET_CONFIGURATION", func() {
		var called uint8
		r.OnSetConfiguration = func(value uint8) error {
			called = value
			Expect(device.sentCount()).To(Equal(0)) // SendSetup doesn't record to "sent"
			Expect(host.respondedCount()).To(Equal(0))
			return nil
		}

		host.setupIn <- usbpacket.NewSetupPacket(usbpacket.Request{
			Request: usbpacket.RequestSetConfiguration,
			Value:   3,
		}, nil, false)
		r.Start(ctx)

		Eventually(host.respondedCount, time.Second, time.Millisecond).Should(Equal(1))
		Expect(called).To(Equal(uint8(3)))
	})

	It("drops a filtered setup transfer without forwarding it", func() {
		r.AddFilter(&dropAllSetupFilter{})
		host.setupIn <- usbpacket.NewSetupPacket(usbpacket.Request{Request: usbpacket.RequestGetStatus}, nil, true)
		r.Start(ctx)

		Consistently(host.respondedCount, 50*time.Millisecond, 5*time.Millisecond).Should(Equal(0))
	})
})

// dropAllSetupFilter is a filter.Filter that drops every setup transfer and
// passes every data packet; used to exercise ControlRelayer's drop path.
type dropAllSetupFilter struct{}

func (*dropAllSetupFilter) TestDevice(usbdevice.Model) bool                { return true }
func (*dropAllSetupFilter) TestConfiguration(*usbdevice.Configuration) bool { return true }
func (*dropAllSetupFilter) TestInterface(*usbdevice.Interface) bool         { return true }
func (*dropAllSetupFilter) TestEndpoint(*usbdevice.EndpointRef) bool        { return true }

func (*dropAllSetupFilter) FilterPacket(pkt *usbpacket.Packet) (filter.Action, *usbpacket.Packet) {
	return filter.Pass, nil
}

func (*dropAllSetupFilter) FilterSetup(sp *usbpacket.SetupPacket) (filter.Action, *usbpacket.SetupPacket) {
	return filter.Drop, nil
}
