package peripheral_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/identity"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
	"github.com/chaz8081/iot-peripheral/internal/ble/sim"
	"github.com/chaz8081/iot-peripheral/internal/peripheral"
)

// interval stands in for the 2 s notification period.
const interval = 200 * time.Millisecond

var _ = Describe("Peripheral", func() {
	var (
		ctx     context.Context
		cancel  context.CancelFunc
		table   *attr.Table
		stack   *sim.Stack
		sup     *peripheral.Supervisor
		runErr  chan error
		trigger peripheral.Trigger
		central *sim.Central
	)

	start := func() {
		addr, err := identity.ParseAddress("ff:8f:1a:05:e4:ff")
		Expect(err).NotTo(HaveOccurred())
		id, err := identity.New("Trouble Example", addr)
		Expect(err).NotTo(HaveOccurred())

		stack = sim.New(table)
		sup, err = peripheral.NewSupervisor(stack, table, id, peripheral.Options{
			Session: peripheral.SessionOptions{NotifyInterval: interval, Trigger: trigger},
		})
		Expect(err).NotTo(HaveOccurred())

		runErr = make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			runErr <- sup.Run(ctx)
		}()
		central = stack.NewCentral("11:22:33:44:55:66")
	}

	BeforeEach(func() {
		var err error
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		table, err = attr.NewDefault("TrouBLE")
		Expect(err).NotTo(HaveOccurred())
		trigger = peripheral.TriggerRead
		DeferCleanup(func() {
			cancel()
			if runErr != nil {
				Eventually(runErr).Should(Receive())
			}
		})
	})

	JustBeforeEach(func() {
		start()
	})

	It("advertises its name and services", func() {
		Expect(sup.Descriptor().Name).To(Equal("Trouble Example"))
		Expect(sup.Descriptor().ServiceIDs).To(Equal([]uint16{0xa5b0, 0xa5b0}))
		Eventually(func() int { return stack.Stats().Advertisements }).Should(Equal(1))
	})

	Context("when a central reads the status characteristic", func() {
		It("pushes true every interval and stops after the central leaves", func() {
			status := table.ByName(attr.HealthStatus)
			Expect(central.Connect(ctx)).To(Succeed())
			Eventually(sup.Active).Should(BeTrue())

			v, err := central.Read(ctx, status.Handle)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal([]byte{1}))

			var first, second sim.Notification
			Eventually(central.Notifications()).Should(Receive(&first))
			t0 := time.Now()
			Eventually(central.Notifications(), 2*interval).Should(Receive(&second))
			Expect(time.Since(t0)).To(BeNumerically(">=", interval*8/10))
			Expect(first).To(Equal(sim.Notification{Handle: status.Handle, Value: []byte{1}}))
			Expect(second).To(Equal(first))

			Expect(central.Disconnect(ctx, link.ReasonRemoteTerminated)).To(Succeed())
			Consistently(central.Notifications(), 2*interval).ShouldNot(Receive())
			Expect(stack.Stats().Notifications).To(Equal(2))

			Eventually(func() int { return stack.Stats().Advertisements }).Should(Equal(2))
			Expect(sup.Active()).To(BeFalse())
		})
	})

	Context("when the central never reads the status characteristic", func() {
		It("does not notify", func() {
			Expect(central.Connect(ctx)).To(Succeed())
			Consistently(central.Notifications(), 2*interval).ShouldNot(Receive())
		})
	})

	Context("with the connect trigger", func() {
		BeforeEach(func() {
			trigger = peripheral.TriggerConnect
		})

		It("notifies without a read", func() {
			Expect(central.Connect(ctx)).To(Succeed())
			Eventually(central.Notifications()).Should(Receive())
		})
	})

	It("applies a write to the LED characteristic", func() {
		led := table.ByName(attr.LEDState)
		Expect(central.Connect(ctx)).To(Succeed())
		Expect(central.Write(ctx, led.Handle, attr.EncodeBool(true))).To(Succeed())
		Expect(led.Bool()).To(BeTrue())

		// Malformed values never reach the session.
		var attErr *sim.ATTError
		Expect(errors.As(central.Write(ctx, led.Handle, []byte{2}), &attErr)).To(BeTrue())
		Expect(led.Bool()).To(BeTrue())
	})

	It("replies once to every request", func() {
		Expect(central.Connect(ctx)).To(Succeed())
		Expect(central.Exchange(ctx)).To(Succeed())
		_, err := central.Read(ctx, table.ByName(attr.GAPDeviceName).Handle)
		Expect(err).NotTo(HaveOccurred())
		Expect(central.Write(ctx, table.ByName(attr.LEDState).Handle, []byte{0})).To(Succeed())
		_, err = central.Read(ctx, 0x0077)
		Expect(err).To(HaveOccurred())

		st := stack.Stats()
		Expect(st.Events).To(Equal(4))
		Expect(st.Accepted).To(Equal(st.Events))
		Expect(st.Replies).To(Equal(st.Events))
	})

	It("serves one central at a time and re-advertises once per disconnect", func() {
		other := stack.NewCentral("aa:bb:cc:dd:ee:ff")
		Expect(central.Connect(ctx)).To(Succeed())

		connected := make(chan error, 1)
		go func() { connected <- other.Connect(ctx) }()
		Consistently(connected, 3*interval/2).ShouldNot(Receive())
		Expect(sup.Sessions()).To(Equal(1))
		Expect(stack.Stats().Advertisements).To(Equal(1))

		Expect(central.Disconnect(ctx, link.ReasonRemoteTerminated)).To(Succeed())
		Eventually(connected).Should(Receive(BeNil()))
		Eventually(sup.Sessions).Should(Equal(2))
		Expect(stack.Stats().Advertisements).To(Equal(2))

		Expect(other.Disconnect(ctx, link.ReasonTimeout)).To(Succeed())
		Eventually(func() int { return stack.Stats().Advertisements }).Should(Equal(3))
		Consistently(func() int { return stack.Stats().Advertisements }, interval).Should(Equal(3))
		Expect(stack.Stats().Connections).To(Equal(2))
	})

	Context("with a read/write characteristic", func() {
		BeforeEach(func() {
			var err error
			decls := attr.Schema("TrouBLE")
			decls = append(decls, attr.ServiceDecl{
				Name: "mode",
				UUID: attr.UUID16(0xfff0),
				Chars: []attr.CharDecl{{
					Name: "mode.val", UUID: attr.UUID16(0xfff1),
					Kind: attr.KindBytes, Perm: attr.PermRead | attr.PermWrite,
				}},
			})
			table, err = attr.Build(decls...)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reads back what was written", func() {
			h := table.ByName("mode.val").Handle
			Expect(central.Connect(ctx)).To(Succeed())
			Expect(central.Write(ctx, h, []byte{0xca, 0xfe})).To(Succeed())
			Expect(central.Read(ctx, h)).To(Equal([]byte{0xca, 0xfe}))
		})
	})

	It("stops when the link driver fails", func() {
		Expect(central.Connect(ctx)).To(Succeed())
		stack.Fail(errors.New("hci: hardware error"))

		var err error
		Eventually(runErr).Should(Receive(&err))
		Expect(err).To(MatchError(link.ErrFatal))
		runErr = nil

		n := stack.Stats().Advertisements
		Consistently(func() int { return stack.Stats().Advertisements }, interval).Should(Equal(n))
	})
})
