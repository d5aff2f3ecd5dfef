package events_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frahmantamala/bizanalytics/internal/core/events"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var (
		bus *events.EventBus
		ctx context.Context
	)

	BeforeEach(func() {
		bus = events.NewEventBus(logger.Discard())
		ctx = context.Background()
	})

	It("builds company topics", func() {
		Expect(events.CompanyTopic("c1")).To(Equal("company:c1"))
	})

	It("delivers only to subscribers of the topic", func() {
		var hitsA, hitsB int32
		bus.Subscribe(events.CompanyTopic("a"), func(context.Context, events.Event) error {
			atomic.AddInt32(&hitsA, 1)
			return nil
		})
		bus.Subscribe(events.CompanyTopic("b"), func(context.Context, events.Event) error {
			atomic.AddInt32(&hitsB, 1)
			return nil
		})

		Expect(bus.Publish(ctx, events.CompanyTopic("a"), events.NewMemberRemovedEvent("a", "u1"))).To(Succeed())

		Eventually(func() int32 { return atomic.LoadInt32(&hitsA) }).Should(Equal(int32(1)))
		Consistently(func() int32 { return atomic.LoadInt32(&hitsB) }, 50*time.Millisecond).Should(BeZero())
	})

	It("does not fail publish when a handler errors", func() {
		done := make(chan struct{})
		bus.Subscribe("t", func(context.Context, events.Event) error {
			defer close(done)
			return errors.New("boom")
		})

		Expect(bus.Publish(ctx, "t", events.NewPresenceEvent("u1", true))).To(Succeed())
		Eventually(done).Should(BeClosed())
	})

	It("returns handler errors from PublishSync", func() {
		bus.Subscribe("t", func(context.Context, events.Event) error { return errors.New("boom") })

		err := bus.PublishSync(ctx, "t", events.NewPresenceEvent("u1", false))
		Expect(err).To(MatchError(ContainSubstring("presence.offline")))
	})

	It("stops delivering after unsubscribe", func() {
		var hits int32
		unsubscribe := bus.Subscribe("t", func(context.Context, events.Event) error {
			atomic.AddInt32(&hits, 1)
			return nil
		})
		unsubscribe()

		Expect(bus.PublishSync(ctx, "t", events.NewPresenceEvent("u1", true))).To(Succeed())
		Expect(atomic.LoadInt32(&hits)).To(BeZero())
	})

	Describe("SubscribeChan", func() {
		It("streams events and closes on cancel", func() {
			ch, cancel := bus.SubscribeChan("company:c1", 4)

			Expect(bus.Publish(ctx, "company:c1", events.NewMemberAddedEvent("c1", "u2", "viewer"))).To(Succeed())

			var received events.Event
			Eventually(ch).Should(Receive(&received))
			Expect(received.EventType()).To(Equal(events.EventTypeMemberAdded))

			cancel()
			Eventually(ch).Should(BeClosed())
			Expect(func() { cancel() }).NotTo(Panic())
		})
	})
})
