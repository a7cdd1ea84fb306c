package conn_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/flowcore-go/flowcore/conn"
	"github.com/flowcore-go/flowcore/packet"
)

var _ = Describe("Connection", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("delivers packets FIFO per upstream", func() {
		c := conn.New("a-b", 10, 1)
		a1 := packet.New(packet.Normal, "a1", "up")
		a2 := packet.New(packet.Normal, "a2", "up")

		Expect(c.Put(ctx, a1, nil, nil)).To(Succeed())
		Expect(c.Put(ctx, a2, nil, nil)).To(Succeed())

		got1, ok, err := c.Get(ctx, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(got1.Content()).To(Equal("a1"))

		got2, ok, err := c.Get(ctx, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(got2.Content()).To(Equal("a2"))
	})

	It("never exceeds capacity and blocks senders until drained", func() {
		c := conn.New("bp", 2, 1)
		Expect(c.Put(ctx, packet.New(packet.Normal, 1, "up"), nil, nil)).To(Succeed())
		Expect(c.Put(ctx, packet.New(packet.Normal, 2, "up"), nil, nil)).To(Succeed())
		Expect(c.Len()).To(Equal(2))

		suspended := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- c.Put(ctx, packet.New(packet.Normal, 3, "up"), func() { close(suspended) }, nil)
		}()

		Eventually(suspended).Should(BeClosed())
		Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

		_, ok, err := c.Get(ctx, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		Eventually(done).Should(Receive(BeNil()))
		Expect(c.Len()).To(Equal(2))
	})

	It("returns end-of-stream once all upstreams close and the queue drains", func() {
		c := conn.New("eos", 4, 2)
		Expect(c.Put(ctx, packet.New(packet.Normal, 1, "up"), nil, nil)).To(Succeed())
		c.CloseUpstream()

		_, ok, err := c.Get(ctx, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		tctx, tcancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer tcancel()
		_, ok, err = c.Get(tctx, nil, nil)
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(ok).To(BeFalse(), "one upstream still open, queue empty, should block not EOS")

		c2 := conn.New("eos2", 4, 1)
		Expect(c2.Put(ctx, packet.New(packet.Normal, 1, "up"), nil, nil)).To(Succeed())
		c2.CloseUpstream()
		_, _, _ = c2.Get(ctx, nil, nil)
		_, ok, err = c2.Get(ctx, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(c2.Drained()).To(BeTrue())
	})

	It("fails Put immediately once closed", func() {
		c := conn.New("closed", 1, 1)
		c.CloseNow()
		err := c.Put(ctx, packet.New(packet.Normal, 1, "up"), nil, nil)
		Expect(err).To(HaveOccurred())
	})

	It("wakes a blocked receiver with end-of-stream on cancellation-style CloseNow", func() {
		c := conn.New("cancel", 1, 1)
		errCh := make(chan error, 1)
		okCh := make(chan bool, 1)
		go func() {
			_, ok, err := c.Get(ctx, nil, nil)
			okCh <- ok
			errCh <- err
		}()
		time.Sleep(10 * time.Millisecond)
		c.CloseNow()
		Eventually(okCh).Should(Receive(BeFalse()))
		Eventually(errCh).Should(Receive(BeNil()))
	})

	It("serves multiple blocked senders in FIFO order", func() {
		c := conn.New("fifo", 1, 1)
		Expect(c.Put(ctx, packet.New(packet.Normal, 0, "up"), nil, nil)).To(Succeed())

		order := make(chan int, 3)
		for i := 1; i <= 3; i++ {
			i := i
			go func() {
				_ = c.Put(ctx, packet.New(packet.Normal, i, "up"), nil, nil)
				order <- i
			}()
			time.Sleep(5 * time.Millisecond) // ensure registration order
		}

		for i := 0; i < 3; i++ {
			_, _, _ = c.Get(ctx, nil, nil)
		}

		Eventually(order).Should(Receive(Equal(1)))
		Eventually(order).Should(Receive(Equal(2)))
		Eventually(order).Should(Receive(Equal(3)))
	})
})
