package hk_test

import (
	"time"

	"github.com/flowcore-go/flowcore/hk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Housekeeper", func() {
	var h *hk.Housekeeper

	BeforeEach(func() {
		h = hk.New(5 * time.Millisecond)
		go h.Run()
		h.WaitStarted()
	})

	AfterEach(func() {
		h.Stop()
	})

	It("invokes a registered job repeatedly until it unregisters itself", func() {
		count := 0
		done := make(chan struct{})
		h.Reg(&hk.Job{Name: "counter", F: func() time.Duration {
			count++
			if count >= 3 {
				close(done)
				return 0
			}
			return 5 * time.Millisecond
		}})

		Eventually(done, time.Second).Should(BeClosed())
		Consistently(func() int { return count }, 50*time.Millisecond).Should(Equal(3))
	})

	It("stops invoking a job once Unreg is called", func() {
		count := 0
		h.Reg(&hk.Job{Name: "ticker", F: func() time.Duration {
			count++
			return 5 * time.Millisecond
		}})
		time.Sleep(20 * time.Millisecond)
		h.Unreg("ticker")
		snapshot := count
		time.Sleep(30 * time.Millisecond)
		Expect(count).To(Equal(snapshot))
	})
})
