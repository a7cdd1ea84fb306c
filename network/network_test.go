package network_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/flowcore-go/flowcore/component"
	"github.com/flowcore-go/flowcore/network"
)

func waiter(name string) *component.Definition {
	return &component.Definition{
		Name:    name,
		Inputs:  []component.InputSpec{{Name: "IN"}},
		Outputs: []component.OutputSpec{{Name: "OUT"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			in, out := p.In["IN"], p.Out["OUT"]
			pkt, ok, err := in.Receive(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			v := pkt.Content()
			if err := in.Consume(pkt); err != nil {
				return err
			}
			return out.Send(ctx, out.NewPacket(v))
		},
	}
}

var _ = Describe("Network", func() {
	It("detects a deadlock in a cycle where neither side is self-starting", func() {
		g := &network.Graph{
			Nodes: []network.NodeSpec{
				{Name: "a", Def: waiter("a")},
				{Name: "b", Def: waiter("b")},
			},
			Conns: []network.ConnSpec{
				{Name: "a-to-b", From: []network.Endpoint{{Node: "a", Port: "OUT"}}, To: network.Endpoint{Node: "b", Port: "IN"}},
				{Name: "b-to-a", From: []network.Endpoint{{Node: "b", Port: "OUT"}}, To: network.Endpoint{Node: "a", Port: "IN"}},
			},
		}
		n, err := network.NewBuilder().Build(g, network.WithQuiescencePoll(5*time.Millisecond))
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		report, runErr := n.Run(ctx)

		Expect(runErr).To(HaveOccurred())
		Expect(report.Deadlocked).To(BeTrue())
		Expect(report.Participants).To(ConsistOf("a", "b"))
		Expect(report.Digest).NotTo(BeEmpty())
	})

	It("unwinds promptly when the caller's context is canceled", func() {
		g := &network.Graph{
			Nodes: []network.NodeSpec{
				{Name: "a", Def: waiter("a")},
				{Name: "b", Def: waiter("b")},
			},
			Conns: []network.ConnSpec{
				{Name: "a-to-b", From: []network.Endpoint{{Node: "a", Port: "OUT"}}, To: network.Endpoint{Node: "b", Port: "IN"}},
				{Name: "b-to-a", From: []network.Endpoint{{Node: "b", Port: "OUT"}}, To: network.Endpoint{Node: "a", Port: "IN"}},
			},
		}
		n, err := network.NewBuilder().Build(g, network.WithQuiescencePoll(time.Hour))
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, runErr := n.Run(ctx)
		elapsed := time.Since(start)

		Expect(runErr).To(HaveOccurred())
		Expect(elapsed).To(BeNumerically("<", time.Second))
	})
})
