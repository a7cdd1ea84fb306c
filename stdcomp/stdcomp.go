// Package stdcomp provides a small library of ready-made Definitions,
// Go translations of the reference text-processing components
// (original_source/rill/components/text.py: Prefix, Affix,
// DedupeSuccessive, DuplicateString, LineToWords, LowerCase) plus a
// Generator/Sink pair for driving and observing a graph end to end.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stdcomp

import (
	"context"
	"strings"

	"github.com/flowcore-go/flowcore/component"
)

// Generator is self-starting: it has no input ports, so the Network
// schedules it immediately. It sends each value in values to OUT, in
// order, then closes.
func Generator(name string, values []any) *component.Definition {
	return &component.Definition{
		Name:    name,
		Outputs: []component.OutputSpec{{Name: "OUT"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			out := p.Out["OUT"]
			for _, v := range values {
				pkt := out.NewPacket(v)
				if err := out.Send(ctx, pkt); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Sink drains IN to exhaustion, invoking collect for every delivered
// value; collect must be safe to call from the Instance's own
// goroutine.
func Sink(name string, collect func(v any)) *component.Definition {
	return &component.Definition{
		Name:   name,
		Inputs: []component.InputSpec{{Name: "IN"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			in := p.In["IN"]
			for pkt := range in.Iterate(ctx) {
				collect(pkt.Content())
				if err := in.Consume(pkt); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Prefix affixes PRE (read once, default "") ahead of each IN value and
// forwards the concatenation to OUT, the Go equivalent of
// rill's text.Prefix.
func Prefix(name string) *component.Definition {
	return &component.Definition{
		Name:    name,
		Inputs:  []component.InputSpec{{Name: "IN"}, {Name: "PRE"}},
		Outputs: []component.OutputSpec{{Name: "OUT"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			pre, err := p.In["PRE"].ReceiveOnce(ctx, "")
			if err != nil {
				return err
			}
			prefix, _ := pre.(string)
			in, out := p.In["IN"], p.Out["OUT"]
			for pkt := range in.Iterate(ctx) {
				text, _ := pkt.Content().(string)
				if err := in.Consume(pkt); err != nil {
					return err
				}
				if err := out.Send(ctx, out.NewPacket(prefix+text)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Affix wraps each IN value with PRE and POST (each read once,
// default ""), the Go equivalent of rill's text.Affix.
func Affix(name string) *component.Definition {
	return &component.Definition{
		Name:    name,
		Inputs:  []component.InputSpec{{Name: "IN"}, {Name: "PRE"}, {Name: "POST"}},
		Outputs: []component.OutputSpec{{Name: "OUT"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			prev, err := p.In["PRE"].ReceiveOnce(ctx, "")
			if err != nil {
				return err
			}
			postv, err := p.In["POST"].ReceiveOnce(ctx, "")
			if err != nil {
				return err
			}
			pre, _ := prev.(string)
			post, _ := postv.(string)
			in, out := p.In["IN"], p.Out["OUT"]
			for pkt := range in.Iterate(ctx) {
				text, _ := pkt.Content().(string)
				if err := in.Consume(pkt); err != nil {
					return err
				}
				if err := out.Send(ctx, out.NewPacket(pre+text+post)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// DedupeSuccessive forwards IN to OUT, skipping any value equal to the
// immediately preceding one.
func DedupeSuccessive(name string) *component.Definition {
	return &component.Definition{
		Name:    name,
		Inputs:  []component.InputSpec{{Name: "IN"}},
		Outputs: []component.OutputSpec{{Name: "OUT"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			in, out := p.In["IN"], p.Out["OUT"]
			previous, seen := "", false
			for pkt := range in.Iterate(ctx) {
				text, _ := pkt.Content().(string)
				if err := in.Consume(pkt); err != nil {
					return err
				}
				if seen && text == previous {
					continue
				}
				previous, seen = text, true
				if err := out.Send(ctx, out.NewPacket(text)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// LineToWords splits each IN value on whitespace and sends each word to
// OUT individually.
func LineToWords(name string) *component.Definition {
	return &component.Definition{
		Name:    name,
		Inputs:  []component.InputSpec{{Name: "IN"}},
		Outputs: []component.OutputSpec{{Name: "OUT"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			in, out := p.In["IN"], p.Out["OUT"]
			for pkt := range in.Iterate(ctx) {
				line, _ := pkt.Content().(string)
				if err := in.Consume(pkt); err != nil {
					return err
				}
				for _, word := range strings.Fields(line) {
					if err := out.Send(ctx, out.NewPacket(word)); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

// DuplicateString sends each IN value's string content to both OUT and
// DUPLICATE as two new packets; content that is not a string is sent
// as "".
func DuplicateString(name string) *component.Definition {
	return &component.Definition{
		Name:    name,
		Inputs:  []component.InputSpec{{Name: "IN"}},
		Outputs: []component.OutputSpec{{Name: "OUT"}, {Name: "DUPLICATE"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			in, out, dup := p.In["IN"], p.Out["OUT"], p.Out["DUPLICATE"]
			for pkt := range in.Iterate(ctx) {
				text, _ := pkt.Content().(string)
				if err := in.Consume(pkt); err != nil {
					return err
				}
				if err := out.Send(ctx, out.NewPacket(text)); err != nil {
					return err
				}
				if err := dup.Send(ctx, dup.NewPacket(text)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Merge fan-in's every element of the IN array port to OUT in ascending
// element-index order, draining each element to exhaustion before
// moving to the next -- a simple, deterministic policy rather than a
// select-style race across elements.
func Merge(name string) *component.Definition {
	return &component.Definition{
		Name:    name,
		Inputs:  []component.InputSpec{{Name: "IN", Array: true}},
		Outputs: []component.OutputSpec{{Name: "OUT"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			out := p.Out["OUT"]
			in := p.InArray["IN"]
			for _, elem := range in.Elements() {
				for pkt := range elem.Iterate(ctx) {
					v := pkt.Content()
					if err := elem.Consume(pkt); err != nil {
						return err
					}
					if err := out.Send(ctx, out.NewPacket(v)); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

// LowerCase forwards IN to OUT lower-cased.
func LowerCase(name string) *component.Definition {
	return &component.Definition{
		Name:    name,
		Inputs:  []component.InputSpec{{Name: "IN"}},
		Outputs: []component.OutputSpec{{Name: "OUT"}},
		Logic: func(ctx context.Context, p *component.Ports) error {
			in, out := p.In["IN"], p.Out["OUT"]
			for pkt := range in.Iterate(ctx) {
				text, _ := pkt.Content().(string)
				if err := in.Consume(pkt); err != nil {
					return err
				}
				if err := out.Send(ctx, out.NewPacket(strings.ToLower(text))); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
