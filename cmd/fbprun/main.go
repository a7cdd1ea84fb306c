// Package main provides fbprun, a small command demonstrating a wired
// Network end to end: it builds a fixed demo pipeline (Generator ->
// Prefix -> LowerCase -> Sink) and prints the run's conservation-of-
// packets report, in the spirit of the teacher's cmd/xmeta.go
// single-file tool.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowcore-go/flowcore/cmn/nlog"
	"github.com/flowcore-go/flowcore/metrics"
	"github.com/flowcore-go/flowcore/network"
	"github.com/flowcore-go/flowcore/stdcomp"
)

const helpMsg = `Build:
	go build -o fbprun ./cmd/fbprun

Examples:
	fbprun -lines="Hello World,Foo Bar"            - run the demo pipeline over two lines
	fbprun -lines="a,b,c" -prefix=">> " -capacity=2 - small connections, visible backpressure
	fbprun -timeout=5s -lines="..."                 - bound the run
`

var flags struct {
	lines    string
	prefix   string
	capacity int
	timeout  time.Duration
	help     bool
}

func main() {
	flag.StringVar(&flags.lines, "lines", "Hello World,Flow Based Programming", "comma-separated input lines")
	flag.StringVar(&flags.prefix, "prefix", ">> ", "prefix attached to every line before lower-casing")
	flag.IntVar(&flags.capacity, "capacity", 4, "connection capacity between stages")
	flag.DurationVar(&flags.timeout, "timeout", 10*time.Second, "run deadline")
	flag.BoolVar(&flags.help, "h", false, "show usage")
	flag.Parse()

	if flags.help {
		fmt.Print(helpMsg)
		return
	}
	if err := run(); err != nil {
		nlog.Errorf("fbprun: %v", err)
		os.Exit(1)
	}
}

func run() error {
	values := make([]any, 0)
	for _, l := range strings.Split(flags.lines, ",") {
		if l != "" {
			values = append(values, l)
		}
	}

	var results []any
	g := &network.Graph{
		Nodes: []network.NodeSpec{
			{Name: "gen", Def: stdcomp.Generator("gen", values)},
			{Name: "prefix", Def: stdcomp.Prefix("prefix")},
			{Name: "lower", Def: stdcomp.LowerCase("lower")},
			{Name: "sink", Def: stdcomp.Sink("sink", func(v any) { results = append(results, v) })},
		},
		Conns: []network.ConnSpec{
			{Name: "gen-prefix", Capacity: flags.capacity, From: []network.Endpoint{{Node: "gen", Port: "OUT"}}, To: network.Endpoint{Node: "prefix", Port: "IN"}},
			{Name: "prefix-lower", Capacity: flags.capacity, From: []network.Endpoint{{Node: "prefix", Port: "OUT"}}, To: network.Endpoint{Node: "lower", Port: "IN"}},
			{Name: "lower-sink", Capacity: flags.capacity, From: []network.Endpoint{{Node: "lower", Port: "OUT"}}, To: network.Endpoint{Node: "sink", Port: "IN"}},
		},
		IIPs: []network.IIPSpec{
			{To: network.Endpoint{Node: "prefix", Port: "PRE"}, Value: flags.prefix},
		},
	}

	reg := metrics.New("fbprun", prometheus.NewRegistry())
	n, err := network.NewBuilder().Build(g, network.WithMetrics(reg))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	report, err := n.Run(ctx)
	if err != nil && !report.Deadlocked {
		return err
	}
	if report.Deadlocked {
		nlog.Warnf("deadlock detected (digest=%s), participants=%v", report.Digest, report.Participants)
	}

	for _, v := range results {
		fmt.Println(v)
	}
	b, _ := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(report.Stats, "", "  ")
	fmt.Fprintln(os.Stderr, string(b))
	return nil
}
