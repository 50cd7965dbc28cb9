//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"

	"github.com/markkurossi/mpcsuite/env"
	"github.com/markkurossi/mpcsuite/protocol"
	"github.com/markkurossi/mpcsuite/registry"
)

var banks = []string{"bank1", "bank2", "bank3"}

var customers = map[string][]string{
	"bank1": {"alice", "bob", "carol", "dave"},
	"bank2": {"bob", "dave", "erin"},
	"bank3": {"frank", "dave", "bob", "carol"},
}

var deposits = map[string]int64{
	"bank1": 10,
	"bank2": 20,
	"bank3": 30,
}

func main() {
	configFile := flag.String("config", "", "configuration file")
	protocols := flag.String("p", "psi,secure_sum,joint_query",
		"comma separated list of protocols to run")
	reveal := flag.Bool("reveal", false, "reveal PSI intersection values")
	verbose := flag.Bool("v", false, "verbose output")
	stats := flag.Bool("stats", false, "print timing statistics")
	flag.Parse()

	log.SetFlags(0)

	config, err := env.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *verbose {
		config.Verbose = true
	}

	network := protocol.NewLocalNetwork()
	dir := registry.NewMemoryDirectory()
	jobs := registry.NewMemoryJobs()

	for _, id := range banks {
		p := protocol.NewParty(id, config)
		p.SetSet("customer_id", customers[id])
		p.SetValue("deposits", big.NewInt(deposits[id]))
		if err := dir.Register(network.Add(p)); err != nil {
			log.Fatal(err)
		}
		if id == "bank1" {
			p.SetRecord("balance", "acct-42", big.NewInt(123456789))
		}
	}
	coord := protocol.NewCoordinator(config, dir, jobs, network)
	ctx := context.Background()

	for _, name := range strings.Split(*protocols, ",") {
		t, err := protocol.ParseType(strings.TrimSpace(name))
		if err != nil {
			log.Fatal(err)
		}
		req := &protocol.Request{
			Type:         t,
			Participants: banks,
		}
		switch t {
		case protocol.PSI:
			req.Field = "customer_id"
			req.Reveal = *reveal

		case protocol.SecureSum:
			req.Field = "deposits"

		case protocol.JointQuery:
			req.QueryType = "balance"
			req.Target = "acct-42"
			err = coord.Distribute(ctx, &protocol.DistributeRequest{
				Owner:     "bank1",
				QueryType: req.QueryType,
				Target:    req.Target,
				Holders:   banks,
			})
			if err != nil {
				log.Fatal(err)
			}
		}

		result, err := coord.Run(ctx, req)
		if err != nil {
			log.Fatal(err)
		}
		printResult(result)
		if *stats {
			result.Timing.Print(os.Stdout, result.Stats)
		}
	}

	for _, job := range jobs.Jobs() {
		fmt.Printf("job %s: %s %s (%s)\n", job.ID, job.Protocol, job.Status,
			job.Outcome.Summary)
	}
}

func printResult(result *protocol.Result) {
	fmt.Printf("%s session %s:\n", result.Type, result.SessionID)
	switch result.Type {
	case protocol.PSI:
		fmt.Printf(" - intersection size: %d\n", result.IntersectionSize)
		fmt.Printf(" - membership       : %v\n", result.Membership)
		if len(result.Intersection) > 0 {
			fmt.Printf(" - intersection     : %v\n", result.Intersection)
		}

	case protocol.SecureSum:
		fmt.Printf(" - sum: %v\n", result.Sum)

	case protocol.JointQuery:
		fmt.Printf(" - value : %v\n", result.Value)
		fmt.Printf(" - shares: %d\n", result.SharesUsed)
	}
}
