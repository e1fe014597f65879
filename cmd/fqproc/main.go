// Command fqproc runs a configurable read-processing pipeline over FASTQ,
// FASTA, or BAM input, as described by a JSON plan document (spec.md §6
// "External interfaces: CLI surface").
//
// Usage: fqproc -plan plan.json
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/relion-bio/fqproc/engine"
)

var planFlag = flag.String("plan", "", "path to the plan JSON document")

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	flag.Usage = func() {
		os.Stderr.WriteString(`Usage: fqproc -plan plan.json

Runs the pipeline described by plan.json (input segments, ordered steps,
output sinks) to completion and prints every step's Finalize report as
JSON on stdout.
`)
		flag.PrintDefaults()
	}
	shutdown := grail.Init()
	defer shutdown()

	if *planFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*planFlag)
	if err != nil {
		log.Printf("reading plan: %v", err)
		os.Exit(1)
	}

	p, err := decodePlan(data)
	if err != nil {
		log.Printf("invalid plan: %v", err)
		os.Exit(1)
	}

	reports, err := engine.Run(p)
	if err != nil {
		log.Printf("pipeline failed: %v", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, r := range reports {
		if err := enc.Encode(r); err != nil {
			log.Printf("encoding report: %v", err)
			os.Exit(1)
		}
	}
}
