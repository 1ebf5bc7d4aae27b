// Command closure computes the transitive closure of a graph on a
// simulated process group and prints the closed adjacency matrix.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/unixpickle/essentials"

	"github.com/unixpickle/dist-closure/closure"
	"github.com/unixpickle/dist-closure/graphio"
	"github.com/unixpickle/dist-closure/simulator"
)

func main() {
	var path string
	var inputType string
	var dotPath string
	var procs int
	var workers int
	var syncStages bool
	flag.StringVar(&path, "file", "", "input graph file")
	flag.StringVar(&inputType, "type", "adj", "input format: adj or pairs")
	flag.IntVar(&procs, "procs", 1, "number of simulated processes")
	flag.IntVar(&workers, "workers", 0, "goroutines per process within a stage")
	flag.BoolVar(&syncStages, "sync", false,
		"broadcast each pivot row for exact multi-process results")
	flag.StringVar(&dotPath, "dot", "", "write the closed graph to a DOT file")
	flag.Parse()

	if path == "" {
		essentials.Die("missing required -file flag (see -help)")
	}
	if procs < 1 {
		essentials.Die("-procs must be at least 1")
	}

	start := time.Now()
	adj := loadMatrix(path, inputType)
	loaded := time.Now()

	fmt.Fprintf(os.Stderr, "* starting computation (n=%d, procs=%d) ...\n",
		adj.Dim(), procs)

	loop := simulator.NewEventLoop()
	network := simulator.NewLinkNetwork(1e9, 1e-4)
	nodes := make([]*simulator.Node, procs)
	for i := range nodes {
		nodes[i] = simulator.NewNode(loop)
	}

	var result *closure.Matrix
	var runErr error
	closure.SpawnProcs(loop, network, nodes, func(p *closure.Proc) {
		res, err := closure.Run(p, adj, closure.Config{
			Workers:    workers,
			SyncStages: syncStages,
		})
		if p.Rank() == closure.Coordinator {
			result = res
			runErr = err
		}
	})
	if err := loop.Run(); err != nil {
		essentials.Die("process group stalled:", err)
	}
	if runErr != nil {
		essentials.Die(runErr)
	}
	done := time.Now()

	essentials.Must(graphio.WriteMatrix(os.Stdout, result))

	if dotPath != "" {
		comps := graphio.Components(result)
		fmt.Fprintf(os.Stderr, "* %d connected components.\n", len(comps))
		out, err := os.Create(dotPath)
		essentials.Must(err)
		essentials.Must(graphio.WriteDOT(out, result, comps))
		essentials.Must(out.Close())
	}

	fmt.Fprintf(os.Stderr, "Init : %fs, Compute : %fs (network time: %fs)\n",
		loaded.Sub(start).Seconds(), done.Sub(loaded).Seconds(), loop.Time())
}

func loadMatrix(path, inputType string) *closure.Matrix {
	f, err := os.Open(path)
	essentials.Must(err)
	defer f.Close()

	var adj *closure.Matrix
	switch inputType {
	case "adj":
		adj, err = graphio.ReadAdjacency(f)
	case "pairs":
		adj, err = graphio.ReadPairs(f, "\t")
	default:
		essentials.Die("unknown input type: " + inputType)
	}
	essentials.Must(err)
	return adj
}
