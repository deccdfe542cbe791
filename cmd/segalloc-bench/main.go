package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/memlab/segalloc/allocator"
	"github.com/memlab/segalloc/heap"
	"github.com/memlab/segalloc/trace"
)

func main() {
	var (
		tracePath string
		numOps    int
		maxSize   int
		seed      int64
		limit     uint64
		useMmap   bool
		check     bool
	)
	flag.StringVar(&tracePath, "trace", "", "trace file to replay (JSON); empty generates a workload")
	flag.IntVar(&numOps, "ops", 100000, "operations in the generated workload")
	flag.IntVar(&maxSize, "max-size", 4096, "max allocation size in the generated workload")
	flag.Int64Var(&seed, "seed", 1, "workload generator seed")
	flag.Uint64Var(&limit, "heap", 1<<30, "heap region capacity in bytes")
	flag.BoolVar(&useMmap, "mmap", false, "back the region with an anonymous mmap")
	flag.BoolVar(&check, "check", false, "run the consistency checker after every operation")
	flag.Parse()

	if err := run(tracePath, numOps, maxSize, seed, limit, useMmap, check); err != nil {
		fmt.Fprintln(os.Stderr, "segalloc-bench:", err)
		os.Exit(1)
	}
}

func run(
	tracePath string, numOps int, maxSize int, seed int64,
	limit uint64, useMmap bool, check bool,
) error {
	var tr *trace.Trace
	if tracePath != "" {
		data, err := os.ReadFile(tracePath)
		if err != nil {
			return err
		}
		tr, err = trace.Decode(data)
		if err != nil {
			return err
		}
	} else {
		tr = trace.Generate("generated", numOps, maxSize, seed)
	}

	var provider allocator.Provider
	if useMmap {
		region, err := heap.NewMapRegion(limit)
		if err != nil {
			return err
		}
		defer region.Close()
		provider = region
	} else {
		provider = heap.NewRegion(limit)
	}

	a, err := allocator.New(provider)
	if err != nil {
		return err
	}

	result, err := trace.NewReplayer(a, check).Run(tr)
	if err != nil {
		return err
	}

	fmt.Printf("trace:       %s (%d ops)\n", tr.Name, len(tr.Ops))
	fmt.Printf("allocs:      %d\n", result.Allocs)
	fmt.Printf("frees:       %d\n", result.Frees)
	fmt.Printf("reallocs:    %d\n", result.Reallocs)
	fmt.Printf("failed:      %d\n", result.Failed)
	fmt.Printf("peak live:   %d bytes\n", result.PeakLive)
	fmt.Printf("heap size:   %d bytes\n", result.HeapSize)
	fmt.Printf("utilization: %.2f%%\n", result.Utilization()*100)
	return nil
}
