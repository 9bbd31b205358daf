// Command mallocreplay replays a script of allocation operations against a fresh allocator and
// reports the state of its heap afterwards.
package main

import (
	"fmt"
	"os"

	"github.com/chattrj3/brkalloc/malloc"
	"github.com/chattrj3/brkalloc/memutils/heap"
	"github.com/docopt/docopt-go"
	"github.com/dustin/go-humanize"
	"golang.org/x/exp/slog"
)

const usage = `Allocation Replayer.
Usage:
  mallocreplay -h | --help
  mallocreplay [--heap=SIZE] [--arena] [--map] [--release] [--verbose] <script>
Options:
  -h --help      Show this screen.
  --heap=SIZE    Maximum size of the heap [default: 64MiB].
  --arena        Back the heap with a Go byte slice instead of a memory mapping.
  --map          Include every block and the free list in the statistics.
  --release      Free every allocation still live at the end of the script.
  --verbose      Log allocator diagnostics to stderr.`

func main() {
	opts, _ := docopt.ParseDoc(usage)
	var config struct {
		Heap    string
		Arena   bool
		Map     bool
		Release bool
		Verbose bool
		Script  string
	}
	err := opts.Bind(&config)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	level := slog.LevelWarn
	if config.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	err = run(logger, config.Script, config.Heap, config.Arena, config.Map, config.Release)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, scriptPath, heapSize string, arena, detailedMap, release bool) error {
	reservation, err := parseSize(heapSize)
	if err != nil {
		return err
	}
	heapOptions := heap.Options{Reservation: reservation}

	var extender heap.Extender
	if arena {
		extender, err = heap.NewArena(heapOptions)
	} else {
		extender, err = heap.New(heapOptions)
	}
	if err != nil {
		return err
	}

	allocator, err := malloc.New(logger, extender, malloc.CreateOptions{
		Flags: malloc.AllocatorCreateOwnsExtender,
	})
	if err != nil {
		return err
	}

	script, err := os.Open(scriptPath)
	if err != nil {
		return err
	}
	defer script.Close()

	replayer := NewReplayer(logger, allocator)
	err = replayer.Replay(script)
	if err != nil {
		return err
	}

	if release {
		err = replayer.ReleaseAll()
		if err != nil {
			return err
		}
	}

	err = allocator.Validate()
	if err != nil {
		return err
	}

	stats, err := allocator.BuildStatsString(detailedMap)
	if err != nil {
		return err
	}
	fmt.Println(stats)

	summary, err := allocator.CalculateStatistics()
	if err != nil {
		return err
	}
	fmt.Printf("%d operations, %d failed, %d live allocations holding %s in %s of heap\n",
		replayer.Operations, replayer.Failures, summary.AllocationCount,
		humanize.IBytes(uint64(summary.AllocationBytes)),
		humanize.IBytes(uint64(summary.BlockBytes+summary.HeaderBytes)))

	if replayer.Live() == 0 {
		return allocator.Destroy()
	}
	return nil
}
