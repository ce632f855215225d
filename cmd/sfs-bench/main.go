// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sfs-bench stresses a single sabfs buffer with concurrent execution
// contexts to exercise the allocator's lock-free paths under
// contention — Scenario E (disjoint concurrent allocation) and
// Scenario F (capacity exhaustion and reclaim) at a scale a unit test
// would not bother with.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/tappress/sabfs/internal/sharedbuf"
	"github.com/tappress/sabfs/lib/version"
	"github.com/tappress/sabfs/sfs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sfs-bench: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var bufferSize int
	var workers int
	var filesPerWorker int
	var writeEach int
	var showVersion bool

	flags := pflag.NewFlagSet("sfs-bench", pflag.ContinueOnError)
	flags.IntVar(&bufferSize, "buffer-size", 256<<20, "shared buffer size in bytes")
	flags.IntVar(&workers, "workers", 8, "number of concurrent contexts")
	flags.IntVar(&filesPerWorker, "files-per-worker", 1000, "files each worker creates in its own subtree")
	flags.IntVar(&writeEach, "write-bytes", 4096, "bytes written to each created file")
	flags.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	if showVersion {
		fmt.Println(version.Info())
		return nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	region, err := sharedbuf.Acquire(bufferSize)
	if err != nil {
		return fmt.Errorf("acquiring shared buffer: %w", err)
	}
	defer region.Release()
	logger.Info("shared buffer acquired", "id", region.ID(), "size", humanize.Bytes(uint64(bufferSize)))

	fs, err := sfs.Initialize(region.Bytes(), sfs.Options{})
	if err != nil {
		return fmt.Errorf("initializing filesystem: %w", err)
	}

	if err := runScenarioE(logger, fs, workers, filesPerWorker); err != nil {
		return err
	}
	if err := runScenarioF(logger, region.Bytes(), writeEach); err != nil {
		return err
	}
	return nil
}

// runScenarioE spawns `workers` goroutines that share the one *sfs.FS
// context and each create filesPerWorker files in a disjoint subtree. It verifies that every created file has size 0
// and that no two workers ever observe the same allocated inode.
func runScenarioE(logger *slog.Logger, fs *sfs.FS, workers, filesPerWorker int) error {
	start := time.Now()

	for w := 0; w < workers; w++ {
		dir := "/w" + strconv.Itoa(w)
		if err := fs.Mkdir(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	results := make([][]uint32, workers)
	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			dir := "/w" + strconv.Itoa(w)
			inodes := make([]uint32, 0, filesPerWorker)
			for i := 0; i < filesPerWorker; i++ {
				path := dir + "/f" + strconv.Itoa(i)
				fd, err := fs.Open(path, sfs.OCREAT|sfs.OWRONLY, 0o644)
				if err != nil {
					errCh <- fmt.Errorf("worker %d open %s: %w", w, path, err)
					return
				}
				if err := fs.Close(fd); err != nil {
					errCh <- fmt.Errorf("worker %d close %s: %w", w, path, err)
					return
				}
				info, err := fs.Stat(path)
				if err != nil {
					errCh <- fmt.Errorf("worker %d stat %s: %w", w, path, err)
					return
				}
				if info.Size != 0 {
					errCh <- fmt.Errorf("worker %d: %s has size %d, want 0", w, path, info.Size)
					return
				}
				inodes = append(inodes, info.Ino)
			}
			results[w] = inodes
		}(w)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		return err
	}

	seen := make(map[uint32]int)
	for w, inodes := range results {
		for _, ino := range inodes {
			if prior, ok := seen[ino]; ok {
				return fmt.Errorf("inode %d allocated by both worker %d and worker %d", ino, prior, w)
			}
			seen[ino] = w
		}
	}

	logger.Info("scenario E passed",
		"workers", workers,
		"files_per_worker", filesPerWorker,
		"elapsed", time.Since(start),
	)
	return nil
}

// runScenarioF writes into a fresh buffer until NOSPACE, then unlinks
// the file and confirms free_blocks recovers every block the file
// took: its data blocks (FileInfo.Blocks) plus the indirect pointer
// blocks, which FileInfo.Blocks does not count.
func runScenarioF(logger *slog.Logger, buf []byte, writeEach int) error {
	fs, err := sfs.Initialize(buf, sfs.Options{})
	if err != nil {
		return fmt.Errorf("re-initializing filesystem for scenario F: %w", err)
	}

	fd, err := fs.Open("/fill", sfs.OCREAT|sfs.OWRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open /fill: %w", err)
	}
	available := fs.Statfs().FreeBlocks
	chunk := make([]byte, writeEach)
	for {
		_, werr := fs.Write(fd, chunk)
		if werr != nil {
			if !sfs.IsNoSpace(werr) {
				return fmt.Errorf("write: %w", werr)
			}
			break
		}
	}
	fs.Close(fd)

	before := fs.Statfs()
	if before.FreeBlocks != 0 {
		return fmt.Errorf("free_blocks = %d after exhaustion, want 0", before.FreeBlocks)
	}

	info, err := fs.Stat("/fill")
	if err != nil {
		return fmt.Errorf("stat /fill: %w", err)
	}
	if err := fs.Unlink("/fill"); err != nil {
		return fmt.Errorf("unlink /fill: %w", err)
	}
	after := fs.Statfs()
	if after.FreeBlocks != available {
		return fmt.Errorf("free_blocks after unlink = %d, want %d (%d data blocks plus pointer blocks)", after.FreeBlocks, available, info.Blocks)
	}

	logger.Info("scenario F passed", "reclaimed_blocks", after.FreeBlocks)
	return nil
}
