/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"restara/internal/catalog"
	"restara/internal/config"
	"restara/pkg/spec"

	"github.com/chzyer/readline"
)

const appName = "Restara-Forge"

func main() {
	batch := flag.Bool("batch", false, "use defaults without prompting")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("[FAIL] config: %v\n", err)
		os.Exit(1)
	}

	opts := forgeOptions{
		dir:     cfg.AssetDir,
		length:  30 * time.Second,
		rate:    cfg.SampleRate,
		workers: runtime.NumCPU(),
		seed:    1,
	}
	if !*batch {
		if opts, err = interview(opts); err != nil {
			fmt.Printf("[FAIL] %v\n", err)
			os.Exit(1)
		}
	}

	cat := catalog.Default()
	opts.progress = NewProgress(os.Stdout, cat.Len())
	fmt.Printf("\n[START] %d loops of %s at %d Hz into %s\n", cat.Len(), opts.length, opts.rate, opts.dir)

	results, err := forgeCatalog(cat, opts)
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Printf(" [!] %v\n", r.err)
		}
	}
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
	fmt.Printf("[SUCCESS] assets and catalog.json written to %s\n", opts.dir)
}

func interview(opts forgeOptions) (forgeOptions, error) {
	rl, err := readline.NewEx(&readline.Config{Prompt: ">> "})
	if err != nil {
		return opts, err
	}
	defer rl.Close()

	fmt.Printf("\n%s version %d.%d\n", appName, spec.VersionMajor, spec.VersionMinor)

	opts.dir = ask(rl, "1. Asset folder", opts.dir)

	secs, err := strconv.Atoi(ask(rl, "2. Loop length (seconds)", strconv.Itoa(int(opts.length.Seconds()))))
	if err != nil || secs <= 0 {
		return opts, fmt.Errorf("loop length must be a positive number of seconds")
	}
	opts.length = time.Duration(secs) * time.Second

	if opts.rate, err = strconv.Atoi(ask(rl, "3. Sample rate", strconv.Itoa(opts.rate))); err != nil || opts.rate <= 0 {
		return opts, fmt.Errorf("sample rate must be a positive integer")
	}
	if opts.workers, err = strconv.Atoi(ask(rl, "4. Worker threads", strconv.Itoa(opts.workers))); err != nil {
		return opts, fmt.Errorf("worker threads must be an integer")
	}
	if opts.seed, err = strconv.ParseInt(ask(rl, "5. Noise seed", strconv.FormatInt(opts.seed, 10)), 10, 64); err != nil {
		return opts, fmt.Errorf("seed must be an integer")
	}
	return opts, nil
}

func ask(rl *readline.Instance, prompt, def string) string {
	rl.SetPrompt(fmt.Sprintf("%s [%s]: ", prompt, def))
	line, _ := rl.Readline()
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}
