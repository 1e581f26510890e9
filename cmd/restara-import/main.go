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
	"path/filepath"
	"strings"
	"sync"

	"restara/pkg/audioengine"
	"restara/pkg/spec"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

const (
	appName   = "Restara-Import"
	usageText = "Usage: restara-import -sourcepath (audio folder) -destpath (asset folder) [-workers 2] [-rate 44100]"
)

func main() {
	sourcePath := flag.String("sourcepath", "", "folder with .wav, .mp3 or .opus recordings")
	destPath := flag.String("destpath", "", "asset folder to write WAV loops into")
	workers := flag.Int("workers", 2, "parallel conversions")
	rate := flag.Int("rate", spec.SampleRate, "output sample rate")
	flag.Parse()

	if *sourcePath == "" || *destPath == "" {
		fmt.Printf("%s version %d.%d\n", appName, spec.VersionMajor, spec.VersionMinor)
		fmt.Println(usageText)
		return
	}
	if err := os.MkdirAll(*destPath, 0o755); err != nil {
		fmt.Printf("[Error] %v\n", err)
		os.Exit(1)
	}

	files, err := collect(*sourcePath)
	if err != nil {
		fmt.Printf("[Error] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[Batch] %d recordings found, converting with %d workers...\n", len(files), *workers)

	failed := convertAll(files, *destPath, beep.SampleRate(*rate), *workers)
	if failed > 0 {
		fmt.Printf("\n[Done] %d of %d conversions failed.\n", failed, len(files))
		os.Exit(1)
	}
	fmt.Println("\n[Success] All conversions finished.")
}

func collect(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".wav", ".mp3", ".opus":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertAll(files []string, destDir string, rate beep.SampleRate, workers int) int {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan string, len(files))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				fmt.Printf("[Process] %s\n", filepath.Base(path))
				if err := convert(path, destDir, rate); err != nil {
					fmt.Printf("[Error] %s: %v\n", filepath.Base(path), err)
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}
		}()
	}
	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
	return failed
}

// convert decodes src, resamples it to rate and writes 16-bit stereo WAV
// named after the source file.
func convert(src, destDir string, rate beep.SampleRate) error {
	s, format, err := audioengine.Decode(src)
	if err != nil {
		return err
	}
	defer s.Close()

	var out beep.Streamer = s
	if format.SampleRate != rate {
		out = beep.Resample(4, format.SampleRate, rate, s)
	}

	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".wav"
	f, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := wav.Encode(f, out, beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}); err != nil {
		return err
	}
	return s.Err()
}
