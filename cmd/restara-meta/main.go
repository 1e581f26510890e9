/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"restara/pkg/spec"
)

const (
	appName      = "Restara-Meta"
	generalUsage = "Usage: ./restara-meta [-json] [-waveform N] [-spectrogram out.png] <asset>..."
	dirUsage     = "Usage: ./restara-meta -dir <asset folder>"
)

func main() {
	dir := flag.String("dir", "", "probe every supported asset in a folder")
	asJSON := flag.Bool("json", false, "print reports as JSON")
	points := flag.Int("waveform", 0, "include N waveform points")
	spectro := flag.String("spectrogram", "", "write a PNG spectrogram (single asset only)")
	flag.Parse()

	paths := flag.Args()
	if *dir != "" {
		found, err := assetsIn(*dir)
		if err != nil {
			fmt.Printf("[!] %v\n", err)
			os.Exit(1)
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		fmt.Printf("\n%s %d.%d\n", appName, spec.VersionMajor, spec.VersionMinor)
		fmt.Println(generalUsage)
		fmt.Println(dirUsage)
		return
	}
	if *spectro != "" && len(paths) > 1 {
		fmt.Println("[!] -spectrogram needs exactly one asset")
		os.Exit(2)
	}

	var reports []Report
	failed := false
	for _, p := range paths {
		r, err := probe(p, *points, *spectro)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] %s: %v\n", p, err)
			failed = true
			continue
		}
		reports = append(reports, r)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(reports)
	} else {
		printReports(os.Stdout, reports)
	}
	if failed {
		os.Exit(1)
	}
}

func assetsIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".wav", ".mp3", ".opus":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func printReports(w io.Writer, reports []Report) {
	fmt.Fprintln(w, strings.Repeat("=", 86))
	fmt.Fprintf(w, " %-20s | %-4s | %-9s | %-8s | %-5s | %-5s | %-8s\n",
		"ASSET", "FMT", "DURATION", "SIZE", "RMS", "PEAK", "PITCH")
	fmt.Fprintln(w, strings.Repeat("-", 86))
	for _, r := range reports {
		fmt.Fprintf(w, " %-20s | %-4s | %9s | %8s | %.3f | %.3f | %6.0fHz\n",
			filepath.Base(r.Path), r.Format, r.Duration.Round(1e6), formatSize(r.Size),
			r.Analysis.RMS, r.Analysis.Peak, r.Analysis.DominantHz)
		fmt.Fprintf(w, "   %d Hz, %d ch  file %s\n   audio %s\n",
			r.SampleRate, r.Channels, r.FileDigest[:16], r.AudioDigest)
	}
	fmt.Fprintln(w, strings.Repeat("=", 86))
}
