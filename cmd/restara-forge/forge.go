/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"restara/internal/catalog"
	"restara/internal/codec"
	"restara/pkg/audioengine"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/sync/errgroup"
)

const (
	peakLevel = 0.8
	loopFade  = 500 * time.Millisecond
)

type forgeOptions struct {
	dir      string
	length   time.Duration
	rate     int
	workers  int
	seed     int64
	progress *Progress
}

type forgeResult struct {
	id   string
	path string
	err  error
}

// seedFor gives every track its own reproducible noise.
func seedFor(base int64, id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return base ^ int64(h.Sum64())
}

// forgeTrack renders one loop and writes it as 16-bit stereo WAV.
func forgeTrack(id string, r codec.Recipe, opts forgeOptions) (string, error) {
	rng := rand.New(rand.NewSource(seedFor(opts.seed, id)))
	samples, err := codec.Render(r, opts.rate, opts.length+loopFade, rng)
	if err != nil {
		return "", fmt.Errorf("%s: %w", id, err)
	}
	samples = codec.Loopable(samples, int(loopFade.Seconds()*float64(opts.rate)))
	audioengine.NormalizePeak(samples, peakLevel)

	mono := audioengine.ToPCM16(samples)
	data := make([]int, 2*len(mono))
	for i, v := range mono {
		data[2*i], data[2*i+1] = v, v
	}

	path := filepath.Join(opts.dir, id+".wav")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, opts.rate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: opts.rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return "", fmt.Errorf("%s: encode: %w", id, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("%s: finalize: %w", id, err)
	}
	return path, nil
}

// forgeCatalog renders every track of cat that has a recipe, using a
// bounded worker pool, then writes catalog.json next to the assets.
func forgeCatalog(cat *catalog.Catalog, opts forgeOptions) ([]forgeResult, error) {
	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return nil, err
	}
	if opts.workers < 1 {
		opts.workers = 1
	}

	ids := cat.IDs()
	results := make([]forgeResult, len(ids))

	var g errgroup.Group
	g.SetLimit(opts.workers)
	for i, id := range ids {
		g.Go(func() error {
			res := forgeResult{id: id}
			if r, ok := codec.Recipes[id]; ok {
				res.path, res.err = forgeTrack(id, r, opts)
			} else {
				res.err = fmt.Errorf("%s: no recipe", id)
			}
			results[i] = res
			if opts.progress != nil {
				opts.progress.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	if err := cat.Save(filepath.Join(opts.dir, "catalog.json")); err != nil {
		return results, fmt.Errorf("write catalog: %w", err)
	}
	return results, nil
}
