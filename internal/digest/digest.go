/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package digest fingerprints asset files and their decoded audio.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/crypto/blake2b"
)

const samplePrefix = "RSTA-V1-"

// File returns the hex BLAKE2b-256 of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Reader(f)
}

func Reader(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Samples fingerprints decoded audio quantized to 16 bits, so the same
// sound in two containers hashes the same.
func Samples(samples []float64) string {
	h, _ := blake2b.New256(nil)
	var b [2]byte
	for _, v := range samples {
		q := int16(math.Round(math.Max(-1, math.Min(1, v)) * 32767))
		binary.LittleEndian.PutUint16(b[:], uint16(q))
		h.Write(b[:])
	}
	return fmt.Sprintf("%s%x", samplePrefix, h.Sum(nil)[:12])
}
