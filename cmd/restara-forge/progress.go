package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Progress draws a single-line bar, redrawn in place.
type Progress struct {
	mu      sync.Mutex
	out     io.Writer
	total   int
	current int
}

func NewProgress(out io.Writer, total int) *Progress {
	return &Progress{out: out, total: total}
}

func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.draw()
}

func (p *Progress) draw() {
	const width = 30
	percent := 1.0
	if p.total > 0 {
		percent = float64(p.current) / float64(p.total)
	}
	filled := int(width * percent)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	fmt.Fprintf(p.out, "\r [FORGING] [%s] %d%% (%d/%d loops)", bar, int(percent*100), p.current, p.total)
	if p.current >= p.total {
		fmt.Fprintln(p.out)
	}
}
