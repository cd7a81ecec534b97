// Package report writes a YAML summary of edge-detection runs.
package report

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"gopkg.in/yaml.v3"
)

// Run records one processed image.
type Run struct {
	Input     string  `yaml:"input"`
	Output    string  `yaml:"output,omitempty"`
	Backend   string  `yaml:"backend"`
	Width     int     `yaml:"width,omitempty"`
	Height    int     `yaml:"height,omitempty"`
	ElapsedMS float64 `yaml:"elapsed_ms"`
	Error     string  `yaml:"error,omitempty"`
}

// Host describes the machine the runs were timed on.
type Host struct {
	OS       string `yaml:"os"`
	Arch     string `yaml:"arch"`
	CPUModel string `yaml:"cpu_model,omitempty"`
	CPUs     int    `yaml:"logical_cpus"`
}

// Report is the document written by Write.
type Report struct {
	Version   string    `yaml:"version"`
	Generated time.Time `yaml:"generated"`
	Host      Host      `yaml:"host"`
	Runs      []Run     `yaml:"runs"`
}

// New builds a report for runs and fills in host details. CPU information
// that cannot be read is left empty.
func New(version string, runs []Run) *Report {
	return &Report{
		Version:   version,
		Generated: time.Now().UTC().Truncate(time.Second),
		Host:      hostInfo(),
		Runs:      runs,
	}
}

func hostInfo() Host {
	h := Host{OS: runtime.GOOS, Arch: runtime.GOARCH, CPUs: runtime.NumCPU()}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		h.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		h.CPUs = n
	}
	return h
}

// Failed returns how many runs recorded an error.
func (r *Report) Failed() int {
	n := 0
	for _, run := range r.Runs {
		if run.Error != "" {
			n++
		}
	}
	return n
}

// Write encodes the report as YAML.
func (r *Report) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
