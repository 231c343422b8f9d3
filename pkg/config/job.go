// job.go — Batch stamping jobs: which stamps to load and where to place them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Job is a batch description consumed by `gostamp stamp`.
type Job struct {
	Stamps     []JobStamp     `json:"stamps"`
	Placements []JobPlacement `json:"placements"`
}

// JobStamp is a library entry loaded from disk. Path is relative to the job file.
type JobStamp struct {
	ID       string   `json:"id"`
	Path     string   `json:"path"`
	Size     *float64 `json:"size,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// JobPlacement places a stamp on a page. Size and rotation default to the
// stamp's own values.
type JobPlacement struct {
	Stamp    string   `json:"stamp"`
	Page     int      `json:"page"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Size     *float64 `json:"size,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// LoadJob reads a job file and resolves stamp paths against its directory.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job: %w", err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}

	base := filepath.Dir(path)
	for i := range job.Stamps {
		if p := job.Stamps[i].Path; p != "" && !filepath.IsAbs(p) {
			job.Stamps[i].Path = filepath.Join(base, p)
		}
	}
	return &job, nil
}

// Warnings reports job entries that will be ignored.
func (j *Job) Warnings() []string {
	var warnings []string
	ids := make(map[string]bool, len(j.Stamps))
	for i, s := range j.Stamps {
		switch {
		case s.ID == "":
			warnings = append(warnings, fmt.Sprintf("stamp #%d has no id", i+1))
		case ids[s.ID]:
			warnings = append(warnings, fmt.Sprintf("duplicate stamp id %q: later entry wins", s.ID))
		}
		if s.Path == "" {
			warnings = append(warnings, fmt.Sprintf("stamp %q has no path", s.ID))
		}
		if s.ID != "" {
			ids[s.ID] = true
		}
	}
	for i, p := range j.Placements {
		if !ids[p.Stamp] {
			warnings = append(warnings, fmt.Sprintf("placement #%d: unknown stamp %q (skipped)", i+1, p.Stamp))
		}
	}
	return warnings
}
