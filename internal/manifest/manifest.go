// Package manifest reads job manifests: yaml files that name a set of job
// families and the jobs to admit into the farm.
package manifest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orrn/batchfarm/internal/core"
)

type Manifest struct {
	Families map[string]map[string]string `yaml:"families"`
	Jobs     []JobEntry                   `yaml:"jobs"`
}

type JobEntry struct {
	Name      string          `yaml:"name"`
	Family    string          `yaml:"family"`
	Dims      core.Dimensions `yaml:"dims"`
	DueIn     time.Duration   `yaml:"due_in"`
	PrintTime time.Duration   `yaml:"print_time"`
}

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	for i, j := range m.Jobs {
		if j.Name == "" {
			return fmt.Errorf("job %d: name is required", i)
		}
		if _, ok := m.Families[j.Family]; !ok {
			return fmt.Errorf("job %q: unknown family %q", j.Name, j.Family)
		}
		if j.Dims.IsZero() {
			return fmt.Errorf("job %q: dims are required", j.Name)
		}
		if j.PrintTime <= 0 {
			return fmt.Errorf("job %q: print_time must be positive", j.Name)
		}
		if j.DueIn < 0 {
			return fmt.Errorf("job %q: due_in must be non-negative", j.Name)
		}
	}
	return nil
}

// PrintJobs builds one job per entry, in manifest order, with due dates
// relative to now.
func (m *Manifest) PrintJobs(now time.Time) []*core.PrintJob {
	families := make(map[string]core.JobFamily, len(m.Families))
	for name, cfg := range m.Families {
		families[name] = core.NewJobFamily(name, cfg)
	}

	jobs := make([]*core.PrintJob, 0, len(m.Jobs))
	for _, j := range m.Jobs {
		jobs = append(jobs, core.NewPrintJob(j.Name, j.Dims, j.DueIn, j.PrintTime, families[j.Family], now))
	}
	return jobs
}
