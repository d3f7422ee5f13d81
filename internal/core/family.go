package core

import "maps"

// JobFamily groups jobs that share print-process settings such as material,
// layer height and nozzle. Name is descriptive only.
type JobFamily struct {
	Name   string
	Config map[string]string
}

// NewJobFamily copies config so later changes to the caller's map do not
// leak into the family.
func NewJobFamily(name string, config map[string]string) JobFamily {
	cfg := make(map[string]string, len(config))
	maps.Copy(cfg, config)
	return JobFamily{Name: name, Config: cfg}
}

// Compatible reports whether both families carry exactly the same settings.
func (f JobFamily) Compatible(other JobFamily) bool {
	return maps.Equal(f.Config, other.Config)
}

func (f JobFamily) clone() JobFamily {
	return NewJobFamily(f.Name, f.Config)
}
