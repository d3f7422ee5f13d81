package handlers

import (
	"time"

	"github.com/orrn/batchfarm/internal/core"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type DimensionsResponse struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
	Z uint32 `json:"z"`
}

type FamilyResponse struct {
	Name   string            `json:"name"`
	Config map[string]string `json:"config"`
}

type JobResponse struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Dims            DimensionsResponse `json:"dims"`
	DueDate         time.Time          `json:"due_date"`
	PrintDurationMs int64              `json:"print_duration_ms"`
	Family          FamilyResponse     `json:"family"`
}

type BatchResponse struct {
	Index           int                `json:"index"`
	Family          *FamilyResponse    `json:"family,omitempty"`
	StartTime       time.Time          `json:"start_time"`
	PrintDurationMs int64              `json:"print_duration_ms"`
	EstCompletion   time.Time          `json:"est_completion"`
	Capacity        DimensionsResponse `json:"capacity"`
	Used            DimensionsResponse `json:"used"`
	Jobs            []JobResponse      `json:"jobs"`
}

type MachineResponse struct {
	Index     int                `json:"index"`
	Name      string             `json:"name"`
	Running   bool               `json:"running"`
	Capacity  DimensionsResponse `json:"capacity"`
	Config    map[string]string  `json:"config"`
	Available time.Time          `json:"available"`
	Batches   []BatchResponse    `json:"batches"`
}

type FarmResponse struct {
	Policy   string            `json:"policy"`
	Machines []MachineResponse `json:"machines"`
}

type JobStatusResponse struct {
	JobID         string    `json:"job_id"`
	Name          string    `json:"name"`
	Machine       int       `json:"machine"`
	MachineName   string    `json:"machine_name"`
	Batch         int       `json:"batch"`
	StartTime     time.Time `json:"start_time"`
	EstCompletion time.Time `json:"est_completion"`
	DueDate       time.Time `json:"due_date"`
	Late          bool      `json:"late"`
}

func dimsToResponse(d core.Dimensions) DimensionsResponse {
	return DimensionsResponse{X: d.X, Y: d.Y, Z: d.Z}
}

func familyToResponse(f core.JobFamily) FamilyResponse {
	cfg := f.Config
	if cfg == nil {
		cfg = map[string]string{}
	}
	return FamilyResponse{Name: f.Name, Config: cfg}
}

func farmToResponse(s core.FarmSnapshot) FarmResponse {
	resp := FarmResponse{
		Policy:   s.Policy,
		Machines: make([]MachineResponse, 0, len(s.Machines)),
	}
	for _, m := range s.Machines {
		resp.Machines = append(resp.Machines, machineToResponse(m))
	}
	return resp
}

func machineToResponse(m core.MachineSnapshot) MachineResponse {
	resp := MachineResponse{
		Index:     m.Index,
		Name:      m.Name,
		Running:   m.Running,
		Capacity:  dimsToResponse(m.Capacity),
		Config:    m.Config,
		Available: m.Available,
		Batches:   make([]BatchResponse, 0, len(m.Batches)),
	}
	if resp.Config == nil {
		resp.Config = map[string]string{}
	}

	for _, b := range m.Batches {
		br := BatchResponse{
			Index:           b.Index,
			StartTime:       b.StartTime,
			PrintDurationMs: b.PrintDuration.Milliseconds(),
			EstCompletion:   b.EstCompletion,
			Capacity:        dimsToResponse(b.Capacity),
			Used:            dimsToResponse(b.Used),
			Jobs:            make([]JobResponse, 0, len(b.Jobs)),
		}
		if b.Family != nil {
			f := familyToResponse(*b.Family)
			br.Family = &f
		}
		for _, j := range b.Jobs {
			br.Jobs = append(br.Jobs, JobResponse{
				ID:              j.ID,
				Name:            j.Name,
				Dims:            dimsToResponse(j.Dims),
				DueDate:         j.DueDate,
				PrintDurationMs: j.PrintDuration.Milliseconds(),
				Family:          familyToResponse(j.Family),
			})
		}
		resp.Batches = append(resp.Batches, br)
	}
	return resp
}
