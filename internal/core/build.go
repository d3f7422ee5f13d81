package core

import (
	"time"

	"github.com/orrn/batchfarm/internal/config"
)

// NewFarmFromConfig builds a farm with one machine per configured entry, each
// with its first batch open at start.
func NewFarmFromConfig(cfg config.FarmConfig, start time.Time) (*Farm, error) {
	policy, err := PolicyByName(cfg.Placement)
	if err != nil {
		return nil, err
	}

	farm := NewFarm(policy)
	for _, mc := range cfg.Machines {
		capacity := Dimensions{X: mc.Capacity.X, Y: mc.Capacity.Y, Z: mc.Capacity.Z}
		farm.AddMachine(NewMachine(mc.Name, capacity, start).WithConfig(mc.Config))
	}
	return farm, nil
}
