package core

import "fmt"

// Dimensions is an axis-aligned bounding box in millimetres. It describes both
// the footprint of a job and the capacity of a batch.
type Dimensions struct {
	X uint32 `yaml:"x" json:"x"`
	Y uint32 `yaml:"y" json:"y"`
	Z uint32 `yaml:"z" json:"z"`
}

// Add sums d and o axis by axis.
func (d Dimensions) Add(o Dimensions) Dimensions {
	return Dimensions{X: d.X + o.X, Y: d.Y + o.Y, Z: d.Z + o.Z}
}

// Fits reports whether d fits within capacity on every axis independently.
func (d Dimensions) Fits(capacity Dimensions) bool {
	return d.X <= capacity.X && d.Y <= capacity.Y && d.Z <= capacity.Z
}

func (d Dimensions) IsZero() bool {
	return d == Dimensions{}
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}
