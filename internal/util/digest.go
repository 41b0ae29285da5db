package util

import (
	"github.com/influxdata/tdigest"
)

// VelocityDigest maintains a t-digest of observed velocities along with the
// fastest velocity seen. Velocities are signed, so the fastest leftward
// movement is the most negative value added.
//
// This type is not concurrency safe.
type VelocityDigest struct {
	Fastest float64
	Size    uint
	*tdigest.TDigest
}

func NewVelocityDigest() *VelocityDigest {
	return &VelocityDigest{TDigest: tdigest.NewWithCompression(100)}
}

// Add records a velocity.
func (d *VelocityDigest) Add(velocity float64) {
	d.TDigest.Add(velocity, 1)
	d.Fastest = min(d.Fastest, velocity)
	d.Size++
}

// Reset clears all recorded velocities.
func (d *VelocityDigest) Reset() {
	d.TDigest.Reset()
	d.Fastest = 0
	d.Size = 0
}
