package gazeline

// kernel is a 5-tap normalized Gaussian with a sigma of about 1, centered on
// the sample being smoothed.
var kernel = [5]float64{0.0545, 0.2442, 0.4026, 0.2442, 0.0545}

// smoothRange writes the smoothed position for samples[from:]. Near either
// end of the buffer, where the full window is unavailable, the kernel is
// renormalized by the sum of the in-range weights so that a constant input
// stays constant.
func smoothRange(samples []Sample, from int) {
	for i := from; i < len(samples); i++ {
		var sx, sy, wsum float64
		for k := -2; k <= 2; k++ {
			j := i + k
			if j < 0 || j >= len(samples) {
				continue
			}
			w := kernel[k+2]
			sx += samples[j].X * w
			sy += samples[j].Y * w
			wsum += w
		}
		samples[i].GX = sx / wsum
		samples[i].GY = sy / wsum
	}
}

// velocityRange writes the velocity for samples[from:] as the finite
// difference of the smoothed position over time, in position units per
// millisecond. The first sample of a session has zero velocity by
// definition, as does any sample whose time step is not positive.
func velocityRange(samples []Sample, from int) {
	for i := from; i < len(samples); i++ {
		s := &samples[i]
		if i == 0 {
			s.VX, s.VY = 0, 0
		} else {
			prev := &samples[i-1]
			dt := float64(s.Time - prev.Time)
			if dt <= 0 {
				s.VX, s.VY = 0, 0
			} else {
				s.VX = (s.GX - prev.GX) / dt
				s.VY = (s.GY - prev.GY) / dt
			}
		}
		s.Processed = true
	}
}
