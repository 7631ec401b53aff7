package core

// metricsWindow is the number of frames averaged for the frame time.
const metricsWindow = 30

// FrameMetrics tracks the average frame time over the last metricsWindow
// frames and the frames rendered in the last full second.
type FrameMetrics struct {
	samples   [metricsWindow]float64
	next      int
	averageMS float64

	accumulatedMS  float64
	framesInSecond int
	fps            float64

	total uint64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{}
}

// Record adds a frame that took frameSeconds.
func (m *FrameMetrics) Record(frameSeconds float64) {
	frameMS := frameSeconds * 1000.0
	m.samples[m.next] = frameMS
	m.next = (m.next + 1) % metricsWindow
	if m.next == 0 {
		sum := 0.0
		for _, s := range m.samples {
			sum += s
		}
		m.averageMS = sum / metricsWindow
	}

	m.framesInSecond++
	m.accumulatedMS += frameMS
	if m.accumulatedMS >= 1000 {
		m.fps = float64(m.framesInSecond)
		m.accumulatedMS -= 1000
		m.framesInSecond = 0
	}
	m.total++
}

// FPS is the frame count of the last completed second.
func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

// AverageFrameMS is refreshed every metricsWindow frames.
func (m *FrameMetrics) AverageFrameMS() float64 {
	return m.averageMS
}

func (m *FrameMetrics) TotalFrames() uint64 {
	return m.total
}
