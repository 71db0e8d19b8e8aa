package capture

import (
	"image"

	"gocv.io/x/gocv"
)

// Scene gate constants
const (
	// gateWidth is the width frames are shrunk to before differencing.
	gateWidth = 160
	// gateBlurSize is the Gaussian kernel applied after shrinking.
	gateBlurSize = 7
	// gateDiffThreshold is the per-pixel difference that counts as change.
	gateDiffThreshold = 25
)

// SceneGate reports whether the picture changed since the previous frame.
// While the toy is idle, landmark detection only runs on frames that pass
// the gate.
type SceneGate struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
}

// NewSceneGate creates a gate that opens when more than threshold percent
// of pixels changed.
func NewSceneGate(threshold float64) *SceneGate {
	return &SceneGate{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Changed compares frame with the previous one. It returns whether the
// change exceeds the threshold and the percentage of pixels that changed.
// The first frame after a reset always counts as changed.
func (g *SceneGate) Changed(frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	small := gocv.NewMat()
	defer small.Close()
	height := frame.Rows() * gateWidth / max(frame.Cols(), 1)
	gocv.Resize(*frame, &small, image.Pt(gateWidth, max(height, 1)), 0, 0, gocv.InterpolationArea)

	gray := gocv.NewMat()
	defer gray.Close()
	if small.Channels() > 1 {
		gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)
	} else {
		small.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(gateBlurSize, gateBlurSize), 0, 0, gocv.BorderDefault)

	if !g.initialized {
		gray.CopyTo(&g.prevGray)
		g.initialized = true
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, g.prevGray, &diff)
	gocv.Threshold(diff, &diff, gateDiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100.0

	gray.CopyTo(&g.prevGray)

	return changed > g.threshold, changed
}

// Reset forgets the previous frame.
func (g *SceneGate) Reset() {
	if !g.prevGray.Empty() {
		g.prevGray.Close()
		g.prevGray = gocv.NewMat()
	}
	g.initialized = false
}

// Close releases the stored frame.
func (g *SceneGate) Close() {
	g.Reset()
}
