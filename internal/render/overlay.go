// Package render draws the session's overlays onto camera frames with GoCV.
package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/sixseven/internal/detector"
	"github.com/ayusman/sixseven/internal/popup"
)

// flashPalette is cycled through while flashing.
var flashPalette = []color.RGBA{
	{R: 255, G: 0, B: 128},
	{R: 0, G: 255, B: 200},
	{R: 255, G: 230, B: 0},
	{R: 120, G: 60, B: 255},
	{R: 255, G: 120, B: 0},
}

// framesPerColor is how long each flash color holds.
const framesPerColor = 3

// FlashColor returns the flash color for the n-th frame.
func FlashColor(n int) color.RGBA {
	if n < 0 {
		n = -n
	}
	return flashPalette[(n/framesPerColor)%len(flashPalette)]
}

// Flash blends a solid color over frame. alpha 0 leaves the frame untouched.
func Flash(frame *gocv.Mat, alpha float64, c color.RGBA) {
	if alpha <= 0 || frame.Empty() {
		return
	}
	if alpha > 1 {
		alpha = 1
	}

	// Scalars are BGR
	fill := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0),
		frame.Rows(), frame.Cols(), frame.Type(),
	)
	defer fill.Close()

	gocv.AddWeighted(*frame, 1-alpha, fill, alpha, 0, frame)
}

// Scene is everything drawn on one frame.
type Scene struct {
	Hands   []detector.HandLandmarks
	Status  Status
	ShowHUD bool
	Flash   float64
	// FrameIndex selects the flash color.
	FrameIndex int
	// Popups are composited onto the frame unless they have their own windows.
	Popups []popup.Instance
}

// Renderer composes scenes onto frames.
type Renderer struct {
	sprites *Sprites
	windows *PopupWindows
}

// NewRenderer creates a Renderer. sprites may be nil when popups are off.
// With windows set, popups get their own desktop windows instead of being
// drawn on the frame.
func NewRenderer(sprites *Sprites, windows *PopupWindows) *Renderer {
	return &Renderer{sprites: sprites, windows: windows}
}

// Draw renders scene onto frame in place.
func (r *Renderer) Draw(frame *gocv.Mat, scene Scene) {
	Skeleton(frame, scene.Hands)
	Flash(frame, scene.Flash, FlashColor(scene.FrameIndex))

	if r.sprites != nil {
		if r.windows != nil {
			r.windows.Show(r.sprites, scene.Popups)
		} else {
			Composite(frame, r.sprites, scene.Popups)
		}
	}

	if scene.ShowHUD {
		HUD(frame, scene.Status.Lines())
	}
}

// Close destroys the popup windows. Sprites are owned by the caller.
func (r *Renderer) Close() error {
	if r.windows != nil {
		return r.windows.Close()
	}
	return nil
}

// bounds returns frame's rectangle at the origin.
func bounds(frame *gocv.Mat) image.Rectangle {
	return image.Rect(0, 0, frame.Cols(), frame.Rows())
}
