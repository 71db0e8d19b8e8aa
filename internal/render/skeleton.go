package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/sixseven/internal/detector"
)

var (
	boneColor  = color.RGBA{R: 0, G: 255, B: 0}
	jointColor = color.RGBA{R: 255, G: 0, B: 0}
	wristColor = color.RGBA{R: 255, G: 230, B: 0}
)

// Skeleton draws each hand's bones and joints.
func Skeleton(frame *gocv.Mat, hands []detector.HandLandmarks) {
	if frame.Empty() {
		return
	}
	size := image.Pt(frame.Cols(), frame.Rows())

	for i := range hands {
		pts := handPixels(&hands[i], size)

		for _, c := range detector.Connections {
			gocv.Line(frame, pts[c[0]], pts[c[1]], boneColor, 2)
		}
		for j, p := range pts {
			if j == detector.Wrist {
				gocv.Circle(frame, p, 7, wristColor, -1)
				continue
			}
			gocv.Circle(frame, p, 3, jointColor, -1)
		}
	}
}

// handPixels converts normalized landmarks to pixel positions.
func handPixels(h *detector.HandLandmarks, size image.Point) [detector.NumLandmarks]image.Point {
	var pts [detector.NumLandmarks]image.Point
	for i, p := range h.Points {
		pts[i] = image.Pt(int(p.X*float64(size.X)), int(p.Y*float64(size.Y)))
	}
	return pts
}
