package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/sixseven/internal/gesture"
	"github.com/ayusman/sixseven/internal/motion"
)

// Status is the text shown in the HUD.
type Status struct {
	State     gesture.State
	Hands     int
	Bounces   int
	Threshold int
	Direction motion.Direction
	Velocity  float64
	Music     bool
}

// Lines formats the status for display.
func (s Status) Lines() []string {
	title := "67?"
	switch s.State {
	case gesture.Active:
		title = "6 7 !!"
	case gesture.Hype:
		title = "6 7 6 7 6 7 !!!"
	case gesture.Resetting:
		title = "..."
	}

	music := "off"
	if s.Music {
		music = "on"
	}

	return []string{
		title,
		fmt.Sprintf("state: %s", s.State),
		fmt.Sprintf("hands: %d  bounces: %d/%d", s.Hands, s.Bounces, s.Threshold),
		fmt.Sprintf("dir: %s  dy: %+.1f", s.Direction, s.Velocity),
		fmt.Sprintf("music: %s  [m] toggle  [q] quit", music),
	}
}

const (
	hudFont      = gocv.FontHersheySimplex
	hudScale     = 0.55
	hudThickness = 1
	hudPadding   = 8
	hudLineGap   = 6
)

var (
	hudText       = color.RGBA{R: 255, G: 255, B: 255}
	hudTitle      = color.RGBA{R: 255, G: 230, B: 0}
	hudBackground = color.RGBA{R: 0, G: 0, B: 0}
)

// HUD draws lines in a dark box at the top-left corner. The first line is
// the title.
func HUD(frame *gocv.Mat, lines []string) {
	if len(lines) == 0 || frame.Empty() {
		return
	}

	width, lineHeight := 0, 0
	for _, line := range lines {
		size := gocv.GetTextSize(line, hudFont, hudScale, hudThickness)
		width = max(width, size.X)
		lineHeight = max(lineHeight, size.Y)
	}

	box := image.Rect(0, 0, width+2*hudPadding, len(lines)*(lineHeight+hudLineGap)+2*hudPadding)
	box = box.Intersect(bounds(frame))
	if box.Empty() {
		return
	}

	// Darken rather than cover
	roi := frame.Region(box)
	gocv.AddWeighted(roi, 0.4, roi, 0, 0, &roi)
	roi.Close()
	gocv.Rectangle(frame, box, hudBackground, 1)

	y := hudPadding
	for i, line := range lines {
		y += lineHeight
		c := hudText
		if i == 0 {
			c = hudTitle
		}
		gocv.PutText(frame, line, image.Pt(hudPadding, y), hudFont, hudScale, c, hudThickness)
		y += hudLineGap
	}
}
