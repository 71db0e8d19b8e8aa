package render

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/sixseven/internal/popup"
)

// Sprite is a popup image ready for compositing.
type Sprite struct {
	Image gocv.Mat // BGR
	Mask  gocv.Mat // alpha, nonzero where opaque
}

// Sprites holds one Sprite per popup asset, indexed like the assets.
type Sprites struct {
	items []Sprite
}

// NewSprites converts decoded assets into Mats.
func NewSprites(assets []popup.Asset) (*Sprites, error) {
	s := &Sprites{items: make([]Sprite, 0, len(assets))}

	for _, a := range assets {
		sprite, err := newSprite(a.Image)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("convert %s: %w", a.Name, err)
		}
		s.items = append(s.items, sprite)
	}

	return s, nil
}

func newSprite(img image.Image) (Sprite, error) {
	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return Sprite{}, err
	}

	rgba, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		bgr.Close()
		return Sprite{}, err
	}
	defer rgba.Close()

	channels := gocv.Split(rgba)
	for _, c := range channels[:3] {
		c.Close()
	}

	return Sprite{Image: bgr, Mask: channels[3]}, nil
}

// Len returns the number of sprites.
func (s *Sprites) Len() int {
	return len(s.items)
}

// At returns the sprite for asset index i.
func (s *Sprites) At(i int) (*Sprite, bool) {
	if i < 0 || i >= len(s.items) {
		return nil, false
	}
	return &s.items[i], true
}

// Close releases every Mat.
func (s *Sprites) Close() error {
	for i := range s.items {
		s.items[i].Image.Close()
		s.items[i].Mask.Close()
	}
	s.items = nil
	return nil
}

// clip returns the part of dst covered by a sprite placed at at, and the
// matching rectangle inside the sprite.
func clip(dst image.Rectangle, at image.Rectangle) (image.Rectangle, image.Rectangle, bool) {
	visible := at.Intersect(dst)
	if visible.Empty() {
		return image.Rectangle{}, image.Rectangle{}, false
	}
	return visible, visible.Sub(at.Min), true
}

// Composite draws the popups onto frame, clipped to its edges.
func Composite(frame *gocv.Mat, sprites *Sprites, popups []popup.Instance) {
	if frame.Empty() {
		return
	}
	fb := bounds(frame)

	for _, in := range popups {
		sprite, ok := sprites.At(in.Asset)
		if !ok {
			continue
		}

		dstRect, srcRect, ok := clip(fb, in.Rect())
		if !ok {
			continue
		}

		dst := frame.Region(dstRect)
		src := sprite.Image.Region(srcRect)
		mask := sprite.Mask.Region(srcRect)
		src.CopyToWithMask(&dst, mask)
		mask.Close()
		src.Close()
		dst.Close()
	}
}

// PopupWindows shows each popup slot in its own desktop window.
type PopupWindows struct {
	prefix  string
	windows map[int]*gocv.Window
	assets  map[int]int
}

// NewPopupWindows creates an empty window set. Window titles start with prefix.
func NewPopupWindows(prefix string) *PopupWindows {
	return &PopupWindows{
		prefix:  prefix,
		windows: make(map[int]*gocv.Window),
		assets:  make(map[int]int),
	}
}

// Show opens, moves and closes windows so that exactly the live popups are
// on screen.
func (w *PopupWindows) Show(sprites *Sprites, popups []popup.Instance) {
	live := make(map[int]bool, len(popups))

	for _, in := range popups {
		sprite, ok := sprites.At(in.Asset)
		if !ok {
			continue
		}
		live[in.Slot] = true

		win, ok := w.windows[in.Slot]
		if !ok {
			win = gocv.NewWindow(fmt.Sprintf("%s #%d", w.prefix, in.Slot+1))
			w.windows[in.Slot] = win
			w.assets[in.Slot] = -1
		}
		if w.assets[in.Slot] != in.Asset {
			win.IMShow(sprite.Image)
			w.assets[in.Slot] = in.Asset
		}
		win.MoveWindow(int(in.Pos.X), int(in.Pos.Y))
	}

	for slot, win := range w.windows {
		if !live[slot] {
			win.Close()
			delete(w.windows, slot)
			delete(w.assets, slot)
		}
	}
}

// Open returns the number of open windows.
func (w *PopupWindows) Open() int {
	return len(w.windows)
}

// Close destroys every window.
func (w *PopupWindows) Close() error {
	var errs []error
	for slot, win := range w.windows {
		if err := win.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(w.windows, slot)
		delete(w.assets, slot)
	}
	return errors.Join(errs...)
}
