// Package popup loads the hype images and animates the popups built from them.
package popup

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/gift"
)

// ErrNoAssets is returned when the popup directory is missing or holds no usable images.
var ErrNoAssets = errors.New("no popup images")

// supportedExt lists the image extensions scanned for.
var supportedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Asset is a decoded popup image scaled to fit the popup size.
type Asset struct {
	Name  string
	Image image.Image
}

// Size returns the asset dimensions.
func (a Asset) Size() image.Point {
	return a.Image.Bounds().Size()
}

// LoadAssets scans dir for images and scales each to fit in a maxSide square.
// Files that fail to decode are skipped with a log line.
func LoadAssets(dir string, maxSide int) ([]Asset, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNoAssets, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat popup dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoAssets, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read popup dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !supportedExt[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	filter := gift.New(gift.ResizeToFit(maxSide, maxSide, gift.LanczosResampling))

	assets := make([]Asset, 0, len(names))
	for _, name := range names {
		img, err := decodeFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("[popup] skipping %s: %v", name, err)
			continue
		}

		dst := image.NewNRGBA(filter.Bounds(img.Bounds()))
		filter.Draw(dst, img)

		assets = append(assets, Asset{Name: name, Image: dst})
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoAssets, dir)
	}

	return assets, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// Sizes returns the dimensions of each asset, in order.
func Sizes(assets []Asset) []image.Point {
	sizes := make([]image.Point, len(assets))
	for i, a := range assets {
		sizes[i] = a.Size()
	}
	return sizes
}
