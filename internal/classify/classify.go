package classify

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedragon/go-photosort/internal/models"

	_ "golang.org/x/image/tiff"
	_ "image/jpeg"
	_ "image/png"
)

// ErrUndecodable marks files whose bytes cannot be parsed as a supported
// raster format. Callers treat it as "unanalyzed", not as a failure.
var ErrUndecodable = errors.New("image cannot be decoded")

// Camera sensor dumps that image.Decode will never parse.
var rawTypes = map[string]bool{
	".nef": true,
	".cr2": true,
	".arw": true,
	".raw": true,
	".dng": true,
	".orf": true,
}

// IsRaw reports whether path has a RAW camera extension.
func IsRaw(path string) bool {
	return rawTypes[strings.ToLower(filepath.Ext(path))]
}

// Decode reads the file at path into pixel data. It returns an error wrapping
// ErrUndecodable for RAW formats, malformed bytes and empty images; any other
// error means the file itself could not be read.
func Decode(path string) (image.Image, error) {
	if IsRaw(path) {
		return nil, fmt.Errorf("%v: raw format: %w", path, ErrUndecodable)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%v: %v: %w", path, err, ErrUndecodable)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%v: empty image: %w", path, ErrUndecodable)
	}

	return img, nil
}

// Classifier decides whether a photo is sharp or blurry. A single variance
// threshold works for generic photos but flags macro/bouquet shots as blurry,
// since their shallow focus depresses edge variance on purpose; when the
// colors say flowers, the relaxed threshold applies instead.
type Classifier struct {
	BaseThreshold    float64
	BouquetThreshold float64
	BouquetFraction  float64
}

// Classify returns the verdict for the decoded image, along with the measured
// Laplacian variance for logging.
func (c *Classifier) Classify(img image.Image) (models.Verdict, float64) {
	if img == nil {
		return models.Unanalyzed, 0
	}

	variance := laplacianVariance(grayscale(img))
	if variance >= c.BaseThreshold {
		return models.Sharp, variance
	}

	if floralRatio(img) >= c.BouquetFraction && variance >= c.BouquetThreshold {
		return models.Sharp, variance
	}

	return models.Blurry, variance
}

func grayscale(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}

	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	return gray
}

// laplacianVariance measures focus as the variance of a 3x3 Laplacian
// convolution over the interior pixels. Flat or defocused images score near
// zero; strong edges score in the hundreds and above.
func laplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	if bounds.Dx() < 3 || bounds.Dy() < 3 {
		return 0
	}

	responses := make([]float64, 0, (bounds.Dx()-2)*(bounds.Dy()-2))
	var sum float64
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			r := float64(gray.GrayAt(x, y-1).Y) +
				float64(gray.GrayAt(x, y+1).Y) +
				float64(gray.GrayAt(x-1, y).Y) +
				float64(gray.GrayAt(x+1, y).Y) -
				4*float64(gray.GrayAt(x, y).Y)

			responses = append(responses, r)
			sum += r
		}
	}

	mean := sum / float64(len(responses))
	var variance float64
	for _, r := range responses {
		variance += (r - mean) * (r - mean)
	}

	return variance / float64(len(responses))
}

type hsvRange struct {
	hueMin, hueMax float64 // degrees
	satMin, satMax float64
	valMin, valMax float64
}

// Common flower colors: red (both ends of the hue wheel), pink/purple,
// yellow, and white (barely saturated, bright).
var floralRanges = []hsvRange{
	{0, 20, 0.39, 1, 0.39, 1},
	{320, 360, 0.39, 1, 0.39, 1},
	{250, 310, 0.20, 1, 0.39, 1},
	{40, 80, 0.39, 1, 0.39, 1},
	{0, 360, 0, 0.12, 0.78, 1},
}

// floralRatio is the proportion of pixels falling into any of the floral
// color ranges, a cheap proxy for "this is probably a bouquet close-up".
func floralRatio(img image.Image) float64 {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	var floral int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hue, sat, val := toHSV(img.At(x, y))
			for _, r := range floralRanges {
				if hue >= r.hueMin && hue <= r.hueMax &&
					sat >= r.satMin && sat <= r.satMax &&
					val >= r.valMin && val <= r.valMax {
					floral++
					break
				}
			}
		}
	}

	return float64(floral) / float64(total)
}

// toHSV returns hue in degrees [0, 360) and saturation/value in [0, 1].
func toHSV(c color.Color) (hue, sat, val float64) {
	r16, g16, b16, _ := c.RGBA()
	r := float64(r16) / 65535
	g := float64(g16) / 65535
	b := float64(b16) / 65535

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	val = max

	delta := max - min
	if max > 0 {
		sat = delta / max
	}
	if delta == 0 {
		return 0, sat, val
	}

	switch max {
	case r:
		hue = 60 * math.Mod((g-b)/delta, 6)
	case g:
		hue = 60 * ((b-r)/delta + 2)
	default:
		hue = 60 * ((r-g)/delta + 4)
	}
	if hue < 0 {
		hue += 360
	}

	return hue, sat, val
}
