package source

import (
	"fmt"
	"strconv"

	"github.com/NKI-AI/openslide-go/openslide"
	log "github.com/sirupsen/logrus"
)

const (
	propMppX = "openslide.mpp-x"
	propMppY = "openslide.mpp-y"
)

// Geometry Dimensions and spacing of an image file
type Geometry struct {
	Vendor string
	Dim    []int
	Pixdim []float64
}

// Probe Read the geometry of the image at path with OpenSlide.
// Spacing is in micrometers and defaults to 1 when the file does not record it.
func Probe(path string) (Geometry, error) {
	vendor, err := openslide.DetectVendor(path)
	if err != nil {
		return Geometry{}, fmt.Errorf("cannot detect vendor for %s: %w", path, err)
	}

	slide, err := openslide.Open(path)
	if err != nil {
		return Geometry{}, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer slide.Close()

	dims := slide.LevelDimensions(0)
	geometry := Geometry{
		Vendor: vendor,
		Dim:    []int{int(dims[0]), int(dims[1]), 1},
		Pixdim: []float64{
			parseSpacing(slide.PropertyValue(propMppX)),
			parseSpacing(slide.PropertyValue(propMppY)),
			1,
		},
	}
	log.Info(fmt.Sprintf("Probed %s with vendor %s: dim %v pixdim %v", path, vendor, geometry.Dim, geometry.Pixdim))
	return geometry, nil
}

func parseSpacing(value string) float64 {
	if value == "" {
		return 1
	}
	spacing, err := strconv.ParseFloat(value, 64)
	if err != nil || spacing <= 0 {
		return 1
	}
	return spacing
}
