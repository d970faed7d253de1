package transform

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"

	"moodshift/internal/imagestore"
)

// Metadata carries whatever context the source image offers for prompt
// synthesis. Zero-valued fields mean the image had nothing to say.
type Metadata struct {
	Description string
	CapturedAt  time.Time
	CameraMake  string
	CameraModel string
	Latitude    float64
	Longitude   float64
	HasGPS      bool
}

// ExtractMetadata pulls EXIF fields out of the image and merges in the
// sidecar description, if the image came through the upload path. Images
// without usable EXIF (PNGs, stripped JPEGs) yield empty metadata, not an
// error: the synthesis prompt degrades gracefully.
func ExtractMetadata(imagePath string) (Metadata, error) {
	var meta Metadata

	if sc, err := imagestore.ReadSidecar(imagePath); err == nil && sc != nil {
		meta.Description = sc.Description
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return meta, fmt.Errorf("transform: open image: %w", err)
	}
	defer f.Close()

	exif, err := imagemeta.Decode(f)
	if err != nil {
		return meta, nil
	}

	gps := exif.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		// imagemeta converts the EXIF degree/minute/second rationals to
		// signed decimal degrees, negative for south and west.
		meta.Latitude = gps.Latitude()
		meta.Longitude = gps.Longitude()
		meta.HasGPS = true
	}

	switch {
	case !exif.DateTimeOriginal().IsZero():
		meta.CapturedAt = exif.DateTimeOriginal()
	case !exif.CreateDate().IsZero():
		meta.CapturedAt = exif.CreateDate()
	case !exif.ModifyDate().IsZero():
		meta.CapturedAt = exif.ModifyDate()
	}

	meta.CameraMake = strings.TrimSpace(exif.Make)
	meta.CameraModel = strings.TrimSpace(exif.Model)

	return meta, nil
}

// contextBlock renders the metadata fields that are present, one per line.
// Absent fields are omitted entirely rather than rendered as placeholders.
func (m Metadata) contextBlock() string {
	var parts []string

	if m.Description != "" {
		parts = append(parts, "Description: "+m.Description)
	}
	if m.HasGPS {
		parts = append(parts, fmt.Sprintf("GPS Coordinates: %.6f, %.6f", m.Latitude, m.Longitude))
	}
	if !m.CapturedAt.IsZero() {
		parts = append(parts, "Date/Time: "+m.CapturedAt.Format("2006-01-02 15:04:05"))
	}
	if camera := strings.TrimSpace(m.CameraMake + " " + m.CameraModel); camera != "" {
		parts = append(parts, "Camera: "+camera)
	}

	if len(parts) == 0 {
		return "No metadata available"
	}
	return strings.Join(parts, "\n")
}
