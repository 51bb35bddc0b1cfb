package imaging

import (
	"bytes"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// Metadata is the subset of source EXIF carried over to the thumbnail.
type Metadata struct {
	CameraMake  string
	CameraModel string
	DateTaken   time.Time
	HasGPS      bool
}

// ReadMetadata extracts EXIF from encoded image data. Formats without EXIF
// (most PNG, GIF, BMP) report ok == false; that is not an error.
func ReadMetadata(data []byte) (meta Metadata, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("EXIF parser panicked, metadata skipped")
			meta, ok = Metadata{}, false
		}
	}()

	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Msg("No EXIF metadata in source image")
		return Metadata{}, false
	}

	meta = Metadata{
		CameraMake:  strings.TrimSpace(exifData.Make),
		CameraModel: strings.TrimSpace(exifData.Model),
		HasGPS:      exifData.GPS.Latitude() != 0 || exifData.GPS.Longitude() != 0,
	}

	// DateTimeOriginal > CreateDate > ModifyDate
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		meta.DateTaken = exifData.DateTimeOriginal()
	case !exifData.CreateDate().IsZero():
		meta.DateTaken = exifData.CreateDate()
	case !exifData.ModifyDate().IsZero():
		meta.DateTaken = exifData.ModifyDate()
	}

	return meta, true
}

// UserMetadata renders m as S3 user metadata. GPS coordinates are never
// copied onto the thumbnail.
func (m Metadata) UserMetadata() map[string]string {
	out := make(map[string]string)
	if m.CameraMake != "" {
		out["camera-make"] = m.CameraMake
	}
	if m.CameraModel != "" {
		out["camera-model"] = m.CameraModel
	}
	if !m.DateTaken.IsZero() {
		out["date-taken"] = m.DateTaken.UTC().Format(time.RFC3339)
	}
	return out
}
