package storage

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// MIME allowlists. Pages are reader content and stay strict; covers also
// accept gif, matching the public upload contract.
var (
	pageMIMEs = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	}
	coverMIMEs = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
)

// DetectMIME sniffs the content type from the file bytes. The declared
// multipart header alone is client-controlled and not trusted.
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

func IsAllowedPageMIME(mime string) bool {
	return pageMIMEs[mime]
}

func IsAllowedCoverMIME(mime string) bool {
	return coverMIMEs[mime]
}

// CoverThumbnail renders a JPEG thumbnail bounded to maxSize pixels on the
// long edge. Formats imaging cannot decode (webp) return an error; the
// caller treats that as "no thumbnail", not as an upload failure.
func CoverThumbnail(data []byte, maxSize int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode cover image: %w", err)
	}

	resized := imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("cannot encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
