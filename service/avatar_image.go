package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
	MIMETypeBMP  = "image/bmp"
	MIMETypeTIFF = "image/tiff"
)

var ErrImageTypeNotSupported = errors.New("image type not supported")

var (
	imageExtTypes = map[string]string{
		".jpg":  MIMETypeJPEG,
		".jpeg": MIMETypeJPEG,
		".png":  MIMETypePNG,
		".gif":  MIMETypeGIF,
		".bmp":  MIMETypeBMP,
		".tiff": MIMETypeTIFF,
		".tif":  MIMETypeTIFF,
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypePNG:  png.Decode,
		MIMETypeGIF:  gif.Decode,
		MIMETypeBMP:  bmp.Decode,
		MIMETypeTIFF: tiff.Decode,
	}

	imageEncoders = map[string]func(io.Writer, image.Image) error{
		MIMETypeJPEG: func(w io.Writer, i image.Image) error { return jpeg.Encode(w, i, &jpeg.Options{Quality: 90}) },
		MIMETypePNG:  png.Encode,
		MIMETypeGIF:  func(w io.Writer, i image.Image) error { return gif.Encode(w, i, nil) },
		MIMETypeBMP:  bmp.Encode,
		MIMETypeTIFF: func(w io.Writer, i image.Image) error { return tiff.Encode(w, i, nil) },
	}
)

// decodeImage sniffs the content type and decodes with the matching decoder.
// The file extension is not trusted.
func decodeImage(r io.ReadSeeker) (image.Image, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("detect type: %w", err)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	ctype := strings.SplitN(mtype.String(), ";", 2)[0]

	decoder, ok := imageDecoders[ctype]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrImageTypeNotSupported, ctype)
	}

	img, err := decoder(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ctype, err)
	}

	return img, nil
}

// resizeImage scales to exactly size x size. The aspect ratio is not kept.
func resizeImage(src image.Image, size int) image.Image {
	bitmap := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(bitmap, bitmap.Bounds(), src, src.Bounds(), draw.Over, nil)

	return bitmap
}

// encodeImage encodes in the format named by the file extension.
func encodeImage(img image.Image, name string) ([]byte, error) {
	ctype, ok := imageExtTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrImageTypeNotSupported, filepath.Ext(name))
	}

	var buf bytes.Buffer
	if err := imageEncoders[ctype](&buf, img); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ctype, err)
	}

	return buf.Bytes(), nil
}
