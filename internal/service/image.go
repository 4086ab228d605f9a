package service

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
)

// Target dimensions per image kind
const (
	tourImageWidth  = 2000
	tourImageHeight = 1333
	userImageSize   = 500

	jpegQuality = 90
)

// ImageConfig holds the upload directories
type ImageConfig struct {
	TourDir string
	UserDir string
}

// ImageService validates uploads and stores them resized as JPEG
type ImageService struct {
	cfg ImageConfig
}

// NewImageService creates an image service, ensuring the upload
// directories exist
func NewImageService(cfg ImageConfig) (*ImageService, error) {
	for _, dir := range []string{cfg.TourDir, cfg.UserDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &ImageService{cfg: cfg}, nil
}

// SaveUserPhoto stores a square profile photo and returns its filename
func (s *ImageService) SaveUserPhoto(userID string, r io.Reader) (string, error) {
	img, err := decodeImage(r)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("user-%s.jpeg", sanitizeID(userID))
	if err := s.write(filepath.Join(s.cfg.UserDir, name), resize(img, userImageSize, userImageSize)); err != nil {
		return "", err
	}
	return name, nil
}

// SaveTourImage stores a tour image in the 3:2 display size. index 0 is
// the cover.
func (s *ImageService) SaveTourImage(tourID string, index int, r io.Reader) (string, error) {
	img, err := decodeImage(r)
	if err != nil {
		return "", err
	}
	var name string
	if index == 0 {
		name = fmt.Sprintf("tour-%s-cover.jpeg", sanitizeID(tourID))
	} else {
		name = fmt.Sprintf("tour-%s-%d.jpeg", sanitizeID(tourID), index)
	}
	if err := s.write(filepath.Join(s.cfg.TourDir, name), resize(img, tourImageWidth, tourImageHeight)); err != nil {
		return "", err
	}
	return name, nil
}

func (s *ImageService) write(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	return nil
}

// decodeImage rejects anything that is not a decodable JPEG or PNG
func decodeImage(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, ErrUnsupportedImage
	}
	if format != "jpeg" && format != "png" {
		return nil, ErrUnsupportedImage
	}
	return img, nil
}

// sanitizeID strips the record-id separator so ids are safe in
// filenames
func sanitizeID(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}

// resize scales to the exact target size by averaging the source pixels
// each destination pixel covers. Aspect ratio is not preserved; callers
// pick sizes matching how the image is displayed.
func resize(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW == width && srcH == height {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xRatio := float64(srcW) / float64(width)
	yRatio := float64(srcH) / float64(height)

	for y := 0; y < height; y++ {
		sy0 := int(float64(y) * yRatio)
		sy1 := int(float64(y+1) * yRatio)
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		for x := 0; x < width; x++ {
			sx0 := int(float64(x) * xRatio)
			sx1 := int(float64(x+1) * xRatio)
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}

			var rSum, gSum, bSum, aSum, n uint64
			for sy := sy0; sy < sy1; sy++ {
				for sx := sx0; sx < sx1; sx++ {
					r, g, b, a := src.At(bounds.Min.X+sx, bounds.Min.Y+sy).RGBA()
					rSum += uint64(r)
					gSum += uint64(g)
					bSum += uint64(b)
					aSum += uint64(a)
					n++
				}
			}

			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = uint8(rSum / n >> 8)
			dst.Pix[i+1] = uint8(gSum / n >> 8)
			dst.Pix[i+2] = uint8(bSum / n >> 8)
			dst.Pix[i+3] = uint8(aSum / n >> 8)
		}
	}
	return dst
}
