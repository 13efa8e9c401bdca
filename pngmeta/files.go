package pngmeta

import (
	"bytes"
	"charapng/models"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultImageWidth  = 400
	DefaultImageHeight = 600
	DefaultImageColor  = "#282a36"
)

// ExportOptions control the card's creator field and the placeholder
// image used when a persona has no picture. Zero fields take defaults.
type ExportOptions struct {
	Creator     string
	ImageWidth  int
	ImageHeight int
	ImageColor  string
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.Creator == "" {
		o.Creator = models.Producer
	}
	if o.ImageWidth == 0 {
		o.ImageWidth = DefaultImageWidth
	}
	if o.ImageHeight == 0 {
		o.ImageHeight = DefaultImageHeight
	}
	if o.ImageColor == "" {
		o.ImageColor = DefaultImageColor
	}
	return o
}

// CheckPNG sniffs the content type so that JPEG or WebP uploads get a
// clear message instead of a signature error.
func CheckPNG(data []byte) error {
	mt := mimetype.Detect(data)
	if !mt.Is("image/png") {
		return fmt.Errorf("%w: detected %s", ErrNotPNG, mt.String())
	}
	return nil
}

// DefaultImage renders a solid colour PNG used when a persona has no
// profile picture.
func DefaultImage(width, height int, hex string) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bad image size %dx%d", width, height)
	}
	fill, err := parseHexColor(hex)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parseHexColor(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("bad colour %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad colour %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// ReadCard imports the card stored in fname.
func ReadCard(fname string) (*models.CardPayload, *models.PersonaRecord, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, nil, err
	}
	if err := CheckPNG(data); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", fname, err)
	}
	card, persona, err := ImportPersona(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", fname, err)
	}
	persona.FilePath = fname
	return card, persona, nil
}

// ReadDirCards imports every .png in dirname. Images without a card or
// with a broken one are logged and skipped.
func ReadDirCards(dirname string, logger *slog.Logger) ([]*models.PersonaRecord, error) {
	files, err := os.ReadDir(dirname)
	if err != nil {
		return nil, err
	}
	resp := []*models.PersonaRecord{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".png") {
			continue
		}
		fpath := path.Join(dirname, f.Name())
		_, cc, err := ReadCard(fpath)
		if err != nil {
			if errors.Is(err, ErrMissingCard) {
				logger.Debug("no card in png", "file", fpath)
				continue
			}
			logger.Warn("failed to read card", "file", fpath, "error", err)
			continue
		}
		resp = append(resp, cc)
	}
	return resp, nil
}

// WriteToPng embeds the persona into the image at fpath (or its own
// profile image when fpath is empty) and writes the result to outfile.
func WriteToPng(p *models.PersonaRecord, fpath, outfile string, opts ExportOptions) error {
	var base []byte
	if fpath != "" {
		data, err := os.ReadFile(fpath)
		if err != nil {
			return err
		}
		if err := CheckPNG(data); err != nil {
			return fmt.Errorf("%s: %w", fpath, err)
		}
		base = data
	}
	out, err := ExportPersona(p, base, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(outfile, out, 0666)
}
