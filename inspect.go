package vkrun

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/vkrun/internal/vk"
)

// Inspector receives the results of every script that ran, whether it
// passed or not. The data is only valid during the call.
type Inspector interface {
	Inspect(data *InspectData)
}

// InspectorFunc adapts a function to Inspector.
type InspectorFunc func(data *InspectData)

// Inspect calls f(data).
func (f InspectorFunc) Inspect(data *InspectData) { f(data) }

// InspectData is a snapshot of a script's render target and buffers.
type InspectData struct {
	Script  string
	Color   Image
	Buffers []Buffer
}

// Image is the color attachment copied to host memory.
type Image struct {
	Width  int
	Height int
	// Stride is the size of one row in bytes.
	Stride int
	// Format is the Vulkan format name, for example R8G8B8A8_UNORM.
	Format string
	Data   []byte

	format vk.Format
}

// At returns the normalized color of the pixel at (x, y).
func (im *Image) At(x, y int) [4]float64 {
	size := im.format.Size()
	off := y*im.Stride + x*size
	c, _ := vk.DecodeColor(im.format, im.Data[off:off+size])
	return c
}

// NRGBA converts the image to 8-bit non-premultiplied RGBA. Components
// outside [0, 1] are clamped.
func (im *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			c := im.At(x, y)
			out.SetNRGBA(x, y, color.NRGBA{R: unorm8(c[0]), G: unorm8(c[1]), B: unorm8(c[2]), A: unorm8(c[3])})
		}
	}
	return out
}

func unorm8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Buffer is the host view of one declared buffer.
type Buffer struct {
	Set     uint32
	Binding uint32
	Data    []byte
}

// FileInspector writes the color buffer of every script as an image file
// named after the script, and each buffer as raw bytes next to it.
type FileInspector struct {
	Dir string
	// Format is "png", "bmp" or "tiff". Empty means png.
	Format string
}

// PNGInspector returns an inspector that writes PNG files into dir.
func PNGInspector(dir string) *FileInspector {
	return &FileInspector{Dir: dir, Format: "png"}
}

// Inspect writes the files and logs failures.
func (f *FileInspector) Inspect(data *InspectData) {
	if err := f.Write(data); err != nil {
		slogger().Warn("vkrun: inspector write failed", "script", data.Script, "err", err)
	}
}

// Write writes the files for data and returns the first error.
func (f *FileInspector) Write(data *InspectData) error {
	enc, ext, err := encoder(f.Format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}
	base := filepath.Join(f.Dir, strings.TrimSuffix(filepath.Base(data.Script), filepath.Ext(data.Script)))

	if err := writeFile(base+ext, func(w io.Writer) error { return enc(w, data.Color.NRGBA()) }); err != nil {
		return err
	}
	for _, b := range data.Buffers {
		name := fmt.Sprintf("%s.set%d.binding%d.bin", base, b.Set, b.Binding)
		if err := os.WriteFile(name, b.Data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func encoder(format string) (enc func(io.Writer, image.Image) error, ext string, err error) {
	switch strings.ToLower(format) {
	case "", "png":
		return png.Encode, ".png", nil
	case "bmp":
		return bmp.Encode, ".bmp", nil
	case "tiff", "tif":
		return func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}, ".tiff", nil
	}
	return nil, "", fmt.Errorf("vkrun: unknown image format %q", format)
}

func writeFile(name string, write func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
