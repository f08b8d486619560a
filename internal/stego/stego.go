// Package stego embeds and recovers byte payloads in the least-significant
// bits of an image's color channels. The carrier may be any registered image
// format; the encoded artifact is always PNG, since lossy formats would
// destroy the embedded bits.
package stego

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	_ "image/gif"
	_ "image/jpeg"
)

// magic marks an image as carrying an embedded payload.
var magic = [4]byte{'E', 'N', 'C', '1'}

// headerSize is the embedded frame header: 4-byte magic + 4-byte big-endian payload length.
const headerSize = 8

var (
	// ErrMessageTooLarge means the payload does not fit in the carrier image.
	ErrMessageTooLarge = errors.New("stego: message too large for carrier image")
	// ErrNotEncoded means the image carries no recognizable payload frame.
	ErrNotEncoded = errors.New("stego: image does not contain an encoded message")
	// ErrCorrupt means the frame header was found but the payload is invalid.
	ErrCorrupt = errors.New("stego: embedded payload is corrupt")
	// ErrBadImage means the input could not be decoded as an image at all.
	ErrBadImage = errors.New("stego: unreadable image")
)

// Capacity returns the maximum payload size in bytes for a carrier of the
// given bounds. Three bits per pixel (R, G, B low bits; alpha untouched),
// minus the frame header.
func Capacity(bounds image.Rectangle) int {
	bits := bounds.Dx() * bounds.Dy() * 3
	n := bits/8 - headerSize
	if n < 0 {
		return 0
	}
	return n
}

// Encode reads a carrier image from r, embeds message in its pixels, and
// writes the resulting PNG to w. The carrier is fully decoded before any
// output is produced, so a failed encode writes nothing.
func Encode(ctx context.Context, r io.Reader, message []byte, w io.Writer) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	bounds := src.Bounds()
	if len(message) > Capacity(bounds) {
		return ErrMessageTooLarge
	}

	frame := make([]byte, headerSize+len(message))
	copy(frame[:4], magic[:])
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(message)))
	copy(frame[headerSize:], message)

	// Work on an NRGBA copy so channel bits can be set directly. Alpha is
	// flattened to opaque: premultiplied reads of translucent pixels would
	// not round-trip the low color bits.
	img := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(img, img.Bounds(), src, bounds.Min, draw.Src)

	bitIdx := 0
	totalBits := len(frame) * 8
	for y := 0; y < img.Bounds().Dy(); y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := 0; x < img.Bounds().Dx(); x++ {
			off := img.PixOffset(x, y)
			img.Pix[off+3] = 0xFF
			for c := 0; c < 3 && bitIdx < totalBits; c++ {
				bit := (frame[bitIdx/8] >> (7 - uint(bitIdx%8))) & 1
				img.Pix[off+c] = (img.Pix[off+c] &^ 1) | bit
				bitIdx++
			}
		}
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("stego: encode artifact: %w", err)
	}
	return nil
}

// Decode reads an encoded artifact from r and recovers the embedded message.
func Decode(ctx context.Context, r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	bounds := src.Bounds()
	reader := newBitReader(src)

	header := make([]byte, headerSize)
	if !reader.readBytes(header) {
		return nil, ErrNotEncoded
	}
	if [4]byte(header[:4]) != magic {
		return nil, ErrNotEncoded
	}

	length := int(binary.BigEndian.Uint32(header[4:8]))
	if length > Capacity(bounds) {
		return nil, ErrCorrupt
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	message := make([]byte, length)
	if !reader.readBytes(message) {
		return nil, ErrCorrupt
	}
	return message, nil
}

// bitReader walks an image's pixels yielding the low bit of each color channel.
type bitReader struct {
	img    image.Image
	x, y   int
	ch     int
	bounds image.Rectangle
}

func newBitReader(img image.Image) *bitReader {
	b := img.Bounds()
	return &bitReader{img: img, x: b.Min.X, y: b.Min.Y, bounds: b}
}

func (br *bitReader) readBit() (byte, bool) {
	if br.y >= br.bounds.Max.Y {
		return 0, false
	}
	r, g, b, _ := br.img.At(br.x, br.y).RGBA()
	// At returns 16-bit channels; the embedded bit is the low bit of the 8-bit value.
	chans := [3]uint32{r >> 8, g >> 8, b >> 8}
	bit := byte(chans[br.ch] & 1)

	br.ch++
	if br.ch == 3 {
		br.ch = 0
		br.x++
		if br.x >= br.bounds.Max.X {
			br.x = br.bounds.Min.X
			br.y++
		}
	}
	return bit, true
}

func (br *bitReader) readBytes(dst []byte) bool {
	for i := range dst {
		var v byte
		for j := 0; j < 8; j++ {
			bit, ok := br.readBit()
			if !ok {
				return false
			}
			v = v<<1 | bit
		}
		dst[i] = v
	}
	return true
}
