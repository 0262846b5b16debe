package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gg"
)

// Vector3 represents a 3D vector
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// RGB is one entry of the color buffer, components in [0,1]
type RGB struct {
	R, G, B float64
}

// Color is a parameter color. It serializes as a "#rrggbb" hex string.
type Color gg.RGBA

// Hex parses "#rgb" or "#rrggbb" (leading # optional).
func Hex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 3 && len(h) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	for _, c := range h {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return Color{}, fmt.Errorf("invalid hex color %q", s)
		}
	}
	return Color(gg.Hex(h)), nil
}

// MustHex is Hex for compile-time constants.
func MustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Lerp interpolates component-wise from c to other.
func (c Color) Lerp(other Color, t float64) Color {
	return Color(gg.RGBA(c).Lerp(gg.RGBA(other), t))
}

func (c Color) RGB() RGB {
	return RGB{R: c.R, G: c.G, B: c.B}
}

// String returns the color as "#rrggbb".
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B))
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("color must be a hex string: %w", err)
	}
	parsed, err := Hex(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func to8(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
