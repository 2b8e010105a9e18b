// Package tray provides the system tray indicator.
// This file contains icon generation for each connection state.
package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/vpn"
)

// Symbol is the mark drawn on the shield.
type Symbol int

const (
	SymbolLock Symbol = iota
	SymbolCheckmark
	SymbolDots
	SymbolCross
)

// IconConfig defines the configuration for icon generation.
type IconConfig struct {
	Size        int
	FillColor   color.RGBA
	BorderColor color.RGBA
	AccentColor color.RGBA
	SymbolColor color.RGBA
	Symbol      Symbol
}

var white = color.RGBA{255, 255, 255, 255}

// IconConfigFor returns the icon configuration for a connection state.
func IconConfigFor(status vpn.Status) IconConfig {
	switch status {
	case vpn.StatusConnected:
		return IconConfig{
			Size:        common.TrayIconSize,
			FillColor:   color.RGBA{56, 142, 60, 255},   // Dark green
			BorderColor: color.RGBA{76, 175, 80, 255},   // Green
			AccentColor: color.RGBA{200, 230, 201, 255}, // Light green
			SymbolColor: white,
			Symbol:      SymbolCheckmark,
		}
	case vpn.StatusConnecting, vpn.StatusAuthenticating:
		return IconConfig{
			Size:        common.TrayIconSize,
			FillColor:   color.RGBA{245, 124, 0, 255},   // Dark orange
			BorderColor: color.RGBA{255, 152, 0, 255},   // Orange
			AccentColor: color.RGBA{255, 224, 178, 255}, // Light orange
			SymbolColor: white,
			Symbol:      SymbolDots,
		}
	case vpn.StatusError:
		return IconConfig{
			Size:        common.TrayIconSize,
			FillColor:   color.RGBA{198, 40, 40, 255},   // Dark red
			BorderColor: color.RGBA{229, 57, 53, 255},   // Red
			AccentColor: color.RGBA{255, 205, 210, 255}, // Light red
			SymbolColor: white,
			Symbol:      SymbolCross,
		}
	default:
		return IconConfig{
			Size:        common.TrayIconSize,
			FillColor:   color.RGBA{117, 117, 117, 255}, // Dark gray
			BorderColor: color.RGBA{158, 158, 158, 255}, // Gray
			AccentColor: color.RGBA{189, 189, 189, 255}, // Light gray
			SymbolColor: white,
			Symbol:      SymbolLock,
		}
	}
}

// IconGenerator generates PNG icons for the system tray.
type IconGenerator struct {
	config IconConfig
}

// NewIconGenerator creates a new icon generator with the given config.
func NewIconGenerator(config IconConfig) *IconGenerator {
	return &IconGenerator{config: config}
}

// Generate creates a PNG icon and returns the bytes.
func (g *IconGenerator) Generate() []byte {
	img := g.Image()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		common.LogError("Tray: Failed to encode icon: %v", err)
		return nil
	}
	return buf.Bytes()
}

// Image draws the icon.
func (g *IconGenerator) Image() *image.RGBA {
	size := g.config.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	g.drawShield(img)

	switch g.config.Symbol {
	case SymbolCheckmark:
		g.drawCheckmark(img)
	case SymbolDots:
		g.drawDots(img)
	case SymbolCross:
		g.drawCross(img)
	default:
		g.drawLock(img)
	}
	return img
}

// drawShield draws the shield shape on the image.
func (g *IconGenerator) drawShield(img *image.RGBA) {
	size := g.config.Size
	centerX := float64(size) / 2
	topY := 1.0
	bottomY := float64(size) - 2
	shieldWidth := float64(size) - 4

	inShield := func(x, y float64) bool {
		relY := (y - topY) / (bottomY - topY)
		if relY < 0 || relY > 1 {
			return false
		}

		var halfWidth float64
		if relY < 0.5 {
			halfWidth = shieldWidth/2 - relY*0.5
		} else {
			progress := (relY - 0.5) * 2
			halfWidth = (shieldWidth/2 - 0.25) * (1 - progress*progress)
		}

		return x >= centerX-halfWidth && x <= centerX+halfWidth
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			if !inShield(fx, fy) {
				continue
			}

			border := !inShield(fx-1, fy) || !inShield(fx+1, fy) ||
				!inShield(fx, fy-1) || !inShield(fx, fy+1)
			switch {
			case border:
				img.Set(x, y, g.config.BorderColor)
			case float64(y)/float64(size) < 0.3:
				img.Set(x, y, g.config.AccentColor)
			default:
				img.Set(x, y, g.config.FillColor)
			}
		}
	}
}

// set draws one symbol pixel, clipped to the icon.
func (g *IconGenerator) set(img *image.RGBA, x, y int) {
	if x >= 0 && x < g.config.Size && y >= 0 && y < g.config.Size {
		img.Set(x, y, g.config.SymbolColor)
	}
}

func (g *IconGenerator) drawCheckmark(img *image.RGBA) {
	points := []struct{ x, y int }{
		{6, 11}, {7, 11}, {7, 12}, {8, 12}, {8, 13}, {9, 13},
		{9, 12}, {10, 12}, {10, 11}, {11, 11}, {11, 10}, {12, 10},
		{12, 9}, {13, 9}, {13, 8}, {14, 8},
	}
	for _, p := range points {
		g.set(img, p.x, p.y)
	}
}

func (g *IconGenerator) drawLock(img *image.RGBA) {
	// Body
	for y := 10; y <= 15; y++ {
		for x := 8; x <= 14; x++ {
			if y == 10 || y == 15 || x == 8 || x == 14 {
				g.set(img, x, y)
			}
		}
	}

	// Shackle
	for y := 6; y <= 8; y++ {
		g.set(img, 9, y)
		g.set(img, 13, y)
	}
	for x := 9; x <= 13; x++ {
		g.set(img, x, 6)
	}
}

// drawDots draws three 2x2 dots.
func (g *IconGenerator) drawDots(img *image.RGBA) {
	for _, cx := range []int{6, 10, 14} {
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				g.set(img, cx+dx, 10+dy)
			}
		}
	}
}

func (g *IconGenerator) drawCross(img *image.RGBA) {
	for i := 0; i <= 6; i++ {
		g.set(img, 8+i, 7+i)
		g.set(img, 14-i, 7+i)
	}
}

// icons caches the generated icon per state.
var icons = map[vpn.Status][]byte{}

func init() {
	for _, status := range []vpn.Status{
		vpn.StatusDisconnected,
		vpn.StatusConnecting,
		vpn.StatusAuthenticating,
		vpn.StatusConnected,
		vpn.StatusError,
	} {
		icons[status] = NewIconGenerator(IconConfigFor(status)).Generate()
	}
}

// IconFor returns the PNG icon for a connection state.
func IconFor(status vpn.Status) []byte {
	if icon, ok := icons[status]; ok {
		return icon
	}
	return icons[vpn.StatusDisconnected]
}
