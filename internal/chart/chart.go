// Package chart renders the history summary pie as a PNG, embedded
// base64 in the graph page.
package chart

import (
	"bytes"
	"errors"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Slice colors match the bootstrap success/danger palette the pages use.
var (
	colorFunctional    = drawing.Color{R: 0x28, G: 0xa7, B: 0x45, A: 0xff}
	colorNonFunctional = drawing.Color{R: 0xdc, G: 0x35, B: 0x45, A: 0xff}
)

// RenderPie draws the functional / non-functional split. Zero-count
// labels are omitted; an entirely empty history is the caller's error.
func RenderPie(functional, nonFunctional int) ([]byte, error) {
	if functional+nonFunctional == 0 {
		return nil, errors.New("no history to chart")
	}

	var values []gochart.Value
	if functional > 0 {
		values = append(values, gochart.Value{
			Value: float64(functional),
			Label: "Functional",
			Style: gochart.Style{FillColor: colorFunctional},
		})
	}
	if nonFunctional > 0 {
		values = append(values, gochart.Value{
			Value: float64(nonFunctional),
			Label: "Non-Functional",
			Style: gochart.Style{FillColor: colorNonFunctional},
		})
	}

	pie := gochart.PieChart{
		Width:  512,
		Height: 512,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
