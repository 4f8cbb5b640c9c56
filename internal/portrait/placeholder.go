package portrait

import (
	"bytes"
	"fmt"
	"hash/fnv"

	"github.com/fogleman/gg"
)

const identiconCells = 5

// Placeholder renders a symmetric identicon for subject. The same subject
// always yields the same image.
//
// Precondition: size must be >= identiconCells.
func Placeholder(subject string, size int) ([]byte, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(subject))
	sum := h.Sum64()

	dc := gg.NewContext(size, size)
	dc.SetRGB255(24, 26, 33)
	dc.Clear()

	r := 80 + int(sum&0x7f)
	g := 80 + int((sum>>8)&0x7f)
	b := 80 + int((sum>>16)&0x7f)
	dc.SetRGB255(r, g, b)

	cell := float64(size) / float64(identiconCells+1)
	margin := cell / 2
	bits := sum >> 24
	for row := 0; row < identiconCells; row++ {
		for col := 0; col <= identiconCells/2; col++ {
			on := bits&1 == 1
			bits >>= 1
			if !on {
				continue
			}
			y := margin + float64(row)*cell
			dc.DrawRectangle(margin+float64(col)*cell, y, cell, cell)
			dc.DrawRectangle(margin+float64(identiconCells-1-col)*cell, y, cell, cell)
		}
	}
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
