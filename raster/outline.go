package raster

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Outline payloads are a sequence of segments. Each segment is an opcode
// byte followed by its points, every coordinate a big-endian int32 in
// 26.6 fixed point.

func argCount(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpMoveTo, sfnt.SegmentOpLineTo:
		return 1
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	}
	return -1
}

// EncodeOutline serializes outline segments.
func EncodeOutline(segs sfnt.Segments) []byte {
	b := make([]byte, 0, len(segs)*17)
	for _, seg := range segs {
		n := argCount(seg.Op)
		if n < 0 {
			continue
		}
		b = append(b, byte(seg.Op))
		for _, p := range seg.Args[:n] {
			b = binary.BigEndian.AppendUint32(b, uint32(int32(p.X)))
			b = binary.BigEndian.AppendUint32(b, uint32(int32(p.Y)))
		}
	}
	return b
}

// DecodeOutline parses a payload produced by EncodeOutline.
func DecodeOutline(data []byte) (sfnt.Segments, error) {
	var segs sfnt.Segments
	for pos := 0; pos < len(data); {
		op := sfnt.SegmentOp(data[pos])
		n := argCount(op)
		if n < 0 {
			return nil, fmt.Errorf("%w: opcode %d at %d", ErrOutline, op, pos)
		}
		pos++
		if pos+8*n > len(data) {
			return nil, fmt.Errorf("%w: truncated segment at %d", ErrOutline, pos-1)
		}
		seg := sfnt.Segment{Op: op}
		for i := 0; i < n; i++ {
			seg.Args[i] = fixed.Point26_6{
				X: fixed.Int26_6(int32(binary.BigEndian.Uint32(data[pos:]))),
				Y: fixed.Int26_6(int32(binary.BigEndian.Uint32(data[pos+4:]))),
			}
			pos += 8
		}
		segs = append(segs, seg)
	}
	return segs, nil
}
