package signal

import (
	"strings"

	"github.com/trafficmind/violation-core/internal/roiconfig"
)

// ParseSignalCode decodes a 4-character upstream signal code such as
// "ETWT" (East Through + West Through) or "ELWL" (East Left + West Left)
// into the set of directions granted a green through phase and the set
// granted a green left-turn phase. Directions absent from both sets
// default to RED on the corresponding movement. An empty or malformed
// code (not exactly 4 characters) grants nothing.
func ParseSignalCode(code string) (greenThrough, greenLeft map[roiconfig.Direction]bool) {
	greenThrough = make(map[roiconfig.Direction]bool)
	greenLeft = make(map[roiconfig.Direction]bool)
	if len(code) != 4 {
		return greenThrough, greenLeft
	}
	upper := strings.ToUpper(code)
	applyPair(upper[0], upper[1], greenThrough, greenLeft)
	applyPair(upper[2], upper[3], greenThrough, greenLeft)
	return greenThrough, greenLeft
}

func applyPair(dirByte, actionByte byte, greenThrough, greenLeft map[roiconfig.Direction]bool) {
	d, ok := directionFromByte(dirByte)
	if !ok {
		return
	}
	switch actionByte {
	case 'T':
		greenThrough[d] = true
	case 'L':
		greenLeft[d] = true
	}
}

func directionFromByte(b byte) (roiconfig.Direction, bool) {
	switch b {
	case 'N':
		return roiconfig.North, true
	case 'S':
		return roiconfig.South, true
	case 'E':
		return roiconfig.East, true
	case 'W':
		return roiconfig.West, true
	default:
		return "", false
	}
}
