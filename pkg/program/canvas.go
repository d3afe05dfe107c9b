package program

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/tracks/pkg/domain"
)

// ParseCanvasSize reads a canvas-size header: "N" (N x N), "WxH" or "W H".
func ParseCanvasSize(header string) (width, height int, err error) {
	fields := strings.FieldsFunc(strings.TrimSpace(header), func(r rune) bool {
		return r == 'x' || r == 'X' || r == '×' || r == ' ' || r == '\t' || r == ','
	})

	switch len(fields) {
	case 1:
		n, err := dimension(fields[0])
		if err != nil {
			return 0, 0, err
		}
		return n, n, nil
	case 2:
		w, err := dimension(fields[0])
		if err != nil {
			return 0, 0, err
		}
		h, err := dimension(fields[1])
		if err != nil {
			return 0, 0, err
		}
		return w, h, nil
	default:
		return 0, 0, fmt.Errorf("%w: invalid canvas size %q", domain.ErrInvalidDimension, header)
	}
}

func dimension(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidDimension, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", domain.ErrInvalidDimension, n)
	}
	return n, nil
}
