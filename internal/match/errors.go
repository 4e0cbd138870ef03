package match

import "errors"

var (
	ErrInvalidColor      = errors.New("invalid paddle color")
	ErrInvalidMapStyle   = errors.New("invalid map style")
	ErrColorsNotUnique   = errors.New("paddle colors must differ")
	ErrColorNotInPalette = errors.New("color is not in the palette")
)
