// Package program loads turtle programs from files and remote input.
//
// A .logo file starts with a canvas-size header line followed by the commands:
//
//	61
//
//	RT 135
//	FD 5
//	REPEAT 2 [ RT 90 FD 15 ]
//
// The header is either a single number (a square canvas) or "WxH". YAML and JSON
// manifests carry the same information as fields (width/height or size, program or commands).
package program
