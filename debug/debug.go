// Package debug provides environment-gated diagnostics for the codec.
// Flags are read once at process start:
//
//	TOG_DEBUG_DECODE   trace construction of nodes into objects
//	TOG_DEBUG_ENCODE   trace anchor assignment during emission
//	TOG_DEBUG_ANCHORS  trace the anchor table's begin/complete protocol
package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Decode  bool
	Encode  bool
	Anchors bool
}

var d *debug

func init() {
	d = &debug{}
	d.Decode = boolEnv("TOG_DEBUG_DECODE")
	d.Encode = boolEnv("TOG_DEBUG_ENCODE")
	d.Anchors = boolEnv("TOG_DEBUG_ANCHORS")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Decode() bool {
	return d.Decode
}
func Encode() bool {
	return d.Encode
}
func Anchors() bool {
	return d.Anchors
}
