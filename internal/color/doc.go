// Package color holds the per-OS palettes of terminal colors devterm can
// apply to a launched window and validates color pairs against them.
package color
