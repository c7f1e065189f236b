// Package demux turns the single multiplexed engine callback into three
// typed event kinds (feature, histogram, carve) and routes each invocation to
// exactly one user handler.
package demux
