// Package engine is the builtin extraction engine. It implements the same
// native.Library boundary as libbulk_extractor so the binding can be driven
// without the shared library: regex feature recorders, per-buffer histograms
// and signature-based carving, all reported through the one callback.
package engine
