// Package abi defines the fixed callback contract the extraction engine
// invokes during analysis. Every engine, native or builtin, reports findings
// through a single Callback value; richer event types are built on top of it
// by the demux package.
package abi
