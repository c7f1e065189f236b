// Package bulk is the stable API for driving a feature-extraction engine
// from Go. It re-exports the binding's event and error types and pairs every
// Open with a guaranteed Close through With.
//
// Example:
//
//	lib := bulk.Builtin(bulk.EngineOptions{})
//	err := bulk.With(lib, bulk.Handlers{
//		Feature: func(ev bulk.FeatureEvent) bulk.Status {
//			fmt.Printf("%s %s %q\n", ev.Recorder, ev.Position, ev.Feature)
//			return bulk.Continue
//		},
//	}, func(h *bulk.Handle) error {
//		return h.SubmitString("mail demo@api.com or call 617-555-1212")
//	})
//
// A Handle is one engine session and is not safe for concurrent Submit.
// Callers that scan in parallel open one Handle per goroutine.
package bulk
