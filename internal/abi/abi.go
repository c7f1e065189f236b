package abi

// Flag classifies a callback invocation. The values are bits, but engines
// set exactly one per call.
type Flag int32

const (
	FlagFeature   Flag = 0x0001
	FlagHistogram Flag = 0x0002
	FlagCarve     Flag = 0x0004
)

func (f Flag) String() string {
	switch {
	case f&FlagFeature != 0:
		return "feature"
	case f&FlagHistogram != 0:
		return "histogram"
	case f&FlagCarve != 0:
		return "carve"
	default:
		return "unknown"
	}
}

// Status is the integer result returned to the engine. Zero continues the
// analysis; any other value asks the engine to abort the current buffer.
type Status int32

const (
	StatusContinue  Status = 0
	StatusUnhandled Status = -1
	// StatusPanic is reported when a handler panics inside a foreign frame.
	StatusPanic Status = -2
)

// Callback mirrors the native signature
//
//	(flag, aux, recorder_name, position, feature_ptr, feature_len, context_ptr, context_len) -> status
//
// Feature and context carry their exact length and may contain NUL bytes.
// Implementations run on the engine's calling goroutine and must not block.
type Callback func(flag Flag, aux uint32, recorder, position string, feature, context []byte) Status

// RawEvent is the flat argument tuple of one callback invocation. It is only
// valid for the duration of that invocation.
type RawEvent struct {
	Flag     Flag
	Aux      uint32
	Recorder string
	Position string
	Feature  []byte
	Context  []byte
}

// Invoke calls cb with the fields of ev.
func (cb Callback) Invoke(ev RawEvent) Status {
	return cb(ev.Flag, ev.Aux, ev.Recorder, ev.Position, ev.Feature, ev.Context)
}

// Guard wraps cb so a panic is converted to StatusPanic instead of
// unwinding through the engine's stack.
func Guard(cb Callback, onPanic func(any)) Callback {
	return func(flag Flag, aux uint32, recorder, position string, feature, context []byte) (st Status) {
		defer func() {
			if r := recover(); r != nil {
				if onPanic != nil {
					onPanic(r)
				}
				st = StatusPanic
			}
		}()
		return cb(flag, aux, recorder, position, feature, context)
	}
}
