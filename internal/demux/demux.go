package demux

import "github.com/redactyl/bextract/internal/abi"

type (
	FeatureFunc   func(FeatureEvent) abi.Status
	HistogramFunc func(HistogramEvent) abi.Status
	CarveFunc     func(CarveEvent) abi.Status
)

// Handlers holds up to three independent handlers. A nil field behaves as a
// no-op that returns abi.StatusContinue.
type Handlers struct {
	Feature   FeatureFunc
	Histogram HistogramFunc
	Carve     CarveFunc
}

// Dispatch routes e to the handler for its kind.
func (h Handlers) Dispatch(e Event) abi.Status {
	switch ev := e.(type) {
	case FeatureEvent:
		if h.Feature != nil {
			return h.Feature(ev)
		}
	case HistogramEvent:
		if h.Histogram != nil {
			return h.Histogram(ev)
		}
	case CarveEvent:
		if h.Carve != nil {
			return h.Carve(ev)
		}
	default:
		return abi.StatusUnhandled
	}
	return abi.StatusContinue
}

// Wrap builds the single callback registered with the engine. Unknown flag
// words return abi.StatusUnhandled and invoke nothing.
func Wrap(h Handlers) abi.Callback {
	return func(flag abi.Flag, aux uint32, recorder, position string, feature, context []byte) abi.Status {
		ev, ok := Classify(abi.RawEvent{
			Flag:     flag,
			Aux:      aux,
			Recorder: recorder,
			Position: position,
			Feature:  feature,
			Context:  context,
		})
		if !ok {
			return abi.StatusUnhandled
		}
		return h.Dispatch(ev)
	}
}

// Chain fans each event out to every handler set in order. The first
// non-zero status stops the fan-out and is returned.
func Chain(hs ...Handlers) Handlers {
	return Handlers{
		Feature: func(ev FeatureEvent) abi.Status {
			return each(hs, func(h Handlers) abi.Status { return h.Dispatch(ev) })
		},
		Histogram: func(ev HistogramEvent) abi.Status {
			return each(hs, func(h Handlers) abi.Status { return h.Dispatch(ev) })
		},
		Carve: func(ev CarveEvent) abi.Status {
			return each(hs, func(h Handlers) abi.Status { return h.Dispatch(ev) })
		},
	}
}

func each(hs []Handlers, fn func(Handlers) abi.Status) abi.Status {
	for _, h := range hs {
		if st := fn(h); st != abi.StatusContinue {
			return st
		}
	}
	return abi.StatusContinue
}

// Collector records copies of every event it receives. It is handy for
// tests and for callers that want a slice instead of streaming handlers.
type Collector struct {
	Events []Event
}

// Handlers returns handlers that append to c.
func (c *Collector) Handlers() Handlers {
	return Handlers{
		Feature: func(ev FeatureEvent) abi.Status {
			ev.Feature = clone(ev.Feature)
			ev.Context = clone(ev.Context)
			c.Events = append(c.Events, ev)
			return abi.StatusContinue
		},
		Histogram: func(ev HistogramEvent) abi.Status {
			ev.Feature = clone(ev.Feature)
			c.Events = append(c.Events, ev)
			return abi.StatusContinue
		},
		Carve: func(ev CarveEvent) abi.Status {
			ev.Data = clone(ev.Data)
			c.Events = append(c.Events, ev)
			return abi.StatusContinue
		},
	}
}

// Features returns the feature strings of all collected FeatureEvents.
func (c *Collector) Features() []string {
	var out []string
	for _, e := range c.Events {
		if fe, ok := e.(FeatureEvent); ok {
			out = append(out, string(fe.Feature))
		}
	}
	return out
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
