package demux

import "github.com/redactyl/bextract/internal/abi"

// Event is one of FeatureEvent, HistogramEvent or CarveEvent. Byte slices in
// an event are only valid during the handler call that receives it; copy
// them to retain.
type Event interface {
	Kind() abi.Flag
	isEvent()
}

// FeatureEvent reports a matched pattern and the bytes surrounding it.
type FeatureEvent struct {
	Recorder string
	Position string
	Feature  []byte
	Context  []byte
}

// HistogramEvent reports how often a feature value recurred.
type HistogramEvent struct {
	Recorder string
	Position string
	Feature  []byte
	Count    uint32
}

// CarveEvent reports a file recovered from the buffer.
type CarveEvent struct {
	Recorder string
	Position string
	Filename string
	Data     []byte
}

func (FeatureEvent) Kind() abi.Flag   { return abi.FlagFeature }
func (HistogramEvent) Kind() abi.Flag { return abi.FlagHistogram }
func (CarveEvent) Kind() abi.Flag     { return abi.FlagCarve }

func (FeatureEvent) isEvent()   {}
func (HistogramEvent) isEvent() {}
func (CarveEvent) isEvent()     {}

// Classify inspects the flag word once and shapes the raw arguments into the
// matching event. Bits are tested feature, histogram, carve; the first set
// bit wins. ok is false when no known bit is set.
//
// Carve invocations put the carved filename in the context slot and the
// payload in the feature slot.
func Classify(ev abi.RawEvent) (Event, bool) {
	switch {
	case ev.Flag&abi.FlagFeature != 0:
		return FeatureEvent{Recorder: ev.Recorder, Position: ev.Position, Feature: ev.Feature, Context: ev.Context}, true
	case ev.Flag&abi.FlagHistogram != 0:
		return HistogramEvent{Recorder: ev.Recorder, Position: ev.Position, Feature: ev.Feature, Count: ev.Aux}, true
	case ev.Flag&abi.FlagCarve != 0:
		return CarveEvent{Recorder: ev.Recorder, Position: ev.Position, Filename: string(ev.Context), Data: ev.Feature}, true
	}
	return nil, false
}

// Raw converts an event back to the argument tuple an engine would pass.
// Engines use it to emit typed events through an abi.Callback.
func Raw(e Event) abi.RawEvent {
	switch ev := e.(type) {
	case FeatureEvent:
		return abi.RawEvent{Flag: abi.FlagFeature, Recorder: ev.Recorder, Position: ev.Position, Feature: ev.Feature, Context: ev.Context}
	case HistogramEvent:
		return abi.RawEvent{Flag: abi.FlagHistogram, Aux: ev.Count, Recorder: ev.Recorder, Position: ev.Position, Feature: ev.Feature}
	case CarveEvent:
		return abi.RawEvent{Flag: abi.FlagCarve, Recorder: ev.Recorder, Position: ev.Position, Feature: ev.Data, Context: []byte(ev.Filename)}
	}
	return abi.RawEvent{}
}
