// Copyright 2026 The ccpreprocess Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pp

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// EventKind enumerates every notification the driver emits to the host
// client, per §4.6's "Notification events" list.
type EventKind int32

const (
	EventMacroAdded EventKind = iota + 1
	EventMacroReference
	EventDefinedCheckPassed
	EventDefinedCheckFailed
	EventExpansionStarted
	EventExpansionStopped
	EventSkippingStarted
	EventSkippingStopped
	EventIncludeRequested
	EventIncludeGuardDetected
	EventDiagnostic
)

// IncludeMode mirrors the mode argument of the source_needed host
// callback (§6): local ("..."), global (<...>), or next (#include_next).
type IncludeMode int32

const (
	IncludeLocal IncludeMode = iota
	IncludeGlobal
	IncludeNext
)

// ArgSpan is the byte/utf16 range of one macro-call argument, attached to
// an expansion_started event so the host can map back to the call site
// (§4.6, S3's worked example).
type ArgSpan struct {
	ByteOffset  int64
	ByteLength  int64
	UTF16Offset int64
	UTF16Length int64
}

// Event is one entry of the side-channel notification stream. Not every
// field is populated for every Kind; see the comments on each field.
type Event struct {
	Kind EventKind

	Name        string // macro or identifier name
	Line        int32
	ByteOffset  int64
	UTF16Offset int64

	Path            string      // EventIncludeRequested
	Mode            IncludeMode // EventIncludeRequested
	SingleInclusion bool        // EventIncludeRequested, set for #import

	Args []ArgSpan // EventExpansionStarted

	DiagnosticKind DiagnosticKind // EventDiagnostic
	Message        string         // EventDiagnostic
}

// EventLog is the ordered, append-only notification stream produced by one
// driver run.
type EventLog struct {
	Events []Event
}

func (l *EventLog) append(e Event) { l.Events = append(l.Events, e) }

// Wire field numbers. EventLog wraps Event; Event wraps ArgSpan. Kept as
// untyped constants rather than generated .pb.go bindings: the event log
// is an internal, same-binary wire format between the driver and a host
// that wants to persist or transmit it, not a cross-service API surface
// that would justify the generated-code machinery.
const (
	fieldLogEvents = 1

	fieldEventKind            = 1
	fieldEventName            = 2
	fieldEventLine            = 3
	fieldEventByteOffset      = 4
	fieldEventUTF16Offset     = 5
	fieldEventPath            = 6
	fieldEventMode            = 7
	fieldEventSingleInclusion = 8
	fieldEventArgs            = 9
	fieldEventDiagnosticKind  = 10
	fieldEventMessage         = 11

	fieldArgByteOffset  = 1
	fieldArgByteLength  = 2
	fieldArgUTF16Offset = 3
	fieldArgUTF16Length = 4
)

// MarshalBinary encodes the event log as a length-delimited protobuf
// message using google.golang.org/protobuf/encoding/protowire directly,
// without a generated .proto/.pb.go pair.
func (l *EventLog) MarshalBinary() ([]byte, error) {
	var out []byte
	for _, e := range l.Events {
		eventBytes := marshalEvent(e)
		out = protowire.AppendTag(out, fieldLogEvents, protowire.BytesType)
		out = protowire.AppendBytes(out, eventBytes)
	}
	return out, nil
}

func marshalEvent(e Event) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldEventKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Kind))
	if e.Name != "" {
		b = protowire.AppendTag(b, fieldEventName, protowire.BytesType)
		b = protowire.AppendString(b, e.Name)
	}
	if e.Line != 0 {
		b = protowire.AppendTag(b, fieldEventLine, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Line))
	}
	if e.ByteOffset != 0 {
		b = protowire.AppendTag(b, fieldEventByteOffset, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.ByteOffset))
	}
	if e.UTF16Offset != 0 {
		b = protowire.AppendTag(b, fieldEventUTF16Offset, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.UTF16Offset))
	}
	if e.Path != "" {
		b = protowire.AppendTag(b, fieldEventPath, protowire.BytesType)
		b = protowire.AppendString(b, e.Path)
	}
	if e.Mode != 0 {
		b = protowire.AppendTag(b, fieldEventMode, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Mode))
	}
	if e.SingleInclusion {
		b = protowire.AppendTag(b, fieldEventSingleInclusion, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	for _, a := range e.Args {
		b = protowire.AppendTag(b, fieldEventArgs, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalArgSpan(a))
	}
	if e.DiagnosticKind != 0 || e.Kind == EventDiagnostic {
		b = protowire.AppendTag(b, fieldEventDiagnosticKind, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.DiagnosticKind))
	}
	if e.Message != "" {
		b = protowire.AppendTag(b, fieldEventMessage, protowire.BytesType)
		b = protowire.AppendString(b, e.Message)
	}
	return b
}

func marshalArgSpan(a ArgSpan) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldArgByteOffset, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(a.ByteOffset))
	b = protowire.AppendTag(b, fieldArgByteLength, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(a.ByteLength))
	b = protowire.AppendTag(b, fieldArgUTF16Offset, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(a.UTF16Offset))
	b = protowire.AppendTag(b, fieldArgUTF16Length, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(a.UTF16Length))
	return b
}

// UnmarshalBinary decodes a byte stream produced by MarshalBinary, replacing
// l.Events.
func (l *EventLog) UnmarshalBinary(data []byte) error {
	l.Events = nil
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		if num != fieldLogEvents || typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			data = data[m:]
			continue
		}
		eventBytes, m := protowire.ConsumeBytes(data)
		if m < 0 {
			return protowire.ParseError(m)
		}
		data = data[m:]
		e, err := unmarshalEvent(eventBytes)
		if err != nil {
			return err
		}
		l.Events = append(l.Events, e)
	}
	return nil
}

func unmarshalEvent(data []byte) (Event, error) {
	var e Event
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return e, protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case fieldEventKind:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.Kind = EventKind(v)
			data = data[m:]
		case fieldEventName:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.Name = s
			data = data[m:]
		case fieldEventLine:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.Line = int32(v)
			data = data[m:]
		case fieldEventByteOffset:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.ByteOffset = int64(v)
			data = data[m:]
		case fieldEventUTF16Offset:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.UTF16Offset = int64(v)
			data = data[m:]
		case fieldEventPath:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.Path = s
			data = data[m:]
		case fieldEventMode:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.Mode = IncludeMode(v)
			data = data[m:]
		case fieldEventSingleInclusion:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.SingleInclusion = v != 0
			data = data[m:]
		case fieldEventArgs:
			argBytes, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			arg, err := unmarshalArgSpan(argBytes)
			if err != nil {
				return e, err
			}
			e.Args = append(e.Args, arg)
			data = data[m:]
		case fieldEventDiagnosticKind:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.DiagnosticKind = DiagnosticKind(v)
			data = data[m:]
		case fieldEventMessage:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			e.Message = s
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return e, protowire.ParseError(m)
			}
			data = data[m:]
		}
	}
	return e, nil
}

func unmarshalArgSpan(data []byte) (ArgSpan, error) {
	var a ArgSpan
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return a, protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case fieldArgByteOffset:
			v, m := protowire.ConsumeVarint(data)
			a.ByteOffset, data = int64(v), data[m:]
		case fieldArgByteLength:
			v, m := protowire.ConsumeVarint(data)
			a.ByteLength, data = int64(v), data[m:]
		case fieldArgUTF16Offset:
			v, m := protowire.ConsumeVarint(data)
			a.UTF16Offset, data = int64(v), data[m:]
		case fieldArgUTF16Length:
			v, m := protowire.ConsumeVarint(data)
			a.UTF16Length, data = int64(v), data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return a, protowire.ParseError(m)
			}
			data = data[m:]
		}
	}
	return a, nil
}

func (k EventKind) String() string {
	switch k {
	case EventMacroAdded:
		return "macro_added"
	case EventMacroReference:
		return "macro_reference"
	case EventDefinedCheckPassed:
		return "defined_check_passed"
	case EventDefinedCheckFailed:
		return "defined_check_failed"
	case EventExpansionStarted:
		return "expansion_started"
	case EventExpansionStopped:
		return "expansion_stopped"
	case EventSkippingStarted:
		return "skipping_started"
	case EventSkippingStopped:
		return "skipping_stopped"
	case EventIncludeRequested:
		return "include_requested"
	case EventIncludeGuardDetected:
		return "include_guard_detected"
	case EventDiagnostic:
		return "diagnostic"
	default:
		return fmt.Sprintf("event(%d)", int32(k))
	}
}
