package gazeline

// TriggerKind identifies how a line-advance event was confirmed.
type TriggerKind int

const (
	// TriggerCascade marks an event confirmed directly by a position-peak /
	// velocity-valley cascade.
	TriggerCascade TriggerKind = iota

	// TriggerPending marks an event that was queued while the reading
	// position was unknown and confirmed later, when line context arrived.
	TriggerPending
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerPending:
		return "pending"
	default:
		return "cascade"
	}
}

// MarshalText implements encoding.TextMarshaler so trigger kinds serialize as
// their names.
func (k TriggerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TriggerKind) UnmarshalText(text []byte) error {
	if string(text) == "pending" {
		*k = TriggerPending
	} else {
		*k = TriggerCascade
	}
	return nil
}

// LineAdvanceEvent indicates that the reader completed a reading line and
// swept to the start of the next one.
type LineAdvanceEvent struct {
	// Time of the triggering sample, in milliseconds relative to the session
	// origin.
	Time int64 `json:"t"`

	// Line is the index of the completed line.
	Line int `json:"line"`

	Trigger TriggerKind `json:"trigger"`

	// Velocity is the horizontal velocity at the valley that confirmed the
	// sweep, in position units per millisecond.
	Velocity float64 `json:"velocity"`
}
