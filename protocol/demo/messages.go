package demo

import (
	"github.com/arloliu/go-comms/field"
	"github.com/arloliu/go-comms/message"
)

// Message IDs.
const (
	MsgID1      uint64 = 1
	MsgID2      uint64 = 2
	MsgIDText   uint64 = 3
	MsgIDStatus uint64 = 4
)

// Msg1 reports a signed distance and the operating mode.
type Msg1 struct {
	message.Base
}

// NewMsg1 creates a Msg1 with default field values.
func NewMsg1() *Msg1 {
	return &Msg1{Base: message.NewBase(MsgID1, "Msg1", msg1DistanceDef.New(), msg1ModeDef.New())}
}

// FieldF1 returns the distance field.
func (m *Msg1) FieldF1() Distance { return Distance{m.Fields()[0].(*field.Int)} }

// FieldF2 returns the mode field.
func (m *Msg1) FieldF2() ModeField { return ModeField{m.Fields()[1].(*field.Enum)} }

// Msg2 reports an unsigned distance, a duration and the status flags.
type Msg2 struct {
	message.Base
}

// NewMsg2 creates a Msg2 with default field values.
func NewMsg2() *Msg2 {
	return &Msg2{Base: message.NewBase(MsgID2, "Msg2", msg2DistanceDef.New(), msg2DurationDef.New(), msg2FlagsDef.New())}
}

// FieldF1 returns the distance field.
func (m *Msg2) FieldF1() Distance { return Distance{m.Fields()[0].(*field.Int)} }

// FieldF2 returns the duration field.
func (m *Msg2) FieldF2() Duration { return Duration{m.Fields()[1].(*field.Float)} }

// FieldF3 returns the flags field.
func (m *Msg2) FieldF3() Flags { return Flags{m.Fields()[2].(*field.Bitmask)} }

// Text carries a label, an opaque blob and a counter.
type Text struct {
	message.Base
}

// NewText creates a Text with default field values.
func NewText() *Text {
	return &Text{Base: message.NewBase(MsgIDText, "Text", textLabelDef.New(), textBlobDef.New(), textCounterDef.New())}
}

// FieldF1 returns the label field.
func (m *Text) FieldF1() *field.String { return m.Fields()[0].(*field.String) }

// FieldF2 returns the blob field.
func (m *Text) FieldF2() *field.Data { return m.Fields()[1].(*field.Data) }

// FieldF3 returns the counter field.
func (m *Text) FieldF3() *field.Int { return m.Fields()[2].(*field.Int) }

// Status reports a channel header, a position, a temperature and an optional
// sequence number at the end of the payload.
type Status struct {
	message.Base
}

// NewStatus creates a Status with default field values.
func NewStatus() *Status {
	return &Status{Base: message.NewBase(MsgIDStatus, "Status",
		statusHeaderDef.New(), statusPositionDef.New(), statusTemperatureDef.New(), statusSeqDef.New())}
}

// FieldF1 returns the header field.
func (m *Status) FieldF1() Header { return Header{m.Fields()[0].(*field.Bitfield)} }

// FieldF2 returns the position field.
func (m *Status) FieldF2() Position { return Position{m.Fields()[1].(*field.Bundle)} }

// FieldF3 returns the temperature field.
func (m *Status) FieldF3() Temperature { return Temperature{m.Fields()[2].(*field.Float)} }

// FieldF4 returns the sequence number field.
func (m *Status) FieldF4() Sequence { return Sequence{m.Fields()[3].(*field.Optional)} }
