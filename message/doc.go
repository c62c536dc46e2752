// Package message defines schema-defined, ID-tagged messages built from field lists.
//
// Generated message types embed Base and add typed accessors:
//
//	type Position struct {
//	    message.Base
//	}
//
//	func NewPosition() *Position {
//	    return &Position{Base: message.NewBase(7, "Position", distanceDef.New())}
//	}
//
//	func (m *Position) FieldDistance() *field.Int {
//	    return m.Fields()[0].(*field.Int)
//	}
//
// A Registry maps IDs to factories so the frame layer can create the right message type
// for every decoded frame; IDs without a registered type decode into Raw messages.
package message
