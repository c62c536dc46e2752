// Package demo is a small protocol binding in the shape produced by a schema code
// generator: message types with typed field accessors, a frame definition, and a
// handler with one override per message plus a fallback.
//
//	msg := demo.NewMsg2()
//	_ = msg.FieldF1().SetMeters(0.1) // raw 10000, 100 mm
//
//	f := demo.MustNewFrame()
//	data, _ := f.Encode(msg)
//
//	type handler struct{ demo.BaseHandler }
//	func (handler) HandleMsg2(m *demo.Msg2) { ... }
//
//	_, err := f.ProcessInputData(data, demo.NewDispatcher(handler{}))
package demo
