// Package frame provides layered framing of messages over byte streams.
//
// A frame definition is an ordered list of layers, outermost first. Every layer
// except the payload wraps the layers that follow it:
//
//	f, err := frame.New(registry, []frame.Layer{
//	    frame.Sync(0xAB, 0xCD),
//	    frame.Checksum(frame.CRC16CCITT),
//	    frame.Size(2),
//	    frame.ID(1),
//	    frame.Payload(),
//	})
//
// encodes a message as
//
//	AB CD | size(u16) | id(u8) | payload | crc16
//
// with the checksum covering the size, ID and payload bytes.
//
// # Decoding
//
// [Frame.Unwrap] decodes one frame and reports how many bytes it consumed. The
// consumed count never exceeds the input, and is zero only for ErrNeedMoreData, so a
// caller always makes progress by dropping the consumed bytes:
//
//   - ErrNeedMoreData: the input is a strict prefix of a frame.
//   - ErrSyncLost: the bytes up to the next possible sync marker are consumed.
//   - ErrChecksumMismatch, ErrInvalidSize: one byte is consumed when the frame has a
//     sync layer, so the next call rescans for a marker. Without one, the whole frame
//     is consumed.
//   - Message decode errors: the frame is well formed, it is consumed entirely.
//
// Frames carrying an unregistered message ID decode to [message.Raw].
//
// [Frame.ProcessInputData] decodes every complete frame of a buffer, and [Stream]
// keeps the pending bytes of a long-lived byte stream between reads.
package frame
