// Package transport carries framed messages over byte streams: plain io.Reader
// loops, TCP connections and websocket connections.
//
// Every connection owns one frame.Stream, so a frame split across reads, or across
// websocket messages, is reassembled before decoding:
//
//	srv, _ := transport.NewServer(f, func(c *transport.Conn) frame.Dispatcher {
//	    return demo.NewDispatcher(handler{conn: c})
//	})
//	err := srv.ListenAndServe(ctx, ":5000")
//
// WSHandler serves the same streams over websocket binary messages and DialWS is its
// client. Connection goroutines stop when the context passed to Serve, or the request
// context, is done.
package transport
