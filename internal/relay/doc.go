// Package relay spawns the upstream MCP server and shuttles
// newline-delimited JSON-RPC between it and the client's stdio.
//
// Two loops move the traffic. The outbound loop runs on the caller's
// goroutine, reading the client stream and passing each decoded message
// through the interceptor: forwarded lines go to the upstream's stdin
// verbatim, synthetic responses go straight back to the client. The
// inbound loop runs in the background, reading the upstream's stdout
// and offering every line to the response rewriter before handing it to
// the client.
//
// When the client stream ends, the relay closes the upstream's stdin,
// drains the inbound loop, waits for the process, and reports its exit
// code. The upstream's stderr is never intercepted; it flows directly
// to the configured destination.
package relay
