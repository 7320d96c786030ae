// Package receiver turns datagrams arriving on one or more sockets into a
// sequence of validated SSDP messages of a single kind.
//
// A Receiver reads every socket concurrently and hands datagrams to the
// consumer one at a time. Each datagram is parsed as the expected kind;
// anything else is dropped silently, since a shared multicast group carries
// plenty of foreign traffic. Only exhaustion is reported: the deadline has
// passed, the context ended, every socket failed, or Close was called.
//
//	r := receiver.New[message.ResponseKind](conns, receiver.Config{Timeout: 2 * time.Second})
//	defer r.Close()
//	for resp := range r.All(ctx) {
//	    fmt.Println(resp.Source(), resp.String())
//	}
package receiver
