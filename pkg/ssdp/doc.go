// Package ssdp implements the Simple Service Discovery Protocol flows on top
// of the message, transport and receiver packages.
//
// A Client searches for devices, announces them and listens for
// announcements:
//
//	client, err := ssdp.NewClient(ssdp.ClientConfig{
//	    Transport:     transport.DefaultConfig().WithMode(transport.IPv4Only),
//	    LoggerFactory: logging.NewDefaultLoggerFactory(),
//	})
//	if err != nil {
//	    return err
//	}
//
//	req := ssdp.NewSearch(header.STRootDevice, 2)
//	responses, err := client.Multicast(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer responses.Close()
//	for resp := range responses.All(ctx) {
//	    loc, _ := message.Get[header.Location](resp)
//	    fmt.Println(resp.Source(), loc)
//	}
//
// Searches collect responses until the request's MX has elapsed, or two
// seconds when MX is absent. Listen runs until closed.
//
// A device answers searches with ListenSearch and Reply, and announces
// itself with Notify.
package ssdp
