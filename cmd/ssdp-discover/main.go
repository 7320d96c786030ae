// ssdp-discover searches for SSDP devices, or listens for their
// announcements, and prints what it finds.
//
// Usage:
//
//	ssdp-discover [options]
//
// Options:
//
//	-st       Search target (default: ssdp:all)
//	-mx       Maximum response delay in seconds (default: 2)
//	-unicast  Send the search to this host:port instead of the group
//	-listen   Print NOTIFY announcements until interrupted
//	-port, -ttl, -mode, -loopback, -v, -metrics as for all examples
//
// Example:
//
//	ssdp-discover -st upnp:rootdevice -mx 3 -mode ipv4
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"

	"github.com/backkem/ssdp/examples/common"
	"github.com/backkem/ssdp/pkg/header"
	"github.com/backkem/ssdp/pkg/message"
	"github.com/backkem/ssdp/pkg/ssdp"
)

var (
	st      = flag.String("st", string(header.STAll), "Search target")
	mx      = flag.Uint("mx", 2, "Maximum response delay in seconds (1-255)")
	unicast = flag.String("unicast", "", "Send the search to this host:port")
	listen  = flag.Bool("listen", false, "Print NOTIFY announcements until interrupted")
)

func main() {
	opts := common.ParseFlags()
	if *mx > 255 {
		log.Fatalf("mx must be at most 255, got %d", *mx)
	}

	client, err := common.CreateClient(opts)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx, stop := common.SignalContext()
	defer stop()

	if *listen {
		notifies, err := client.Listen(ctx)
		if err != nil {
			log.Fatalf("Failed to listen: %v", err)
		}
		defer notifies.Close()
		for n := range notifies.All(ctx) {
			nts, _ := message.Get[header.NTS](n)
			nt, _ := message.Get[header.NT](n)
			usn, _ := message.Get[header.USN](n)
			fmt.Printf("%-22s %-12s %s %s\n", n.Source(), nts, nt, usn)
		}
		return
	}

	req := ssdp.NewSearch(header.ST(*st), header.MX(*mx))
	var results []*message.SearchResponse
	if *unicast != "" {
		results, err = searchUnicast(ctx, client, req, *unicast)
	} else {
		results, err = searchMulticast(ctx, client, req)
	}
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	for _, resp := range results {
		loc, _ := message.Get[header.Location](resp)
		usn, _ := message.Get[header.USN](resp)
		fmt.Printf("%-22s %s %s\n", resp.Source(), usn, loc)
	}
	log.Printf("%d responses", len(results))
}

func searchUnicast(ctx context.Context, client *ssdp.Client, req *message.SearchRequest, dst string) ([]*message.SearchResponse, error) {
	daddr, err := net.ResolveUDPAddr("udp", dst)
	if err != nil {
		return nil, err
	}
	local := "0.0.0.0:0"
	if daddr.IP.To4() == nil {
		local = "[::]:0"
	}

	r, err := client.Unicast(ctx, req, local, daddr.String())
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Collect(ctx), nil
}

func searchMulticast(ctx context.Context, client *ssdp.Client, req *message.SearchRequest) ([]*message.SearchResponse, error) {
	r, err := client.Multicast(ctx, req)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Collect(ctx), nil
}
