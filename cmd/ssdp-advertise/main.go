// ssdp-advertise announces a device over SSDP and answers searches for it
// until interrupted.
//
// Usage:
//
//	ssdp-advertise [options]
//
// Options:
//
//	-location Device description URL (required)
//	-nt       Advertised type (default: upnp:rootdevice)
//	-uuid     Device UUID (default: random)
//	-server   SERVER product string
//	-max-age  Advertisement lifetime (default: 30m)
//	-port, -ttl, -mode, -loopback, -v, -metrics as for all examples
//
// Example:
//
//	ssdp-advertise -location http://192.168.1.10:8080/desc.xml
package main

import (
	"errors"
	"flag"
	"log"
	"runtime"

	"github.com/backkem/ssdp/examples/advertise"
	"github.com/backkem/ssdp/examples/common"
	"github.com/backkem/ssdp/pkg/header"
	"github.com/backkem/ssdp/pkg/receiver"
	"github.com/backkem/ssdp/pkg/ssdp"
	"github.com/google/uuid"
)

var (
	location = flag.String("location", "", "Device description URL")
	nt       = flag.String("nt", string(header.STRootDevice), "Advertised type")
	id       = flag.String("uuid", "", "Device UUID (empty = random)")
	server   = flag.String("server", runtime.GOOS+"/1.0 UPnP/1.1 ssdp-advertise/1.0", "SERVER product string")
	maxAge   = flag.Duration("max-age", ssdp.DefaultMaxAge, "Advertisement lifetime")
)

func main() {
	opts := common.ParseFlags()
	if *location == "" {
		common.PrintUsage()
		log.Fatal("-location is required")
	}

	devID := uuid.New()
	if *id != "" {
		var err error
		if devID, err = uuid.Parse(*id); err != nil {
			log.Fatalf("Invalid -uuid: %v", err)
		}
	}

	dev := ssdp.Device{
		USN:      header.USN{UUID: devID, Target: *nt},
		Target:   *nt,
		Location: header.Location(*location),
		Server:   header.Server(*server),
		MaxAge:   *maxAge,
	}

	client, err := common.CreateClient(opts)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx, stop := common.SignalContext()
	defer stop()

	log.Printf("Advertising %s at %s", dev.USN, dev.Location)
	r := advertise.New(client, advertise.Options{
		Device:        dev,
		LoggerFactory: common.LoggerFactory(opts),
	})
	if err := r.Run(ctx); err != nil && !errors.Is(err, receiver.ErrExhausted) {
		log.Fatalf("Advertise error: %v", err)
	}
	log.Println("Shut down")
}
