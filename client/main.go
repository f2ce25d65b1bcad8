package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zl21st/natpmpc/natpmp"
)

func main() {
	gw := flag.String("g", "", "gateway address, discovered if empty")
	proto := flag.String("t", "", "map a port: udp or tcp, query the public address if empty")
	privatePort := flag.Uint("i", 0, "private port")
	publicPort := flag.Uint("e", 0, "suggested public port")
	lifetime := flag.Uint("L", 7200, "mapping lifetime in seconds, 0 deletes the mapping")
	timeout := flag.Int("O", 3, "timeout, in seconds")
	debug := flag.Bool("D", false, "enable debug mode")
	version := flag.Bool("version", false, "show version")
	flag.Parse()

	if *version {
		fmt.Println(natpmp.Version)
		return
	}

	var opts []natpmp.Option
	if *debug {
		logger := log.New()
		logger.SetFormatter(&log.TextFormatter{
			DisableColors:   false,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		logger.SetLevel(log.DebugLevel)
		opts = append(opts, natpmp.WithLogger(logger))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeout)*time.Second)
	defer cancel()

	var (
		cln *natpmp.Client
		err error
	)
	if *gw == "" {
		cln, err = natpmp.NewDefault(ctx, opts...)
	} else {
		ip := net.ParseIP(*gw)
		if ip == nil || ip.To4() == nil {
			log.Fatalf("invalid gateway address %q", *gw)
		}
		cln, err = natpmp.NewWithGateway(ctx, ip.To4(), opts...)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer cln.Close()

	fmt.Println("Gateway:", cln.Gateway())

	switch *proto {
	case "":
		res, err := cln.GetPublicAddress(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("Epoch:", res.Epoch)
		fmt.Println("External IP:", res.PublicAddress)
	case "udp", "tcp":
		p := natpmp.UDP
		if *proto == "tcp" {
			p = natpmp.TCP
		}
		private, public, secs, err := mappingArgs(*privatePort, *publicPort, *lifetime)
		if err != nil {
			log.Fatal(err)
		}
		if secs == 0 {
			if err := cln.DeletePortMapping(ctx, p, private); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Deleted: %s/%d\n", p, private)
			return
		}
		res, err := cln.AddPortMapping(ctx, p, private, public, secs)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("Epoch:", res.Epoch)
		fmt.Println("Protocol:", res.Protocol)
		fmt.Println("Private Port:", res.PrivatePort)
		fmt.Println("External Port:", res.PublicPort)
		fmt.Println("Lifetime:", res.Lifetime)
	default:
		log.Fatalf("unknown protocol %q", *proto)
	}
}

// mappingArgs checks the mapping flags against their wire widths.
func mappingArgs(privatePort, publicPort, lifetime uint) (uint16, uint16, uint32, error) {
	if privatePort == 0 || privatePort > math.MaxUint16 {
		return 0, 0, 0, fmt.Errorf("private port must be in 1-65535")
	}
	if publicPort > math.MaxUint16 {
		return 0, 0, 0, fmt.Errorf("public port must be in 0-65535")
	}
	if uint64(lifetime) > math.MaxUint32 {
		return 0, 0, 0, fmt.Errorf("lifetime must be at most %d seconds", uint32(math.MaxUint32))
	}
	return uint16(privatePort), uint16(publicPort), uint32(lifetime), nil
}
