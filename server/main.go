package main

import (
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zl21st/natpmpc/natpmp"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableColors:   false,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

func main() {
	srv := natpmp.Server{}
	flag.StringVar(&srv.Host, "h", "0.0.0.0", "listen address")
	flag.IntVar(&srv.Port, "p", natpmp.Port, "listen port")
	flag.StringVar(&srv.PublicAddr, "e", "", "external address announced to clients")
	lifetime := flag.Uint("L", 0, "maximum granted lifetime in seconds, 0 for no limit")
	result := flag.Uint("R", 0, "answer every request with this result code")
	debug := flag.Bool("D", false, "enable debug mode")
	version := flag.Bool("version", false, "show version")
	flag.Parse()

	if *version {
		fmt.Println(natpmp.Version)
		return
	}

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	srv.MaxLifetime = uint32(*lifetime)
	srv.Result = uint16(*result)
	if err := srv.Check(); err != nil {
		log.Fatal(err)
	}

	srv.Start()
}
