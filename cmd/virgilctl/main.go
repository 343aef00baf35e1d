package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/virgilaudio/virgil/client"
	"github.com/virgilaudio/virgil/proto"
)

const usage = `usage: virgilctl [flags] <command> [args]

commands:
  info <channel>                show a channel's parameters and links
  link <sending> <receiving>    link a remote sending channel to a receiving channel
  link <aux-sending>            announce an aux sending channel
  unlink <sending> <receiving>  remove an established link
  watch <channel>               print link updates for a channel until interrupted

channels are written as kind/index, e.g. tx/0, rx/3, aux/1
`

func main() {
	addr := flag.String("addr", "", "device address (host:port), discovered over mDNS when empty")
	useWS := flag.Bool("ws", false, "connect over WebSocket instead of TCP")
	name := flag.String("name", "virgilctl", "controller name")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}

	c, err := connect(*name, *addr, *useWS)
	if err != nil {
		fatal(err)
	}
	defer c.Close()

	switch args[0] {
	case "info":
		err = runInfo(c, args[1:])
	case "link":
		err = runLink(c, args[1:], false)
	case "unlink":
		err = runLink(c, args[1:], true)
	case "watch":
		err = runWatch(c, args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func connect(name, addr string, useWS bool) (*client.Client, error) {
	var transport client.Transport
	if useWS {
		transport = client.NewWebSocketTransport()
	} else {
		transport = client.NewTCPTransport()
	}

	if addr == "" {
		var device *client.DiscoveredDevice
		var err error
		if useWS {
			device, err = client.DiscoverWebSocketDevice(5 * time.Second)
		} else {
			device, err = client.DiscoverTCPDevice(5 * time.Second)
		}
		if err != nil {
			return nil, err
		}
		addr = device.Addr()
	}

	c := client.NewClient(name, transport)
	if err := c.Start(addr); err != nil {
		return nil, err
	}
	return c, nil
}

func runInfo(c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("info takes exactly one channel argument")
	}
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}

	info, err := c.RequestInfo(ch)
	if err != nil {
		return err
	}

	data, err := proto.Marshal(info)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runLink(c *client.Client, args []string, unlink bool) error {
	var sending proto.ChannelID
	var receiving *proto.ChannelID
	switch len(args) {
	case 1:
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		sending = ch
	case 2:
		s, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		r, err := parseChannel(args[1])
		if err != nil {
			return err
		}
		sending, receiving = s, &r
	default:
		return fmt.Errorf("link and unlink take one or two channel arguments")
	}

	if unlink {
		return c.Unlink(sending, receiving)
	}
	return c.Link(sending, receiving)
}

func runWatch(c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("watch takes exactly one channel argument")
	}
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}

	c.OnChannelUpdate(ch, func(msg proto.Message) {
		data, err := proto.Marshal(msg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "marshal error:", err)
			return
		}
		fmt.Println(string(data))
	})

	// Devices push updates only to sessions that asked about the channel
	if _, err := c.RequestInfo(ch); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "watching %s, press ctrl-c to stop\n", ch)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}

func parseChannel(s string) (proto.ChannelID, error) {
	kindStr, indexStr, ok := strings.Cut(s, "/")
	if !ok {
		return proto.ChannelID{}, fmt.Errorf("invalid channel %q, want kind/index like tx/0", s)
	}

	var kind proto.ChannelKind
	switch kindStr {
	case "tx":
		kind = proto.Transmit
	case "rx":
		kind = proto.Receive
	case "aux":
		kind = proto.Auxiliary
	default:
		return proto.ChannelID{}, fmt.Errorf("unknown channel kind %q, want tx, rx, or aux", kindStr)
	}

	index, err := strconv.ParseUint(indexStr, 10, 16)
	if err != nil {
		return proto.ChannelID{}, fmt.Errorf("invalid channel index %q: %v", indexStr, err)
	}

	return proto.ChannelID{Kind: kind, Index: uint16(index)}, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "virgilctl:", err)
	os.Exit(1)
}
