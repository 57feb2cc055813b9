package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/veesix-networks/osvlan/pkg/northbound"
	"github.com/veesix-networks/osvlan/pkg/version"
)

type options struct {
	Server  string `short:"s" long:"server" env:"OSVLAN_SERVER" description:"osvland API address" default:"http://localhost:8080"`
	Version bool   `short:"v" long:"version" description:"Print version and exit"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] [command...]"

	rest, err := parser.Parse()
	if err != nil {
		code := 1
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			code = 0
		}
		os.Exit(code)
	}

	if opts.Version {
		fmt.Println("osvlancli", version.Full())
		return
	}

	server := opts.Server
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}

	cli := NewCLI(northbound.NewClient(server), os.Stdout)

	// A command on the command line runs once without the shell.
	if len(rest) > 0 {
		if err := cli.Exec(strings.Join(rest, " ")); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cli.Stop()
		os.Exit(0)
	}()

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
