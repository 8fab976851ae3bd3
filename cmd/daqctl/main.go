// Command daqctl drives the encoder recorder from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mccdaq/statusync"
)

// Default server base URL; DAQ_SERVER or --server override it.
var serverBaseURL = "http://localhost:8080"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: daqctl [--server URL] status|start|stop|watch [flags]\n")
	flag.PrintDefaults()
}

func main() {
	serverFlag := flag.String("server", "", "Recorder base URL (e.g. http://daq.local:8080)")
	flag.Usage = usage
	flag.Parse()

	if env := os.Getenv("DAQ_SERVER"); env != "" {
		serverBaseURL = strings.TrimRight(env, "/")
	}
	if *serverFlag != "" {
		serverBaseURL = strings.TrimRight(*serverFlag, "/")
	}

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	client, err := statusync.New(serverBaseURL)
	if err != nil {
		return err
	}

	switch cmd {
	case "status":
		view := statusync.NewTerminalView("", "")
		if err := statusync.NewSyncer(client, view).Initialize(ctx); err != nil {
			return err
		}
		return view.Print(os.Stdout)

	case "start":
		fs := flag.NewFlagSet("start", flag.ExitOnError)
		title := fs.String("title", "", "Recording title, used for the file name")
		content := fs.String("content", "", "Free-form notes stored with the recording")
		_ = fs.Parse(args)

		view := statusync.NewTerminalView(*title, *content)
		if err := statusync.NewSyncer(client, view).Start(ctx); err != nil {
			return err
		}
		return view.Print(os.Stdout)

	case "stop":
		view := statusync.NewTerminalView("", "")
		if err := statusync.NewSyncer(client, view).Stop(ctx); err != nil {
			return err
		}
		return view.Print(os.Stdout)

	case "watch":
		view := statusync.NewTerminalView("", "")
		printing := &printingView{TerminalView: view}
		return statusync.NewSyncer(client, printing).Follow(ctx, client)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// printingView prints a line each time a render completes.
type printingView struct {
	*statusync.TerminalView
}

func (p *printingView) SetFilename(name string) {
	p.TerminalView.SetFilename(name)
	_ = p.TerminalView.Print(os.Stdout)
}
