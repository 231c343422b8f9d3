// GoStamp — Stamp placement and PDF/DOCX compositing.
//
// Usage:
//
//	gostamp serve [--config gostamp.yaml] [--addr :8080] [--open]
//	gostamp stamp --doc <file> (--job <job.json> | --stamp <image>) -o <file>
//	gostamp init
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/xob0t/GoStamp/clients/server"
	"github.com/xob0t/GoStamp/pkg/config"
	"github.com/xob0t/GoStamp/pkg/session"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "stamp":
		err = runStamp(ctx, os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		stop()
		fatal(err)
	}
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		configPath string
		addr       string
		open       bool
	)
	fs.StringVar(&configPath, "config", "", "Path to gostamp.yaml (optional)")
	fs.StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	fs.BoolVar(&open, "open", false, "Open the editor in the desktop browser")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	log := cfg.Logger(os.Stdout)

	sc, closeSnap, err := collaborators(cfg, log)
	if err != nil {
		return err
	}
	defer closeSnap()

	srv := server.New(server.Config{
		Session:        session.New(sc),
		Logger:         log,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Export:         cfg.Export,
	})

	if open {
		go server.OpenBrowser(browserURL(cfg.Server.Addr))
	}
	return server.Run(ctx, cfg.Server.Addr, srv.Routes(), cfg.Server.ShutdownTimeout, log)
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var configOut, jobOut string
	fs.StringVar(&configOut, "config", "gostamp.yaml", "Output path for the sample configuration")
	fs.StringVar(&jobOut, "job", "job.json", "Output path for the sample batch job")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.WriteFile(configOut, []byte(config.SampleYAML()), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.WriteFile(jobOut, []byte(config.SampleJob()), 0644); err != nil {
		return fmt.Errorf("write job: %w", err)
	}

	fmt.Printf("Created: %s, %s\n", configOut, jobOut)
	fmt.Printf("Run: gostamp stamp --config %s --doc contract.pdf --job %s -o stamped.pdf\n", configOut, jobOut)
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`GoStamp — Stamp placement and document compositing

USAGE:
    gostamp serve [options]
    gostamp stamp --doc <file> (--job <path> | --stamp <image>) -o <file> [options]
    gostamp init [options]

SERVER:
    --config <path>        gostamp.yaml (optional, defaults otherwise)
    --addr <addr>          Listen address (default: :8080)
    --open                 Open the editor in the desktop browser

BATCH STAMPING:
    --config <path>        gostamp.yaml (optional)
    --doc <path>           Input document (.pdf or .docx)
    --job <path>           Job JSON with stamps and placements
    --stamp <path>         Single stamp image (instead of --job)
    --page <n>             Page for --stamp (default: 1)
    --x, --y <px>          Top-left of the stamp box in page pixels
    --size <px>            Stamp edge length (clamped to the configured limits)
    --rotation <deg>       Clockwise rotation
    --mode <pdf|html>      How DOCX input is handled (overrides converter.mode)
    -o, --output <path>    Output file (.pdf, .png, .bmp or .zip)

INIT:
    --config <path>        Sample configuration (default: gostamp.yaml)
    --job <path>           Sample job (default: job.json)

EXAMPLES:
    gostamp init
    gostamp serve --open
    gostamp stamp --doc contract.pdf --stamp approved.png --page 2 --x 400 --y 80 -o out.pdf
    gostamp stamp --doc letter.docx --job job.json -o pages.zip
`)
}
