// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command dlcatctl queries dLeyna media servers on the bus directly and
// prints the catalog view as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/dlcat/internal/api"
	"github.com/ManuGH/dlcat/internal/bus"
	"github.com/ManuGH/dlcat/internal/bus/dbusconn"
	"github.com/ManuGH/dlcat/internal/catalog"
	"github.com/ManuGH/dlcat/internal/config"
	"github.com/ManuGH/dlcat/internal/dleyna"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/query"
	"github.com/ManuGH/dlcat/internal/registry"
	"github.com/ManuGH/dlcat/internal/translator"
	"github.com/ManuGH/dlcat/internal/version"
)

// session is an open catalog on the bus.
type session struct {
	client  *dleyna.Client
	servers *registry.Registry
	lib     *catalog.Library
	close   func()
}

type globalFlags struct {
	address string
	timeout time.Duration
	verbose bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, openSession))
}

type opener func(ctx context.Context, g globalFlags) (*session, error)

func run(args []string, stdout, stderr io.Writer, open opener) int {
	fs := flag.NewFlagSet("dlcatctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var g globalFlags
	fs.StringVar(&g.address, "bus", config.ParseString(config.EnvBusAddress, ""), "D-Bus address (default: session bus)")
	fs.DurationVar(&g.timeout, "timeout", config.DefaultCallTimeout, "overall command timeout")
	fs.BoolVar(&g.verbose, "v", false, "debug logging to stderr")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr)
		return 2
	}

	level := "warn"
	if g.verbose {
		level = "debug"
	}
	xglog.Configure(xglog.Config{Level: level, Output: stderr, Service: "dlcatctl", Version: version.Version})

	cmd, cmdArgs := rest[0], rest[1:]
	if cmd == "version" {
		fmt.Fprintln(stdout, version.String())
		return 0
	}
	handler, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		usage(stderr)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	s, err := open(ctx, g)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer s.close()

	out, err := handler(ctx, s, cmdArgs)
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if out == nil {
		return 0
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: dlcatctl [-bus ADDR] [-timeout D] [-v] COMMAND [ARGS]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  servers                      list media servers")
	fmt.Fprintln(w, "  browse [URI]                 list the children of URI (default: dleyna:)")
	fmt.Fprintln(w, "  lookup URI                   list the tracks addressed by URI")
	fmt.Fprintln(w, "  search [-exact] [-uri URI]... FIELD=VALUE...")
	fmt.Fprintln(w, "                               search tracks, albums and artists")
	fmt.Fprintln(w, "  images URI...                list images for URIs")
	fmt.Fprintln(w, "  playback URI                 print the playable URL of a track")
	fmt.Fprintln(w, "  properties URI               dump the raw object properties")
	fmt.Fprintln(w, "  refresh [URI]                ask the servers to rescan")
	fmt.Fprintln(w, "  version                      print version")
}

func openSession(ctx context.Context, g globalFlags) (*session, error) {
	conn, err := dbusconn.Dial(dbusconn.Config{
		Address:     g.address,
		Destination: dleyna.BusName,
		CallTimeout: g.timeout,
	})
	if err != nil {
		return nil, err
	}
	return newSession(ctx, conn, func() { _ = conn.Close() })
}

func newSession(ctx context.Context, tr bus.Transport, closeFn func()) (*session, error) {
	client := dleyna.NewClient(bus.NewGateway(tr))
	reg := registry.New(client)
	if err := reg.Start(); err != nil {
		closeFn()
		return nil, fmt.Errorf("start registry: %w", err)
	}
	if err := reg.WaitReady(ctx); err != nil {
		_ = reg.Close()
		closeFn()
		return nil, fmt.Errorf("enumerate servers: %w", err)
	}
	return &session{
		client:  client,
		servers: reg,
		lib:     catalog.New(reg, client),
		close: func() {
			_ = reg.Close()
			closeFn()
		},
	}, nil
}

var errUsage = errors.New("invalid arguments")

type command func(ctx context.Context, s *session, args []string) (any, error)

var commands = map[string]command{
	"servers":    cmdServers,
	"browse":     cmdBrowse,
	"lookup":     cmdLookup,
	"search":     cmdSearch,
	"images":     cmdImages,
	"playback":   cmdPlayback,
	"properties": cmdProperties,
	"refresh":    cmdRefresh,
}

func cmdServers(_ context.Context, s *session, args []string) (any, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("%w: servers takes no arguments", errUsage)
	}
	out := []api.ServerInfo{}
	for _, srv := range s.servers.List() {
		out = append(out, api.ServerInfo{
			UDN:        srv.UDN,
			Name:       srv.FriendlyName,
			URI:        translator.ServerURI(srv),
			Path:       srv.Path,
			SearchCaps: srv.SearchCaps,
			SortCaps:   srv.SortCaps,
		})
	}
	return out, nil
}

func cmdBrowse(ctx context.Context, s *session, args []string) (any, error) {
	uri := catalog.RootURI
	switch len(args) {
	case 0:
	case 1:
		uri = args[0]
	default:
		return nil, fmt.Errorf("%w: browse takes at most one URI", errUsage)
	}
	return s.lib.Browse(ctx, uri)
}

func oneURI(name string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: %s takes exactly one URI", errUsage, name)
	}
	return args[0], nil
}

func cmdLookup(ctx context.Context, s *session, args []string) (any, error) {
	uri, err := oneURI("lookup", args)
	if err != nil {
		return nil, err
	}
	return s.lib.Lookup(ctx, uri)
}

// uriList collects repeated -uri flags.
type uriList []string

func (u *uriList) String() string { return strings.Join(*u, ",") }

func (u *uriList) Set(v string) error {
	*u = append(*u, v)
	return nil
}

func cmdSearch(ctx context.Context, s *session, args []string) (any, error) {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	exact := fs.Bool("exact", false, "match values exactly")
	var uris uriList
	fs.Var(&uris, "uri", "restrict search to URI (repeatable)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	q, err := parseQuery(fs.Args())
	if err != nil {
		return nil, err
	}
	return s.lib.Search(ctx, q, uris, *exact)
}

// parseQuery turns FIELD=VALUE terms into a query; repeated fields
// accumulate values.
func parseQuery(terms []string) (query.Query, error) {
	q := query.Query{}
	for _, term := range terms {
		field, value, ok := strings.Cut(term, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("%w: search term %q is not FIELD=VALUE", errUsage, term)
		}
		q[field] = append(q[field], value)
	}
	return q, nil
}

func cmdImages(ctx context.Context, s *session, args []string) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: images takes one or more URIs", errUsage)
	}
	return s.lib.GetImages(ctx, args)
}

func cmdPlayback(ctx context.Context, s *session, args []string) (any, error) {
	uri, err := oneURI("playback", args)
	if err != nil {
		return nil, err
	}
	url, err := s.lib.TranslateURI(ctx, uri)
	if err != nil {
		return nil, err
	}
	return map[string]string{"uri": uri, "url": url}, nil
}

func cmdProperties(ctx context.Context, s *session, args []string) (any, error) {
	uri, err := oneURI("properties", args)
	if err != nil {
		return nil, err
	}
	u, err := translator.Decompose(uri)
	if err != nil {
		return nil, err
	}
	if u.IsRoot() {
		return nil, fmt.Errorf("%w: properties needs a server URI", errUsage)
	}
	srv, err := s.servers.Get(u.UDN)
	if err != nil {
		return nil, err
	}
	return s.client.Properties(translator.NativePath(srv, u), "").Wait(ctx)
}

func cmdRefresh(ctx context.Context, s *session, args []string) (any, error) {
	uri := catalog.RootURI
	switch len(args) {
	case 0:
	case 1:
		uri = args[0]
	default:
		return nil, fmt.Errorf("%w: refresh takes at most one URI", errUsage)
	}
	return nil, s.lib.Refresh(ctx, uri)
}
