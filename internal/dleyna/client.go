// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dleyna

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ManuGH/dlcat/internal/bus"
	"github.com/ManuGH/dlcat/internal/future"
	xglog "github.com/ManuGH/dlcat/internal/log"
)

// Client issues dLeyna server calls through a bus gateway.
type Client struct {
	gw     *bus.Gateway
	logger zerolog.Logger
}

// NewClient creates a client on top of gw.
func NewClient(gw *bus.Gateway) *Client {
	return &Client{
		gw:     gw,
		logger: xglog.WithComponent("dleyna"),
	}
}

// Subscribe registers handler for a manager signal (FoundServer or LostServer).
func (c *Client) Subscribe(member string, handler func(path string)) (func(), error) {
	return c.gw.Transport().Subscribe(bus.Signal{Interface: ManagerInterface, Member: member}, handler)
}

// ListServers returns the object paths of all servers known to the manager.
func (c *Client) ListServers() *future.Future[[]string] {
	f := c.gw.Invoke(bus.Call{Object: RootPath, Interface: ManagerInterface, Method: "GetServers"})
	return future.Map(f, decodeStrings)
}

// Version returns the version of the dLeyna server daemon.
func (c *Client) Version() *future.Future[string] {
	f := c.gw.Invoke(bus.Call{Object: RootPath, Interface: ManagerInterface, Method: "GetVersion"})
	return future.Map(f, func(v any) (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%w: expected version string, got %T", ErrMalformed, v)
		}
		return s, nil
	})
}

// Rescan asks the manager to rediscover servers on the network.
func (c *Client) Rescan() *future.Future[struct{}] {
	f := c.gw.Invoke(bus.Call{Object: RootPath, Interface: ManagerInterface, Method: "Rescan"})
	return future.Then(f, func(any) struct{} { return struct{}{} })
}

// Properties returns every property of path for iface; an empty iface
// means all interfaces.
func (c *Client) Properties(path, iface string) *future.Future[map[string]any] {
	f := c.gw.Invoke(bus.Call{
		Object:    path,
		Interface: PropertiesInterface,
		Method:    "GetAll",
		Args:      []any{iface},
	})
	return future.Map(f, decodeProps)
}

// Server fetches and decodes the device properties of a server object.
func (c *Client) Server(path string) *future.Future[Server] {
	return future.Map(c.Properties(path, ""), DecodeServer)
}

// Object fetches and decodes the properties of a media object.
func (c *Client) Object(path string) *future.Future[Object] {
	return future.Map(c.Properties(path, ""), DecodeObject)
}

// ItemURLs returns the resource URLs of a media item.
func (c *Client) ItemURLs(path string) *future.Future[[]string] {
	return future.Map(c.Properties(path, ItemInterface), func(props map[string]any) ([]string, error) {
		return decodeStrings(props["URLs"])
	})
}

// ListChildren returns up to limit children of the container at path,
// starting at offset. A zero limit lets the server decide.
func (c *Client) ListChildren(path string, offset, limit int, filter []string, sort string) *future.Future[Listing] {
	f := c.gw.Invoke(bus.Call{
		Object:    path,
		Interface: ContainerInterface,
		Method:    "ListChildrenEx",
		Args:      []any{uint32(offset), uint32(limit), normalizeFilter(filter), sort},
	})
	return future.Map(f, func(v any) (Listing, error) {
		objs, n, err := decodeObjects(v, c.logger)
		if err != nil {
			return Listing{}, err
		}
		return Listing{Objects: objs, Returned: n}, nil
	})
}

// SearchObjects returns up to limit descendants of path matching query.
func (c *Client) SearchObjects(path, query string, offset, limit int, filter []string, sort string) *future.Future[SearchResult] {
	f := c.gw.Invoke(bus.Call{
		Object:    path,
		Interface: ContainerInterface,
		Method:    "SearchObjectsEx",
		Args:      []any{query, uint32(offset), uint32(limit), normalizeFilter(filter), sort},
	})
	return future.Map(f, func(v any) (SearchResult, error) {
		var res SearchResult
		objs := v
		// SearchObjectsEx replies (objects, total); the gateway collapses
		// that into a two element tuple.
		if tuple, ok := v.([]any); ok && len(tuple) == 2 {
			if _, isList := tuple[0].([]any); isList {
				objs = tuple[0]
				var total int
				if err := decode(tuple[1], &total); err == nil {
					res.Total = total
				}
			}
		}
		list, n, err := decodeObjects(objs, c.logger)
		if err != nil {
			return SearchResult{}, err
		}
		res.Objects, res.Returned = list, n
		return res, nil
	})
}

func normalizeFilter(filter []string) []string {
	if len(filter) == 0 {
		return []string{Wildcard}
	}
	return filter
}
