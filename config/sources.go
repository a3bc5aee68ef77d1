package config

import (
	"fmt"

	"bugmaschine/booru-mux/booru"
)

// Clients builds a client for each named source, or for the whole catalogue
// when names is empty.
func (c *Config) Clients(names ...string) ([]booru.Source, error) {
	cat, err := c.Sources()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = cat.Names()
	}

	clients := make([]booru.Source, 0, len(names))
	for _, name := range names {
		src, ok := cat.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q (have %v)", name, cat.Names())
		}
		client, err := booru.New(src, booru.WithUserAgent(c.UserAgent))
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, nil
}
