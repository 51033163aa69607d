package search

import (
	"fmt"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/trendwatch/internal/config"
)

// NewClient creates an Elasticsearch client from the search configuration
// and verifies the connection with a ping.
func NewClient(cfg config.SearchConfig) (*es.Client, error) {
	address := cfg.URL
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}

	clientConfig := es.Config{
		Addresses: []string{address},
	}
	if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error pinging Elasticsearch: %s", res.String())
	}

	return client, nil
}
