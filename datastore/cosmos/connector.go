/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
	"go.uber.org/zap"
)

// Connector builds Cosmos DB clients from AccountEndpoint/AccountKey connection strings.
type Connector struct {
	logger    *zap.Logger
	transport policy.Transporter
}

// ConnectorOption configures a Connector
type ConnectorOption func(*Connector)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ConnectorOption {
	return func(c *Connector) {
		c.logger = logger
	}
}

// WithTransport replaces the HTTP transport of every client built by the connector.
func WithTransport(t policy.Transporter) ConnectorOption {
	return func(c *Connector) {
		c.transport = t
	}
}

// NewConnector creates a Connector.
func NewConnector(opts ...ConnectorOption) *Connector {
	c := &Connector{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOptions maps the throttling policy onto azcore retry options. Only 429
// responses are retried, at a fixed interval.
func ClientOptions(opts datastore.ConnectOptions) *azcosmos.ClientOptions {
	return &azcosmos.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    int32(opts.MaxRetries),
				RetryDelay:    opts.RetryDelay,
				MaxRetryDelay: opts.RetryDelay,
				StatusCodes:   []int{http.StatusTooManyRequests},
			},
		},
	}
}

// Connect implements datastore.Connector.
func (c *Connector) Connect(ctx context.Context, connectionString string, opts datastore.ConnectOptions) (datastore.Client, error) {
	settings := datastore.ParseConnectionString(connectionString)
	endpoint := settings.Get("AccountEndpoint")
	if endpoint == "" {
		return nil, errors.NewValidationError("AccountEndpoint", "is required in a Cosmos DB connection string")
	}

	clientOpts := ClientOptions(opts)
	if c.transport != nil {
		clientOpts.Transport = c.transport
	}
	client, err := azcosmos.NewClientFromConnectionString(connectionString, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cosmos DB client: %w", err)
	}

	c.logger.Info("Cosmos DB client initialized",
		zap.String("endpoint", endpoint),
		zap.Int("maxRetries", opts.MaxRetries),
		zap.Duration("retryDelay", opts.RetryDelay))
	return NewClient(client), nil
}
