/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
	"go.uber.org/zap"
)

// Connection string settings understood by the connector:
//
//	Region=us-east-1;AccessKeyId=AKIA...;SecretAccessKey=...;Endpoint=http://localhost:8000
//
// Without AccessKeyId the default AWS credential chain is used. Endpoint points
// the client at DynamoDB Local or another compatible service.
const (
	SettingRegion          = "Region"
	SettingAccessKeyID     = "AccessKeyId"
	SettingSecretAccessKey = "SecretAccessKey"
	SettingSessionToken    = "SessionToken"
	SettingEndpoint        = "Endpoint"
)

// Connector builds DynamoDB clients from connection strings.
type Connector struct {
	logger *zap.Logger
}

// ConnectorOption configures a Connector
type ConnectorOption func(*Connector)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ConnectorOption {
	return func(c *Connector) {
		c.logger = logger
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

// Connect implements datastore.Connector.
func (c *Connector) Connect(ctx context.Context, connectionString string, opts datastore.ConnectOptions) (datastore.Client, error) {
	settings := datastore.ParseConnectionString(connectionString)
	region := settings.Get(SettingRegion)
	if region == "" {
		return nil, errors.NewValidationError(SettingRegion, "is required in a DynamoDB connection string")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithRetryMaxAttempts(opts.MaxRetries + 1),
	}
	if key := settings.Get(SettingAccessKeyID); key != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, settings.Get(SettingSecretAccessKey), settings.Get(SettingSessionToken)),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	endpoint := settings.Get(SettingEndpoint)
	api := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	c.logger.Info("DynamoDB client initialized", zap.String("region", region), zap.String("endpoint", endpoint))
	return NewClient(api), nil
}
