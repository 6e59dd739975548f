/*
Package auth resolves the connection string a storage instance connects with.

A config.ConnectionString is used as is. For config.ManagedIdentity and
config.ServicePrincipal the Resolver asks a Provider for a management-plane
token, finds the account named by the config's instance name, reads its primary
key and composes

	AccountEndpoint=<endpoint>;AccountKey=<key>

The result is cached per instance name for the lifetime of the Cache. Cached
values are never revalidated; rotating an account key requires a new cache.
Clients built from a managed identity resolution expire after 24 hours and those
from a service principal when its token expires, which is what triggers a rebuild.

Caches:

	auth.NewMemoryCache()                 // process-local
	auth.NewRedisCache(redisClient, "")   // shared between processes
	auth.DefaultCache                     // process-wide default

Usage:

	resolver := auth.NewResolver(auth.NewAzureProvider(nil), auth.WithLogger(logger))
	res, err := resolver.Resolve(ctx, cfg)
*/
package auth
