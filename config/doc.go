/*
Package config describes how a storage instance authenticates.

Exactly one of three variants is active per instance:

	config.ConnectionString{Base: base, Value: "AccountEndpoint=...;AccountKey=..."}
	config.ManagedIdentity{Base: base, TenantID: tid, SubscriptionID: sub}
	config.ServicePrincipal{Base: base, AppID: app, AppSecret: secret, TenantID: tid, SubscriptionID: sub}

Validate lists every missing required field. Check folds that list into a
single errors.ConfigurationError; storage construction fails when it is non-nil.

Configs can be built in code, from <PREFIX>_* environment variables (with .env
and .env.local loaded first) via FromEnv, or from a YAML file via LoadFile.
String never renders secrets.
*/
package config
