package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token
// on requests to either node.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header value.
const BearerPrefix = "Bearer "

// DefaultUserName is the account captures are attributed to when the request
// carries no authenticated user.
const DefaultUserName = "default_user"

// HealthServiceName is the service the cloud node reports in gRPC health
// checks.
const HealthServiceName = "closetsync.cloud"
