package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access
// token on protected requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme expected in the authorization header value.
const BearerPrefix = "Bearer"
