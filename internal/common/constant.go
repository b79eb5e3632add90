package common

// AccessTokenHeaderName is the HTTP header carrying the bearer access token
// on requests to the session API.
const AccessTokenHeaderName = "Authorization"
