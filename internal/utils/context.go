// Package utils provides shared utility functions and constants
package utils

// ContextKeyConfig is the key used to store the store configuration in the echo context
const ContextKeyConfig = "s3config"

// ContextKeySession is the key used to store the session id in the echo context
const ContextKeySession = "session"

// ConfigCookieName is the default name of the configuration cookie
const ConfigCookieName = "s3-config"

// SessionCookieName is the name of the cookie carrying the upload session id
const SessionCookieName = "s3-session"
