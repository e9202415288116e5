package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./secrets.db"

	// DefaultMinPasswordLength is the shortest password accepted at registration
	DefaultMinPasswordLength = 5

	// DefaultGoogleUserInfoURL is the OpenID userinfo endpoint used to read the profile id
	DefaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)
