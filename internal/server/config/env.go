package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays configuration from environment variables. Durations are
// given in seconds, which is how deployment manifests usually carry them.
//
// Supported variables:
//
//	BLOG_ADDRESS               HTTP bind address
//	BLOG_DATABASE_DSN          PostgreSQL DSN
//	BLOG_REDIS_ADDR            Redis address
//	BLOG_REDIS_PASSWORD        Redis password
//	BLOG_REDIS_DB              Redis database number
//	BLOG_SECRET_KEY            token signing secret
//	BLOG_TOKEN_TTL             token validity, seconds
//	BLOG_REVOCATION_RETENTION  revocation record retention, seconds
//	BLOG_POST_CACHE_TTL        post cache entry lifetime, seconds
//	BLOG_S3_ROOT_USER, BLOG_S3_ROOT_PASSWORD, BLOG_S3_BUCKET,
//	BLOG_S3_REGION, BLOG_S3_BASE_ENDPOINT
func parseEnv(config *Config) {
	setString := func(name string, target *string) {
		if v, ok := os.LookupEnv(name); ok {
			*target = v
		}
	}
	setSeconds := func(name string, target *time.Duration) {
		if v, ok := os.LookupEnv(name); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*target = time.Duration(n) * time.Second
			}
		}
	}

	setString("BLOG_ADDRESS", &config.EndpointAddrHTTP)
	setString("BLOG_DATABASE_DSN", &config.DatabaseDSN)
	setString("BLOG_REDIS_ADDR", &config.RedisAddr)
	setString("BLOG_REDIS_PASSWORD", &config.RedisPassword)
	if v, ok := os.LookupEnv("BLOG_REDIS_DB"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.RedisDB = n
		}
	}
	setString("BLOG_SECRET_KEY", &config.SecretKey)
	setSeconds("BLOG_TOKEN_TTL", &config.TokenValidityDuration)
	setSeconds("BLOG_REVOCATION_RETENTION", &config.RevocationRetentionDuration)
	setSeconds("BLOG_POST_CACHE_TTL", &config.PostCacheTTL)
	setString("BLOG_S3_ROOT_USER", &config.S3RootUser)
	setString("BLOG_S3_ROOT_PASSWORD", &config.S3RootPassword)
	setString("BLOG_S3_BUCKET", &config.S3Bucket)
	setString("BLOG_S3_REGION", &config.S3Region)
	setString("BLOG_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}
