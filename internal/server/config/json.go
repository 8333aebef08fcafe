package config

import (
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/goblog/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Interval fields use timex.Duration, which accepts both string values
// such as "1h" and integer nanoseconds. After unmarshalling, its fields are
// copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	RedisAddr                   string         `json:"redis_addr"`
	RedisPassword               string         `json:"redis_password"`
	RedisDB                     int            `json:"redis_db"`
	SecretKey                   string         `json:"secret_key"`
	TokenValidityDuration       timex.Duration `json:"token_validity_duration"`
	RevocationRetentionDuration timex.Duration `json:"revocation_retention_duration"`
	PostCacheTTL                timex.Duration `json:"post_cache_ttl"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// jsonConfigPath extracts the value of the -c/-config flag without consuming
// the rest of the command line, which parseFlags handles later.
func jsonConfigPath(args []string) string {
	fs := flag.NewFlagSet("json-config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	short := fs.String("c", "", "path to a JSON configuration file")
	long := fs.String("config", "", "path to a JSON configuration file (long form)")
	_ = fs.Parse(filterArgs(args, []string{"-c", "-config", "--config"}))
	if *short != "" {
		return *short
	}
	return *long
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c/-config flags; when none
// is given, no JSON file is loaded. An unreadable or invalid file panics, the
// same way a bad flag value would abort startup.
func parseJson(config *Config) {
	jsonConfigFile := jsonConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.RedisAddr = c.RedisAddr
	config.RedisPassword = c.RedisPassword
	config.RedisDB = c.RedisDB
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = c.TokenValidityDuration.Duration
	config.RevocationRetentionDuration = c.RevocationRetentionDuration.Duration
	config.PostCacheTTL = c.PostCacheTTL.Duration
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
