// Package config holds saltfish's server configuration, the options
// named in spec.md §6, rendered with an addSection/addField String()
// helper for startup logging.
package config

import (
	"fmt"
	"strings"
)

// RiakConfig configures the KV object store endpoint (records, schema
// snapshots, summarizer snapshots).
type RiakConfig struct {
	Host string
	Port int
}

// MariaDBConfig configures the relational metadata store.
type MariaDBConfig struct {
	Host     string
	Port     int
	DB       string
	User     string
	Password string
}

// RedisConfig configures the pub/sub channel backing the ListenerBus.
type RedisConfig struct {
	Host string
	Port int
	Key  string
}

// ServerConfig holds every option recognized by saltfish, per spec.md §6.
type ServerConfig struct {
	BindStr             string
	RecordsBucketPrefix string
	SchemasBucket       string
	SummarizersBucket   string

	Riak    RiakConfig
	MariaDB MariaDBConfig
	Redis   RedisConfig

	MaxGenerateIDCount uint32
	MaxRandomIndex     int64

	LogLevel string
}

// Default returns the built-in defaults, overridden by flags/env at
// startup.
func Default() ServerConfig {
	return ServerConfig{
		BindStr:             "0.0.0.0:7354",
		RecordsBucketPrefix: "records/",
		SchemasBucket:       "schemas",
		SummarizersBucket:   "summarizers",
		Riak: RiakConfig{
			Host: "127.0.0.1",
			Port: 6379,
		},
		MariaDB: MariaDBConfig{
			Host: "127.0.0.1",
			Port: 3306,
			DB:   "saltfish",
			User: "saltfish",
		},
		Redis: RedisConfig{
			Host: "127.0.0.1",
			Port: 6379,
			Key:  "saltfish-listeners",
		},
		MaxGenerateIDCount: 1000,
		MaxRandomIndex:     1 << 32,
		LogLevel:           "info",
	}
}

// String renders the configuration in an addSection/addField style,
// for startup logging.
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Bind Address", c.BindStr)

	addSection("Buckets")
	addField("Records Prefix", c.RecordsBucketPrefix)
	addField("Schemas Bucket", c.SchemasBucket)
	addField("Summarizers Bucket", c.SummarizersBucket)

	addSection("Riak (object store)")
	addField("Host", c.Riak.Host)
	addField("Port", fmt.Sprintf("%d", c.Riak.Port))

	addSection("MariaDB (metadata store)")
	addField("Host", c.MariaDB.Host)
	addField("Port", fmt.Sprintf("%d", c.MariaDB.Port))
	addField("Database", c.MariaDB.DB)
	addField("User", c.MariaDB.User)

	addSection("Redis (listener bus)")
	addField("Host", c.Redis.Host)
	addField("Port", fmt.Sprintf("%d", c.Redis.Port))
	addField("Channel Key", c.Redis.Key)

	addSection("Limits")
	addField("Max Generate Id Count", fmt.Sprintf("%d", c.MaxGenerateIDCount))
	addField("Max Random Index", fmt.Sprintf("%d", c.MaxRandomIndex))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// DSN returns the MySQL DSN for the configured MariaDB endpoint, used
// by internal/metadatastore.
func (c *MariaDBConfig) DSN() string {
	cred := c.User
	if c.Password != "" {
		cred = fmt.Sprintf("%s:%s", c.User, c.Password)
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", cred, c.Host, c.Port, c.DB)
}

// Addr returns host:port for a Riak/Redis endpoint.
func (c *RiakConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns host:port for the redis pub/sub endpoint.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
