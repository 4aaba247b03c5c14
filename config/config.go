package config

type StorageType string

const STORAGE_TYPE_POSTGRES StorageType = "postgres"
const STORAGE_TYPE_INMEM StorageType = "memory"

type PublisherType string

const PUBLISHER_TYPE_REDIS PublisherType = "redis"
const PUBLISHER_TYPE_NOOP PublisherType = "noop"

type Config struct {
	PostgresConfig PostgresConfig
	RedisConfig    RedisConfig
	HttpPort       int
	StorageType    StorageType
	PublisherType  PublisherType
	LogLevel       string
}

type PostgresConfig struct {
	DSN string
}

type RedisConfig struct {
	Addrs     []string
	Namespace string
}
