package config

import "strconv"

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	db, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return db
}

// GetSessionNamespace isolates this application's persisted session
// from other tenants of the same Redis database.
func (Storage) GetSessionNamespace() string {
	return GetEnv("SESSION_NAMESPACE", "default")
}
