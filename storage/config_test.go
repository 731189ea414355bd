package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	conf := DSNConf{User: "u", Password: "p", Host: "db", DB: "scripts"}

	dsn, err := DSN(DriverMySQL, conf)
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(db:3306)/scripts?charset=utf8mb4&parseTime=True", dsn)

	conf.Port = 6543
	dsn, err = DSN(DriverPostgres, conf)
	require.NoError(t, err)
	assert.Equal(t, "host=db user=u password=p dbname=scripts port=6543", dsn)

	_, err = DSN(DriverSQLite, conf)
	assert.Error(t, err)
	_, err = DSN("oracle", conf)
	assert.Error(t, err)
}

func TestConnectCreatesSQLiteDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := Connect(Config{Driver: DriverSQLite, DataDir: dir, MaxOpenConns: 1})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Ping())
	assert.FileExists(t, filepath.Join(dir, DefaultSQLiteFile))
}

func TestConnectUnknownDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "oracle"})
	assert.Error(t, err)
}
