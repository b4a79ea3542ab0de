package lib

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDriver(t *testing.T) {
	cases := []struct {
		connStr, driver, dsn string
	}{
		{"corpcode.db", DRIVER_SQLITE, "corpcode.db"},
		{"file:corpcode.db?cache=shared", DRIVER_SQLITE, "file:corpcode.db?cache=shared"},
		{"sqlite://corpcode.db", DRIVER_SQLITE, "corpcode.db"},
		{"sqlite3:///tmp/corpcode.db", DRIVER_SQLITE, "/tmp/corpcode.db"},
		{"postgres://u:p@localhost:5432/dart", DRIVER_POSTGRES, "postgres://u:p@localhost:5432/dart?sslmode=disable"},
		{"postgresql://u@localhost/dart?connect_timeout=5", DRIVER_POSTGRES, "postgresql://u@localhost/dart?connect_timeout=5&sslmode=disable"},
		{"postgres://u@localhost/dart?sslmode=require", DRIVER_POSTGRES, "postgres://u@localhost/dart?sslmode=require"},
		{"host=localhost port=5432 user=u dbname=dart", DRIVER_POSTGRES, "host=localhost port=5432 user=u dbname=dart sslmode=disable"},
		{"mysql://u:p@tcp(localhost:3306)/dart", DRIVER_MYSQL, "u:p@tcp(localhost:3306)/dart"},
	}
	for _, c := range cases {
		driver, dsn := GetDriver(c.connStr)
		assert.Equal(t, c.driver, driver, c.connStr)
		assert.Equal(t, c.dsn, dsn, c.connStr)
	}
}

func TestSqliteFilePath(t *testing.T) {
	assert.Equal(t, "corpcode.db", SqliteFilePath("corpcode.db"))
	assert.Equal(t, "corpcode.db", SqliteFilePath("file:corpcode.db?cache=shared"))
	assert.Equal(t, "", SqliteFilePath(":memory:"))
	assert.Equal(t, "", SqliteFilePath("file:x?mode=memory"))
	assert.Equal(t, "", SqliteFilePath("postgres://u@localhost/dart"))
}

func TestRebind(t *testing.T) {
	pg := &DB{Driver: DRIVER_POSTGRES}
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", pg.Rebind("SELECT a FROM t WHERE b = ? AND c = ?"))
	lite := &DB{Driver: DRIVER_SQLITE}
	assert.Equal(t, "SELECT ?", lite.Rebind("SELECT ?"))
}

func TestQuery_DBIsNil_ReturnsErrNoDb(t *testing.T) {
	rows, err := Query("SELECT * FROM corps", nil, 1000)
	assert.ErrorIs(t, err, ErrNoDb)
	assert.Nil(t, rows)

	res, err := Exec("DELETE FROM corps", nil, 0)
	assert.ErrorIs(t, err, ErrNoDb)
	assert.Nil(t, res)

	_, err = CountRows(nil, "corps")
	assert.ErrorIs(t, err, ErrNoDb)
}

func TestOpenDb_EmptyConnStr_ReturnsError(t *testing.T) {
	_, err := OpenDb("")
	assert.Error(t, err)
}

func TestOpenDb_Sqlite(t *testing.T) {
	db, err := OpenDb(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DRIVER_SQLITE, db.Driver)
	_, err = Exec("CREATE TABLE t (a TEXT)", db, 0)
	require.NoError(t, err)
	_, err = Exec("INSERT INTO t (a) VALUES (?), (?)", db, 0, "x", "y")
	require.NoError(t, err)
	n, err := CountRows(db, "t")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = Query("SELECT * FROM no_such_table", db, 0)
	assert.Error(t, err)
}
