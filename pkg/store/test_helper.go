package store

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/iov-one/block-ledger/utils"
)

// pgTarget describes the Postgres server used by tests. Every field can be
// overridden with a POSTGRES_TEST_* environment variable.
type pgTarget struct {
	host, port, user, password, sslmode string
}

func testTarget() pgTarget {
	return pgTarget{
		host:     utils.Env("POSTGRES_TEST_HOST", "localhost"),
		port:     utils.Env("POSTGRES_TEST_PORT", "5432"),
		user:     utils.Env("POSTGRES_TEST_USER", "postgres"),
		password: utils.Env("POSTGRES_TEST_PASSWORD", "postgres"),
		sslmode:  utils.Env("POSTGRES_TEST_SSLMODE", "disable"),
	}
}

func (p pgTarget) dsn(dbname string) string {
	return fmt.Sprintf("host='%s' port='%s' user='%s' password='%s' dbname='%s' sslmode='%s'",
		p.host, p.port, p.user, p.password, dbname, p.sslmode)
}

// EnsureDB creates a fresh archive database with the schema applied and
// returns a connection to it. The test is skipped when no Postgres server
// answers. cleanup drops the database.
func EnsureDB(t *testing.T) (testdb *sql.DB, cleanup func()) {
	t.Helper()

	target := testTarget()
	admin, err := sql.Open("postgres", target.dsn("postgres"))
	if err != nil {
		t.Skipf("cannot connect to postgres: %s", err)
	}
	if err := admin.Ping(); err != nil {
		admin.Close()
		t.Skipf("cannot ping postgres: %s", err)
	}

	name := "ledger_test_" + strings.Replace(uuid.New().String(), "-", "", -1)
	if _, err := admin.Exec("CREATE DATABASE " + name); err != nil {
		admin.Close()
		t.Fatalf("cannot create database: %s", err)
	}
	drop := func() {
		if _, err := admin.Exec("DROP DATABASE IF EXISTS " + name); err != nil {
			t.Logf("cannot drop test database %q: %s", name, err)
		}
		admin.Close()
	}

	testdb, err = sql.Open("postgres", target.dsn(name))
	if err == nil {
		err = testdb.Ping()
	}
	if err == nil {
		err = EnsureSchema(testdb)
	}
	if err != nil {
		if testdb != nil {
			testdb.Close()
		}
		drop()
		t.Fatalf("cannot prepare test database: %s", err)
	}

	return testdb, func() {
		testdb.Close()
		drop()
	}
}
