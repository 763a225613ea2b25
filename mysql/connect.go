package mysql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sheetsync/sheets-to-mysql/etl"
)

// Credentials is the database secret layout: a JSON object with the engine,
// username, password, host and port. The port may be a number or a string.
type Credentials struct {
	Engine   string `json:"engine"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     Port   `json:"port"`
	Database string `json:"dbname"`
}

type Port int

func (p *Port) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid port '%s'", s)
	}

	*p = Port(v)

	return nil
}

// DSN builds the driver data source name for database from a secret. The
// secret is either a DSN string or the JSON credentials. If server is not
// empty the JSON is an object keyed by server name, and each server entry
// is either the credentials object or the credentials JSON encoded as a
// string.
func DSN(secret []byte, server string, database string) (string, error) {
	secret = bytes.TrimSpace(secret)
	if len(secret) == 0 {
		return "", etl.Errorf(etl.Credential, "empty database credentials")
	}

	if secret[0] != '{' {
		config, err := driver.ParseDSN(string(secret))
		if err != nil {
			return "", etl.Wrap(etl.Credential, err, "invalid database DSN")
		}

		if database != "" {
			config.DBName = database
		}

		config.ParseTime = true

		return config.FormatDSN(), nil
	}

	credentials, err := parse(secret, server)
	if err != nil {
		return "", err
	}

	engine := strings.ToLower(credentials.Engine)
	if engine != "" && !strings.Contains(engine, "mysql") && !strings.Contains(engine, "mariadb") {
		return "", etl.Errorf(etl.Credential, "unsupported database engine '%s'", credentials.Engine)
	}

	if credentials.Host == "" {
		return "", etl.Errorf(etl.Credential, "missing database host")
	}

	port := credentials.Port
	if port == 0 {
		port = 3306
	}

	config := driver.NewConfig()
	config.User = credentials.Username
	config.Passwd = credentials.Password
	config.Net = "tcp"
	config.Addr = net.JoinHostPort(credentials.Host, strconv.Itoa(int(port)))
	config.DBName = credentials.Database
	config.ParseTime = true
	config.Loc = time.UTC

	if database != "" {
		config.DBName = database
	}

	return config.FormatDSN(), nil
}

func parse(secret []byte, server string) (*Credentials, error) {
	if server != "" {
		servers := map[string]json.RawMessage{}
		if err := json.Unmarshal(secret, &servers); err != nil {
			return nil, etl.Wrap(etl.Credential, err, "invalid database credentials")
		}

		entry, ok := servers[server]
		if !ok {
			return nil, etl.Errorf(etl.Credential, "no credentials for server '%s'", server)
		}

		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			entry = []byte(s)
		}

		secret = entry
	}

	credentials := Credentials{}
	if err := json.Unmarshal(secret, &credentials); err != nil {
		return nil, etl.Wrap(etl.Credential, err, "invalid database credentials")
	}

	return &credentials, nil
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, etl.Wrap(etl.WriteFailed, err, "unable to open database")
	}

	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, etl.Wrap(etl.WriteFailed, err, "unable to connect to database")
	}

	return db, nil
}
