package dbexec

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const DefaultDriver = "mysql"

// Profile is a named database connection descriptor.
type Profile struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`

	// defaults to mysql, sqlite backs the tests and the local dev database
	Driver string `json:"driver"`
	// when set it is passed to the driver verbatim
	DSN string `json:"dsn"`

	// open one bounded pool for the whole command instead of a connection per statement
	Pooled       bool `json:"pooled"`
	MaxOpenConns int  `json:"max_open_conns"`
	// Go duration string
	ConnectTimeout string `json:"connect_timeout"`
}

func (p Profile) DriverName() string {
	if p.Driver == "" {
		return DefaultDriver
	}
	return p.Driver
}

// DataSource returns the driver name and DSN for the profile.
func (p Profile) DataSource() (string, string, error) {
	driver := p.DriverName()
	if p.DSN != "" {
		return driver, p.DSN, nil
	}
	if driver != DefaultDriver {
		return "", "", fmt.Errorf("driver %s requires an explicit dsn", driver)
	}
	if p.Host == "" {
		return "", "", fmt.Errorf("mysql profile requires a host")
	}

	port := p.Port
	if port == 0 {
		port = 3306
	}

	cfg := mysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(port))
	cfg.DBName = p.Database
	if p.ConnectTimeout != "" {
		timeout, err := time.ParseDuration(p.ConnectTimeout)
		if err != nil {
			return "", "", fmt.Errorf("parse connect_timeout %q: %w", p.ConnectTimeout, err)
		}
		cfg.Timeout = timeout
	}
	return driver, cfg.FormatDSN(), nil
}

// Profiles maps profile names (ex. "production-read", "production-write",
// "dev") to connection descriptors.
type Profiles map[string]Profile

func (p Profiles) Lookup(name string) (Profile, error) {
	profile, ok := p[name]
	if !ok {
		names := make([]string, 0, len(p))
		for n := range p {
			names = append(names, n)
		}
		sort.Strings(names)
		return Profile{}, fmt.Errorf("unknown database profile %q (have: %s)", name, strings.Join(names, ", "))
	}
	return profile, nil
}
