package storage

import "fmt"

// Backend identifies a concrete storage engine kind. The set is fixed
// at build time; selecting a backend happens once at configuration
// time and yields a typed Adapter handle, so no call site ever
// dispatches on the backend name.
type Backend int

const (
	Postgres Backend = iota
	MySQL
	SQLServer
	MongoDB
)

var backendNames = map[Backend]string{
	Postgres:  "postgres",
	MySQL:     "mysql",
	SQLServer: "sqlserver",
	MongoDB:   "mongodb",
}

func (b Backend) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend maps a configuration string to a Backend.
func ParseBackend(s string) (Backend, error) {
	for b, name := range backendNames {
		if name == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown backend %q", s)
}

// Backends returns all supported backend kinds in declaration order.
func Backends() []Backend {
	return []Backend{Postgres, MySQL, SQLServer, MongoDB}
}
