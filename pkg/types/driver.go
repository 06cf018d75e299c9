package types

// Supported relational store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
