package storage

// Package storage provides the SQLite-backed persistence core: versioned
// schema migrations, busy-retry execution, sequential voucher-number
// allocation, and parameterized search filters.
