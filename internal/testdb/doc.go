// Package testdb provides helpers for tests that need a real PostgreSQL
// database. Tests using it should carry the integration build tag and skip
// when IsIntegrationTestEnvironment reports false.
package testdb
