// Package sqlite stores resource cache entries in a SQLite file so cached
// collection pages survive a restart of the web process.
package sqlite
