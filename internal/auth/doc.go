// Package auth validates caller API keys against the clients table.
//
// Validation is read-only: the store issues a single SELECT and never writes.
// "No such key" and "key belongs to an inactive client" take the same path and
// are reported identically, as a plain false.
package auth
