// Package fakeback is the development backend for the SQL Parrot client: a
// stand-in for the production service that persists metadata in SQLite and
// simulates the SQL Server snapshot engine.
//
// It serves the same REST surface (response envelope included) plus the
// newline-JSON command bridge on a Unix socket, and enforces the same UI
// password rules: bcrypt-hashed storage, HS256 session tokens signed with a
// per-process secret, and an SQLPARROT_UI_PASSWORD seed honored only when
// no password is stored yet.
package fakeback
