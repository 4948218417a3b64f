// Package migrations embeds the schema for the relational store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
