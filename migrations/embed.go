// Package migrations embeds the trip store schema for goose.
package migrations

import "embed"

// FS holds the *.sql migrations applied by database.PostgresClient.Migrate.
//
//go:embed *.sql
var FS embed.FS
