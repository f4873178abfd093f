// Package migrations embeds the SQL migration files for the HAL audit
// trail schema, read by golang-migrate via its iofs source driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
