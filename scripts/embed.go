// Package scripts embeds the SQL scripts run at startup into the binary.
//
// Scripts are referenced by file name from the database.scripts config list
// and executed in order with database.LaunchScripts.
package scripts

import "embed"

// Bootstrap creates the tables the daemon itself relies on.
const Bootstrap = "bootstrap.sql"

// FS holds every .sql file in this directory, at the root of the FS.
//
//go:embed *.sql
var FS embed.FS
