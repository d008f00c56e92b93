package db

import _ "embed"

// Schema creates every table the session store needs, it is safe to run on an
// existing database.
//
//go:embed schema.sql
var Schema string
