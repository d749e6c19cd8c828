// Package schema exposes the warehouse DDL bundles and dialect helpers used
// by the persistence adapters. The bundle covers staging tables, dimension
// and fact tables, the execution audit log, and the static seed rows.
package schema

import (
	"bufio"
	"fmt"
	"strings"
)

// Dialect identifies a SQL dialect the warehouse can run against.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Postgres returns the warehouse DDL for PostgreSQL.
func Postgres() string {
	return buildDDL(DialectPostgres)
}

// SQLite returns the warehouse DDL for SQLite.
func SQLite() string {
	return buildDDL(DialectSQLite)
}

// SplitStatements splits a semicolon-terminated DDL script into executable
// statements. It drops blank lines and single-line comments starting with "--".
func SplitStatements(ddl string) []string {
	scanner := bufio.NewScanner(strings.NewReader(ddl))
	var stmts []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		stmts = append(stmts, tail)
	}

	return stmts
}

// Rebind rewrites "?" placeholders into the positional form the dialect
// expects. Queries throughout the loader are written with "?" and rebound at
// execution time; SQLite takes them as-is, PostgreSQL needs $1..$n.
func Rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func buildDDL(d Dialect) string {
	float := "DOUBLE PRECISION"
	if d == DialectSQLite {
		float = "REAL"
	}
	return strings.ReplaceAll(ddlTemplate, "{FLOAT}", float) + seedStatements
}
