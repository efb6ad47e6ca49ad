// Package testutil contains helpers used across tests to reduce boilerplate
// when faking the Serenity Star API: a fluent builder for streaming bodies
// and a recording httptest server. They are not intended for production
// usage.
package testutil
