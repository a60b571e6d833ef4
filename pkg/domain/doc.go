// Package domain holds the value types shared across the pool: account
// identities and amounts. Parsers here are the trust boundary for input
// arriving from transports.
package domain
