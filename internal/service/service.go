// Package service contains the marketplace rules.
//
// It sits between the handler and repository layers: account registration
// and sessions, provider discovery, the service request lifecycle with its
// completion PIN, chat, ratings and portfolios. Services depend on the small
// interfaces in deps.go rather than on concrete repositories.
package service
