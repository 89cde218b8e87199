// Package model holds the domain types shared by repositories, services
// and handlers: accounts, conversations, ratings, portfolio items and the
// service request state machine.
package model
