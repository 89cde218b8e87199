// Package handler turns HTTP requests into service calls.
//
// Each endpoint declares a request struct; Handle and its variants bind path
// and body into a fresh value, validate it, run the typed endpoint and write
// the result. Errors are left to the global error handler.
package handler
