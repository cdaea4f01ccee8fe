// Package mocks holds gomock doubles for the service's ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_checker_mock.go github.com/shopfront-dev/shopfront/internal/identity Checker
