// Package errors provides examples of structured error handling in logexport.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/logexport/pkg/errors"
)

// Example demonstrates basic error creation and wrapping.
func Example() {
	err := errors.New(errors.ErrorTypeConfig, "configuration table name is required")

	// Add context details
	err = err.WithDetail("env", "LOGS_CONFIG_TABLE_NAME")

	fmt.Println(err.Error())

	// Output:
	// config: configuration table name is required
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	originalErr := io.ErrUnexpectedEOF

	err := errors.Wrap(originalErr, errors.ErrorTypeConnection, "failed to scan configuration table").
		WithDetail("table", "log-export-config")

	if errors.IsType(err, errors.ErrorTypeConnection) {
		fmt.Println("This is a connection error")
	}
	fmt.Println(err)

	// Output:
	// This is a connection error
	// connection: failed to scan configuration table: unexpected EOF
}

// ExampleIsRetryable demonstrates checking whether an error is transient.
func ExampleIsRetryable() {
	throttled := errors.New(errors.ErrorTypeRateLimit, "rate exceeded")
	missing := errors.New(errors.ErrorTypeNotFound, "log group does not exist")

	fmt.Println(errors.IsRetryable(throttled))
	fmt.Println(errors.IsRetryable(missing))

	// Output:
	// true
	// false
}
