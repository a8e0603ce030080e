package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesStackAndCause(t *testing.T) {
	inner := New(ErrorTypeNotFound, "missing")
	outer := Wrap(inner, ErrorTypeInternal, "outer")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
	assert.Equal(t, ErrorTypeInternal, GetType(outer))
	assert.Nil(t, Wrap(nil, ErrorTypeInternal, "nothing"))
}

func TestGetType_UnstructuredIsInternal(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, GetType(fmt.Errorf("plain")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ""},
		{"structured", New(ErrorTypePermission, "denied"), ErrorTypePermission},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrorTypeTimeout},
		{"not found", &smithy.GenericAPIError{Code: "ResourceNotFoundException"}, ErrorTypeNotFound},
		{"export in flight", &smithy.GenericAPIError{Code: "LimitExceededException"}, ErrorTypeConflict},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDeniedException"}, ErrorTypePermission},
		{"invalid parameter", &smithy.GenericAPIError{Code: "InvalidParameterException"}, ErrorTypeValidation},
		{"throttled", &smithy.GenericAPIError{Code: "ThrottlingException"}, ErrorTypeRateLimit},
		{"server fault", &smithy.GenericAPIError{Code: "Weird", Fault: smithy.FaultServer}, ErrorTypeConnection},
		{"unknown client fault", &smithy.GenericAPIError{Code: "Weird", Fault: smithy.FaultClient}, ErrorTypeInternal},
		{"transport", fmt.Errorf("dial tcp: connection refused"), ErrorTypeConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
