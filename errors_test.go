package hxview

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/pthm/hxview/lib/encoding"
)

func TestSentinelErrors(t *testing.T) {
	errs := []error{
		ErrNotFound,
		ErrDecryptFailed,
		ErrSignatureInvalid,
		ErrInvalidFormat,
		ErrHydrationFailed,
		ErrDeserialize,
		ErrSerialize,
		ErrDuplicateComponent,
		ErrInternal,
	}

	for i, err1 := range errs {
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestMisuseErrorsAreInternal(t *testing.T) {
	for _, err := range []error{ErrAttributeAfterContent, ErrScopeClosed, ErrScopeOrder, ErrInvalidUTF8} {
		if !IsInternal(err) {
			t.Errorf("IsInternal(%v) = false, want true", err)
		}
	}
	if IsInternal(ErrNotFound) {
		t.Error("IsInternal(ErrNotFound) = true, want false")
	}
}

func TestClassifiers(t *testing.T) {
	other := errors.New("other")
	tests := []struct {
		err      error
		notFound bool
		decrypt  bool
		internal bool
	}{
		{nil, false, false, false},
		{ErrNotFound, true, false, false},
		{fmt.Errorf("lookup: %w", ErrNotFound), true, false, false},
		{ErrDecryptFailed, false, true, false},
		{fmt.Errorf("island: %w", ErrSignatureInvalid), false, true, false},
		{ErrInvalidFormat, false, false, false},
		{fmt.Errorf("scope: %w", ErrScopeClosed), false, false, true},
		{other, false, false, false},
	}

	for _, tt := range tests {
		if got := IsNotFound(tt.err); got != tt.notFound {
			t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.notFound)
		}
		if got := IsDecryptionError(tt.err); got != tt.decrypt {
			t.Errorf("IsDecryptionError(%v) = %v, want %v", tt.err, got, tt.decrypt)
		}
		if got := IsInternal(tt.err); got != tt.internal {
			t.Errorf("IsInternal(%v) = %v, want %v", tt.err, got, tt.internal)
		}
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound},
		{"signature", ErrSignatureInvalid, http.StatusBadRequest},
		{"format", ErrInvalidFormat, http.StatusBadRequest},
		{"deserialize", deserializeError("body", errors.New("eof")), http.StatusBadRequest},
		{"serialize", serializeError("state", errors.New("cycle")), http.StatusInternalServerError},
		{"internal", ErrScopeOrder, http.StatusInternalServerError},
		{"http error", NewError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{"wrapped http error", fmt.Errorf("handler: %w", NewError(http.StatusConflict, "")), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	errs := []error{
		ErrNotFound,
		ErrDecryptFailed,
		ErrSignatureInvalid,
		ErrInvalidFormat,
		ErrHydrationFailed,
		ErrAttributeAfterContent,
		NewError(http.StatusForbidden, "nope"),
		&Error{Status: http.StatusBadGateway, Err: errors.New("upstream")},
	}

	for _, err := range errs {
		if !strings.HasPrefix(err.Error(), "hxview:") {
			t.Errorf("%q lacks the hxview: prefix", err.Error())
		}
	}
}

func TestWrapEncodingError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectWrapped  error
		isDecryptError bool
	}{
		{"nil error", nil, nil, false},
		{"encoding.ErrInvalidFormat", encoding.ErrInvalidFormat, ErrInvalidFormat, false},
		{"encoding.ErrSignatureInvalid", encoding.ErrSignatureInvalid, ErrSignatureInvalid, true},
		{"encoding.ErrDecryptFailed", encoding.ErrDecryptFailed, ErrDecryptFailed, true},
		{"other error", errors.New("other"), ErrDeserialize, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := wrapEncodingError(tt.err)

			if tt.expectWrapped == nil {
				if result != nil {
					t.Errorf("wrapEncodingError(nil) = %v, want nil", result)
				}
				return
			}
			if !errors.Is(result, tt.expectWrapped) {
				t.Errorf("wrapEncodingError(%v) = %v, want %v", tt.err, result, tt.expectWrapped)
			}
			if tt.isDecryptError && !IsDecryptionError(result) {
				t.Errorf("wrapEncodingError(%v) should be detected by IsDecryptionError", tt.err)
			}
		})
	}
}
