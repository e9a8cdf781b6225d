package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeEmptyCart, status: http.StatusBadRequest, publicMsg: "cart contains no items", detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeNoOpenTill, status: http.StatusUnprocessableEntity, publicMsg: "no open till for this user", detailsOK: true},
		{code: CodeTillAlreadyOpen, status: http.StatusConflict, publicMsg: "an open till already exists for this user", detailsOK: true},
		{code: CodeOverReturn, status: http.StatusUnprocessableEntity, publicMsg: "return quantity exceeds remaining quantity", detailsOK: true},
		{code: CodeReturnWindowExpired, status: http.StatusForbidden, publicMsg: "the allowed return period has expired", detailsOK: true},
		{code: CodeDuplicateInvoice, status: http.StatusConflict, publicMsg: "invoice number already used", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeInsufficientStock, "only 4 left")
	if base.Code() != CodeInsufficientStock {
		t.Fatalf("expected insufficient stock code, got %s", base.Code())
	}
	if base.Message() != "only 4 left" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	withDetails := base.WithDetails(map[string]any{"available": 4})
	if withDetails.Details() == nil {
		t.Fatal("expected details after WithDetails")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "store write failed")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatal("wrapped error should unwrap to cause")
	}
	if As(wrapped) == nil {
		t.Fatal("As should recover the typed error")
	}
}

func TestWrapNilCauseBehavesLikeNew(t *testing.T) {
	err := Wrap(CodeValidation, nil, "quantity must be positive")
	if err.Unwrap() != nil {
		t.Fatal("expected nil cause")
	}
	if err.Code() != CodeValidation {
		t.Fatalf("unexpected code %s", err.Code())
	}
}
