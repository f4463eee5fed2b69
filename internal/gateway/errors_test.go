package gateway

import (
	"errors"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	dmBlocked := &APIError{Status: 403, Code: 50007, Message: "Cannot send messages to this user"}
	unknownUser := &APIError{Status: 404, Code: 10013, Message: "Unknown User"}
	other := &APIError{Status: 429, Code: 0, Message: "You are being rate limited"}

	if !IsDMBlocked(dmBlocked) {
		t.Error("expected 50007 to classify as dm blocked")
	}
	if IsDMBlocked(unknownUser) || IsDMBlocked(other) {
		t.Error("other codes must not classify as dm blocked")
	}

	if !IsUnknownUser(unknownUser) {
		t.Error("expected 10013 to classify as unknown user")
	}
	if IsUnknownUser(dmBlocked) || IsUnknownUser(other) {
		t.Error("other codes must not classify as unknown user")
	}

	if IsDMBlocked(errors.New("plain error")) || IsUnknownUser(nil) {
		t.Error("non-api errors must not classify")
	}
}
