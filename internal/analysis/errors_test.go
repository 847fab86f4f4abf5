package analysis

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindRoundTrip(t *testing.T) {
	for kind := range kindNames {
		if got := ParseKind(kind.String()); got != kind {
			t.Fatalf("ParseKind(%s) = %v", kind, got)
		}
	}
	if ParseKind("nope") != KindUnknown {
		t.Fatalf("expected unknown kind")
	}
}

func TestUserMessagesAreDistinct(t *testing.T) {
	missing := UserMessage(newError(KindCredentialMissing, "x", nil))
	invalid := UserMessage(newError(KindCredentialInvalid, "x", nil))
	transport := UserMessage(newError(KindTransport, "x", nil))
	empty := UserMessage(newError(KindEmptyResponse, "x", nil))
	malformed := UserMessage(newError(KindMalformedResponse, "x", nil))

	if missing == invalid || missing == transport || invalid == transport || transport == malformed {
		t.Fatalf("expected distinct messages")
	}
	if empty != transport {
		t.Fatalf("empty response should read like a transport failure")
	}
	if UserMessage(fmt.Errorf("boom")) == "" {
		t.Fatalf("expected fallback message")
	}
}

func TestErrorsIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("session: %w", newError(KindCredentialInvalid, "rejected", errors.New("401")))
	if !errors.Is(err, ErrCredentialInvalid) {
		t.Fatalf("expected credential invalid")
	}
	if errors.Is(err, ErrCredentialMissing) {
		t.Fatalf("kinds must not cross-match")
	}
	if KindOf(err) != KindCredentialInvalid {
		t.Fatalf("unexpected kind: %v", KindOf(err))
	}
}

func TestCleanRemoteMessage(t *testing.T) {
	msg := `got status 400: {"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`
	if got := cleanRemoteMessage(msg); got != "API key not valid. Please pass a valid API key." {
		t.Fatalf("unexpected message: %s", got)
	}
	if got := cleanRemoteMessage("plain failure"); got != "plain failure" {
		t.Fatalf("unexpected message: %s", got)
	}
}
