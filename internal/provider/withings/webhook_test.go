package withings_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
	"wearsync/internal/provider/withings"
)

func signBase64(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhook(t *testing.T) {
	c := withings.New()
	body := []byte(`{"userid":33663211}`)

	t.Run("valid signature", func(t *testing.T) {
		t.Setenv("WITHINGS_WEBHOOK_SECRET", "topsecret")
		if !c.VerifyWebhook(signBase64("topsecret", body), body) {
			t.Fatal("expected valid signature to verify")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Setenv("WITHINGS_WEBHOOK_SECRET", "topsecret")
		if c.VerifyWebhook(signBase64("othersecret", body), body) {
			t.Fatal("expected mismatched signature to fail")
		}
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("WITHINGS_WEBHOOK_SECRET", "")
		if c.VerifyWebhook(signBase64("topsecret", body), body) {
			t.Fatal("expected verification to fail without a configured secret")
		}
	})
}

func TestParseWebhook(t *testing.T) {
	t.Setenv("WITHINGS_WEBHOOK_SECRET", "topsecret")
	c := withings.New()

	body := []byte(`{"userid":33663211,"notification":{"category":"weight"},"body":{"measuregrps":[{"date":1700000000,"weight":81.2}]}}`)
	header := http.Header{}
	header.Set(withings.SignatureHeader, signBase64("topsecret", body))

	payload, err := c.ParseWebhook(header, body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if payload.Provider != domain.ProviderWithings {
		t.Fatalf("provider = %s", payload.Provider)
	}
	if payload.Event != "weight" {
		t.Fatalf("event = %s", payload.Event)
	}
	if payload.ExternalUserID != "33663211" {
		t.Fatalf("external id = %s", payload.ExternalUserID)
	}
	// The whole body rides along as the event data.
	if string(payload.Data) != string(body) {
		t.Fatal("expected the full body as data")
	}
}

func TestParseWebhook_NestedUserID(t *testing.T) {
	t.Setenv("WITHINGS_WEBHOOK_SECRET", "topsecret")
	c := withings.New()

	body := []byte(`{"notification":{"category":"weight","userid":44}}`)
	header := http.Header{}
	header.Set(withings.SignatureHeader, signBase64("topsecret", body))

	payload, err := c.ParseWebhook(header, body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if payload.ExternalUserID != "44" {
		t.Fatalf("external id = %s", payload.ExternalUserID)
	}
}

func TestParseWebhook_RejectsBeforeParsing(t *testing.T) {
	t.Setenv("WITHINGS_WEBHOOK_SECRET", "topsecret")
	c := withings.New()

	body := []byte(`not json at all`)
	header := http.Header{}
	header.Set(withings.SignatureHeader, "AAAA")

	_, err := c.ParseWebhook(header, body)
	if !errors.Is(err, provider.ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}

	header.Set(withings.SignatureHeader, signBase64("topsecret", body))
	_, err = c.ParseWebhook(header, body)
	if err == nil || errors.Is(err, provider.ErrBadSignature) {
		t.Fatalf("expected a decode error, got %v", err)
	}
}

func TestParseWebhook_UnknownEventFallback(t *testing.T) {
	t.Setenv("WITHINGS_WEBHOOK_SECRET", "topsecret")
	c := withings.New()

	body := []byte(`{"userid":1}`)
	header := http.Header{}
	header.Set(withings.SignatureHeader, signBase64("topsecret", body))

	payload, err := c.ParseWebhook(header, body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if payload.Event != "unknown" {
		t.Fatalf("event = %s", payload.Event)
	}
}
