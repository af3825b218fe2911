package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

// signBody reproduces the provider's signing scheme: the callback URL with
// every form parameter appended in sorted key order, HMAC-SHA1 digested with
// the auth token and base64 encoded.
func signBody(authToken, callbackURL string, body string) string {
	values, _ := url.ParseQuery(body)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	base := callbackURL
	for _, k := range keys {
		base += k + values.Get(k)
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateFormAcceptsCorrectSignature(t *testing.T) {
	const authToken = "12345"
	const callbackURL = "https://voice.example-motors.com/voice/inbound"
	const body = "CallSid=CA123&From=%2B14155551234&To=%2B15550001111"

	v := NewSignatureValidator(authToken)
	signature := signBody(authToken, callbackURL, body)

	assert.True(t, v.ValidateForm(callbackURL, []byte(body), signature))
}

func TestValidateFormRejectsTamperedBody(t *testing.T) {
	const authToken = "12345"
	const callbackURL = "https://voice.example-motors.com/voice/inbound"

	v := NewSignatureValidator(authToken)
	signature := signBody(authToken, callbackURL, "CallSid=CA123&From=%2B14155551234")

	tampered := "CallSid=CA123&From=%2B19999999999"
	assert.False(t, v.ValidateForm(callbackURL, []byte(tampered), signature))
}

func TestValidateFormRejectsWrongURL(t *testing.T) {
	const authToken = "12345"
	const body = "CallSid=CA123"

	v := NewSignatureValidator(authToken)
	signature := signBody(authToken, "https://voice.example-motors.com/voice/inbound", body)

	assert.False(t, v.ValidateForm("https://voice.example-motors.com/voice/gather", []byte(body), signature))
}

func TestValidateFormRejectsMissingSignature(t *testing.T) {
	v := NewSignatureValidator("12345")
	assert.False(t, v.ValidateForm("https://voice.example-motors.com/voice/inbound", []byte("CallSid=CA123"), ""))
}

func TestValidateFormDisabledAcceptsEverything(t *testing.T) {
	v := NewSignatureValidator("")
	assert.False(t, v.IsEnabled())
	assert.True(t, v.ValidateForm("https://anything", []byte("CallSid=CA123"), ""))
}
