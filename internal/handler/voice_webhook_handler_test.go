package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/motordesk/dealer-voice-service/internal/cache"
	"github.com/motordesk/dealer-voice-service/internal/domain"
	"github.com/motordesk/dealer-voice-service/internal/services/directory"
	"github.com/motordesk/dealer-voice-service/internal/services/routing"
	"github.com/motordesk/dealer-voice-service/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRedis struct {
	counters map[string]int64
}

func (m *memoryRedis) GenerateKey(keyType redis.KeyType, identifier string) string {
	return fmt.Sprintf("%s:%s", string(keyType), identifier)
}

func (m *memoryRedis) GetValue(ctx context.Context, key string) (string, error) {
	return "", redis.ErrKeyNotExist
}

func (m *memoryRedis) SetValue(ctx context.Context, key string, value string, ttl time.Duration) error {
	return nil
}

func (m *memoryRedis) DelValue(ctx context.Context, key string) error {
	delete(m.counters, key)
	return nil
}

func (m *memoryRedis) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.counters[key]++
	return m.counters[key], nil
}

func newTestVoiceHandler(repo *fakeAgentRepo) *VoiceWebhookHandler {
	dir := directory.NewAgentDirectory(repo, nil)
	dir.SetSeed(1)
	engine := routing.NewEngine(dir, routing.Config{
		BusinessNumber:       "+15550001111",
		SupportNumber:        "+15550002222",
		PublicBaseURL:        "https://voice.example-motors.com",
		ClientIdentityPrefix: "client:",
		OfficeInfoMessage:    "We are open nine to seven.",
	})
	retries := cache.NewRetryCounter(&memoryRedis{counters: make(map[string]int64)}, 2)
	return NewVoiceWebhookHandler(engine, retries)
}

func postVoiceForm(t *testing.T, handlerFunc http.HandlerFunc, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestInboundCallFromClientReturnsDialMarkup(t *testing.T) {
	h := newTestVoiceHandler(newFakeAgentRepo())

	rec := postVoiceForm(t, h.handleInboundCall, "/voice/inbound", url.Values{
		"CallSid":   {"CA100"},
		"From":      {"client:alice"},
		"To":        {"+14155551234"},
		"Direction": {"inbound"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/xml")
	body := rec.Body.String()
	assert.Contains(t, body, "<Response>")
	assert.Contains(t, body, "<Dial")
	assert.Contains(t, body, "+14155551234")
	assert.NotContains(t, body, "{")
}

func TestInboundCallWithNoEligibleAgentsSpeaksGoodbye(t *testing.T) {
	h := newTestVoiceHandler(newFakeAgentRepo())

	rec := postVoiceForm(t, h.handleInboundCall, "/voice/inbound", url.Values{
		"CallSid":   {"CA101"},
		"From":      {"+14155559876"},
		"To":        {"+15550001111"},
		"Direction": {"inbound"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, routing.MsgNoAgents)
	assert.Contains(t, body, "<Hangup")
}

func TestGatherUnrecognizedDigitReoffersMenuThenEndsCall(t *testing.T) {
	h := newTestVoiceHandler(newFakeAgentRepo())
	values := url.Values{
		"CallSid": {"CA102"},
		"Digits":  {"9"},
	}

	// Two re-prompts within the bound.
	for i := 0; i < 2; i++ {
		rec := postVoiceForm(t, h.handleGatherResult, "/voice/gather", values)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<Gather", "attempt %d should re-offer the menu", i+1)
	}

	// The third unrecognized input ends the call gracefully.
	rec := postVoiceForm(t, h.handleGatherResult, "/voice/gather", values)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<Gather")
	assert.Contains(t, body, routing.MsgRetryExceeded)
}

func TestGatherSupportDigitDialsSupportNumber(t *testing.T) {
	h := newTestVoiceHandler(newFakeAgentRepo())

	rec := postVoiceForm(t, h.handleGatherResult, "/voice/gather", url.Values{
		"CallSid": {"CA103"},
		"Digits":  {"2"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, routing.MsgSupportConnect)
	assert.Contains(t, body, "+15550002222")
	assert.Less(t, strings.Index(body, "<Say>"), strings.Index(body, "<Dial"))
}

func TestConnectDialsInitiatingAgent(t *testing.T) {
	repo := newFakeAgentRepo()
	_, err := repo.Create(context.Background(), &domain.CreateAgentRequest{
		Identity:  "bob",
		FirstName: "Bob",
		LastName:  "Seller",
		Role:      domain.RoleBroker,
	})
	require.NoError(t, err)

	h := newTestVoiceHandler(repo)

	rec := postVoiceForm(t, h.handleConnectAgent, "/voice/connect?identity=bob", url.Values{
		"CallSid": {"CA104"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<Client")
	assert.Contains(t, body, "bob")
}

func TestConnectUnknownIdentityRejects(t *testing.T) {
	h := newTestVoiceHandler(newFakeAgentRepo())

	rec := postVoiceForm(t, h.handleConnectAgent, "/voice/connect?identity=ghost", url.Values{
		"CallSid": {"CA105"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), routing.MsgRejectInvalid)
}
