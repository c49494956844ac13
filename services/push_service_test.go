package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/models"
)

// newTestPushService builds a PushService whose APNs client speaks plain
// HTTP so it can hit httptest servers.
func newTestPushService(tokens *TokenCache) *PushService {
	return &PushService{
		tokens:       tokens,
		apnsClient:   &http.Client{},
		httpClient:   &http.Client{},
		relayLimiter: rate.NewLimiter(rate.Inf, 1),
	}
}

type capturedRequest struct {
	header http.Header
	path   string
	body   map[string]any
}

func captureServer(t *testing.T, status int, respBody string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.header = r.Header.Clone()
		captured.path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func staticCache(p Provider, value string) *TokenCache {
	cache := NewTokenCache()
	cache.Register(p, func() (string, error) { return value, nil })
	return cache
}

func iosToken() models.PushToken {
	return models.PushToken{
		UserID: 1, Token: "ExponentPushToken[abc]",
		DeviceType: "ios", DeviceToken: strptr("apns-device-token"),
	}
}

func androidToken() models.PushToken {
	return models.PushToken{
		UserID: 1, Token: "ExponentPushToken[def]",
		DeviceType: "android", DeviceToken: strptr("fcm-device-token"),
	}
}

func TestSendAlertAPNS(t *testing.T) {
	withPushCredentials(t, true, false)
	prev := config.APNSBundleID
	config.APNSBundleID = "com.example.assay"
	t.Cleanup(func() { config.APNSBundleID = prev })

	srv, captured := captureServer(t, http.StatusOK, "")
	p := newTestPushService(staticCache(ProviderAPNS, "signed-provider-token"))
	p.apnsBaseURL = srv.URL

	res := p.SendAlert(iosToken(), "Assay Ready", "Your assay A1 is ready for pickup",
		map[string]string{"assay_id": "7"}, "assay-ready-7")

	assert.True(t, res.Success)
	assert.Equal(t, "apns", res.Channel)
	assert.Equal(t, http.StatusOK, res.Status)

	assert.Equal(t, "/3/device/apns-device-token", captured.path)
	assert.Equal(t, "bearer signed-provider-token", captured.header.Get("authorization"))
	assert.Equal(t, "com.example.assay", captured.header.Get("apns-topic"))
	assert.Equal(t, "alert", captured.header.Get("apns-push-type"))
	assert.Equal(t, "10", captured.header.Get("apns-priority"))
	assert.Equal(t, "assay-ready-7", captured.header.Get("apns-collapse-id"))

	aps, ok := captured.body["aps"].(map[string]any)
	require.True(t, ok)
	alert, ok := aps["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Assay Ready", alert["title"])
	assert.Equal(t, "Your assay A1 is ready for pickup", alert["body"])
	assert.Equal(t, "default", aps["sound"])
	assert.Equal(t, "7", captured.body["assay_id"])
}

func TestSendRetractionAPNS(t *testing.T) {
	withPushCredentials(t, true, false)

	srv, captured := captureServer(t, http.StatusOK, "")
	p := newTestPushService(staticCache(ProviderAPNS, "signed-provider-token"))
	p.apnsBaseURL = srv.URL

	res := p.SendRetraction(iosToken(), "assay-ready-7", map[string]string{"assay_id": "7"})

	assert.True(t, res.Success)
	assert.Equal(t, "background", captured.header.Get("apns-push-type"))
	assert.Equal(t, "5", captured.header.Get("apns-priority"))
	assert.Equal(t, "assay-ready-7", captured.header.Get("apns-collapse-id"))

	aps, ok := captured.body["aps"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), aps["content-available"])
	assert.NotContains(t, aps, "alert")
}

func TestSendAlertFCM(t *testing.T) {
	withPushCredentials(t, false, true)

	srv, captured := captureServer(t, http.StatusOK, "{}")
	p := newTestPushService(staticCache(ProviderFCM, "oauth-access-token"))
	p.fcmSendURL = srv.URL

	res := p.SendAlert(androidToken(), "Assay Ready", "Your assay A1 is ready for pickup",
		map[string]string{"assay_id": "7"}, "assay-ready-7")

	assert.True(t, res.Success)
	assert.Equal(t, "fcm", res.Channel)
	assert.Equal(t, "Bearer oauth-access-token", captured.header.Get("Authorization"))

	message, ok := captured.body["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fcm-device-token", message["token"])

	data, ok := message["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "7", data["assay_id"])
	assert.Equal(t, "assay-ready-7", data["collapse_key"])

	notification, ok := message["notification"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Assay Ready", notification["title"])
}

func TestSendRetractionFCM(t *testing.T) {
	withPushCredentials(t, false, true)

	srv, captured := captureServer(t, http.StatusOK, "{}")
	p := newTestPushService(staticCache(ProviderFCM, "oauth-access-token"))
	p.fcmSendURL = srv.URL

	res := p.SendRetraction(androidToken(), "assay-ready-7", map[string]string{"assay_id": "7"})

	assert.True(t, res.Success)
	message, ok := captured.body["message"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, message, "notification")

	data, ok := message["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "assay-ready-7", data["collapse_key"])
}

func TestSendAlertRelay(t *testing.T) {
	withPushCredentials(t, false, false)

	srv, captured := captureServer(t, http.StatusOK, `{"data":{"status":"ok"}}`)
	p := newTestPushService(NewTokenCache())
	p.relayURL = srv.URL

	token := models.PushToken{UserID: 1, Token: "ExponentPushToken[abc]", DeviceType: "ios"}
	res := p.SendAlert(token, "Assay Ready", "Your assay A1 is ready for pickup",
		map[string]string{"assay_id": "7"}, "assay-ready-7")

	assert.True(t, res.Success)
	assert.Equal(t, "expo", res.Channel)

	assert.Equal(t, "ExponentPushToken[abc]", captured.body["to"])
	assert.Equal(t, "Assay Ready", captured.body["title"])
	assert.Equal(t, "default", captured.body["sound"])

	data, ok := captured.body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "assay-ready-7", data["collapse_key"])
}

func TestSendRetractionRelay(t *testing.T) {
	withPushCredentials(t, false, false)

	srv, captured := captureServer(t, http.StatusOK, `{"data":{"status":"ok"}}`)
	p := newTestPushService(NewTokenCache())
	p.relayURL = srv.URL

	token := models.PushToken{UserID: 1, Token: "ExponentPushToken[abc]", DeviceType: "android"}
	res := p.SendRetraction(token, "assay-ready-7", map[string]string{"assay_id": "7"})

	assert.True(t, res.Success)
	assert.NotContains(t, captured.body, "title")
	assert.NotContains(t, captured.body, "body")
	assert.Equal(t, true, captured.body["_contentAvailable"])
	assert.Equal(t, "normal", captured.body["priority"])

	data, ok := captured.body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "assay-ready-7", data["collapse_key"])
}

func TestProviderRejectionBecomesResult(t *testing.T) {
	withPushCredentials(t, true, false)

	srv, _ := captureServer(t, http.StatusBadRequest, `{"reason":"BadDeviceToken"}`)
	p := newTestPushService(staticCache(ProviderAPNS, "signed-provider-token"))
	p.apnsBaseURL = srv.URL

	res := p.SendAlert(iosToken(), "Assay Ready", "body", nil, "assay-ready-7")

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Contains(t, res.Reason, "BadDeviceToken")
}

func TestCredentialFailureBecomesResult(t *testing.T) {
	withPushCredentials(t, true, false)

	cache := NewTokenCache()
	cache.Register(ProviderAPNS, func() (string, error) {
		return "", ErrCredentialGeneration
	})
	p := newTestPushService(cache)
	p.apnsBaseURL = "http://127.0.0.1:0"

	res := p.SendAlert(iosToken(), "Assay Ready", "body", nil, "assay-ready-7")

	assert.False(t, res.Success)
	assert.Equal(t, "apns", res.Channel)
	assert.Contains(t, res.Reason, "credential generation failed")
}

func TestUnreachableProviderBecomesResult(t *testing.T) {
	withPushCredentials(t, false, false)

	p := newTestPushService(NewTokenCache())
	p.relayURL = "http://127.0.0.1:1"

	token := models.PushToken{UserID: 1, Token: "ExponentPushToken[abc]"}
	res := p.SendAlert(token, "Assay Ready", "body", nil, "")

	assert.False(t, res.Success)
	assert.Equal(t, "expo", res.Channel)
	assert.NotEmpty(t, res.Reason)
}
