package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/models"
)

// Mode selects the delivery form: a visible alert or a silent retraction
// that removes a previously delivered alert with the same collapse key.
type Mode int

const (
	ModeAlert Mode = iota
	ModeRetraction
)

// DeliveryResult is the outcome of one push attempt. Failures are values,
// never errors: a failed push must not abort the caller's transaction.
type DeliveryResult struct {
	Success bool   `json:"success"`
	Channel string `json:"channel"`
	Status  int    `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

// PushPayload carries the provider-independent message content; each
// channel builds its own wire shape from it.
type PushPayload struct {
	Title       string
	Body        string
	Data        map[string]string
	CollapseKey string
}

const (
	apnsProductionURL = "https://api.push.apple.com"
	apnsSandboxURL    = "https://api.sandbox.push.apple.com"

	pushTimeout = 30 * time.Second
)

// PushService dispatches alerts and retractions over the three delivery
// channels. All provider calls are bounded by pushTimeout and every
// failure is converted into a DeliveryResult.
type PushService struct {
	tokens *TokenCache

	// APNs requires HTTP/2; the transport keeps one multiplexed
	// connection to the provider.
	apnsClient *http.Client
	httpClient *http.Client

	// The Expo relay throttles aggressive senders, so fallback sends
	// pass through a limiter.
	relayLimiter *rate.Limiter

	// Endpoint overrides for tests; empty means the real provider.
	apnsBaseURL string
	fcmSendURL  string
	relayURL    string
}

func NewPushService(tokens *TokenCache) *PushService {
	return &PushService{
		tokens:       tokens,
		apnsClient:   &http.Client{Transport: &http2.Transport{}, Timeout: pushTimeout},
		httpClient:   &http.Client{Timeout: pushTimeout},
		relayLimiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

// SendAlert delivers a visible notification. The collapse key lets a later
// retraction with the same key replace it on channels that support
// server-side collapse.
func (p *PushService) SendAlert(t models.PushToken, title, body string, data map[string]string, collapseKey string) DeliveryResult {
	return p.send(SelectChannel(t), ModeAlert, t, PushPayload{
		Title:       title,
		Body:        body,
		Data:        data,
		CollapseKey: collapseKey,
	})
}

// SendRetraction delivers a silent push that supersedes the alert sent
// with the same collapse key. On the fallback channel there is no
// server-side collapse; the client app interprets the data payload and
// removes the local notification itself.
func (p *PushService) SendRetraction(t models.PushToken, collapseKey string, data map[string]string) DeliveryResult {
	return p.send(SelectChannel(t), ModeRetraction, t, PushPayload{
		Data:        data,
		CollapseKey: collapseKey,
	})
}

func (p *PushService) send(ch Channel, mode Mode, t models.PushToken, payload PushPayload) DeliveryResult {
	switch ch {
	case ChannelNativeIOS:
		return p.sendAPNS(mode, *t.DeviceToken, payload)
	case ChannelNativeAndroid:
		return p.sendFCM(mode, *t.DeviceToken, payload)
	default:
		return p.sendRelay(mode, t.Token, payload)
	}
}

func (p *PushService) apnsURL() string {
	if p.apnsBaseURL != "" {
		return p.apnsBaseURL
	}
	if config.APNSUseSandbox {
		return apnsSandboxURL
	}
	return apnsProductionURL
}

func (p *PushService) sendAPNS(mode Mode, deviceToken string, payload PushPayload) DeliveryResult {
	token, err := p.tokens.Get(ProviderAPNS)
	if err != nil {
		return failure(ChannelNativeIOS, err)
	}

	body := map[string]any{}
	if mode == ModeAlert {
		body["aps"] = map[string]any{
			"alert": map[string]string{"title": payload.Title, "body": payload.Body},
			"sound": "default",
		}
	} else {
		body["aps"] = map[string]any{"content-available": 1}
	}
	for k, v := range payload.Data {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return failure(ChannelNativeIOS, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	url := fmt.Sprintf("%s/3/device/%s", p.apnsURL(), deviceToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return failure(ChannelNativeIOS, err)
	}

	req.Header.Set("authorization", "bearer "+token)
	req.Header.Set("apns-topic", config.APNSBundleID)
	if mode == ModeAlert {
		req.Header.Set("apns-push-type", "alert")
		req.Header.Set("apns-priority", "10")
	} else {
		req.Header.Set("apns-push-type", "background")
		req.Header.Set("apns-priority", "5")
	}
	if payload.CollapseKey != "" {
		req.Header.Set("apns-collapse-id", payload.CollapseKey)
	}

	resp, err := p.apnsClient.Do(req)
	if err != nil {
		return failure(ChannelNativeIOS, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	result := DeliveryResult{
		Success: resp.StatusCode == http.StatusOK,
		Channel: ChannelNativeIOS.String(),
		Status:  resp.StatusCode,
	}
	if !result.Success {
		result.Reason = string(respBody)
		log.Printf("[PUSH] APNs error: status=%d collapse_id=%s body=%s",
			resp.StatusCode, payload.CollapseKey, result.Reason)
	}
	return result
}

func (p *PushService) fcmURL() string {
	if p.fcmSendURL != "" {
		return p.fcmSendURL
	}
	return fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", config.FCMProjectID)
}

func (p *PushService) sendFCM(mode Mode, deviceToken string, payload PushPayload) DeliveryResult {
	accessToken, err := p.tokens.Get(ProviderFCM)
	if err != nil {
		return failure(ChannelNativeAndroid, err)
	}

	// FCM data values must be strings.
	data := map[string]string{}
	for k, v := range payload.Data {
		data[k] = v
	}
	if payload.CollapseKey != "" {
		data["collapse_key"] = payload.CollapseKey
	}

	message := map[string]any{"token": deviceToken, "data": data}
	if mode == ModeAlert {
		message["notification"] = map[string]string{
			"title": payload.Title,
			"body":  payload.Body,
		}
		message["android"] = map[string]any{
			"priority": "high",
			"notification": map[string]string{
				"channel_id": "default",
				"sound":      "default",
			},
		}
	}
	raw, err := json.Marshal(map[string]any{"message": message})
	if err != nil {
		return failure(ChannelNativeAndroid, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.fcmURL(), bytes.NewReader(raw))
	if err != nil {
		return failure(ChannelNativeAndroid, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return failure(ChannelNativeAndroid, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	result := DeliveryResult{
		Success: resp.StatusCode == http.StatusOK,
		Channel: ChannelNativeAndroid.String(),
		Status:  resp.StatusCode,
	}
	if !result.Success {
		result.Reason = string(respBody)
		log.Printf("[PUSH] FCM error: status=%d body=%s", resp.StatusCode, result.Reason)
	}
	return result
}

func (p *PushService) expoURL() string {
	if p.relayURL != "" {
		return p.relayURL
	}
	return config.ExpoPushURL
}

func (p *PushService) sendRelay(mode Mode, routingToken string, payload PushPayload) DeliveryResult {
	message := map[string]any{"to": routingToken}
	if mode == ModeAlert {
		message["sound"] = "default"
		message["title"] = payload.Title
		message["body"] = payload.Body
		message["channelId"] = "default"
		message["data"] = dataWithCollapse(payload)
	} else {
		// No title or body: a background data message the app interprets
		// to remove the local notification.
		message["data"] = dataWithCollapse(payload)
		message["_contentAvailable"] = true
		message["priority"] = "normal"
	}
	raw, err := json.Marshal(message)
	if err != nil {
		return failure(ChannelFallback, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := p.relayLimiter.Wait(ctx); err != nil {
		return failure(ChannelFallback, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.expoURL(), bytes.NewReader(raw))
	if err != nil {
		return failure(ChannelFallback, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return failure(ChannelFallback, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	result := DeliveryResult{
		Success: resp.StatusCode == http.StatusOK,
		Channel: ChannelFallback.String(),
		Status:  resp.StatusCode,
	}
	if !result.Success {
		result.Reason = string(respBody)
		log.Printf("[PUSH] Expo error: status=%d body=%s", resp.StatusCode, result.Reason)
	}
	return result
}

func dataWithCollapse(payload PushPayload) map[string]string {
	data := map[string]string{}
	for k, v := range payload.Data {
		data[k] = v
	}
	if payload.CollapseKey != "" {
		data["collapse_key"] = payload.CollapseKey
	}
	return data
}

func failure(ch Channel, err error) DeliveryResult {
	log.Printf("[PUSH] %s send failed: %v", ch, err)
	return DeliveryResult{Success: false, Channel: ch.String(), Reason: err.Error()}
}
