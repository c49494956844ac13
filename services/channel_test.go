package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/models"
)

func withPushCredentials(t *testing.T, apns, fcm bool) {
	t.Helper()
	prevKeyPath, prevKeyID := config.APNSKeyPath, config.APNSKeyID
	prevFCM := config.FCMServiceAccountPath
	t.Cleanup(func() {
		config.APNSKeyPath, config.APNSKeyID = prevKeyPath, prevKeyID
		config.FCMServiceAccountPath = prevFCM
	})

	config.APNSKeyPath, config.APNSKeyID, config.FCMServiceAccountPath = "", "", ""
	if apns {
		config.APNSKeyPath = "/etc/keys/apns.p8"
		config.APNSKeyID = "ABC123DEFG"
	}
	if fcm {
		config.FCMServiceAccountPath = "/etc/keys/fcm.json"
	}
}

func TestSelectChannel(t *testing.T) {
	native := strptr("native-device-token")
	empty := strptr("")

	tests := []struct {
		name       string
		apns, fcm  bool
		token      models.PushToken
		want       Channel
	}{
		{
			name: "ios with credentials",
			apns: true, fcm: true,
			token: models.PushToken{DeviceType: "ios", DeviceToken: native},
			want:  ChannelNativeIOS,
		},
		{
			name: "android with credentials",
			apns: true, fcm: true,
			token: models.PushToken{DeviceType: "android", DeviceToken: native},
			want:  ChannelNativeAndroid,
		},
		{
			name: "ios without apns credentials",
			fcm:  true,
			token: models.PushToken{DeviceType: "ios", DeviceToken: native},
			want:  ChannelFallback,
		},
		{
			name: "android without fcm credentials",
			apns: true,
			token: models.PushToken{DeviceType: "android", DeviceToken: native},
			want:  ChannelFallback,
		},
		{
			name: "ios without device token",
			apns: true, fcm: true,
			token: models.PushToken{DeviceType: "ios"},
			want:  ChannelFallback,
		},
		{
			name: "empty device token",
			apns: true, fcm: true,
			token: models.PushToken{DeviceType: "android", DeviceToken: empty},
			want:  ChannelFallback,
		},
		{
			name: "web device type",
			apns: true, fcm: true,
			token: models.PushToken{DeviceType: "web", DeviceToken: native},
			want:  ChannelFallback,
		},
		{
			name:  "nothing configured",
			token: models.PushToken{DeviceType: "ios", DeviceToken: native},
			want:  ChannelFallback,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withPushCredentials(t, tc.apns, tc.fcm)
			assert.Equal(t, tc.want, SelectChannel(tc.token))
		})
	}
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "apns", ChannelNativeIOS.String())
	assert.Equal(t, "fcm", ChannelNativeAndroid.String())
	assert.Equal(t, "expo", ChannelFallback.String())
}
