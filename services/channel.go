package services

import (
	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/models"
)

// Channel is the delivery path chosen for one push token.
type Channel int

const (
	ChannelFallback Channel = iota // Expo relay
	ChannelNativeIOS
	ChannelNativeAndroid
)

func (c Channel) String() string {
	switch c {
	case ChannelNativeIOS:
		return "apns"
	case ChannelNativeAndroid:
		return "fcm"
	default:
		return "expo"
	}
}

// SelectChannel picks the delivery channel for a registration. Native
// channels require both a native device token and configured credentials;
// anything else falls back to the relay. Pure; must be re-evaluated per
// send since registrations change between sends.
func SelectChannel(t models.PushToken) Channel {
	if t.DeviceToken == nil || *t.DeviceToken == "" {
		return ChannelFallback
	}
	switch t.DeviceType {
	case "ios":
		if config.APNSKeyID != "" && config.APNSKeyPath != "" {
			return ChannelNativeIOS
		}
	case "android":
		if config.FCMServiceAccountPath != "" {
			return ChannelNativeAndroid
		}
	}
	return ChannelFallback
}
