package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ywy929/assay-dashboard-backend/models"
)

func TestCollapseKeyStable(t *testing.T) {
	assert.Equal(t, "assay-ready-42", CollapseKey(42))
	assert.Equal(t, CollapseKey(42), CollapseKey(42))
	assert.NotEqual(t, CollapseKey(42), CollapseKey(43))
}

func TestNotifyReadyCreatesRecordAndAlerts(t *testing.T) {
	withPushCredentials(t, true, true)
	db := openTestDB(t)
	dispatcher := &fakeDispatcher{}
	svc := NewNotificationService(dispatcher, nil)

	customer := seedCustomer(t, db, "Wong Trading", "0123456789")
	assay := seedAssay(t, db, customer.ID, "A1", true)
	seedPushToken(t, db, customer.ID, "ExponentPushToken[ios]", "ios", strptr("apns-token"))
	seedPushToken(t, db, customer.ID, "ExponentPushToken[web]", "web", nil)

	created, results, err := svc.NotifyReadyTransition(db, &assay, true)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, results, 2)

	var records []models.Notification
	require.NoError(t, db.Where("user_id = ? AND assay_id = ?", customer.ID, assay.ID).Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, "Assay Ready", records[0].Title)
	assert.Contains(t, records[0].Message, "A1")
	assert.False(t, records[0].Read)

	alerts := dispatcher.alerts()
	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, CollapseKey(assay.ID), a.collapseKey)
		assert.Equal(t, "A1", a.data["itemcode"])
	}
	assert.Empty(t, dispatcher.retractions())
}

func TestRevertSupersedesRecordAndRetracts(t *testing.T) {
	withPushCredentials(t, true, true)
	db := openTestDB(t)
	dispatcher := &fakeDispatcher{}
	svc := NewNotificationService(dispatcher, nil)

	customer := seedCustomer(t, db, "Wong Trading", "0123456789")
	assay := seedAssay(t, db, customer.ID, "A1", true)
	seedPushToken(t, db, customer.ID, "ExponentPushToken[ios]", "ios", strptr("apns-token"))
	seedPushToken(t, db, customer.ID, "ExponentPushToken[android]", "android", strptr("fcm-token"))
	seedPushToken(t, db, customer.ID, "ExponentPushToken[web]", "web", nil)

	_, _, err := svc.NotifyReadyTransition(db, &assay, true)
	require.NoError(t, err)
	dispatcher.sent = nil

	assay.Ready = false
	created, results, err := svc.NotifyReadyTransition(db, &assay, false)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, results, 3)

	// The ready record is gone; exactly one superseding record remains.
	var records []models.Notification
	require.NoError(t, db.Where("user_id = ? AND assay_id = ?", customer.ID, assay.ID).Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, "Assay Not Ready", records[0].Title)

	retractions := dispatcher.retractions()
	require.Len(t, retractions, 3)
	for _, r := range retractions {
		assert.Equal(t, CollapseKey(assay.ID), r.collapseKey)
	}

	// APNs collapses server-side; only the Android and fallback tokens get
	// the visible follow-up alert.
	alerts := dispatcher.alerts()
	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.NotEqual(t, ChannelNativeIOS, SelectChannel(a.token))
		assert.Equal(t, "Assay Not Ready", a.title)
	}
}

func TestRepeatedTogglesKeepOneActiveRecord(t *testing.T) {
	withPushCredentials(t, false, false)
	db := openTestDB(t)
	svc := NewNotificationService(&fakeDispatcher{}, nil)

	customer := seedCustomer(t, db, "Wong Trading", "0123456789")
	assay := seedAssay(t, db, customer.ID, "A1", false)

	for i := 0; i < 3; i++ {
		assay.Ready = true
		_, _, err := svc.NotifyReadyTransition(db, &assay, true)
		require.NoError(t, err)

		assay.Ready = false
		_, _, err = svc.NotifyReadyTransition(db, &assay, false)
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND assay_id = ?", customer.ID, assay.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPushFailureDoesNotFailTransition(t *testing.T) {
	withPushCredentials(t, false, false)
	db := openTestDB(t)
	dispatcher := &fakeDispatcher{fail: true}
	svc := NewNotificationService(dispatcher, nil)

	customer := seedCustomer(t, db, "Wong Trading", "0123456789")
	assay := seedAssay(t, db, customer.ID, "A1", true)
	seedPushToken(t, db, customer.ID, "ExponentPushToken[abc]", "ios", nil)

	created, results, err := svc.NotifyReadyTransition(db, &assay, true)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)

	// The durable record is written regardless of delivery outcome.
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("assay_id = ?", assay.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNotifyWithoutRegistrations(t *testing.T) {
	withPushCredentials(t, false, false)
	db := openTestDB(t)
	dispatcher := &fakeDispatcher{}
	svc := NewNotificationService(dispatcher, nil)

	customer := seedCustomer(t, db, "Wong Trading", "0123456789")
	assay := seedAssay(t, db, customer.ID, "A1", true)

	created, results, err := svc.NotifyReadyTransition(db, &assay, true)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Empty(t, results)
	assert.Empty(t, dispatcher.sent)
}
