package alerts_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wattmon/wattmon/pkg/alerts"
	"github.com/wattmon/wattmon/pkg/model"
)

func sampleAlert() alerts.Alert {
	return alerts.Alert{
		Reading: model.Reading{
			RemainingEnergy:  42.5,
			RemainingAmount:  23.4,
			TotalConsumption: 310.0,
			SourceUpdateTime: "2025-03-14 09:25:00",
		},
		Threshold:     100,
		DaysRemaining: 5.3,
		Message:       "low energy: 42.50 kWh remaining (threshold 100.0)",
	}
}

func TestWebhookNotifier_Delivers(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := alerts.NewWebhookNotifier(srv.URL, "")
	report, err := n.Send(context.Background(), sampleAlert())
	require.NoError(t, err)

	assert.Equal(t, []string{srv.URL}, report.Delivered)
	assert.Equal(t, "application/json", gotContentType)

	var payload struct {
		Event string       `json:"event"`
		Alert alerts.Alert `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "low_energy_alert", payload.Event)
	assert.InDelta(t, 42.5, payload.Alert.Reading.RemainingEnergy, 0.001)
}

func TestWebhookNotifier_SignsWhenSecretSet(t *testing.T) {
	secret := "topsecret"
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature-256")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := alerts.NewWebhookNotifier(srv.URL, secret)
	_, err := n.Send(context.Background(), sampleAlert())
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(gotSig, "sha256="))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotSig)
}

func TestWebhookNotifier_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := alerts.NewWebhookNotifier(srv.URL, "")
	report, err := n.Send(context.Background(), sampleAlert())
	assert.Error(t, err)
	assert.True(t, report.AllFailed())
}

func TestWebhookNotifier_Unreachable(t *testing.T) {
	n := alerts.NewWebhookNotifier("http://127.0.0.1:1/hook", "")
	report, err := n.Send(context.Background(), sampleAlert())
	assert.Error(t, err)
	assert.True(t, report.AllFailed())
}
