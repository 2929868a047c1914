package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
	"github.com/tunevest/songshare-ledger/internal/repository"
	"github.com/tunevest/songshare-ledger/internal/service"
	"github.com/tunevest/songshare-ledger/internal/testutil"
)

// receivedDelivery captures one webhook request for later assertions.
type receivedDelivery struct {
	event     string
	delivery  string
	signature string
	body      []byte
}

// TestOutboxDispatcher_EnsureWebhookSecret tests signing secret management.
//
// WHY: The signing secret must survive restarts but never sit in the
// database in the clear. Receivers verify deliveries against it, so a
// regenerated secret would silently break every consumer.
func TestOutboxDispatcher_EnsureWebhookSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("generates and stores an encrypted secret on first run", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		settingsRepo := repository.NewSettingsRepository(db)
		key := new(fernet.Key)
		if err := key.Generate(); err != nil {
			t.Fatalf("Failed to generate fernet key: %v", err)
		}
		dispatcher := service.NewOutboxDispatcher(
			repository.NewOutboxRepository(db), settingsRepo, "http://example.com/hook", key)

		// Execute
		if err := dispatcher.EnsureWebhookSecret(ctx); err != nil {
			t.Fatalf("EnsureWebhookSecret() returned unexpected error: %v", err)
		}

		// Assert
		stored, err := settingsRepo.Get(repository.SettingWebhookSecret)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}

		secret := fernet.VerifyAndDecrypt([]byte(stored), 0, []*fernet.Key{key})
		if secret == nil {
			t.Fatal("Stored secret does not decrypt with the configured key")
		}
		if len(secret) != 64 {
			t.Errorf("Expected a 64 character hex secret, got %d characters", len(secret))
		}
		if stored == string(secret) {
			t.Error("Expected the stored value to be encrypted, got the plaintext secret")
		}
	})

	t.Run("keeps the existing secret on later runs", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		settingsRepo := repository.NewSettingsRepository(db)
		key := new(fernet.Key)
		if err := key.Generate(); err != nil {
			t.Fatalf("Failed to generate fernet key: %v", err)
		}
		dispatcher := service.NewOutboxDispatcher(
			repository.NewOutboxRepository(db), settingsRepo, "http://example.com/hook", key)

		if err := dispatcher.EnsureWebhookSecret(ctx); err != nil {
			t.Fatalf("EnsureWebhookSecret() returned unexpected error: %v", err)
		}
		first, err := settingsRepo.Get(repository.SettingWebhookSecret)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}

		// Execute
		if err := dispatcher.EnsureWebhookSecret(ctx); err != nil {
			t.Fatalf("EnsureWebhookSecret() returned unexpected error: %v", err)
		}

		// Assert
		second, err := settingsRepo.Get(repository.SettingWebhookSecret)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		if second != first {
			t.Error("Expected the secret to survive a second run unchanged")
		}
	})

	t.Run("does nothing when delivery is not configured", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		settingsRepo := repository.NewSettingsRepository(db)
		dispatcher := service.NewOutboxDispatcher(
			repository.NewOutboxRepository(db), settingsRepo, "", nil)

		// Execute
		if dispatcher.Enabled() {
			t.Error("Expected the dispatcher to be disabled without URL and key")
		}
		if err := dispatcher.EnsureWebhookSecret(ctx); err != nil {
			t.Fatalf("EnsureWebhookSecret() returned unexpected error: %v", err)
		}

		// Assert
		if _, err := settingsRepo.Get(repository.SettingWebhookSecret); !errors.Is(err, apperrors.ErrSettingNotFound) {
			t.Errorf("Expected no secret to be stored, got %v", err)
		}
	})
}

// TestOutboxDispatcher_DispatchPending tests webhook delivery.
//
// WHY: The outbox is the only path from committed ledger facts to the
// outside world. Deliveries must arrive in order with verifiable
// signatures, and failures must keep the event queued instead of dropping
// it.
func TestOutboxDispatcher_DispatchPending(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers pending events in order with a verifiable signature", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		outboxRepo := repository.NewOutboxRepository(db)
		settingsRepo := repository.NewSettingsRepository(db)

		var received []receivedDelivery
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				t.Errorf("Failed to read delivery body: %v", err)
			}
			received = append(received, receivedDelivery{
				event:     r.Header.Get("X-Ledger-Event"),
				delivery:  r.Header.Get("X-Ledger-Delivery"),
				signature: r.Header.Get("X-Ledger-Signature"),
				body:      body,
			})
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		key := new(fernet.Key)
		if err := key.Generate(); err != nil {
			t.Fatalf("Failed to generate fernet key: %v", err)
		}
		dispatcher := service.NewOutboxDispatcher(outboxRepo, settingsRepo, server.URL, key)
		if err := dispatcher.EnsureWebhookSecret(ctx); err != nil {
			t.Fatalf("EnsureWebhookSecret() returned unexpected error: %v", err)
		}

		songID := testutil.MakeID()
		base := time.Now().UTC().Add(-time.Minute)
		if err := outboxRepo.Insert(ctx, model.EventContractIssued, songID,
			map[string]string{"fractionalSongId": songID}, base); err != nil {
			t.Fatalf("Insert() returned unexpected error: %v", err)
		}
		if err := outboxRepo.Insert(ctx, model.EventSharesPurchased, songID,
			map[string]string{"fractionalSongId": songID}, base.Add(time.Second)); err != nil {
			t.Fatalf("Insert() returned unexpected error: %v", err)
		}

		// Execute
		dispatched, err := dispatcher.DispatchPending(ctx)

		// Assert
		if err != nil {
			t.Fatalf("DispatchPending() returned unexpected error: %v", err)
		}
		if dispatched != 2 {
			t.Errorf("Expected 2 deliveries, got %d", dispatched)
		}
		if len(received) != 2 {
			t.Fatalf("Expected the server to receive 2 requests, got %d", len(received))
		}

		// Oldest event first
		if received[0].event != model.EventContractIssued {
			t.Errorf("Expected first delivery %q, got %q", model.EventContractIssued, received[0].event)
		}
		if received[1].event != model.EventSharesPurchased {
			t.Errorf("Expected second delivery %q, got %q", model.EventSharesPurchased, received[1].event)
		}

		// The signature verifies against the decrypted secret
		stored, err := settingsRepo.Get(repository.SettingWebhookSecret)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		secret := fernet.VerifyAndDecrypt([]byte(stored), 0, []*fernet.Key{key})
		if secret == nil {
			t.Fatal("Stored secret does not decrypt with the configured key")
		}

		for _, delivery := range received {
			if !strings.HasPrefix(delivery.signature, "sha256=") {
				t.Fatalf("Expected signature with sha256= prefix, got %q", delivery.signature)
			}
			got, err := hex.DecodeString(strings.TrimPrefix(delivery.signature, "sha256="))
			if err != nil {
				t.Fatalf("Failed to decode signature: %v", err)
			}

			mac := hmac.New(sha256.New, secret)
			mac.Write(delivery.body)
			if !hmac.Equal(got, mac.Sum(nil)) {
				t.Error("Delivery signature does not verify against the webhook secret")
			}

			var envelope struct {
				ID          string          `json:"id"`
				EventType   string          `json:"eventType"`
				AggregateID string          `json:"aggregateId"`
				Payload     json.RawMessage `json:"payload"`
			}
			if err := json.Unmarshal(delivery.body, &envelope); err != nil {
				t.Fatalf("Failed to unmarshal delivery body: %v", err)
			}
			if envelope.ID != delivery.delivery {
				t.Errorf("Expected delivery header %s to match envelope ID %s", delivery.delivery, envelope.ID)
			}
			if envelope.AggregateID != songID {
				t.Errorf("Expected aggregate %s, got %s", songID, envelope.AggregateID)
			}
		}

		// Nothing left to deliver
		pending, err := outboxRepo.ListPending(10)
		if err != nil {
			t.Fatalf("ListPending() returned unexpected error: %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("Expected no pending events after dispatch, got %d", len(pending))
		}
	})

	t.Run("leaves failed deliveries pending for retry", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		outboxRepo := repository.NewOutboxRepository(db)
		settingsRepo := repository.NewSettingsRepository(db)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		key := new(fernet.Key)
		if err := key.Generate(); err != nil {
			t.Fatalf("Failed to generate fernet key: %v", err)
		}
		dispatcher := service.NewOutboxDispatcher(outboxRepo, settingsRepo, server.URL, key)
		if err := dispatcher.EnsureWebhookSecret(ctx); err != nil {
			t.Fatalf("EnsureWebhookSecret() returned unexpected error: %v", err)
		}

		if err := outboxRepo.Insert(ctx, model.EventContractIssued, testutil.MakeID(),
			map[string]string{}, time.Now().UTC()); err != nil {
			t.Fatalf("Insert() returned unexpected error: %v", err)
		}

		// Execute
		dispatched, err := dispatcher.DispatchPending(ctx)

		// Assert
		if err != nil {
			t.Fatalf("DispatchPending() returned unexpected error: %v", err)
		}
		if dispatched != 0 {
			t.Errorf("Expected 0 deliveries, got %d", dispatched)
		}

		pending, err := outboxRepo.ListPending(10)
		if err != nil {
			t.Fatalf("ListPending() returned unexpected error: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("Expected the event to stay pending, got %d pending", len(pending))
		}
		if pending[0].Attempts != 1 {
			t.Errorf("Expected 1 recorded attempt, got %d", pending[0].Attempts)
		}
	})

	t.Run("does nothing when delivery is not configured", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		outboxRepo := repository.NewOutboxRepository(db)
		dispatcher := service.NewOutboxDispatcher(
			outboxRepo, repository.NewSettingsRepository(db), "", nil)

		if err := outboxRepo.Insert(ctx, model.EventContractIssued, testutil.MakeID(),
			map[string]string{}, time.Now().UTC()); err != nil {
			t.Fatalf("Insert() returned unexpected error: %v", err)
		}

		// Execute
		dispatched, err := dispatcher.DispatchPending(ctx)

		// Assert
		if err != nil {
			t.Fatalf("DispatchPending() returned unexpected error: %v", err)
		}
		if dispatched != 0 {
			t.Errorf("Expected 0 deliveries, got %d", dispatched)
		}

		pending, err := outboxRepo.ListPending(10)
		if err != nil {
			t.Fatalf("ListPending() returned unexpected error: %v", err)
		}
		if len(pending) != 1 {
			t.Errorf("Expected the event to accumulate, got %d pending", len(pending))
		}
		if pending[0].Attempts != 0 {
			t.Errorf("Expected no recorded attempts, got %d", pending[0].Attempts)
		}
	})

	t.Run("fails when the signing secret is missing", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		key := new(fernet.Key)
		if err := key.Generate(); err != nil {
			t.Fatalf("Failed to generate fernet key: %v", err)
		}
		dispatcher := service.NewOutboxDispatcher(
			repository.NewOutboxRepository(db), repository.NewSettingsRepository(db),
			"http://example.com/hook", key)

		// Execute
		_, err := dispatcher.DispatchPending(ctx)

		// Assert
		if !errors.Is(err, apperrors.ErrWebhookSecretNotFound) {
			t.Errorf("Expected ErrWebhookSecretNotFound, got %v", err)
		}
	})
}
