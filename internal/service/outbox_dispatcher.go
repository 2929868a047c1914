package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
	"github.com/tunevest/songshare-ledger/internal/repository"
)

const dispatchBatchSize = 50

// OutboxDispatcher delivers outbound facts to the configured webhook.
// Requests are HMAC-signed with a secret that lives fernet-encrypted in the
// settings table. With no webhook URL or key configured the dispatcher is a
// no-op and events simply accumulate.
type OutboxDispatcher struct {
	outboxRepo   *repository.OutboxRepository
	settingsRepo *repository.SettingsRepository
	webhookURL   string
	key          *fernet.Key
	client       *http.Client
}

// NewOutboxDispatcher creates a new OutboxDispatcher.
func NewOutboxDispatcher(
	outboxRepo *repository.OutboxRepository,
	settingsRepo *repository.SettingsRepository,
	webhookURL string,
	key *fernet.Key,
) *OutboxDispatcher {
	return &OutboxDispatcher{
		outboxRepo:   outboxRepo,
		settingsRepo: settingsRepo,
		webhookURL:   webhookURL,
		key:          key,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether outbound delivery is configured.
func (d *OutboxDispatcher) Enabled() bool {
	return d.webhookURL != "" && d.key != nil
}

// EnsureWebhookSecret generates and stores the signing secret on first run.
func (d *OutboxDispatcher) EnsureWebhookSecret(ctx context.Context) error {
	if !d.Enabled() {
		return nil
	}

	_, err := d.settingsRepo.Get(repository.SettingWebhookSecret)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrSettingNotFound) {
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate webhook secret: %w", err)
	}

	token, err := fernet.EncryptAndSign([]byte(hex.EncodeToString(raw)), d.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}

	return d.settingsRepo.Set(ctx, repository.SettingWebhookSecret, string(token))
}

// webhookSecret loads and decrypts the signing secret.
func (d *OutboxDispatcher) webhookSecret() (string, error) {
	token, err := d.settingsRepo.Get(repository.SettingWebhookSecret)
	if err != nil {
		if errors.Is(err, apperrors.ErrSettingNotFound) {
			return "", apperrors.ErrWebhookSecretNotFound
		}
		return "", err
	}

	secret := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{d.key})
	if secret == nil {
		return "", fmt.Errorf("%w: stored secret failed verification", apperrors.ErrWebhookSecretNotFound)
	}
	return string(secret), nil
}

// webhookEnvelope is the delivery body wrapped around a stored event.
type webhookEnvelope struct {
	ID          string          `json:"id"`
	EventType   string          `json:"eventType"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// DispatchPending delivers undispatched events in order, oldest first.
// Failed deliveries stay pending and are retried on the next run. Returns
// the number of events delivered.
func (d *OutboxDispatcher) DispatchPending(ctx context.Context) (int, error) {
	if !d.Enabled() {
		return 0, nil
	}

	secret, err := d.webhookSecret()
	if err != nil {
		return 0, err
	}

	events, err := d.outboxRepo.ListPending(dispatchBatchSize)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, event := range events {
		if err := d.deliver(ctx, secret, event); err != nil {
			log.Printf("outbox delivery failed for event %s: %v", event.ID, err)
			if err := d.outboxRepo.IncrementAttempts(ctx, event.ID); err != nil {
				log.Printf("failed to count delivery attempt for event %s: %v", event.ID, err)
			}
			continue
		}

		if err := d.outboxRepo.MarkDispatched(ctx, event.ID, time.Now().UTC()); err != nil {
			return dispatched, err
		}
		dispatched++
	}

	return dispatched, nil
}

func (d *OutboxDispatcher) deliver(ctx context.Context, secret string, event model.OutboxEvent) error {
	body, err := json.Marshal(webhookEnvelope{
		ID:          event.ID,
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		Payload:     json.RawMessage(event.Payload),
		CreatedAt:   event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook body: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ledger-Event", event.EventType)
	req.Header.Set("X-Ledger-Delivery", event.ID)
	req.Header.Set("X-Ledger-Signature", "sha256="+signature)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
