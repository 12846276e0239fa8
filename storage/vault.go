package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// VaultBackend stores evidence in HashiCorp Vault under a KV v2 mount.
// Evidence blobs are base64-encoded into the secret payload.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a Vault evidence backend. The token may be empty,
// in which case the client falls back to the VAULT_TOKEN environment
// variable.
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(address, "https://"), mountPath, dataPath),
	}, nil
}

// Fetch retrieves evidence by ID and type using the KV v2 API.
func (b *VaultBackend) Fetch(ctx context.Context, id interfaces.EvidenceID, evidenceType interfaces.EvidenceType) ([]byte, error) {
	path := b.secretPath(id, evidenceType)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrEvidenceNotFound
	}

	// KV v2 nests the payload under a "data" key.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}
	encoded, ok := data["evidence"].(string)
	if !ok {
		return nil, fmt.Errorf("evidence key not found in Vault data")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode evidence payload: %w", err)
	}

	b.log.Debug("Fetched evidence from Vault",
		slog.String("path", path),
		slog.Int("size", len(raw)))

	return raw, nil
}

// Store saves evidence and returns its content-derived ID.
func (b *VaultBackend) Store(ctx context.Context, data []byte, evidenceType interfaces.EvidenceType) (interfaces.EvidenceID, error) {
	id := interfaces.ComputeEvidenceID(data)
	path := b.secretPath(id, evidenceType)

	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"evidence": base64.StdEncoding.EncodeToString(data),
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, path, payload); err != nil {
		return id, fmt.Errorf("failed to store evidence in Vault: %w", err)
	}

	b.log.Debug("Stored evidence in Vault",
		slog.String("path", path),
		slog.String("evidenceID", id.String()))

	return id, nil
}

// Available checks the Vault server health endpoint.
func (b *VaultBackend) Available(ctx context.Context) bool {
	health, err := b.client.Sys().HealthWithContext(ctx)
	if err != nil {
		b.log.Debug("Vault backend unavailable", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s", b.mountPath)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

func (b *VaultBackend) secretPath(id interfaces.EvidenceID, evidenceType interfaces.EvidenceType) string {
	return fmt.Sprintf("%s/data/%s/%s/%s", b.mountPath, b.dataPath, evidenceType.String(), id.String())
}
