// Package clients provides typed HTTP clients for the trust registry API.
package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/attestia/agent-trust-registry/api"
	"github.com/attestia/agent-trust-registry/interfaces"
)

// RegistryClient talks to a trust registry server. The zero value is not
// usable; construct with NewRegistryClient.
type RegistryClient struct {
	// ServerAddr is the base URL of the registry server.
	ServerAddr string

	// Signer, when set, is sent as the acting key on mutating requests.
	Signer interfaces.Pubkey

	httpClient *http.Client
}

// NewRegistryClient creates a client for the given server. The signer is the
// key mutating requests act as; read-only callers can pass the zero key.
func NewRegistryClient(serverAddr string, signer interfaces.Pubkey) *RegistryClient {
	return &RegistryClient{
		ServerAddr: serverAddr,
		Signer:     signer,
		httpClient: http.DefaultClient,
	}
}

func (c *RegistryClient) do(method, path string, reqBody, respBody any) error {
	var reader io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.ServerAddr+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if !c.Signer.IsZero() {
		req.Header.Set(api.SignerHeader, c.Signer.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach registry endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("registry endpoint returned %d", resp.StatusCode)
		}
		return fmt.Errorf("registry endpoint returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("could not parse registry response: %w", err)
	}
	return nil
}

// Initialize bootstraps the protocol with the given admin key.
func (c *RegistryClient) Initialize(admin interfaces.Pubkey) error {
	return c.do(http.MethodPost, "/api/admin/initialize", api.InitializeRequest{Admin: admin}, nil)
}

// SetPaused toggles the protocol pause switch.
func (c *RegistryClient) SetPaused(paused bool) error {
	return c.do(http.MethodPost, "/api/admin/pause", api.SetPausedRequest{Paused: paused}, nil)
}

// TransferAdmin hands administration to newAdmin.
func (c *RegistryClient) TransferAdmin(newAdmin interfaces.Pubkey) error {
	return c.do(http.MethodPost, "/api/admin/transfer", api.TransferAdminRequest{NewAdmin: newAdmin}, nil)
}

// AdvanceRevocationEpoch bumps the global revocation epoch.
func (c *RegistryClient) AdvanceRevocationEpoch() (uint64, error) {
	var resp api.EpochResponse
	if err := c.do(http.MethodPost, "/api/admin/advance-epoch", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Epoch, nil
}

// AddAuthority registers a new attestation authority.
func (c *RegistryClient) AddAuthority(pubkey interfaces.Pubkey, authorityType interfaces.AuthorityType) error {
	return c.do(http.MethodPost, "/api/admin/authorities", api.AddAuthorityRequest{
		Pubkey:        pubkey,
		AuthorityType: authorityType,
	}, nil)
}

// RemoveAuthority deactivates an authority.
func (c *RegistryClient) RemoveAuthority(pubkey interfaces.Pubkey) error {
	return c.do(http.MethodDelete, "/api/admin/authorities/"+pubkey.String(), nil, nil)
}

// RegisterAgent creates an agent identity record.
func (c *RegistryClient) RegisterAgent(wallet interfaces.Pubkey, name string) error {
	return c.do(http.MethodPost, "/api/agents", api.RegisterAgentRequest{Wallet: wallet, Name: name}, nil)
}

// SubmitAttestation records an attestation signed by the client's key.
func (c *RegistryClient) SubmitAttestation(sub interfaces.AttestationSubmission) error {
	return c.do(http.MethodPost, "/api/attestations", api.SubmitAttestationRequest{
		Agent:     sub.Agent,
		Signal:    sub.Signal,
		Hash:      sub.Hash,
		ExpiresAt: sub.ExpiresAt,
		TEEQuote:  sub.TEEQuote,
	}, nil)
}

// RevokeAttestation revokes the client key's attestation for an agent.
func (c *RegistryClient) RevokeAttestation(agent interfaces.Pubkey) error {
	return c.do(http.MethodPost, "/api/attestations/"+agent.String()+"/revoke", nil, nil)
}

// RefreshSignals recomputes and returns the agent's derived trust signals.
func (c *RegistryClient) RefreshSignals(agent interfaces.Pubkey) (*interfaces.AgentIdentity, error) {
	var identity interfaces.AgentIdentity
	if err := c.do(http.MethodPost, "/api/agents/"+agent.String()+"/refresh", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// FlagAgent raises the manual flag on an agent.
func (c *RegistryClient) FlagAgent(agent interfaces.Pubkey, reason interfaces.AttestationHash) error {
	return c.do(http.MethodPost, "/api/agents/"+agent.String()+"/flag", api.FlagAgentRequest{Reason: reason}, nil)
}

// UnflagAgent clears the flag on an agent.
func (c *RegistryClient) UnflagAgent(agent interfaces.Pubkey) error {
	return c.do(http.MethodPost, "/api/agents/"+agent.String()+"/unflag", nil, nil)
}

// Config returns the protocol configuration.
func (c *RegistryClient) Config() (*interfaces.ProtocolConfig, error) {
	var config interfaces.ProtocolConfig
	if err := c.do(http.MethodGet, "/api/public/config", nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Authority returns the record for an authority pubkey.
func (c *RegistryClient) Authority(pubkey interfaces.Pubkey) (*interfaces.Authority, error) {
	var authority interfaces.Authority
	if err := c.do(http.MethodGet, "/api/public/authorities/"+pubkey.String(), nil, &authority); err != nil {
		return nil, err
	}
	return &authority, nil
}

// Agent returns the identity record for a wallet.
func (c *RegistryClient) Agent(wallet interfaces.Pubkey) (*interfaces.AgentIdentity, error) {
	var identity interfaces.AgentIdentity
	if err := c.do(http.MethodGet, "/api/public/agents/"+wallet.String(), nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// AgentAttestations lists every attestation record for an agent.
func (c *RegistryClient) AgentAttestations(wallet interfaces.Pubkey) ([]*interfaces.Attestation, error) {
	var attestations []*interfaces.Attestation
	if err := c.do(http.MethodGet, "/api/public/agents/"+wallet.String()+"/attestations", nil, &attestations); err != nil {
		return nil, err
	}
	return attestations, nil
}

// Attestation returns the record for an (agent, authority) pair.
func (c *RegistryClient) Attestation(agent, authority interfaces.Pubkey) (*interfaces.Attestation, error) {
	var attestation interfaces.Attestation
	if err := c.do(http.MethodGet, "/api/public/attestations/"+agent.String()+"/"+authority.String(), nil, &attestation); err != nil {
		return nil, err
	}
	return &attestation, nil
}

// StoreEvidence uploads an evidence blob and returns its content-derived ID.
func (c *RegistryClient) StoreEvidence(data []byte, evidenceType interfaces.EvidenceType) (interfaces.EvidenceID, error) {
	url := fmt.Sprintf("%s/api/evidence/%s", c.ServerAddr, evidenceType.String())
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return interfaces.EvidenceID{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return interfaces.EvidenceID{}, fmt.Errorf("could not reach evidence endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return interfaces.EvidenceID{}, fmt.Errorf("evidence endpoint returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var stored api.EvidenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return interfaces.EvidenceID{}, fmt.Errorf("could not parse evidence response: %w", err)
	}
	return interfaces.NewEvidenceIDFromHex(stored.EvidenceID)
}

// FetchEvidence downloads an evidence blob by ID.
func (c *RegistryClient) FetchEvidence(id interfaces.EvidenceID, evidenceType interfaces.EvidenceType) ([]byte, error) {
	url := fmt.Sprintf("%s/api/public/evidence/%s/%s", c.ServerAddr, evidenceType.String(), id.String())
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("could not reach evidence endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("evidence endpoint returned %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return io.ReadAll(resp.Body)
}
