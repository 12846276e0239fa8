package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attestia/agent-trust-registry/api"
	"github.com/attestia/agent-trust-registry/interfaces"
)

// maxBodySize is the default maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the underlying error for errors.Is checks.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// statusForError maps registry sentinel errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrNotFound),
		errors.Is(err, interfaces.ErrEvidenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrAlreadyExists),
		errors.Is(err, interfaces.ErrAlreadyInitialized),
		errors.Is(err, interfaces.ErrAlreadyRevoked):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrProtocolPaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, interfaces.ErrInvalidSignalPayload),
		errors.Is(err, interfaces.ErrInvalidName),
		errors.Is(err, interfaces.ErrExpired),
		errors.Is(err, interfaces.ErrInvalidLocationURI):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Handler processes HTTP requests for the trust registry service. Mutating
// endpoints read the acting key from the X-Trust-Signer header; transport
// level signature verification is expected to happen in front of this
// service.
type Handler struct {
	registry interfaces.TrustRegistry
	evidence interfaces.StorageBackend
	log      *slog.Logger
	maxBody  int64
}

// NewHandler creates a new HTTP request handler. The evidence backend may be
// nil, in which case the evidence endpoints report the service unavailable.
func NewHandler(registry interfaces.TrustRegistry, evidence interfaces.StorageBackend, log *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		evidence: evidence,
		log:      log,
		maxBody:  maxBodySize,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		status = reqErr.StatusCode
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err)
	} else {
		h.log.Debug("Request rejected", "err", err, "status", status)
	}
	h.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

// signer extracts the acting public key from the request header.
func (h *Handler) signer(r *http.Request) (interfaces.Pubkey, error) {
	raw := r.Header.Get(api.SignerHeader)
	if raw == "" {
		return interfaces.Pubkey{}, &RequestError{
			StatusCode: http.StatusUnauthorized,
			Err:        fmt.Errorf("missing %s header", api.SignerHeader),
		}
	}
	signer, err := interfaces.NewPubkeyFromHex(raw)
	if err != nil {
		return interfaces.Pubkey{}, &RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("invalid signer key: %w", err),
		}
	}
	return signer, nil
}

// pathPubkey parses a hex public key from a URL parameter.
func pathPubkey(r *http.Request, param string) (interfaces.Pubkey, error) {
	raw := chi.URLParam(r, param)
	pubkey, err := interfaces.NewPubkeyFromHex(raw)
	if err != nil {
		return interfaces.Pubkey{}, &RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("invalid %s: %w", param, err),
		}
	}
	return pubkey, nil
}

func (h *Handler) decode(r *http.Request, into any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody))
	if err != nil {
		return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("failed to read request body: %w", err)}
	}
	if err := json.Unmarshal(body, into); err != nil {
		return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid request body: %w", err)}
	}
	return nil
}

// HandleRegisterAgent creates an agent identity record.
//
// URL format: POST /api/agents
func (h *Handler) HandleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterAgentRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.RegisterAgent(req.Wallet, req.Name); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Agent registered", "wallet", req.Wallet.String(), "name", req.Name)
	h.writeJSON(w, http.StatusCreated, api.StatusResponse{Status: "registered"})
}

// HandleSubmitAttestation records an attestation from an authority.
//
// URL format: POST /api/attestations
// The signer header must identify an active authority.
func (h *Handler) HandleSubmitAttestation(w http.ResponseWriter, r *http.Request) {
	signer, err := h.signer(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.SubmitAttestationRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	submission := interfaces.AttestationSubmission{
		Agent:     req.Agent,
		Signal:    req.Signal,
		Hash:      req.Hash,
		ExpiresAt: req.ExpiresAt,
		TEEQuote:  req.TEEQuote,
	}
	if err := h.registry.SubmitAttestation(signer, submission); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Attestation submitted",
		"authority", signer.String(),
		"agent", req.Agent.String(),
		"signal", req.Signal.String())
	h.writeJSON(w, http.StatusCreated, api.StatusResponse{Status: "submitted"})
}

// HandleRevokeAttestation revokes the signing authority's attestation for an
// agent. Only the original attesting authority may revoke its record.
//
// URL format: POST /api/attestations/{agent}/revoke
func (h *Handler) HandleRevokeAttestation(w http.ResponseWriter, r *http.Request) {
	signer, err := h.signer(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	agent, err := pathPubkey(r, "agent")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.RevokeAttestation(signer, agent); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Attestation revoked", "agent", agent.String(), "authority", signer.String())
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "revoked"})
}

// HandleRefreshSignals recomputes an agent's derived trust signals from its
// live attestations. The operation is permissionless, so no signer header is
// required.
//
// URL format: POST /api/agents/{pubkey}/refresh
func (h *Handler) HandleRefreshSignals(w http.ResponseWriter, r *http.Request) {
	wallet, err := pathPubkey(r, "pubkey")
	if err != nil {
		h.writeError(w, err)
		return
	}

	identity, err := h.registry.RefreshSignals(wallet)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Signals refreshed",
		"wallet", wallet.String(),
		"trustScore", identity.TrustScore,
		"infraType", identity.InfraType.String())
	h.writeJSON(w, http.StatusOK, identity)
}

// HandleFlagAgent marks an agent as suspicious. The signer must be an active
// authority.
//
// URL format: POST /api/agents/{pubkey}/flag
func (h *Handler) HandleFlagAgent(w http.ResponseWriter, r *http.Request) {
	signer, err := h.signer(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	wallet, err := pathPubkey(r, "pubkey")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.FlagAgentRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.FlagAgent(signer, wallet, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Agent flagged", "wallet", wallet.String(), "authority", signer.String())
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "flagged"})
}

// HandleUnflagAgent clears an agent's flag. Admin only.
//
// URL format: POST /api/agents/{pubkey}/unflag
func (h *Handler) HandleUnflagAgent(w http.ResponseWriter, r *http.Request) {
	signer, err := h.signer(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	wallet, err := pathPubkey(r, "pubkey")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.UnflagAgent(signer, wallet); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "unflagged"})
}

// HandleConfig returns the protocol configuration record.
//
// URL format: GET /api/public/config
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.registry.Config()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, config)
}

// HandleGetAuthority returns an authority record.
//
// URL format: GET /api/public/authorities/{pubkey}
func (h *Handler) HandleGetAuthority(w http.ResponseWriter, r *http.Request) {
	pubkey, err := pathPubkey(r, "pubkey")
	if err != nil {
		h.writeError(w, err)
		return
	}

	authority, err := h.registry.Authority(pubkey)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, authority)
}

// HandleGetAgent returns an agent identity record.
//
// URL format: GET /api/public/agents/{pubkey}
func (h *Handler) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	wallet, err := pathPubkey(r, "pubkey")
	if err != nil {
		h.writeError(w, err)
		return
	}

	identity, err := h.registry.Agent(wallet)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, identity)
}

// HandleGetAgentAttestations lists all attestation records for an agent,
// including revoked and expired ones.
//
// URL format: GET /api/public/agents/{pubkey}/attestations
func (h *Handler) HandleGetAgentAttestations(w http.ResponseWriter, r *http.Request) {
	wallet, err := pathPubkey(r, "pubkey")
	if err != nil {
		h.writeError(w, err)
		return
	}

	attestations, err := h.registry.AgentAttestations(wallet)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, attestations)
}

// HandleGetAttestation returns a single attestation record.
//
// URL format: GET /api/public/attestations/{agent}/{authority}
func (h *Handler) HandleGetAttestation(w http.ResponseWriter, r *http.Request) {
	agent, err := pathPubkey(r, "agent")
	if err != nil {
		h.writeError(w, err)
		return
	}
	authority, err := pathPubkey(r, "authority")
	if err != nil {
		h.writeError(w, err)
		return
	}

	attestation, err := h.registry.Attestation(agent, authority)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, attestation)
}

// HandleStoreEvidence stores an evidence blob and returns its
// content-derived identifier.
//
// URL format: POST /api/evidence/{type}
func (h *Handler) HandleStoreEvidence(w http.ResponseWriter, r *http.Request) {
	if h.evidence == nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusServiceUnavailable, Err: errors.New("evidence storage not configured")})
		return
	}

	evidenceType, err := parseEvidenceType(chi.URLParam(r, "type"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody))
	if err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("failed to read request body: %w", err)})
		return
	}
	if len(data) == 0 {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("empty evidence body")})
		return
	}

	id, err := h.evidence.Store(r.Context(), data, evidenceType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Evidence stored", "evidenceID", id.String(), "type", evidenceType.String(), "size", len(data))
	h.writeJSON(w, http.StatusCreated, api.EvidenceResponse{EvidenceID: id.String()})
}

// HandleFetchEvidence retrieves an evidence blob by its identifier.
//
// URL format: GET /api/public/evidence/{type}/{id}
func (h *Handler) HandleFetchEvidence(w http.ResponseWriter, r *http.Request) {
	if h.evidence == nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusServiceUnavailable, Err: errors.New("evidence storage not configured")})
		return
	}

	evidenceType, err := parseEvidenceType(chi.URLParam(r, "type"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	id, err := interfaces.NewEvidenceIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: err})
		return
	}

	data, err := h.evidence.Fetch(r.Context(), id, evidenceType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Error("Failed to write evidence response", "err", err)
	}
}

func parseEvidenceType(raw string) (interfaces.EvidenceType, error) {
	switch raw {
	case interfaces.AttestationEvidence.String():
		return interfaces.AttestationEvidence, nil
	case interfaces.FlagReportEvidence.String():
		return interfaces.FlagReportEvidence, nil
	default:
		return 0, &RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("unknown evidence type %q", raw),
		}
	}
}
