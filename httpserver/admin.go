package httpserver

import (
	"net/http"

	"github.com/attestia/agent-trust-registry/api"
)

// Admin endpoints mutate the protocol configuration and the authority set.
// Authorization is enforced by the registry: every operation checks the
// signer against the stored admin key.

// HandleInitialize bootstraps the protocol configuration.
//
// URL format: POST /api/admin/initialize
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	var req api.InitializeRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.Initialize(req.Admin); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Protocol initialized", "admin", req.Admin.String())
	h.writeJSON(w, http.StatusCreated, api.StatusResponse{Status: "initialized"})
}

// HandleSetPaused toggles the protocol pause switch.
//
// URL format: POST /api/admin/pause
func (h *Handler) HandleSetPaused(w http.ResponseWriter, r *http.Request) {
	signer, err := h.signer(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.SetPausedRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.SetPaused(signer, req.Paused); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Pause flag updated", "paused", req.Paused)
	status := "unpaused"
	if req.Paused {
		status = "paused"
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: status})
}

// HandleTransferAdmin hands protocol administration to a new key.
//
// URL format: POST /api/admin/transfer
func (h *Handler) HandleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	signer, err := h.signer(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.TransferAdminRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.TransferAdmin(signer, req.NewAdmin); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Admin transferred", "newAdmin", req.NewAdmin.String())
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "transferred"})
}

// HandleAdvanceEpoch increments the global revocation epoch.
//
// URL format: POST /api/admin/advance-epoch
func (h *Handler) HandleAdvanceEpoch(w http.ResponseWriter, r *http.Request) {
	signer, err := h.signer(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	epoch, err := h.registry.AdvanceRevocationEpoch(signer)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Revocation epoch advanced", "epoch", epoch)
	h.writeJSON(w, http.StatusOK, api.EpochResponse{Epoch: epoch})
}

// HandleAddAuthority registers a new attestation authority.
//
// URL format: POST /api/admin/authorities
func (h *Handler) HandleAddAuthority(w http.ResponseWriter, r *http.Request) {
	signer, err := h.signer(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.AddAuthorityRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.AddAuthority(signer, req.Pubkey, req.AuthorityType); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Authority added",
		"pubkey", req.Pubkey.String(),
		"authorityType", req.AuthorityType.String())
	h.writeJSON(w, http.StatusCreated, api.StatusResponse{Status: "added"})
}

// HandleRemoveAuthority deactivates an authority. The record persists for
// audit and the pubkey can never be re-added.
//
// URL format: DELETE /api/admin/authorities/{pubkey}
func (h *Handler) HandleRemoveAuthority(w http.ResponseWriter, r *http.Request) {
	signer, err := h.signer(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	pubkey, err := pathPubkey(r, "pubkey")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.RemoveAuthority(signer, pubkey); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Authority removed", "pubkey", pubkey.String())
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "removed"})
}
