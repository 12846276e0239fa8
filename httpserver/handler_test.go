package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestia/agent-trust-registry/api"
	"github.com/attestia/agent-trust-registry/interfaces"
	"github.com/attestia/agent-trust-registry/registry"
	"github.com/attestia/agent-trust-registry/signal"
	"github.com/attestia/agent-trust-registry/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pk(b byte) interfaces.Pubkey {
	var p interfaces.Pubkey
	p[19] = b
	return p
}

func testHash(b byte) interfaces.AttestationHash {
	var h interfaces.AttestationHash
	h[31] = b
	return h
}

var (
	admin      = pk(0xAA)
	authorityA = pk(0x01)
	agentBot   = pk(0x10)
)

// newTestRouter builds a router over a real registry with one authority and
// one agent already set up.
func newTestRouter(t *testing.T) (http.Handler, interfaces.TrustRegistry) {
	t.Helper()

	engine, err := signal.NewEngine(signal.DefaultWeights())
	require.NoError(t, err)

	reg := registry.New(engine, testLogger())
	require.NoError(t, reg.Initialize(admin))
	require.NoError(t, reg.AddAuthority(admin, authorityA, interfaces.AuthorityOracleOperator))
	require.NoError(t, reg.RegisterAgent(agentBot, "bot-1"))

	return routerFor(t, reg), reg
}

func routerFor(t *testing.T, reg interfaces.TrustRegistry) http.Handler {
	t.Helper()

	backend, err := storage.NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	cfg := &api.HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      testLogger(),
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
		ReadTimeout:              time.Second,
		WriteTimeout:             time.Second,
	}
	srv, err := New(cfg, NewHandler(reg, backend, testLogger()))
	require.NoError(t, err)
	return srv.getRouter()
}

func doJSON(t *testing.T, router http.Handler, method, path string, signer *interfaces.Pubkey, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if signer != nil {
		req.Header.Set(api.SignerHeader, signer.String())
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitAndRefreshFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/attestations", &authorityA, api.SubmitAttestationRequest{
		Agent:     agentBot,
		Signal:    interfaces.SignalInfraTEE,
		Hash:      testHash(1),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/agents/%s/refresh", agentBot.String()), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var identity interfaces.AgentIdentity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
	assert.Equal(t, interfaces.InfraTEE, identity.InfraType)
	assert.EqualValues(t, 25, identity.TrustScore)
}

func TestSubmitRequiresSigner(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/attestations", nil, api.SubmitAttestationRequest{
		Agent:     agentBot,
		Signal:    interfaces.SignalGeneral,
		Hash:      testHash(1),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitFromUnknownAuthority(t *testing.T) {
	router, _ := newTestRouter(t)

	rogue := pk(0x99)
	rec := doJSON(t, router, http.MethodPost, "/api/attestations", &rogue, api.SubmitAttestationRequest{
		Agent:     agentBot,
		Signal:    interfaces.SignalGeneral,
		Hash:      testHash(1),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRevokeAttestation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/attestations", &authorityA, api.SubmitAttestationRequest{
		Agent:     agentBot,
		Signal:    interfaces.SignalInfraCloud,
		Hash:      testHash(2),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	path := fmt.Sprintf("/api/attestations/%s/revoke", agentBot.String())
	rec = doJSON(t, router, http.MethodPost, path, &authorityA, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Second revocation conflicts.
	rec = doJSON(t, router, http.MethodPost, path, &authorityA, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	engine, err := signal.NewEngine(signal.DefaultWeights())
	require.NoError(t, err)
	reg := registry.New(engine, testLogger())
	router := routerFor(t, reg)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/initialize", nil, api.InitializeRequest{Admin: admin})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Double initialization conflicts.
	rec = doJSON(t, router, http.MethodPost, "/api/admin/initialize", nil, api.InitializeRequest{Admin: admin})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/authorities", &admin, api.AddAuthorityRequest{
		Pubkey:        authorityA,
		AuthorityType: interfaces.AuthoritySingle,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Non-admin signer is rejected.
	rogue := pk(0x99)
	rec = doJSON(t, router, http.MethodPost, "/api/admin/authorities", &rogue, api.AddAuthorityRequest{
		Pubkey:        pk(0x02),
		AuthorityType: interfaces.AuthoritySingle,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/admin/authorities/"+authorityA.String(), &admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/advance-epoch", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var epoch api.EpochResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &epoch))
	assert.EqualValues(t, 1, epoch.Epoch)
}

func TestPauseBlocksMutations(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/pause", &admin, api.SetPausedRequest{Paused: true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/agents", nil, api.RegisterAgentRequest{
		Wallet: pk(0x11),
		Name:   "bot-2",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Unpause goes through: pause toggling is exempt.
	rec = doJSON(t, router, http.MethodPost, "/api/admin/pause", &admin, api.SetPausedRequest{Paused: false})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFlagAndUnflag(t *testing.T) {
	router, reg := newTestRouter(t)

	path := fmt.Sprintf("/api/agents/%s/flag", agentBot.String())
	rec := doJSON(t, router, http.MethodPost, path, &authorityA, api.FlagAgentRequest{Reason: testHash(9)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	identity, err := reg.Agent(agentBot)
	require.NoError(t, err)
	assert.True(t, identity.IsFlagged)

	// Only the admin may clear the flag.
	unflagPath := fmt.Sprintf("/api/agents/%s/unflag", agentBot.String())
	rec = doJSON(t, router, http.MethodPost, unflagPath, &authorityA, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, unflagPath, &admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicReads(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/public/config", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var config interfaces.ProtocolConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &config))
	assert.Equal(t, admin, config.Admin)

	rec = doJSON(t, router, http.MethodGet, "/api/public/agents/"+agentBot.String(), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/public/agents/"+pk(0x77).String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/public/agents/not-a-key", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvidenceRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := []byte("raw quote material")
	req := httptest.NewRequest(http.MethodPost, "/api/evidence/attestation", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var stored api.EvidenceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, interfaces.ComputeEvidenceID(payload).String(), stored.EvidenceID)

	fetch := httptest.NewRequest(http.MethodGet, "/api/public/evidence/attestation/"+stored.EvidenceID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, fetch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, rec.Body.Bytes())

	// Unknown type and unknown ID both fail cleanly.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/evidence/bogus/"+stored.EvidenceID, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := interfaces.ComputeEvidenceID([]byte("missing"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/evidence/attestation/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drain", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/undrain", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalErrorsAreLoggedNotLeaked(t *testing.T) {
	mockReg := new(registry.MockRegistry)
	mockReg.On("Config").Return((*interfaces.ProtocolConfig)(nil), assert.AnError)

	handler := NewHandler(mockReg, nil, testLogger())
	mux := chi.NewRouter()
	mux.Get("/api/public/config", handler.HandleConfig)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/config", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	mockReg.AssertExpectations(t)
}

func TestEvidenceUnavailableWithoutBackend(t *testing.T) {
	mockReg := new(registry.MockRegistry)
	handler := NewHandler(mockReg, nil, testLogger())
	mux := chi.NewRouter()
	mux.Post("/api/evidence/{type}", handler.HandleStoreEvidence)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evidence/attestation", bytes.NewReader([]byte("x"))))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
