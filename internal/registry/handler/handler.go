// Package handler exposes the registry over HTTP. Handlers stay thin:
// decode the request, call the service, map coded errors to a status.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"watsonmark/internal/audit"
	"watsonmark/internal/platform/middleware"
	"watsonmark/internal/registry/models"
	"watsonmark/internal/registry/service"
	id "watsonmark/pkg/domain"
	dErrors "watsonmark/pkg/domain-errors"
)

// Service defines the registry operations the transport needs.
type Service interface {
	Mint(ctx context.Context, req service.MintRequest) (id.CertificateID, error)
	Verify(ctx context.Context, wmID id.WatermarkID) (models.Verification, error)
	Vote(ctx context.Context, certID id.CertificateID, approve bool) error
	Finalize(ctx context.Context, certID id.CertificateID) (models.Status, error)
	GetRecord(ctx context.Context, certID id.CertificateID) (*models.CertificateRecord, error)
	GetOwner(ctx context.Context, certID id.CertificateID) (id.Identity, error)
	CountByOwner(ctx context.Context, owner id.Identity) (int, error)
	CurrentIssuer(ctx context.Context) (id.Identity, error)
	TransferIssuer(ctx context.Context, newIssuer id.Identity) error
	Info(ctx context.Context) (models.RegistryInfo, error)
	AuditTrail(ctx context.Context, certID id.CertificateID) ([]audit.Event, error)
}

// Handler handles registry endpoints.
type Handler struct {
	logger   *slog.Logger
	registry Service
}

// New creates a new registry Handler.
func New(registry Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	registryRouter := chi.NewRouter()
	registryRouter.Use(middleware.Recovery(h.logger))
	registryRouter.Use(middleware.RequestID)
	registryRouter.Use(middleware.RequestTime)
	registryRouter.Use(middleware.Identity)
	registryRouter.Use(middleware.Logger(h.logger))

	registryRouter.Post("/documents", h.handleMint)
	registryRouter.Get("/documents/{watermarkID}/verify", h.handleVerify)
	registryRouter.Get("/certificates/{certificateID}", h.handleGetRecord)
	registryRouter.Get("/certificates/{certificateID}/owner", h.handleGetOwner)
	registryRouter.Post("/certificates/{certificateID}/votes", h.handleVote)
	registryRouter.Post("/certificates/{certificateID}/finalize", h.handleFinalize)
	registryRouter.Get("/certificates/{certificateID}/audit", h.handleAuditTrail)
	registryRouter.Get("/registry/issuer", h.handleGetIssuer)
	registryRouter.Post("/registry/issuer", h.handleTransferIssuer)
	registryRouter.Get("/registry/info", h.handleInfo)
	registryRouter.Get("/identities/{identity}/certificates/count", h.handleCountByOwner)

	r.Mount("/", registryRouter)
}

type mintRequest struct {
	Owner       string         `json:"owner"`
	WatermarkID uint64         `json:"watermark_id"`
	ContentHash id.ContentHash `json:"content_hash"`
	IssuedAt    int64          `json:"issued_at"`
	MetadataURI string         `json:"metadata_uri"`
	Suspicious  bool           `json:"suspicious"`
}

type mintResponse struct {
	CertificateID    id.CertificateID `json:"certificate_id"`
	VerificationLink string           `json:"verification_link"`
}

// handleMint registers a document and issues its certificate to the owner.
func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid mint request", err)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	certID, err := h.registry.Mint(ctx, service.MintRequest{
		Owner:       id.Identity(req.Owner),
		WatermarkID: id.WatermarkID(req.WatermarkID),
		ContentHash: req.ContentHash,
		IssuedAt:    time.Unix(req.IssuedAt, 0).UTC(),
		MetadataURI: req.MetadataURI,
		Suspicious:  req.Suspicious,
	})
	if err != nil {
		h.serviceError(ctx, w, "failed to mint certificate", err)
		return
	}

	writeJSON(w, http.StatusCreated, mintResponse{
		CertificateID:    certID,
		VerificationLink: models.VerificationLink(certID),
	})
}

// handleVerify answers the public provenance question. Unknown watermarks
// return 200 with exists=false.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wmID, err := id.ParseWatermarkID(chi.URLParam(r, "watermarkID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid watermark id"))
		return
	}

	verification, err := h.registry.Verify(ctx, wmID)
	if err != nil {
		h.serviceError(ctx, w, "failed to verify watermark", err)
		return
	}
	writeJSON(w, http.StatusOK, verification)
}

type recordResponse struct {
	*models.CertificateRecord
	VerificationLink string `json:"verification_link"`
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := id.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return
	}

	record, err := h.registry.GetRecord(ctx, certID)
	if err != nil {
		h.serviceError(ctx, w, "failed to load certificate", err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{
		CertificateRecord: record,
		VerificationLink:  models.VerificationLink(record.CertificateID),
	})
}

func (h *Handler) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := id.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return
	}

	owner, err := h.registry.GetOwner(ctx, certID)
	if err != nil {
		h.serviceError(ctx, w, "failed to resolve owner", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]id.Identity{"owner": owner})
}

type voteRequest struct {
	Approve bool `json:"approve"`
}

// handleVote casts the caller's single vote on a pending certificate.
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := id.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid vote request", err)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.Vote(ctx, certID, req.Approve); err != nil {
		h.serviceError(ctx, w, "failed to cast vote", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type finalizeResponse struct {
	CertificateID id.CertificateID `json:"certificate_id"`
	Status        models.Status    `json:"status"`
}

// handleFinalize settles an expired voting window into a terminal status.
func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := id.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return
	}

	status, err := h.registry.Finalize(ctx, certID)
	if err != nil {
		h.serviceError(ctx, w, "failed to finalize certificate", err)
		return
	}
	writeJSON(w, http.StatusOK, finalizeResponse{CertificateID: certID, Status: status})
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := id.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return
	}

	events, err := h.registry.AuditTrail(ctx, certID)
	if err != nil {
		h.serviceError(ctx, w, "failed to load audit trail", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, map[string][]audit.Event{"events": events})
}

func (h *Handler) handleGetIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issuer, err := h.registry.CurrentIssuer(ctx)
	if err != nil {
		h.serviceError(ctx, w, "failed to load issuer", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]id.Identity{"issuer": issuer})
}

type transferIssuerRequest struct {
	Issuer string `json:"issuer"`
}

func (h *Handler) handleTransferIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transferIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid issuer transfer request", err)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.TransferIssuer(ctx, id.Identity(req.Issuer)); err != nil {
		h.serviceError(ctx, w, "failed to transfer issuer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, err := h.registry.Info(ctx)
	if err != nil {
		h.serviceError(ctx, w, "failed to load registry info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type countResponse struct {
	Identity id.Identity `json:"identity"`
	Count    int         `json:"count"`
}

func (h *Handler) handleCountByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := id.Identity(chi.URLParam(r, "identity"))
	if identity.IsNil() {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "identity is required"))
		return
	}

	count, err := h.registry.CountByOwner(ctx, identity)
	if err != nil {
		h.serviceError(ctx, w, "failed to count certificates", err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Identity: identity, Count: count})
}

// serviceError logs internal failures at error level and expected domain
// outcomes at warn, then writes the coded response.
func (h *Handler) serviceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		if h.logger != nil {
			h.logger.ErrorContext(ctx, msg, "error", err.Error())
		}
	} else {
		h.warn(ctx, msg, err)
	}
	writeError(w, err)
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	if h.logger != nil {
		h.logger.WarnContext(ctx, msg, "error", err.Error())
	}
}
