package models

import (
	id "watsonmark/pkg/domain"
)

// Collection identity, displayed by external tooling.
const (
	CollectionName   = "WatsonDocument"
	CollectionSymbol = "WTS"
)

// verificationBaseURL anchors the display links handed to external callers.
const verificationBaseURL = "https://verify.watsonmark.io/certificates/"

// VerificationLink derives the stable display link for a certificate.
// It is a pure function of the certificate ID so links can be rebuilt
// offline and compared byte-for-byte.
func VerificationLink(certID id.CertificateID) string {
	return verificationBaseURL + certID.String()
}

// Verification is the public answer to a watermark lookup. Absence is a
// normal outcome: Exists=false with zero values, never an error.
type Verification struct {
	Exists           bool             `json:"exists"`
	CertificateID    id.CertificateID `json:"certificate_id,omitempty"`
	Owner            id.Identity      `json:"owner,omitempty"`
	Status           string           `json:"status,omitempty"`
	VerificationLink string           `json:"verification_link,omitempty"`
}

// NewVerification builds the verification view of a record and its owner.
func NewVerification(record *CertificateRecord, owner id.Identity) Verification {
	return Verification{
		Exists:           true,
		CertificateID:    record.CertificateID,
		Owner:            owner,
		Status:           record.Status.String(),
		VerificationLink: VerificationLink(record.CertificateID),
	}
}

// RegistryInfo describes the certificate collection itself.
type RegistryInfo struct {
	Name         string      `json:"name"`
	Symbol       string      `json:"symbol"`
	Issuer       id.Identity `json:"issuer"`
	Certificates int         `json:"certificates"`
}
