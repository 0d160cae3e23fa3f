package valueobject

import "github.com/ignatzorin/offer-engine/internal/pkg/apperror"

// Resolution описывает решение участника по текущему предложению сессии.
type Resolution string

const (
	ResolutionAccept Resolution = "accept"
	ResolutionReject Resolution = "reject"
	ResolutionCancel Resolution = "cancel"
)

type resolutionRule struct {
	status      OfferStatus
	auditAction string
	// counterpartyOnly: решение может принять только сторона, не делавшая предложение.
	counterpartyOnly bool
}

var resolutionRules = map[Resolution]resolutionRule{
	ResolutionAccept: {status: OfferStatusAccepted, auditAction: "offer.accepted", counterpartyOnly: true},
	ResolutionReject: {status: OfferStatusRejected, auditAction: "offer.rejected", counterpartyOnly: true},
	ResolutionCancel: {status: OfferStatusRejected, auditAction: "offer.cancelled", counterpartyOnly: true},
}

func ParseResolution(value string) (Resolution, error) {
	r := Resolution(value)
	if _, ok := resolutionRules[r]; !ok {
		return "", apperror.New(apperror.ErrCodeValidation, "допустимые решения: accept, reject, cancel")
	}
	return r, nil
}

func (r Resolution) OfferStatus() OfferStatus {
	return resolutionRules[r].status
}

func (r Resolution) AuditAction() string {
	return resolutionRules[r].auditAction
}

func (r Resolution) CounterpartyOnly() bool {
	return resolutionRules[r].counterpartyOnly
}
