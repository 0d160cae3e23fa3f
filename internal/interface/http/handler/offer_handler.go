package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/interface/http/dto"
	"github.com/ignatzorin/offer-engine/internal/interface/http/response"
	"github.com/ignatzorin/offer-engine/internal/usecase/offer"
)

type OfferHandler struct {
	openSessionUC   *offer.OpenSessionUseCase
	applyUC         *offer.ApplyToContractUseCase
	getSessionUC    *offer.GetSessionUseCase
	counterofferUC  *offer.SubmitCounterofferUseCase
	resolveOfferUC  *offer.ResolveOfferUseCase
	mergeSessionsUC *offer.MergeSessionsUseCase
}

func NewOfferHandler(
	openSessionUC *offer.OpenSessionUseCase,
	applyUC *offer.ApplyToContractUseCase,
	getSessionUC *offer.GetSessionUseCase,
	counterofferUC *offer.SubmitCounterofferUseCase,
	resolveOfferUC *offer.ResolveOfferUseCase,
	mergeSessionsUC *offer.MergeSessionsUseCase,
) *OfferHandler {
	return &OfferHandler{
		openSessionUC:   openSessionUC,
		applyUC:         applyUC,
		getSessionUC:    getSessionUC,
		counterofferUC:  counterofferUC,
		resolveOfferUC:  resolveOfferUC,
		mergeSessionsUC: mergeSessionsUC,
	}
}

// OpenSession обрабатывает POST /api/offers/sessions.
func (h *OfferHandler) OpenSession(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}

	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	seller, err := dto.SellerFromIDs(req.SellerUserID, req.SellerOrganizationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	terms, err := req.Offer.ToTerms()
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.openSessionUC.Execute(c.Request.Context(), offer.OpenSessionInput{
		CustomerID: userID,
		Seller:     seller,
		Terms:      terms,
		Listings:   dto.ToCommitments(req.Listings),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToSessionViewResponse(view))
}

// ApplyToContract обрабатывает POST /api/contracts/:id/apply.
func (h *OfferHandler) ApplyToContract(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	contractID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ApplyToContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	input := offer.ApplyToContractInput{
		ContractID:     contractID,
		ApplicantID:    userID,
		OrganizationID: req.OrganizationID,
		Listings:       dto.ToCommitments(req.Listings),
	}
	if req.Offer != nil {
		terms, err := req.Offer.ToTerms()
		if err != nil {
			response.Error(c, err)
			return
		}
		input.Terms = &terms
	}

	view, err := h.applyUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToSessionViewResponse(view))
}

// GetSession обрабатывает GET /api/offers/sessions/:id.
func (h *OfferHandler) GetSession(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.getSessionUC.Execute(c.Request.Context(), sessionID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToSessionViewResponse(view))
}

// SubmitCounteroffer обрабатывает POST /api/offers/sessions/:id/counteroffer.
func (h *OfferHandler) SubmitCounteroffer(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CounterofferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	terms, err := req.Offer.ToTerms()
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.counterofferUC.Execute(c.Request.Context(), offer.CounterofferInput{
		SessionID: sessionID,
		ActorID:   userID,
		Terms:     terms,
		Listings:  dto.ToCommitments(req.Listings),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToSessionViewResponse(view))
}

// ResolveOffer обрабатывает PUT /api/offers/sessions/:id/status.
func (h *OfferHandler) ResolveOffer(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ResolveOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "допустимые статусы: accept, reject, cancel")
		return
	}
	resolution, err := valueobject.ParseResolution(req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.resolveOfferUC.Execute(c.Request.Context(), offer.ResolveOfferInput{
		SessionID:  sessionID,
		ActorID:    userID,
		Resolution: resolution,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToResolveOfferResponse(result))
}

// MergeSessions обрабатывает POST /api/offers/merge.
func (h *OfferHandler) MergeSessions(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}

	var req dto.MergeSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	result, err := h.mergeSessionsUC.Execute(c.Request.Context(), offer.MergeSessionsInput{
		SessionIDs:  req.SessionIDs,
		RequesterID: userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToMergeResponse(result))
}
