package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ignatzorin/offer-engine/internal/interface/http/dto"
	"github.com/ignatzorin/offer-engine/internal/interface/http/response"
	"github.com/ignatzorin/offer-engine/internal/usecase/listing"
)

type ListingHandler struct {
	verifyUC *listing.VerifyListingsUseCase
}

func NewListingHandler(verifyUC *listing.VerifyListingsUseCase) *ListingHandler {
	return &ListingHandler{verifyUC: verifyUC}
}

// Verify обрабатывает POST /api/listings/verify. Остаток не списывается.
func (h *ListingHandler) Verify(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}

	var req dto.VerifyListingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	result, err := h.verifyUC.Execute(c.Request.Context(), listing.VerifyListingsInput{
		BuyerID: userID,
		Items:   dto.ToCommitments(req.Listings),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToVerifyListingsResponse(result))
}
