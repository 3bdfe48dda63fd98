package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stayhub/stayhub-backend/internal/dto"
	"github.com/stayhub/stayhub-backend/internal/http/handlers/common"
	"github.com/stayhub/stayhub-backend/internal/repository"
	"github.com/stayhub/stayhub-backend/internal/service"
	"github.com/stayhub/stayhub-backend/internal/validation"
)

// ProfileHandler обслуживает просмотр и редактирование профиля.
type ProfileHandler struct {
	accounts service.ProfileAccounts
	profile  *service.ProfileService
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(accounts service.ProfileAccounts, profile *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, profile: profile}
}

// GetMe обрабатывает GET /profile.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			common.RespondNotFound(c, "аккаунт не найден")
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewAccountResponse(account))
}

// UpdateMe обрабатывает PUT /profile.
//
// Смена номера телефона (и повтор после неудачной доставки) запускает
// отправку SMS-кода; её итог возвращается в поле sms_outcome.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.UpdateProfileRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := validation.ValidateName("имя", req.FirstName); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateName("фамилия", req.LastName); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if phone := strings.TrimSpace(req.PhoneNumber); phone != "" {
		if err := validation.ValidatePhoneNumber(phone); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	result, err := h.profile.Save(c.Request.Context(), accountID, service.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			common.RespondNotFound(c, "аккаунт не найден")
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	resp := dto.ProfileResponse{Account: dto.NewAccountResponse(result.Account)}
	if result.SmsOutcome != nil {
		resp.SmsOutcome = &dto.SmsOutcomeResponse{
			Status:            result.SmsOutcome.Status,
			ProviderMessageID: result.SmsOutcome.ProviderMessageID,
		}
	}

	common.RespondJSON(c, http.StatusOK, resp)
}
