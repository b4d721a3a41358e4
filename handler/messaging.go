package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ecomkit/gateway/infra/response"
	"github.com/ecomkit/gateway/provider"
)

// MessagingHandler serves SMS, OTP and WhatsApp operations.
type MessagingHandler struct {
	service *provider.Service
}

// NewMessagingHandler creates a new messaging handler.
func NewMessagingHandler(service *provider.Service) *MessagingHandler {
	return &MessagingHandler{service: service}
}

type sendSMSRequest struct {
	To      string `json:"to" validate:"required,min=10"`
	Message string `json:"message" validate:"required,max=1600"`
}

// SendSMS handles POST /v1/sms.
func (h *MessagingHandler) SendSMS(w http.ResponseWriter, r *http.Request) {
	var req sendSMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := provider.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	messageID, err := h.service.SendSMS(r.Context(), req.To, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "SMS sent", map[string]string{"messageId": messageID})
}

type sendOTPRequest struct {
	Phone string `json:"phone" validate:"required,min=10"`
}

// SendOTP handles POST /v1/otp/send. The response carries only the reference
// id; the code travels to the handset and nowhere else.
func (h *MessagingHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := provider.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	referenceID, err := h.service.SendOTP(r.Context(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "OTP sent", map[string]string{"referenceId": referenceID})
}

type verifyOTPRequest struct {
	ReferenceID string `json:"referenceId" validate:"required,uuid"`
	Code        string `json:"code" validate:"required,numeric"`
}

// VerifyOTP handles POST /v1/otp/verify.
func (h *MessagingHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := provider.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.ReferenceID, req.Code); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "OTP verified", nil)
}

type whatsAppTemplateRequest struct {
	To       string   `json:"to" validate:"required,min=10"`
	Template string   `json:"template" validate:"required"`
	Params   []string `json:"params,omitempty"`
}

// SendWhatsAppTemplate handles POST /v1/whatsapp/template.
func (h *MessagingHandler) SendWhatsAppTemplate(w http.ResponseWriter, r *http.Request) {
	var req whatsAppTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := provider.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	messageID, err := h.service.SendWhatsAppTemplate(r.Context(), req.To, req.Template, req.Params)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "WhatsApp template sent", map[string]string{"messageId": messageID})
}

type whatsAppTextRequest struct {
	To   string `json:"to" validate:"required,min=10"`
	Text string `json:"text" validate:"required,max=4096"`
}

// SendWhatsAppText handles POST /v1/whatsapp/text.
func (h *MessagingHandler) SendWhatsAppText(w http.ResponseWriter, r *http.Request) {
	var req whatsAppTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := provider.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	messageID, err := h.service.SendWhatsAppText(r.Context(), req.To, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "WhatsApp message sent", map[string]string{"messageId": messageID})
}
