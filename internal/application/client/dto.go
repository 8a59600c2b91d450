package client

import (
	"time"

	"github.com/cabinet/backend/internal/domain/client"
	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/google/uuid"
)

// CreateClientRequest represents a request to create a new client
type CreateClientRequest struct {
	Code        string `json:"code" binding:"required,min=1,max=50"`
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Type        string `json:"type" binding:"required,oneof=individual organization"`
	ContactName string `json:"contact_name" binding:"max=100"`
	Phone       string `json:"phone" binding:"max=50"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	Notes       string `json:"notes"`
}

// UpdateClientRequest represents a request to update a client
type UpdateClientRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	ContactName *string `json:"contact_name" binding:"omitempty,max=100"`
	Phone       *string `json:"phone" binding:"omitempty,max=50"`
	Email       *string `json:"email" binding:"omitempty,email,max=200"`
	Notes       *string `json:"notes"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID          uuid.UUID          `json:"id"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Type        string             `json:"type"`
	ContactName string             `json:"contact_name,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Email       string             `json:"email,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	FiscalData  *fiscal.FiscalData `json:"fiscal_data,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ListClientsResult is a page of clients with the total count
type ListClientsResult struct {
	Clients []ClientResponse `json:"clients"`
	Total   int64            `json:"total"`
}

func toClientResponse(c *client.Client) *ClientResponse {
	return &ClientResponse{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Type:        string(c.Type),
		ContactName: c.ContactName,
		Phone:       c.Phone,
		Email:       c.Email,
		Notes:       c.Notes,
		FiscalData:  c.FiscalData,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
