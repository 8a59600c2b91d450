package client

import (
	"context"

	"github.com/cabinet/backend/internal/domain/client"
	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/cabinet/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Service handles client-related business operations
type Service struct {
	repo client.Repository
}

// NewService creates a new client service
func NewService(repo client.Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new client
func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*ClientResponse, error) {
	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Client with this code already exists")
	}

	c, err := client.NewClient(req.Code, req.Name, client.ClientType(req.Type))
	if err != nil {
		return nil, err
	}

	if req.ContactName != "" || req.Phone != "" || req.Email != "" {
		if err := c.SetContact(req.ContactName, req.Phone, req.Email); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		c.SetNotes(req.Notes)
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return toClientResponse(c), nil
}

// Get retrieves a client by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ClientResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toClientResponse(c), nil
}

// List retrieves clients matching the filter, with the total count
func (s *Service) List(ctx context.Context, filter shared.Filter) (*ListClientsResult, error) {
	clients, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		responses = append(responses, *toClientResponse(&clients[i]))
	}
	return &ListClientsResult{Clients: responses, Total: total}, nil
}

// Update updates a client's mutable fields
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := c.Update(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.ContactName != nil || req.Phone != nil || req.Email != nil {
		contactName := c.ContactName
		phone := c.Phone
		email := c.Email
		if req.ContactName != nil {
			contactName = *req.ContactName
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if req.Email != nil {
			email = *req.Email
		}
		if err := c.SetContact(contactName, phone, email); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		c.SetNotes(*req.Notes)
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return toClientResponse(c), nil
}

// ListIDs returns the IDs of every client, for batch operations
func (s *Service) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	clients, err := s.repo.FindAll(ctx, shared.Filter{})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(clients))
	for i := range clients {
		ids = append(ids, clients[i].ID)
	}
	return ids, nil
}

// Delete removes a client and its fiscal document
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// GetFiscalData returns the client's normalized fiscal document
func (s *Service) GetFiscalData(ctx context.Context, id uuid.UUID) (*fiscal.FiscalData, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetFiscalData(ctx, id)
}
