package client

import (
	"regexp"
	"strings"
	"time"

	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/cabinet/backend/internal/domain/shared"
)

// ClientType represents the kind of client the firm advises
type ClientType string

const (
	ClientTypeIndividual   ClientType = "individual"   // Natural person
	ClientTypeOrganization ClientType = "organization" // Company/entity
)

// Client is the aggregate root for an advised client. It owns a single
// semi-structured FiscalData document; the document is never persisted or
// deleted independently of its client.
type Client struct {
	shared.BaseEntity
	Code        string
	Name        string
	Type        ClientType
	ContactName string
	Phone       string
	Email       string
	Notes       string
	FiscalData  *fiscal.FiscalData
}

// NewClient creates a new client with required fields
func NewClient(code, name string, clientType ClientType) (*Client, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateType(clientType); err != nil {
		return nil, err
	}

	return &Client{
		BaseEntity: shared.NewBaseEntity(),
		Code:       strings.ToUpper(code),
		Name:       name,
		Type:       clientType,
	}, nil
}

// Update updates the client's display name
func (c *Client) Update(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	return nil
}

// SetContact sets the client's contact information
func (c *Client) SetContact(contactName, phone, email string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	c.ContactName = contactName
	c.Phone = phone
	c.Email = email
	c.UpdatedAt = time.Now()
	return nil
}

// SetNotes sets the client's notes
func (c *Client) SetNotes(notes string) {
	c.Notes = notes
	c.UpdatedAt = time.Now()
}

// SetFiscalData replaces the client's fiscal document wholesale
func (c *Client) SetFiscalData(data *fiscal.FiscalData) {
	c.FiscalData = data
	c.UpdatedAt = time.Now()
}

// FiscalRecord projects the client onto the compliance aggregator's input
func (c *Client) FiscalRecord() fiscal.ClientRecord {
	return fiscal.ClientRecord{
		ID:   c.ID,
		Name: c.Name,
		Data: c.FiscalData,
	}
}

// Validation functions

func validateCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Client code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Client code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Client code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot exceed 200 characters")
	}
	return nil
}

func validateType(t ClientType) error {
	switch t {
	case ClientTypeIndividual, ClientTypeOrganization:
		return nil
	default:
		return shared.NewDomainError("INVALID_TYPE", "Client type must be 'individual' or 'organization'")
	}
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
