package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cabinet/backend/internal/domain/client"
	"github.com/cabinet/backend/internal/domain/fiscal"
)

// ClientModel is the persistence model for the Client domain entity.
// The fiscal document is stored as a single jsonb column: it is
// semi-structured, read and replaced as a whole, and never queried by the
// database beyond presence.
type ClientModel struct {
	BaseModel
	Code        string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string            `gorm:"type:varchar(200);not null"`
	Type        client.ClientType `gorm:"type:varchar(20);not null;default:'individual'"`
	ContactName string            `gorm:"type:varchar(100)"`
	Phone       string            `gorm:"type:varchar(50)"`
	Email       string            `gorm:"type:varchar(200);index"`
	Notes       string            `gorm:"type:text"`
	FiscalData  []byte            `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
// The fiscal document is normalized on the way out, so legacy document
// shapes never escape the persistence layer.
func (m *ClientModel) ToDomain() (*client.Client, error) {
	c := &client.Client{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        m.Code,
		Name:        m.Name,
		Type:        m.Type,
		ContactName: m.ContactName,
		Phone:       m.Phone,
		Email:       m.Email,
		Notes:       m.Notes,
	}

	if len(m.FiscalData) > 0 {
		var data fiscal.FiscalData
		if err := json.Unmarshal(m.FiscalData, &data); err != nil {
			return nil, fmt.Errorf("corrupt fiscal document for client %s: %w", m.ID, err)
		}
		data.Normalize(time.Now())
		c.FiscalData = &data
	}
	return c, nil
}

// FromDomain populates the persistence model from a domain Client entity.
func (m *ClientModel) FromDomain(c *client.Client) error {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Code = c.Code
	m.Name = c.Name
	m.Type = c.Type
	m.ContactName = c.ContactName
	m.Phone = c.Phone
	m.Email = c.Email
	m.Notes = c.Notes

	if c.FiscalData != nil {
		data, err := json.Marshal(c.FiscalData)
		if err != nil {
			return fmt.Errorf("failed to marshal fiscal document: %w", err)
		}
		m.FiscalData = data
	} else {
		m.FiscalData = nil
	}
	return nil
}
