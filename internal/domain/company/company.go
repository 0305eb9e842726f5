// Package company keeps the registry of businesses using the billing system.
package company

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/pkg/logger"
)

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z0-9]{13}$`)

// Company is a registered business.
type Company struct {
	ID               id.ID     `db:"id" json:"id"`
	BusinessName     string    `db:"business_name" json:"businessName"`
	Email            string    `db:"email" json:"email,omitempty"`
	PhoneNumber      string    `db:"phone_number" json:"phoneNumber,omitempty"`
	GSTIN            string    `db:"gstin" json:"gstin,omitempty"`
	BusinessType     string    `db:"business_type" json:"businessType,omitempty"`
	BusinessCategory string    `db:"business_category" json:"businessCategory,omitempty"`
	State            string    `db:"state" json:"state,omitempty"`
	Pincode          string    `db:"pincode" json:"pincode,omitempty"`
	Address          string    `db:"address" json:"address,omitempty"`
	LogoURL          string    `db:"logo_url" json:"logoUrl,omitempty"`
	SignatureURL     string    `db:"signature_url" json:"signatureUrl,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// Normalize trims free-text fields and upper-cases the GSTIN.
func (c *Company) Normalize() {
	c.BusinessName = strings.TrimSpace(c.BusinessName)
	c.Email = strings.TrimSpace(c.Email)
	c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)
	c.GSTIN = strings.ToUpper(strings.TrimSpace(c.GSTIN))
	c.BusinessType = strings.TrimSpace(c.BusinessType)
	c.BusinessCategory = strings.TrimSpace(c.BusinessCategory)
	c.State = strings.TrimSpace(c.State)
	c.Pincode = strings.TrimSpace(c.Pincode)
	c.Address = strings.TrimSpace(c.Address)
}

// Validate checks required fields and formats of optional ones.
func (c *Company) Validate() error {
	if c.BusinessName == "" {
		return apperror.NewFieldValidation("businessName", "business name is required")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return apperror.NewFieldValidation("email", "email is not valid")
		}
	}
	if c.GSTIN != "" && !gstinPattern.MatchString(c.GSTIN) {
		return apperror.NewFieldValidation("gstin", "GSTIN must be 15 characters starting with the state code")
	}
	return nil
}

// Repository persists companies.
type Repository interface {
	Create(ctx context.Context, c *Company) error
	// List returns companies newest first.
	List(ctx context.Context) ([]Company, error)
	// Get returns NOT_FOUND when the id is unknown.
	Get(ctx context.Context, companyID id.ID) (*Company, error)
}

// Service registers and reads companies.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register validates and stores a new company.
func (s *Service) Register(ctx context.Context, c Company) (*Company, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.ID = id.New()
	c.CreatedAt = s.now()

	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, err
	}
	logger.Info(ctx, "company registered", "company_id", c.ID, "business_name", c.BusinessName)
	return &c, nil
}

func (s *Service) List(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, companyID id.ID) (*Company, error) {
	return s.repo.Get(ctx, companyID)
}
