package dto

import (
	"billing/internal/domain/company"
)

// RegisterCompanyRequest is the body of POST /companies/register.
type RegisterCompanyRequest struct {
	BusinessName     string `json:"businessName"`
	Email            string `json:"email"`
	PhoneNumber      string `json:"phoneNumber"`
	GSTIN            string `json:"gstin"`
	BusinessType     string `json:"businessType"`
	BusinessCategory string `json:"businessCategory"`
	State            string `json:"state"`
	Pincode          string `json:"pincode"`
	Address          string `json:"address"`
	LogoURL          string `json:"logoUrl"`
	SignatureURL     string `json:"signatureUrl"`
}

func (r *RegisterCompanyRequest) ToCompany() company.Company {
	return company.Company{
		BusinessName:     r.BusinessName,
		Email:            r.Email,
		PhoneNumber:      r.PhoneNumber,
		GSTIN:            r.GSTIN,
		BusinessType:     r.BusinessType,
		BusinessCategory: r.BusinessCategory,
		State:            r.State,
		Pincode:          r.Pincode,
		Address:          r.Address,
		LogoURL:          r.LogoURL,
		SignatureURL:     r.SignatureURL,
	}
}
