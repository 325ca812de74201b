package dto

import "strings"

type CreateOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (r CreateOrganizationRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Organization name is required"
	}
	return errors
}

type JoinWithCodeRequest struct {
	Code string `json:"code"`
}

func (r JoinWithCodeRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Code) == "" {
		errors["code"] = "Join code is required"
	}
	return errors
}

type CreateInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func (r CreateInviteRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Email) == "" {
		errors["email"] = "Email is required"
	}
	return errors
}

type JoinCodeResponse struct {
	OrganizationID string `json:"organization_id"`
	JoinCode       string `json:"join_code"`
}

type MembershipDTO struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organization_id"`
	Role           string           `json:"role"`
	Organization   *OrganizationDTO `json:"organization,omitempty"`
}

type OrganizationDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	JoinCode    string `json:"join_code,omitempty"`
}

type ResolveJoinRequestRequest struct {
	Approve bool `json:"approve"`
}
