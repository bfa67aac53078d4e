package parties

import "github.com/greenledger/greenledger/internal/shared"

// ListPartiesRequest filters the directory listing.
type ListPartiesRequest struct {
	Type    Type   `validate:"omitempty,oneof=customer vendor supplier"`
	Search  string `validate:"omitempty,max=100"`
	Page    int    `validate:"gte=0"`
	PerPage int    `validate:"gte=0,lte=200"`
}

// ListPartiesResponse is the JSON body of GET /parties.
type ListPartiesResponse struct {
	Parties    []Party           `json:"parties"`
	Pagination shared.Pagination `json:"pagination"`
}
