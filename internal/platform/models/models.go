package models

type Organization struct {
	ID           string   `json:"id"`
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	EmbedOrigins []string `json:"embed_origins"` // JSON array in DB
	CreatedAt    int64    `json:"created_at"`
	UpdatedAt    int64    `json:"updated_at"`
}

type Integration struct {
	ID           string `json:"id"`
	OrgID        string `json:"org_id"`
	Provider     string `json:"provider"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	TokenType    string `json:"token_type"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}
