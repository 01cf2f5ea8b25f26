package dtos

import "time"

type CreateDatabaseRequest struct {
	Name               string `json:"name" binding:"required"`
	Dialect            string `json:"dialect" binding:"required,oneof=postgresql mysql"`
	Host               string `json:"host" binding:"required"`
	Port               string `json:"port"`
	Username           string `json:"username"`
	Password           string `json:"password"`
	Database           string `json:"database"`
	UseSSL             bool   `json:"use_ssl"`
	SSLMode            string `json:"ssl_mode"`
	PaginationTemplate string `json:"pagination_template"`
	UsePage            bool   `json:"use_page"`
	ServerID           *uint  `json:"server_id"`
}

// UpdateDatabaseRequest changes only the fields that are present.
type UpdateDatabaseRequest struct {
	Name               *string `json:"name"`
	Dialect            *string `json:"dialect" binding:"omitempty,oneof=postgresql mysql"`
	Host               *string `json:"host"`
	Port               *string `json:"port"`
	Username           *string `json:"username"`
	Password           *string `json:"password"`
	Database           *string `json:"database"`
	UseSSL             *bool   `json:"use_ssl"`
	SSLMode            *string `json:"ssl_mode"`
	PaginationTemplate *string `json:"pagination_template"`
	UsePage            *bool   `json:"use_page"`
	ServerID           *uint   `json:"server_id"`
	ClearServer        bool    `json:"clear_server"`
}

type DatabaseResponse struct {
	ID                 uint      `json:"id"`
	Name               string    `json:"name"`
	Dialect            string    `json:"dialect"`
	Host               string    `json:"host"`
	Port               string    `json:"port"`
	Username           string    `json:"username"`
	Database           string    `json:"database"`
	HasPassword        bool      `json:"has_password"`
	UseSSL             bool      `json:"use_ssl"`
	SSLMode            string    `json:"ssl_mode,omitempty"`
	PaginationTemplate string    `json:"pagination_template"`
	UsePage            bool      `json:"use_page"`
	ServerID           *uint     `json:"server_id,omitempty"`
	CreatedBy          string    `json:"created_by"`
	UpdatedBy          string    `json:"updated_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type DatabaseListResponse struct {
	Databases []DatabaseResponse `json:"databases"`
	Total     int64              `json:"total"`
}

type CreateServerRequest struct {
	Name       string `json:"name" binding:"required"`
	Host       string `json:"host" binding:"required"`
	Port       int    `json:"port" binding:"omitempty,min=1,max=65535"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password"`
	PrivateKey string `json:"private_key"`
	HostKey    string `json:"host_key"`
}

type UpdateServerRequest struct {
	Name       *string `json:"name"`
	Host       *string `json:"host"`
	Port       *int    `json:"port" binding:"omitempty,min=1,max=65535"`
	Username   *string `json:"username"`
	Password   *string `json:"password"`
	PrivateKey *string `json:"private_key"`
	HostKey    *string `json:"host_key"`
}

type ServerResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Host          string    `json:"host"`
	Port          int       `json:"port"`
	Username      string    `json:"username"`
	HostKey       string    `json:"host_key,omitempty"`
	HasPassword   bool      `json:"has_password"`
	HasPrivateKey bool      `json:"has_private_key"`
	CreatedBy     string    `json:"created_by"`
	UpdatedBy     string    `json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ServerListResponse struct {
	Servers []ServerResponse `json:"servers"`
	Total   int64            `json:"total"`
}
