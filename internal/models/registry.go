package models

// ExternalDatabase is a registry entry describing a database the query proxy
// can connect to. Password holds ciphertext.
type ExternalDatabase struct {
	Name               string  `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Dialect            string  `gorm:"size:32;not null" json:"dialect"`
	Host               string  `gorm:"size:255;not null" json:"host"`
	Port               string  `gorm:"size:8" json:"port"`
	Username           string  `gorm:"size:128" json:"username"`
	Password           string  `gorm:"type:text" json:"-"`
	Database           string  `gorm:"size:128" json:"database"`
	UseSSL             bool    `json:"use_ssl"`
	SSLMode            string  `gorm:"size:32" json:"ssl_mode,omitempty"`
	PaginationTemplate string  `gorm:"type:text" json:"pagination_template,omitempty"`
	UsePage            bool    `json:"use_page"`
	ServerID           *uint   `gorm:"index" json:"server_id,omitempty"`
	Server             *Server `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Base
	Audit
}

// Server is an SSH jump host. Password and PrivateKey hold ciphertext.
type Server struct {
	Name       string `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Host       string `gorm:"size:255;not null" json:"host"`
	Port       int    `gorm:"not null;default:22" json:"port"`
	Username   string `gorm:"size:128;not null" json:"username"`
	Password   string `gorm:"type:text" json:"-"`
	PrivateKey string `gorm:"type:text" json:"-"`
	HostKey    string `gorm:"type:text" json:"host_key,omitempty"`
	Base
	Audit
}
