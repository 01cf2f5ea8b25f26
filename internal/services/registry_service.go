package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"querydesk-api/internal/apis/dtos"
	"querydesk-api/internal/constants"
	"querydesk-api/internal/models"
	"querydesk-api/internal/repositories"
	"querydesk-api/internal/utils"
	"querydesk-api/pkg/dbmanager"
	"querydesk-api/pkg/logger"
)

// ConnectionResolver turns a registry id into a ready to use connection
// description with plaintext secrets.
type ConnectionResolver interface {
	Resolve(ctx context.Context, databaseID uint) (*dbmanager.ConnectionConfig, error)
}

type RegistryService interface {
	ConnectionResolver

	CreateDatabase(ctx context.Context, actor string, req *dtos.CreateDatabaseRequest) (*dtos.DatabaseResponse, uint32, error)
	UpdateDatabase(ctx context.Context, actor string, id uint, req *dtos.UpdateDatabaseRequest) (*dtos.DatabaseResponse, uint32, error)
	DeleteDatabase(ctx context.Context, id uint) (uint32, error)
	GetDatabase(ctx context.Context, id uint) (*dtos.DatabaseResponse, uint32, error)
	ListDatabases(ctx context.Context, page, pageSize int) (*dtos.DatabaseListResponse, uint32, error)

	CreateServer(ctx context.Context, actor string, req *dtos.CreateServerRequest) (*dtos.ServerResponse, uint32, error)
	UpdateServer(ctx context.Context, actor string, id uint, req *dtos.UpdateServerRequest) (*dtos.ServerResponse, uint32, error)
	DeleteServer(ctx context.Context, id uint) (uint32, error)
	GetServer(ctx context.Context, id uint) (*dtos.ServerResponse, uint32, error)
	ListServers(ctx context.Context, page, pageSize int) (*dtos.ServerListResponse, uint32, error)
}

type registryService struct {
	databaseRepo repositories.DatabaseRepository
	serverRepo   repositories.ServerRepository
	cache        repositories.RegistryCache
	cipher       utils.SecretCipher
}

func NewRegistryService(
	databaseRepo repositories.DatabaseRepository,
	serverRepo repositories.ServerRepository,
	cache repositories.RegistryCache,
	cipher utils.SecretCipher,
) RegistryService {
	return &registryService{
		databaseRepo: databaseRepo,
		serverRepo:   serverRepo,
		cache:        cache,
		cipher:       cipher,
	}
}

func (s *registryService) Resolve(ctx context.Context, databaseID uint) (*dbmanager.ConnectionConfig, error) {
	entry, ok := s.cache.Get(ctx, databaseID)
	if !ok {
		var err error
		entry, err = s.databaseRepo.FindByID(ctx, databaseID)
		if err != nil {
			logger.Error("RegistryService -> Resolve -> lookup failed", logger.Ctx{"database_id": databaseID, "err": err})
			return nil, dtos.NewQueryError(constants.ErrCodeInternal, "failed to look up database", err)
		}
		if entry == nil {
			return nil, dtos.NewQueryError(constants.ErrCodeConnectionResolutionFailed,
				fmt.Sprintf("database %d is not registered", databaseID), nil)
		}
		s.cache.Set(ctx, entry)
	}

	if entry.ServerID != nil && entry.Server == nil {
		return nil, dtos.NewQueryError(constants.ErrCodeServerNotFound,
			fmt.Sprintf("tunnel server %d of database %d is not registered", *entry.ServerID, databaseID), nil)
	}

	config, err := s.connectionConfig(entry)
	if err != nil {
		logger.Error("RegistryService -> Resolve -> failed to decrypt secrets", logger.Ctx{"database_id": databaseID, "err": err})
		return nil, dtos.NewQueryError(constants.ErrCodeInternal, "failed to decrypt registry secrets", err)
	}
	return config, nil
}

func (s *registryService) connectionConfig(entry *models.ExternalDatabase) (*dbmanager.ConnectionConfig, error) {
	password, err := s.cipher.Decrypt(entry.Password)
	if err != nil {
		return nil, err
	}

	config := &dbmanager.ConnectionConfig{
		ID:                 entry.ID,
		Type:               entry.Dialect,
		Host:               entry.Host,
		Port:               utils.StringOrNil(entry.Port),
		Username:           utils.StringOrNil(entry.Username),
		Password:           utils.StringOrNil(password),
		Database:           entry.Database,
		UseSSL:             entry.UseSSL,
		SSLMode:            utils.StringOrNil(entry.SSLMode),
		PaginationTemplate: entry.PaginationTemplate,
		UsePage:            entry.UsePage,
	}

	if entry.Server != nil {
		serverPassword, err := s.cipher.Decrypt(entry.Server.Password)
		if err != nil {
			return nil, err
		}
		privateKey, err := s.cipher.Decrypt(entry.Server.PrivateKey)
		if err != nil {
			return nil, err
		}
		config.Tunnel = &dbmanager.TunnelConfig{
			ServerID:   entry.Server.ID,
			Host:       entry.Server.Host,
			Port:       entry.Server.Port,
			Username:   entry.Server.Username,
			Password:   serverPassword,
			PrivateKey: privateKey,
			HostKey:    entry.Server.HostKey,
		}
	}
	return config, nil
}

func (s *registryService) CreateDatabase(ctx context.Context, actor string, req *dtos.CreateDatabaseRequest) (*dtos.DatabaseResponse, uint32, error) {
	if err := validatePaginationTemplate(req.PaginationTemplate); err != nil {
		return nil, http.StatusBadRequest, err
	}
	if status, err := s.checkServer(ctx, req.ServerID); err != nil {
		return nil, status, err
	}

	password, err := s.cipher.Encrypt(req.Password)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to encrypt password: %v", err)
	}

	entry := &models.ExternalDatabase{
		Name:               req.Name,
		Dialect:            req.Dialect,
		Host:               req.Host,
		Port:               req.Port,
		Username:           req.Username,
		Password:           password,
		Database:           req.Database,
		UseSSL:             req.UseSSL,
		SSLMode:            req.SSLMode,
		PaginationTemplate: req.PaginationTemplate,
		UsePage:            req.UsePage,
		ServerID:           req.ServerID,
		Audit:              models.Audit{CreatedBy: actor, UpdatedBy: actor},
	}
	if err := s.databaseRepo.Create(ctx, entry); err != nil {
		return nil, persistStatus(err), fmt.Errorf("failed to create database: %v", err)
	}

	logger.Info("RegistryService -> CreateDatabase -> created", logger.Ctx{"id": entry.ID, "dialect": entry.Dialect, "actor": actor})
	return toDatabaseResponse(entry), http.StatusCreated, nil
}

func (s *registryService) UpdateDatabase(ctx context.Context, actor string, id uint, req *dtos.UpdateDatabaseRequest) (*dtos.DatabaseResponse, uint32, error) {
	entry, err := s.databaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to fetch database: %v", err)
	}
	if entry == nil {
		return nil, http.StatusNotFound, fmt.Errorf("database not found")
	}

	if req.PaginationTemplate != nil {
		if err := validatePaginationTemplate(*req.PaginationTemplate); err != nil {
			return nil, http.StatusBadRequest, err
		}
		entry.PaginationTemplate = *req.PaginationTemplate
	}
	if req.ServerID != nil {
		if status, err := s.checkServer(ctx, req.ServerID); err != nil {
			return nil, status, err
		}
		entry.ServerID = req.ServerID
	}
	if req.ClearServer {
		entry.ServerID = nil
	}
	entry.Server = nil

	if req.Password != nil {
		password, err := s.cipher.Encrypt(*req.Password)
		if err != nil {
			return nil, http.StatusInternalServerError, fmt.Errorf("failed to encrypt password: %v", err)
		}
		entry.Password = password
	}
	assign(&entry.Name, req.Name)
	assign(&entry.Dialect, req.Dialect)
	assign(&entry.Host, req.Host)
	assign(&entry.Port, req.Port)
	assign(&entry.Username, req.Username)
	assign(&entry.Database, req.Database)
	assign(&entry.UseSSL, req.UseSSL)
	assign(&entry.SSLMode, req.SSLMode)
	assign(&entry.UsePage, req.UsePage)
	entry.UpdatedBy = actor

	if err := s.databaseRepo.Update(ctx, entry); err != nil {
		return nil, persistStatus(err), fmt.Errorf("failed to update database: %v", err)
	}
	s.cache.Invalidate(ctx, id)

	return toDatabaseResponse(entry), http.StatusOK, nil
}

func (s *registryService) DeleteDatabase(ctx context.Context, id uint) (uint32, error) {
	deleted, err := s.databaseRepo.Delete(ctx, id)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to delete database: %v", err)
	}
	s.cache.Invalidate(ctx, id)
	if !deleted {
		return http.StatusNotFound, fmt.Errorf("database not found")
	}
	return http.StatusOK, nil
}

func (s *registryService) GetDatabase(ctx context.Context, id uint) (*dtos.DatabaseResponse, uint32, error) {
	entry, err := s.databaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to fetch database: %v", err)
	}
	if entry == nil {
		return nil, http.StatusNotFound, fmt.Errorf("database not found")
	}
	return toDatabaseResponse(entry), http.StatusOK, nil
}

func (s *registryService) ListDatabases(ctx context.Context, page, pageSize int) (*dtos.DatabaseListResponse, uint32, error) {
	page, pageSize = normalizePage(page, pageSize)
	entries, total, err := s.databaseRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to list databases: %v", err)
	}

	response := &dtos.DatabaseListResponse{Databases: make([]dtos.DatabaseResponse, len(entries)), Total: total}
	for i, entry := range entries {
		response.Databases[i] = *toDatabaseResponse(entry)
	}
	return response, http.StatusOK, nil
}

func (s *registryService) CreateServer(ctx context.Context, actor string, req *dtos.CreateServerRequest) (*dtos.ServerResponse, uint32, error) {
	if req.Password == "" && req.PrivateKey == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("either password or private_key is required")
	}

	server := &models.Server{
		Name:     req.Name,
		Host:     req.Host,
		Port:     req.Port,
		Username: req.Username,
		HostKey:  strings.TrimSpace(req.HostKey),
		Audit:    models.Audit{CreatedBy: actor, UpdatedBy: actor},
	}
	if server.Port == 0 {
		server.Port = 22
	}
	if err := s.encryptServerSecrets(server, &req.Password, &req.PrivateKey); err != nil {
		return nil, http.StatusInternalServerError, err
	}

	if err := s.serverRepo.Create(ctx, server); err != nil {
		return nil, persistStatus(err), fmt.Errorf("failed to create server: %v", err)
	}

	logger.Info("RegistryService -> CreateServer -> created", logger.Ctx{"id": server.ID, "actor": actor})
	return toServerResponse(server), http.StatusCreated, nil
}

func (s *registryService) UpdateServer(ctx context.Context, actor string, id uint, req *dtos.UpdateServerRequest) (*dtos.ServerResponse, uint32, error) {
	server, err := s.serverRepo.FindByID(ctx, id)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to fetch server: %v", err)
	}
	if server == nil {
		return nil, http.StatusNotFound, fmt.Errorf("server not found")
	}

	if err := s.encryptServerSecrets(server, req.Password, req.PrivateKey); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if server.Password == "" && server.PrivateKey == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("either password or private_key is required")
	}
	assign(&server.Name, req.Name)
	assign(&server.Host, req.Host)
	assign(&server.Port, req.Port)
	assign(&server.Username, req.Username)
	if req.HostKey != nil {
		server.HostKey = strings.TrimSpace(*req.HostKey)
	}
	server.UpdatedBy = actor

	if err := s.serverRepo.Update(ctx, server); err != nil {
		return nil, persistStatus(err), fmt.Errorf("failed to update server: %v", err)
	}
	s.invalidateServer(ctx, id)

	return toServerResponse(server), http.StatusOK, nil
}

func (s *registryService) DeleteServer(ctx context.Context, id uint) (uint32, error) {
	s.invalidateServer(ctx, id)
	deleted, err := s.serverRepo.Delete(ctx, id)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to delete server: %v", err)
	}
	if !deleted {
		return http.StatusNotFound, fmt.Errorf("server not found")
	}
	return http.StatusOK, nil
}

func (s *registryService) GetServer(ctx context.Context, id uint) (*dtos.ServerResponse, uint32, error) {
	server, err := s.serverRepo.FindByID(ctx, id)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to fetch server: %v", err)
	}
	if server == nil {
		return nil, http.StatusNotFound, fmt.Errorf("server not found")
	}
	return toServerResponse(server), http.StatusOK, nil
}

func (s *registryService) ListServers(ctx context.Context, page, pageSize int) (*dtos.ServerListResponse, uint32, error) {
	page, pageSize = normalizePage(page, pageSize)
	servers, total, err := s.serverRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to list servers: %v", err)
	}

	response := &dtos.ServerListResponse{Servers: make([]dtos.ServerResponse, len(servers)), Total: total}
	for i, server := range servers {
		response.Servers[i] = *toServerResponse(server)
	}
	return response, http.StatusOK, nil
}

// invalidateServer drops the cached entries of every database tunneled
// through the server.
func (s *registryService) invalidateServer(ctx context.Context, serverID uint) {
	ids, err := s.databaseRepo.ListIDsByServer(ctx, serverID)
	if err != nil {
		logger.Warn("RegistryService -> invalidateServer -> failed to list dependents", logger.Ctx{"server_id": serverID, "err": err})
		return
	}
	s.cache.Invalidate(ctx, ids...)
}

func (s *registryService) checkServer(ctx context.Context, serverID *uint) (uint32, error) {
	if serverID == nil {
		return 0, nil
	}
	server, err := s.serverRepo.FindByID(ctx, *serverID)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to fetch server: %v", err)
	}
	if server == nil {
		return uint32(constants.StatusForCode(constants.ErrCodeServerNotFound)),
			dtos.NewQueryError(constants.ErrCodeServerNotFound, fmt.Sprintf("server %d is not registered", *serverID), nil)
	}
	return 0, nil
}

func (s *registryService) encryptServerSecrets(server *models.Server, password, privateKey *string) error {
	if password != nil {
		enc, err := s.cipher.Encrypt(*password)
		if err != nil {
			return fmt.Errorf("failed to encrypt password: %v", err)
		}
		server.Password = enc
	}
	if privateKey != nil {
		enc, err := s.cipher.Encrypt(*privateKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt private key: %v", err)
		}
		server.PrivateKey = enc
	}
	return nil
}

func validatePaginationTemplate(template string) error {
	if template == "" {
		return nil
	}
	if !strings.Contains(template, "{0}") {
		return dtos.NewQueryError(constants.ErrCodeInvalidRequest, "pagination_template must contain {0}", nil)
	}
	return nil
}

func persistStatus(err error) uint32 {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func toDatabaseResponse(entry *models.ExternalDatabase) *dtos.DatabaseResponse {
	return &dtos.DatabaseResponse{
		ID:                 entry.ID,
		Name:               entry.Name,
		Dialect:            entry.Dialect,
		Host:               entry.Host,
		Port:               entry.Port,
		Username:           entry.Username,
		Database:           entry.Database,
		HasPassword:        entry.Password != "",
		UseSSL:             entry.UseSSL,
		SSLMode:            entry.SSLMode,
		PaginationTemplate: entry.PaginationTemplate,
		UsePage:            entry.UsePage,
		ServerID:           entry.ServerID,
		CreatedBy:          entry.CreatedBy,
		UpdatedBy:          entry.UpdatedBy,
		CreatedAt:          entry.CreatedAt,
		UpdatedAt:          entry.UpdatedAt,
	}
}

func toServerResponse(server *models.Server) *dtos.ServerResponse {
	return &dtos.ServerResponse{
		ID:            server.ID,
		Name:          server.Name,
		Host:          server.Host,
		Port:          server.Port,
		Username:      server.Username,
		HostKey:       server.HostKey,
		HasPassword:   server.Password != "",
		HasPrivateKey: server.PrivateKey != "",
		CreatedBy:     server.CreatedBy,
		UpdatedBy:     server.UpdatedBy,
		CreatedAt:     server.CreatedAt,
		UpdatedAt:     server.UpdatedAt,
	}
}
