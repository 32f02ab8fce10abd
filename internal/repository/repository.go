package repository

import (
	"database/sql"

	"go.uber.org/zap"
)

// Repositories 仓库集合，服务层按接口注入
type Repositories struct {
	Scenarios  ScenariosRepository
	Documents  DocumentsRepository
	Orders     OrdersRepository
	IngestLogs IngestLogsRepository
	Catalog    TargetCatalogRepository
}

// NewPostgresRepositories 创建 PostgreSQL 仓库集合
func NewPostgresRepositories(db *sql.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Scenarios:  NewPostgresScenariosRepository(db),
		Documents:  NewPostgresDocumentsRepository(db, logger),
		Orders:     NewPostgresOrdersRepository(db, logger),
		IngestLogs: NewPostgresIngestLogsRepository(db),
		Catalog:    NewPostgresTargetCatalogRepository(db),
	}
}

// NewMemoryRepositories 创建内存仓库集合（DB_ENABLED=false 的开发/演示模式）
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Scenarios:  NewMemoryScenariosRepo(),
		Documents:  NewMemoryDocumentsRepo(),
		Orders:     NewMemoryOrdersRepo(),
		IngestLogs: NewMemoryIngestLogsRepo(),
		Catalog:    NewMemoryTargetCatalogRepo(),
	}
}
