package handler

import (
	"roleready/internal/app/collab"
	"roleready/internal/app/records"
	"roleready/internal/app/storage"
	"roleready/internal/configs"
)

// AppDeps carries everything the HTTP layer needs. It is built once in main.
type AppDeps struct {
	Hub            *collab.Hub
	Config         *configs.AppConfig
	Records        records.Store
	StorageService storage.StorageService
}
