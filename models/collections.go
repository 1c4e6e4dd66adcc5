package models

// Collection names in the document database.
const (
	CollectionPermissions  = "user_permissions"
	CollectionExternalApps = "external_apps"
	CollectionMarket       = "market_intelligence"
	CollectionWorkLogs     = "daily_work_logs"
	CollectionSiteConfig   = "site_config"
	CollectionQuotes       = "quote_requests"
)
