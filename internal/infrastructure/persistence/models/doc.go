// Package models contains GORM-specific persistence models for the sales
// ledger and the forecasting collaborator's published tables. They stay
// separate from the analytics domain types so the domain remains free of
// ORM tags.
//
// The tables are owned by the ingestion and forecasting pipelines; this
// service only reads them.
package models
