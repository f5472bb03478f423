// Package models contains the GORM persistence models and their conversions
// to and from domain types. Domain packages never depend on this package;
// repositories translate at the boundary.
package models
