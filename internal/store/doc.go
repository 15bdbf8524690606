// Package store defines the persistence interfaces consumed by the
// service and workflow layers, together with the sentinel errors store
// implementations return. Concrete implementations live under
// internal/platform/postgres.
package store
