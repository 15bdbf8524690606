// Package service provides application-level services for managing
// recordings and their conversion workflow. Services own the business
// rules around when a conversion may start; the actual pipeline runs in
// the background via the task and workflow packages.
package service
