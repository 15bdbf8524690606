// Package events provides a lightweight in-process event bus that
// decouples the service layer from background task creation. Services
// emit task request events; handlers registered on the emitter turn
// them into executable tasks.
package events
