// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and the store
// interfaces (defined in internal/store) to fulfill application features.
//
// The place service is the heart of this layer: it owns the transactional
// dual-write protocol that keeps the places collection and each user's
// membership list consistent, the ownership checks on mutation, and the
// translation of store and collaborator failures into service-level errors
// that the API layer maps to responses.
package service
