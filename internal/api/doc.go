// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It adapts external clients to the internal
// services: HTTP concerns stop here, business operations start below.
package api
