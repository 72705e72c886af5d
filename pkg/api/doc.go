// Package api is the HTTP surface of the service: login, registration, email
// confirmation, and password recovery endpoints, with typed domain errors
// mapped onto status codes.
package api
