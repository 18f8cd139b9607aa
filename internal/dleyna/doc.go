// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package dleyna is a typed client for dLeyna media servers on the session
// bus. It turns the raw property bags returned by the server manager and its
// media objects into Server and Object records and exposes every remote
// operation as a future.
package dleyna
