// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package api provides the HTTP serving surface for Galaktika using the
// Chi router. Every data route operates on the authenticated user's own
// galaxy document; the user identity comes from the bearer token subject.
package api
