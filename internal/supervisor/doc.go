// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package supervisor provides Suture-based process supervision for the
// Galaktika server. The tree isolates the messaging layer (the event
// pipeline) from the api layer (the HTTP server) so a crash in one does
// not restart the other.
package supervisor
