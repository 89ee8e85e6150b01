// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package models defines the domain entities of a user's knowledge galaxy:
// categories, books, bridges, favorites and notifications, plus the shared
// API response envelope.
//
// All entities are scoped to exactly one user record. Nothing in this
// package reasons about cross-user data; ownership and write serialization
// live in the graph store.
package models
