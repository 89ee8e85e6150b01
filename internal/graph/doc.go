// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package graph owns a user's knowledge galaxy: the per-user document store
// holding categories, bridges, favorites and the notification log, plus the
// bridge candidate selector.
//
// # Store contract
//
// Every mutation is applied to the user's whole galaxy document atomically,
// so readers never observe a partial graph state. Mutations for the same
// user are serialized; the read-modify-write sequences built on Update
// (notably the achievement check in the notify package) therefore cannot
// race against a concurrent book add for the same user. Different users
// proceed fully in parallel.
//
// # Bridge selection
//
// The selector proposes up to two categories eligible for a new thematic
// bridge. Absence of a viable pair is the common case and is reported as a
// plain "no candidates" result, never an error.
package graph
